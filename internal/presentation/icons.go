package presentation

import "github.com/rxkshit04/nightpulse/internal/models"

const UserIconURL = "/icons/gps.png"

var iconURLs = map[models.Category]string{
	models.CategoryPowerOutage:        "/icons/fuse-box.png",
	models.CategoryFlood:              "/icons/flood.png",
	models.CategoryFire:               "/icons/fire.png",
	models.CategoryRoadHazard:         "/icons/hazard.png",
	models.CategorySuspiciousActivity: "/icons/suspicious-man.png",
}

var iconNames = map[models.Category]string{
	models.CategoryPowerOutage:        "power-off",
	models.CategoryFlood:              "flood",
	models.CategoryFire:               "local-fire-department",
	models.CategoryRoadHazard:         "traffic",
	models.CategorySuspiciousActivity: "warning",
}

// IconKey is the one place unknown categories fall back to Suspicious
// Activity. Every icon lookup goes through it.
func IconKey(c models.Category) models.Category {
	if c.Known() {
		return c
	}
	return models.CategorySuspiciousActivity
}

// IconURL is the map marker image for a category.
func IconURL(c models.Category) string {
	return iconURLs[IconKey(c)]
}

// IconName is the glyph shown on alert cards.
func IconName(c models.Category) string {
	return iconNames[IconKey(c)]
}
