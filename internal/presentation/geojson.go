package presentation

import (
	"github.com/rxkshit04/nightpulse/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func GeoJSON(alerts []models.Alert) FeatureCollection {
	features := make([]Feature, 0, len(alerts))

	for _, a := range alerts {
		f := Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{float64(a.Lng), float64(a.Lat)},
			},
			Properties: map[string]any{
				"id":          a.ID,
				"title":       a.Title,
				"description": a.Description,
				"category":    a.Category,
				"icon_key":    IconKey(a.Category),
				"icon_url":    IconURL(a.Category),
				"timestamp":   a.Timestamp,
			},
		}
		features = append(features, f)
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
