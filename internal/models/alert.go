package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Category string

const (
	CategoryPowerOutage        Category = "Power Outage"
	CategoryFlood              Category = "Flood"
	CategoryFire               Category = "Fire"
	CategoryRoadHazard         Category = "Road Hazard"
	CategorySuspiciousActivity Category = "Suspicious Activity"
)

// Categories returns the fixed enumeration in display order. The first entry
// is the default for new alerts.
func Categories() []Category {
	return []Category{
		CategoryPowerOutage,
		CategoryFlood,
		CategoryFire,
		CategoryRoadHazard,
		CategorySuspiciousActivity,
	}
}

func DefaultCategory() Category {
	return CategoryPowerOutage
}

func (c Category) Known() bool {
	for _, k := range Categories() {
		if c == k {
			return true
		}
	}
	return false
}

// ParseCategory accepts the display name in any case, or a slug such as
// "road-hazard" / "road_hazard". Unrecognized input is returned unchanged.
func ParseCategory(s string) Category {
	norm := strings.NewReplacer("-", " ", "_", " ").Replace(strings.TrimSpace(s))
	for _, k := range Categories() {
		if strings.EqualFold(norm, string(k)) {
			return k
		}
	}
	return Category(s)
}

// Coordinate is a number that also decodes from a numeric string, since
// older documents in the store carry lat/lng as text.
type Coordinate float64

func (c *Coordinate) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*c = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("invalid coordinate %q: %w", s, err)
		}
		*c = Coordinate(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*c = Coordinate(f)
	return nil
}

type Alert struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    Category   `json:"category"`
	Lat         Coordinate `json:"lat"`
	Lng         Coordinate `json:"lng"`
	Timestamp   time.Time  `json:"timestamp"`
}

// Draft is the payload submitted to the store to create an Alert.
type Draft struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Timestamp   time.Time `json:"timestamp"`
}

type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DeleteConfirmation is inactive when AlertID is empty.
type DeleteConfirmation struct {
	AlertID    string `json:"alert_id,omitempty"`
	AlertTitle string `json:"alert_title,omitempty"`
}

func (d DeleteConfirmation) Pending() bool {
	return d.AlertID != ""
}

// Form holds the submission inputs.
type Form struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
}
