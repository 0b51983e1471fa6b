// Package store is the client side of the remote alert collection. Callers
// observe mutations only by listing again: Create and Remove never touch any
// locally held list.
package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/rxkshit04/nightpulse/internal/models"
)

type Client interface {
	List(ctx context.Context) ([]models.Alert, error)
	Create(ctx context.Context, draft models.Draft) (models.Alert, error)
	Remove(ctx context.Context, id string) error
}

func unavailable(op string, cause error) error {
	return errors.WithMessagef(ErrStoreUnavailable, "%s: %v", op, cause)
}

// decodeAlert reads one stored document field by field. The store is
// schema-free, so a field of the wrong type is logged and left zero instead
// of hiding the whole record. Only a document that is not an object fails.
func decodeAlert(raw json.RawMessage) (models.Alert, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.Alert{}, errors.Wrap(err, "decode alert")
	}

	id := field[string](fields, "id", "")
	return models.Alert{
		ID:          id,
		Title:       field[string](fields, "title", id),
		Description: field[string](fields, "description", id),
		Category:    field[models.Category](fields, "category", id),
		Lat:         field[models.Coordinate](fields, "lat", id),
		Lng:         field[models.Coordinate](fields, "lng", id),
		Timestamp:   field[time.Time](fields, "timestamp", id),
	}, nil
}

func field[T any](fields map[string]json.RawMessage, name, id string) T {
	var v T
	raw, ok := fields[name]
	if !ok {
		return v
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		slog.Warn("ignoring malformed alert field", "id", id, "field", name, "error", err)
		var zero T
		return zero
	}
	return v
}

// decodeAlerts keeps every document that is a JSON object.
func decodeAlerts(raws []json.RawMessage) []models.Alert {
	alerts := make([]models.Alert, 0, len(raws))
	for i, raw := range raws {
		a, err := decodeAlert(raw)
		if err != nil {
			slog.Warn("skipping malformed alert", "index", i, "error", err)
			continue
		}
		alerts = append(alerts, a)
	}
	return alerts
}

func fromDraft(id string, d models.Draft) models.Alert {
	return models.Alert{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		Lat:         models.Coordinate(d.Lat),
		Lng:         models.Coordinate(d.Lng),
		Timestamp:   d.Timestamp,
	}
}
