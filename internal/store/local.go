package store

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/rxkshit04/nightpulse/internal/models"
	"github.com/rxkshit04/nightpulse/internal/repository"
)

// Local reads and writes a collection of an in-process DocumentStore.
type Local struct {
	docs       repository.DocumentStore
	collection string
}

func NewLocal(docs repository.DocumentStore, collection string) *Local {
	return &Local{
		docs:       docs,
		collection: collection,
	}
}

func (l *Local) List(ctx context.Context) ([]models.Alert, error) {
	docs, err := l.docs.List(ctx, l.collection)
	if err != nil {
		return nil, unavailable("list alerts", err)
	}

	raws := make([]json.RawMessage, 0, len(docs))
	for _, d := range docs {
		merged, err := d.Merged()
		if err != nil {
			slog.Warn("skipping malformed document", "id", d.ID, "error", err)
			continue
		}
		raws = append(raws, merged)
	}

	return decodeAlerts(raws), nil
}

func (l *Local) Create(ctx context.Context, draft models.Draft) (models.Alert, error) {
	body, err := json.Marshal(draft)
	if err != nil {
		return models.Alert{}, unavailable("create alert", err)
	}

	id, err := l.docs.Add(ctx, l.collection, body)
	if err != nil {
		return models.Alert{}, unavailable("create alert", err)
	}

	return fromDraft(id, draft), nil
}

func (l *Local) Remove(ctx context.Context, id string) error {
	err := l.docs.Delete(ctx, l.collection, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return errors.WithMessagef(ErrNotFound, "remove alert %s", id)
	default:
		return unavailable("remove alert", err)
	}
}
