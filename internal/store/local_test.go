package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxkshit04/nightpulse/internal/models"
	"github.com/rxkshit04/nightpulse/internal/repository"
)

func setupLocal(t *testing.T) (*repository.SQLiteDB, *Local) {
	db, err := repository.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, NewLocal(db, "alerts")
}

// failingDocs fails every call.
type failingDocs struct{}

func (failingDocs) List(ctx context.Context, collection string) ([]repository.Document, error) {
	return nil, errors.New("disk unplugged")
}

func (failingDocs) Add(ctx context.Context, collection string, data json.RawMessage) (string, error) {
	return "", errors.New("disk unplugged")
}

func (failingDocs) Delete(ctx context.Context, collection, id string) error {
	return errors.New("disk unplugged")
}

func (failingDocs) Close() error { return nil }

func TestLocal_CreateThenList(t *testing.T) {
	_, client := setupLocal(t)
	ctx := context.Background()

	ts := time.Date(2026, 10, 18, 21, 30, 0, 0, time.UTC)
	created, err := client.Create(ctx, models.Draft{
		Title:     "Power cut on 5th",
		Category:  models.CategoryPowerOutage,
		Lat:       12.9,
		Lng:       77.6,
		Timestamp: ts,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	alerts, err := client.List(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	got := alerts[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Power cut on 5th", got.Title)
	assert.Equal(t, models.CategoryPowerOutage, got.Category)
	assert.Equal(t, models.Coordinate(12.9), got.Lat)
	assert.Equal(t, models.Coordinate(77.6), got.Lng)
	assert.True(t, ts.Equal(got.Timestamp))
}

func TestLocal_ListDecodesLegacyDocuments(t *testing.T) {
	db, client := setupLocal(t)
	ctx := context.Background()

	_, err := db.Add(ctx, "alerts", json.RawMessage(`{"title":"old","lat":"12.5","lng":"77.25","category":"Tornado"}`))
	require.NoError(t, err)

	alerts, err := client.List(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.Coordinate(12.5), alerts[0].Lat)
	assert.Equal(t, models.Coordinate(77.25), alerts[0].Lng)
	assert.Equal(t, models.Category("Tornado"), alerts[0].Category)
}

func TestLocal_ListKeepsMalformedDocuments(t *testing.T) {
	db, client := setupLocal(t)
	ctx := context.Background()

	docs := []string{
		`{"title":"good","category":"Fire","lat":12.5,"lng":77.25}`,
		`{"title":"other client","lat":"north","lng":2}`,
		`{"title":5,"description":"numeric title","timestamp":"yesterday"}`,
	}
	for _, d := range docs {
		_, err := db.Add(ctx, "alerts", json.RawMessage(d))
		require.NoError(t, err)
	}

	alerts, err := client.List(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 3)

	assert.Equal(t, "good", alerts[0].Title)
	assert.Equal(t, models.Coordinate(12.5), alerts[0].Lat)

	assert.Equal(t, "other client", alerts[1].Title)
	assert.Equal(t, models.Coordinate(0), alerts[1].Lat, "bad field is zeroed")
	assert.Equal(t, models.Coordinate(2), alerts[1].Lng)

	assert.Empty(t, alerts[2].Title)
	assert.Equal(t, "numeric title", alerts[2].Description)
	assert.True(t, alerts[2].Timestamp.IsZero())
	assert.NotEmpty(t, alerts[2].ID)
}

func TestLocal_Remove(t *testing.T) {
	_, client := setupLocal(t)
	ctx := context.Background()

	created, err := client.Create(ctx, models.Draft{Title: "Flooded underpass", Category: models.CategoryFlood})
	require.NoError(t, err)

	require.NoError(t, client.Remove(ctx, created.ID))

	alerts, err := client.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, alerts)

	err = client.Remove(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrStoreUnavailable)
}

func TestLocal_Unavailable(t *testing.T) {
	client := NewLocal(failingDocs{}, "alerts")
	ctx := context.Background()

	_, err := client.List(ctx)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "disk unplugged")

	_, err = client.Create(ctx, models.Draft{Title: "x"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	err = client.Remove(ctx, "abc")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
