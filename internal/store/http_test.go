package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxkshit04/nightpulse/internal/models"
)

func TestHTTPClient_List(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/alerts", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[
			{"id":"b","title":"Second","category":"Flood","lat":1,"lng":2},
			{"id":"a","title":"First","category":"Fire","lat":"3","lng":"4"}
		]`)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, time.Second)
	alerts, err := client.List(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	// order is exactly what the store returned
	assert.Equal(t, "b", alerts[0].ID)
	assert.Equal(t, "a", alerts[1].ID)
	assert.Equal(t, models.Coordinate(3), alerts[1].Lat)
}

func TestHTTPClient_ListEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	alerts, err := NewHTTPClient(srv.URL, time.Second).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)
}

func TestHTTPClient_ListKeepsMalformedDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"id":"a","title":"good","lat":1,"lng":2},
			{"id":"b","title":"other client","lat":"north"},
			"not an object",
			{"id":"c","title":5,"timestamp":"yesterday"}
		]`)
	}))
	defer srv.Close()

	alerts, err := NewHTTPClient(srv.URL, time.Second).List(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 3)
	assert.Equal(t, "a", alerts[0].ID)
	assert.Equal(t, "b", alerts[1].ID)
	assert.Equal(t, models.Coordinate(0), alerts[1].Lat)
	assert.Equal(t, "c", alerts[2].ID)
	assert.Empty(t, alerts[2].Title)
}

func TestSentinelsCarryNoStack(t *testing.T) {
	assert.Equal(t, "store unavailable", fmt.Sprintf("%+v", ErrStoreUnavailable))
	assert.Equal(t, "alert not found", fmt.Sprintf("%+v", ErrNotFound))
}

func TestHTTPClient_ListFailures(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"bad body": func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"not":"a list"}`)
		},
	}

	for name, h := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			_, err := NewHTTPClient(srv.URL, time.Second).List(context.Background())
			assert.ErrorIs(t, err, ErrStoreUnavailable)
		})
	}
}

func TestHTTPClient_ListTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPClient(url, time.Second).List(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestHTTPClient_Create(t *testing.T) {
	var received models.Draft
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"new-id","title":"Power cut on 5th","category":"Power Outage","lat":12.9,"lng":77.6}`)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, time.Second)
	a, err := client.Create(context.Background(), models.Draft{
		Title:    "Power cut on 5th",
		Category: models.CategoryPowerOutage,
		Lat:      12.9,
		Lng:      77.6,
	})
	require.NoError(t, err)
	assert.Equal(t, "new-id", a.ID)
	assert.Equal(t, "Power cut on 5th", received.Title)
	assert.Equal(t, 12.9, received.Lat)
}

func TestHTTPClient_CreateRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"document must be a JSON object"}`)
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL, time.Second).Create(context.Background(), models.Draft{Title: "x"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestHTTPClient_Remove(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		switch r.URL.Path {
		case "/api/alerts/present":
			w.WriteHeader(http.StatusNoContent)
		case "/api/alerts/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, time.Second)
	ctx := context.Background()

	assert.NoError(t, client.Remove(ctx, "present"))
	assert.ErrorIs(t, client.Remove(ctx, "missing"), ErrNotFound)
	assert.ErrorIs(t, client.Remove(ctx, "other"), ErrStoreUnavailable)
}
