package geocode

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNominatim_Geocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "MG Road, Bengaluru", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "NightPulse/1.0", r.Header.Get("User-Agent"))
		io.WriteString(w, `[{"lat":"12.9756","lon":"77.6050","display_name":"MG Road"},{"lat":"0","lon":"0"}]`)
	}))
	defer srv.Close()

	g := NewNominatim(srv.URL, "NightPulse/1.0", time.Second)
	c, err := g.Geocode(context.Background(), "MG Road, Bengaluru")
	require.NoError(t, err)
	assert.Equal(t, Coordinates{Lat: 12.9756, Lng: 77.6050}, c)
}

func TestNominatim_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	_, err := NewNominatim(srv.URL, "test", time.Second).Geocode(context.Background(), "nowhere")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestNominatim_UpstreamFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewNominatim(srv.URL, "test", time.Second).Geocode(context.Background(), "x")
	var upstream *UpstreamError
	assert.True(t, errors.As(err, &upstream))

	srv2 := httptest.NewServer(http.NotFoundHandler())
	url := srv2.URL
	srv2.Close()

	_, err = NewNominatim(url, "test", time.Second).Geocode(context.Background(), "x")
	assert.True(t, errors.As(err, &upstream))
}

func TestNominatim_BadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"lat":"north","lon":"1"}]`)
	}))
	defer srv.Close()

	_, err := NewNominatim(srv.URL, "test", time.Second).Geocode(context.Background(), "x")
	require.Error(t, err)
	var upstream *UpstreamError
	assert.False(t, errors.As(err, &upstream))
	assert.False(t, errors.Is(err, ErrNoMatch))
}
