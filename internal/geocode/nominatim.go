package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

var ErrNoMatch = errors.New("no location found for the address")

// UpstreamError means the geocoding provider could not be reached or
// answered with a non-200 status.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return "geocoding upstream: " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Geocoder interface {
	Geocode(ctx context.Context, address string) (Coordinates, error)
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Nominatim resolves addresses with the OpenStreetMap Nominatim search API,
// keeping only the first match.
type Nominatim struct {
	client *resty.Client
}

func NewNominatim(baseURL, userAgent string, timeout time.Duration) *Nominatim {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")

	return &Nominatim{client: client}
}

func (n *Nominatim) Geocode(ctx context.Context, address string) (Coordinates, error) {
	resp, err := n.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":      address,
			"format": "json",
			"limit":  "1",
		}).
		Get("/search")
	if err != nil {
		return Coordinates{}, &UpstreamError{Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return Coordinates{}, &UpstreamError{
			Err: fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode(), resp.Status()),
		}
	}

	var results []nominatimResult
	if err := json.Unmarshal(resp.Body(), &results); err != nil {
		return Coordinates{}, fmt.Errorf("error decoding geocoding response: %w", err)
	}
	if len(results) == 0 {
		return Coordinates{}, ErrNoMatch
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("error parsing latitude %q: %w", results[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("error parsing longitude %q: %w", results[0].Lon, err)
	}

	return Coordinates{Lat: lat, Lng: lng}, nil
}
