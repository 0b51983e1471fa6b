package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/rxkshit04/nightpulse/internal/models"
)

// HTTPClient talks to the /api/alerts endpoints of a nightpulse server.
type HTTPClient struct {
	client *resty.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &HTTPClient{client: client}
}

func (c *HTTPClient) List(ctx context.Context) ([]models.Alert, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		Get("/api/alerts")
	if err != nil {
		return nil, unavailable("list alerts", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, unavailable("list alerts", statusError(resp))
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(resp.Body(), &raws); err != nil {
		return nil, unavailable("list alerts", errors.Wrap(err, "decode response"))
	}

	return decodeAlerts(raws), nil
}

func (c *HTTPClient) Create(ctx context.Context, draft models.Draft) (models.Alert, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(draft).
		Post("/api/alerts")
	if err != nil {
		return models.Alert{}, unavailable("create alert", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		return models.Alert{}, unavailable("create alert", statusError(resp))
	}

	a, err := decodeAlert(resp.Body())
	if err != nil {
		return models.Alert{}, unavailable("create alert", err)
	}
	if a.ID == "" {
		return models.Alert{}, unavailable("create alert", errors.New("response has no id"))
	}

	return a, nil
}

func (c *HTTPClient) Remove(ctx context.Context, id string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Delete("/api/alerts/{id}")
	if err != nil {
		return unavailable("remove alert", err)
	}

	switch resp.StatusCode() {
	case http.StatusNoContent, http.StatusOK:
		return nil
	case http.StatusNotFound:
		return errors.WithMessagef(ErrNotFound, "remove alert %s", id)
	default:
		return unavailable("remove alert", statusError(resp))
	}
}

func statusError(resp *resty.Response) error {
	return fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode(), resp.Status())
}
