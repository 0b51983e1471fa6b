package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rxkshit04/nightpulse/internal/geocode"
	"github.com/rxkshit04/nightpulse/internal/presentation"
	"github.com/rxkshit04/nightpulse/internal/repository"
	"github.com/rxkshit04/nightpulse/internal/session"
	"github.com/rxkshit04/nightpulse/internal/store"
)

const banner = "NightPulse Backend Running"

type HandlerConfig struct {
	Collection string
	GeocodeRPS int
}

type Handler struct {
	docs       repository.DocumentStore
	alerts     *store.Local
	geocoder   geocode.Geocoder
	sessions   *session.Manager
	collection string
	geocodeRPS int
}

// NewHandler wires the HTTP surface. A nil geocoder or session manager
// leaves the corresponding routes unregistered.
func NewHandler(docs repository.DocumentStore, geocoder geocode.Geocoder, sessions *session.Manager, cfg HandlerConfig) *Handler {
	return &Handler{
		docs:       docs,
		alerts:     store.NewLocal(docs, cfg.Collection),
		geocoder:   geocoder,
		sessions:   sessions,
		collection: cfg.Collection,
		geocodeRPS: cfg.GeocodeRPS,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.root)
	r.GET("/health", h.health)

	r.GET("/api/alerts", h.listAlerts)
	r.GET("/api/alerts/geojson", h.alertsGeoJSON)
	r.POST("/api/alerts", h.createAlert)
	r.DELETE("/api/alerts/:id", h.deleteAlert)

	if h.geocoder != nil {
		rps := h.geocodeRPS
		if rps < 1 {
			rps = 1
		}
		r.GET("/api/geocode", RateLimitMiddleware(rps), h.geocode)
	}

	if h.sessions != nil {
		h.registerSessionRoutes(r)
	}
}

func (h *Handler) root(c *gin.Context) {
	c.String(http.StatusOK, banner)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) listAlerts(c *gin.Context) {
	docs, err := h.docs.List(c.Request.Context(), h.collection)
	if err != nil {
		slog.Error("error listing alerts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch alerts",
		})
		return
	}

	out := make([]any, 0, len(docs))
	for _, d := range docs {
		merged, err := d.Merged()
		if err != nil {
			slog.Warn("skipping malformed document", "id", d.ID, "error", err)
			continue
		}
		out = append(out, merged)
	}

	c.JSON(http.StatusOK, out)
}

func (h *Handler) alertsGeoJSON(c *gin.Context) {
	alerts, err := h.alerts.List(c.Request.Context())
	if err != nil {
		slog.Error("error listing alerts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch alerts",
		})
		return
	}

	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, presentation.GeoJSON(alerts))
}

func (h *Handler) createAlert(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	id, err := h.docs.Add(c.Request.Context(), h.collection, body)
	if errors.Is(err, repository.ErrInvalidDocument) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		slog.Error("error creating alert", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create alert"})
		return
	}

	merged, err := repository.Document{ID: id, Data: body}.Merged()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode alert"})
		return
	}

	slog.Info("alert stored", "id", id, "collection", h.collection)
	c.Data(http.StatusCreated, "application/json; charset=utf-8", merged)
}

func (h *Handler) deleteAlert(c *gin.Context) {
	id := c.Param("id")

	err := h.docs.Delete(c.Request.Context(), h.collection, id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	if err != nil {
		slog.Error("error deleting alert", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete alert"})
		return
	}

	slog.Info("alert removed", "id", id, "collection", h.collection)
	c.Status(http.StatusNoContent)
}
