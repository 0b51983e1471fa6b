package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rxkshit04/nightpulse/internal/controller"
	"github.com/rxkshit04/nightpulse/internal/location"
	"github.com/rxkshit04/nightpulse/internal/models"
	"github.com/rxkshit04/nightpulse/internal/presentation"
	"github.com/rxkshit04/nightpulse/internal/session"
	"github.com/rxkshit04/nightpulse/internal/store"
)

type positionRequest struct {
	Lat       *float64  `json:"lat" binding:"required"`
	Lng       *float64  `json:"lng" binding:"required"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

type positionErrorRequest struct {
	Code    string `json:"code" binding:"required"`
	Message string `json:"message"`
}

type submitRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type deleteRequest struct {
	ID    string `json:"id" binding:"required"`
	Title string `json:"title"`
}

func (h *Handler) registerSessionRoutes(r *gin.Engine) {
	g := r.Group("/api/sessions")
	g.POST("", h.createSession)

	s := g.Group("/:id", h.loadSession)
	s.GET("", h.getSession)
	s.DELETE("", h.deleteSession)
	s.GET("/events", h.sessionEvents)
	s.POST("/position", h.pushPosition)
	s.POST("/position-error", h.pushPositionError)
	s.POST("/alerts", h.submitAlert)
	s.POST("/delete", h.requestDelete)
	s.POST("/delete/confirm", h.confirmDelete)
	s.POST("/delete/cancel", h.cancelDelete)
}

const sessionKey = "session"

func (h *Handler) loadSession(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.Set(sessionKey, s)
	c.Next()
}

func current(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

func view(s *session.Session) presentation.View {
	return presentation.Render(s.Controller.Snapshot())
}

func (h *Handler) createSession(c *gin.Context) {
	s, err := h.sessions.Create()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": s.ID, "view": view(s)})
}

func (h *Handler) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, view(current(c)))
}

func (h *Handler) deleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil && !errors.Is(err, session.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// sessionEvents streams a view after every controller change as
// Server-Sent Events, starting with the current one.
func (h *Handler) sessionEvents(c *gin.Context) {
	s, release, err := h.sessions.Watch(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	defer release()

	id, updates := s.Controller.Subscribe()
	defer s.Controller.Unsubscribe(id)

	c.Header("Cache-Control", "no-cache")
	c.SSEvent("view", view(s))
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case snap, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("view", presentation.Render(snap))
			return true
		}
	})
}

func (h *Handler) pushPosition(c *gin.Context) {
	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng are required"})
		return
	}

	current(c).Feed.Push(location.Fix{
		Lat:      *req.Lat,
		Lng:      *req.Lng,
		Accuracy: req.Accuracy,
		Time:     req.Timestamp,
	})
	c.Status(http.StatusAccepted)
}

func (h *Handler) pushPositionError(c *gin.Context) {
	var req positionErrorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	current(c).Feed.Fail(location.NewError(location.ParseErrorCode(req.Code), req.Message))
	c.Status(http.StatusAccepted)
}

func (h *Handler) submitAlert(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s := current(c)
	form := models.Form{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Category != "" {
		form.Category = models.ParseCategory(req.Category)
	}

	if err := s.Controller.Submit(c.Request.Context(), form); err != nil {
		respondError(c, s, err)
		return
	}
	c.JSON(http.StatusCreated, view(s))
}

func (h *Handler) requestDelete(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}

	s := current(c)
	s.Controller.RequestDelete(req.ID, req.Title)
	c.JSON(http.StatusOK, view(s))
}

func (h *Handler) confirmDelete(c *gin.Context) {
	s := current(c)
	if err := s.Controller.ConfirmDelete(c.Request.Context()); err != nil {
		respondError(c, s, err)
		return
	}
	c.JSON(http.StatusOK, view(s))
}

func (h *Handler) cancelDelete(c *gin.Context) {
	s := current(c)
	s.Controller.CancelDelete()
	c.JSON(http.StatusOK, view(s))
}

func respondError(c *gin.Context, s *session.Session, err error) {
	c.JSON(errorStatus(err), gin.H{
		"error": err.Error(),
		"view":  view(s),
	})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, controller.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, controller.ErrLocationUnavailable), errors.Is(err, controller.ErrNoPendingDelete):
		return http.StatusConflict
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrStoreUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
