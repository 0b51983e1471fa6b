package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rxkshit04/nightpulse/internal/geocode"
)

func (h *Handler) geocode(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Address is required"})
		return
	}

	coords, err := h.geocoder.Geocode(c.Request.Context(), address)
	if err != nil {
		if errors.Is(err, geocode.ErrNoMatch) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No location found for the address"})
			return
		}

		slog.Error("geocoding error", "address", address, "error", err)
		status := http.StatusInternalServerError
		var upstream *geocode.UpstreamError
		if errors.As(err, &upstream) {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": "Geocoding failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, coords)
}
