package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tabhome/tabhome/internal/api/models"
	"github.com/tabhome/tabhome/internal/upstream"
)

func (h *Handler) BingWallpaper(c *gin.Context) {
	c.JSON(http.StatusOK, h.upstream.Wallpaper.Fetch(c.Request.Context()))
}

// Weather reports upstream failures with their message, unlike the other proxies.
func (h *Handler) Weather(c *gin.Context) {
	report, err := h.upstream.Weather.Fetch(c.Request.Context(), c.Query("city"))
	if err != nil {
		switch {
		case errors.Is(err, upstream.ErrCityRequired), errors.Is(err, upstream.ErrWeatherUnavailable):
			respondError(c, err)
		default:
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) Location(c *gin.Context) {
	ip := upstream.ClientIP(c.GetHeader("X-Forwarded-For"), c.Request.RemoteAddr)
	c.JSON(http.StatusOK, h.upstream.Location.Lookup(c.Request.Context(), ip))
}

func (h *Handler) SearchSuggestions(c *gin.Context) {
	engine := c.DefaultQuery("engine", "google")
	c.JSON(http.StatusOK, h.upstream.Suggest.Suggestions(c.Request.Context(), c.Query("q"), engine))
}
