package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tabhome/tabhome/internal/api/models"
)

// GetSettings returns the site settings, creating the defaults on first access.
func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.db.GetSettings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToSettings(*settings))
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var req models.UpdateSettingsRequest
	if err := bindPatch(c, &req); err != nil {
		respondBindError(c, err)
		return
	}

	settings, err := h.db.UpdateSettings(c.Request.Context(), req.ToPatch())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToSettings(*settings))
}
