package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tabhome/tabhome/internal/api/models"
)

func (h *Handler) ListShortcuts(c *gin.Context) {
	shortcuts, err := h.db.ListShortcuts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToShortcuts(shortcuts))
}

func (h *Handler) CreateShortcut(c *gin.Context) {
	var req models.CreateShortcutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	shortcut := req.ToDB()
	if err := h.db.CreateShortcut(c.Request.Context(), &shortcut); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.ToShortcut(shortcut))
}

func (h *Handler) UpdateShortcut(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req models.UpdateShortcutRequest
	if err := bindPatch(c, &req); err != nil {
		respondBindError(c, err)
		return
	}

	shortcut, err := h.db.UpdateShortcut(c.Request.Context(), id, req.ToPatch())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToShortcut(*shortcut))
}

func (h *Handler) DeleteShortcut(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.db.DeleteShortcut(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: models.MsgDeleted})
}
