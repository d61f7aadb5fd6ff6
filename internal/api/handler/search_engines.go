package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tabhome/tabhome/internal/api/models"
)

func (h *Handler) ListSearchEngines(c *gin.Context) {
	engines, err := h.db.ListSearchEngines(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToSearchEngines(engines))
}

func (h *Handler) CreateSearchEngine(c *gin.Context) {
	var req models.CreateSearchEngineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	engine := req.ToDB()
	if err := h.db.CreateSearchEngine(c.Request.Context(), &engine); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.ToSearchEngine(engine))
}

func (h *Handler) UpdateSearchEngine(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req models.UpdateSearchEngineRequest
	if err := bindPatch(c, &req); err != nil {
		respondBindError(c, err)
		return
	}

	engine, err := h.db.UpdateSearchEngine(c.Request.Context(), id, req.ToPatch())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToSearchEngine(*engine))
}

// DeleteSearchEngine removes a user-created engine. Seeded engines are rejected with 400.
func (h *Handler) DeleteSearchEngine(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.db.DeleteSearchEngine(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: models.MsgDeleted})
}
