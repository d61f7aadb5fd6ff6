package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/tabhome/tabhome/internal/api/models"
	"github.com/tabhome/tabhome/internal/auth"
	"github.com/tabhome/tabhome/internal/database"
	"github.com/tabhome/tabhome/internal/upstream"
)

// Handler serves the resource and proxy endpoints.
type Handler struct {
	db       database.DB
	upstream *upstream.Clients
}

func New(db database.DB, clients *upstream.Clients) *Handler {
	return &Handler{
		db:       db,
		upstream: clients,
	}
}

var errInvalidID = errors.New("invalid id")

// parseIDParam reads the :id path parameter. Anything but a positive integer is reported as not found.
func parseIDParam(c *gin.Context) (uint, error) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id64 == 0 {
		return 0, errInvalidID
	}
	id, err := safecast.ToUint(id64)
	if err != nil {
		return 0, errInvalidID
	}
	return id, nil
}

// bindPatch decodes a partial update body. An empty body is an empty patch.
func bindPatch(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// respondError maps err to a status code and writes the error body.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: models.MsgLoginRequired})
	case errors.Is(err, database.ErrProtectedEngine):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: models.MsgProtectedEngine})
	case errors.Is(err, database.ErrInvalidPatch):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, database.ErrNotFound), errors.Is(err, errInvalidID):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: models.MsgNotFound})
	case errors.Is(err, upstream.ErrCityRequired):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: models.MsgCityRequired})
	case errors.Is(err, upstream.ErrWeatherUnavailable):
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: models.MsgWeatherFailed})
	default:
		log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: models.MsgInternalError})
	}
}

// respondBindError writes a 400 for a body that could not be decoded or validated.
func respondBindError(c *gin.Context, err error) {
	log.Debug("invalid request body", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: models.MsgBadRequest})
}
