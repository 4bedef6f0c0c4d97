package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roguepikachu/reviewsite/internal/apperror"
	"github.com/roguepikachu/reviewsite/pkg"
	"github.com/roguepikachu/reviewsite/pkg/logger"
)

// writeError maps the service error taxonomy onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	_ = c.Error(err)
	var status int
	var body pkg.ErrorResponse
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
		body = pkg.NewErrorResponse("bad_request", "invalid request", err.Error())
		body.Error.Field = apperror.FieldOf(err)
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
		body = pkg.NewErrorResponse("not_found", "not found", err.Error())
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
		body = pkg.NewErrorResponse("conflict", "concurrent update, try again", "")
	default:
		logger.Error(ctx, "internal error: %s", err.Error())
		status = http.StatusInternalServerError
		body = pkg.NewErrorResponse("internal_error", "internal server error", "")
	}
	c.JSON(status, body)
}
