package api

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/checkmarble/kyc-backend/models"
	"github.com/checkmarble/kyc-backend/utils"
)

const internalServerErrorMessage = "internal server error"

var errorStatusCodes = []struct {
	err    error
	status int
}{
	{models.ValidationError, http.StatusBadRequest},
	{models.AuthError, http.StatusUnauthorized},
	{models.AuthorizationError, http.StatusForbidden},
	{models.NotFoundError, http.StatusNotFound},
	{models.InvalidStateError, http.StatusConflict},
	{models.ConflictError, http.StatusConflict},
}

func errorStatusCode(err error) int {
	for _, e := range errorStatusCodes {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// presentError writes the error body and reports whether there was an error. Client
// errors are rendered as is, server errors only expose their hints.
func presentError(ctx context.Context, c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	_ = c.Error(err)

	status := errorStatusCode(err)
	if status < http.StatusInternalServerError {
		utils.LoggerFromContext(ctx).InfoContext(ctx, "client error", "status", status, "error", err.Error())
		c.JSON(status, gin.H{"error": err.Error()})
		return true
	}

	if errors.Is(err, context.Canceled) {
		utils.LoggerFromContext(ctx).InfoContext(ctx, "request canceled", "error", err.Error())
	} else {
		utils.LogAndReportSentryError(ctx, err)
	}
	message := errors.FlattenHints(err)
	if message == "" {
		message = internalServerErrorMessage
	}
	c.JSON(status, gin.H{"error": message})
	return true
}

func presentBindingError(ctx context.Context, c *gin.Context, err error) {
	presentError(ctx, c, errors.Wrap(models.ValidationError, err.Error()))
}
