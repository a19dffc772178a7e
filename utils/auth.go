package utils

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/checkmarble/kyc-backend/models"
)

type tokenValidator interface {
	Validate(ctx context.Context, token string) (models.Credentials, error)
}

type Authentication struct {
	Validator tokenValidator
}

func NewAuthentication(validator tokenValidator) Authentication {
	return Authentication{
		Validator: validator,
	}
}

// Middleware requires a valid bearer token and stores the resulting credentials in the request context.
func (a Authentication) Middleware(c *gin.Context) {
	ctx := c.Request.Context()

	token, err := ParseAuthorizationBearerHeader(c.Request.Header)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err)
		return
	}
	if token == "" {
		abortWithError(c, http.StatusUnauthorized, models.ErrMissingBearerToken)
		return
	}

	credentials, err := a.Validator.Validate(ctx, token)
	if err != nil {
		if errors.Is(err, models.AuthError) {
			abortWithError(c, http.StatusUnauthorized, err)
			return
		}
		LogAndReportSentryError(ctx, errors.Wrap(err, "error while validating token"))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	newContext := StoreCredentialsInContext(ctx, credentials)
	logger := LoggerFromContext(newContext).With(slog.String("actor", credentials.Actor))
	c.Request = c.Request.WithContext(StoreLoggerInContext(newContext, logger))
	c.Next()
}

// RequireAdmin must run after Middleware
func RequireAdmin(c *gin.Context) {
	credentials, found := CredentialsFromCtx(c.Request.Context())
	if !found {
		abortWithError(c, http.StatusUnauthorized, models.ErrMissingBearerToken)
		return
	}
	if !credentials.IsAdmin {
		abortWithError(c, http.StatusForbidden, models.ErrAdminRoleRequired)
		return
	}
	c.Next()
}

func abortWithError(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func ParseAuthorizationBearerHeader(header http.Header) (string, error) {
	authorization := header.Get("Authorization")
	if authorization == "" {
		return "", nil
	}

	token, found := strings.CutPrefix(authorization, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		return "", errors.Wrap(models.AuthError, "malformed authorization header")
	}
	return strings.TrimSpace(token), nil
}
