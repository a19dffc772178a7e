package models

import (
	"github.com/cockroachdb/errors"
)

// Base errors, related to default API status codes
var (
	// ValidationError is rendered with the http status code 400
	ValidationError = errors.New("validation error")

	// AuthError is rendered with the http status code 401
	AuthError = errors.New("unauthorized")

	// AuthorizationError is rendered with the http status code 403
	AuthorizationError = errors.New("forbidden")

	// NotFoundError is rendered with the http status code 404
	NotFoundError = errors.New("not found")

	// InvalidStateError is rendered with the http status code 409
	InvalidStateError = errors.New("invalid state")

	// ConflictError is rendered with the http status code 409
	ConflictError = errors.New("duplicate value")

	// UpstreamError is rendered with the http status code 500
	UpstreamError = errors.New("upstream service error")

	// PersistenceError is rendered with the http status code 500
	PersistenceError = errors.New("persistence error")
)

// DB related errors
var ErrIgnoreRollBackError = errors.New("ignore rollback error")

// Blob related errors
var ErrBlobAlreadyExists = errors.Wrap(ConflictError, "blob already exists")

// Authentication related errors
var (
	ErrMissingBearerToken  = errors.Wrap(AuthError, "missing bearer token")
	ErrInvalidToken        = errors.Wrap(AuthError, "invalid token")
	ErrInvalidCredentials  = errors.Wrap(AuthError, "invalid credentials")
	ErrAdminRoleRequired   = errors.Wrap(AuthorizationError, "admin role required")
	ErrUserAlreadyExists   = errors.Wrap(ConflictError, "user already exists")
	ErrNoTokenKeyAvailable = errors.Wrap(AuthError, "no token verification key configured")
)

// Kyc lifecycle related errors
var (
	ErrKycCaseNotFound          = errors.Wrap(NotFoundError, "request not found")
	ErrKycCaseNotInReview       = errors.Wrap(NotFoundError, "request not available for review")
	ErrExtractionNotFound       = errors.Wrap(NotFoundError, "extraction not found")
	ErrKycTransitionNotAllowed  = errors.Wrap(InvalidStateError, "transition not allowed")
	ErrKycCaseNotPendingReview  = errors.Wrap(InvalidStateError, "request not in PENDING_REVIEW")
	ErrDocumentAnalysisFailed   = errors.Wrap(UpstreamError, "document analysis failed")
	ErrDocumentAnalysisTimeout  = errors.Wrap(UpstreamError, "document analysis timed out")
	ErrReasoningServiceFailed   = errors.Wrap(UpstreamError, "reasoning service call failed")
	ErrExtractionBlobUnreadable = errors.Wrap(PersistenceError, "extraction blob could not be read")
)
