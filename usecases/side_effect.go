package usecases

import (
	"context"

	"github.com/checkmarble/kyc-backend/models"
	"github.com/checkmarble/kyc-backend/utils"
)

type sideEffectMetrics interface {
	SideEffectFailed(name string)
}

// SideEffect runs a secondary write. A failure is logged, reported and counted, then
// handed back as a result: it never becomes the error of the calling operation.
func SideEffect(
	ctx context.Context,
	metrics sideEffectMetrics,
	name string,
	fn func(ctx context.Context) error,
) models.SideEffectResult {
	err := fn(ctx)
	if err != nil {
		utils.LogAndReportSentryWarning(ctx, "non critical write failed", err, "side_effect", name)
		metrics.SideEffectFailed(name)
	}
	return models.SideEffectResult{Name: name, Err: err}
}
