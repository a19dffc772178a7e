package usecases

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/checkmarble/kyc-backend/repositories"
	"github.com/checkmarble/kyc-backend/usecases/executor_factory"
)

const livenessProbeTimeout = 2 * time.Second

type livenessRepository interface {
	Liveness(ctx context.Context, exec repositories.Executor) error
}

type LivenessUsecase struct {
	executorFactory    executor_factory.ExecutorFactory
	livenessRepository livenessRepository
}

// Liveness fails when the kyc store does not answer within the probe timeout.
func (u *LivenessUsecase) Liveness(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, livenessProbeTimeout)
	defer cancel()

	if err := u.livenessRepository.Liveness(ctx, u.executorFactory.NewExecutor()); err != nil {
		return errors.Wrap(err, "kyc database is not reachable")
	}
	return nil
}
