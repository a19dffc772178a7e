package usecases

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/checkmarble/kyc-backend/models"
	"github.com/checkmarble/kyc-backend/repositories"
	"github.com/checkmarble/kyc-backend/usecases/executor_factory"
	"github.com/checkmarble/kyc-backend/utils"
)

type kycLifecycleRepository interface {
	CreateKycCase(ctx context.Context, exec repositories.Executor, kycCase models.KycCase) (models.KycCase, error)
	GetKycCaseById(ctx context.Context, exec repositories.Executor, caseId string) (models.KycCase, error)
	UpdateKycCaseStatus(ctx context.Context, exec repositories.Executor, caseId string,
		from, to models.KycStatus) (bool, error)
	CreateKycStateTransition(ctx context.Context, exec repositories.Executor,
		transition models.StateTransition) (models.StateTransition, error)
}

type kycMetrics interface {
	TransitionRecorded(from, to string)
	UpstreamCallDone(service string, start time.Time, err error)
	SideEffectFailed(name string)
}

// KycLifecycle is the only writer of the case status. Every status change goes with
// its ledger row, in the same transaction.
type KycLifecycle struct {
	transactionFactory executor_factory.TransactionFactory
	repository         kycLifecycleRepository
	metrics            kycMetrics
}

func NewKycLifecycle(
	transactionFactory executor_factory.TransactionFactory,
	repository kycLifecycleRepository,
	metrics kycMetrics,
) KycLifecycle {
	return KycLifecycle{
		transactionFactory: transactionFactory,
		repository:         repository,
		metrics:            metrics,
	}
}

// CreateCase inserts a CREATED case together with its initial ledger row, which has no
// from state.
func (l KycLifecycle) CreateCase(
	ctx context.Context,
	tx repositories.Executor,
	kycCase models.KycCase,
	actor string,
) (models.KycCase, models.StateTransition, error) {
	kycCase.Status = models.KycStatusCreated
	created, err := l.repository.CreateKycCase(ctx, tx, kycCase)
	if err != nil {
		return models.KycCase{}, models.StateTransition{}, errors.Wrap(err, "error creating kyc case")
	}

	transition, err := l.repository.CreateKycStateTransition(ctx, tx, models.StateTransition{
		Id:        uuid.NewString(),
		CaseId:    created.Id,
		FromState: models.KycStatusNone,
		ToState:   models.KycStatusCreated,
		Actor:     actor,
	})
	if err != nil {
		return models.KycCase{}, models.StateTransition{}, errors.Wrap(err, "error recording initial transition")
	}
	return created, transition, nil
}

// Transition moves a case along one edge of the lifecycle. The status update is
// conditional on the expected from state, so a concurrent move makes it fail with an
// InvalidStateError instead of being silently overwritten.
func (l KycLifecycle) Transition(
	ctx context.Context,
	tx repositories.Executor,
	input models.KycTransitionInput,
) (models.StateTransition, error) {
	ctx, span := utils.StartSpan(ctx, "usecases.KycLifecycle.Transition", input.CaseId,
		attribute.String("kyc.from", string(input.From)),
		attribute.String("kyc.to", string(input.To)))
	defer span.End()

	if !models.KycTransitionAllowed(input.From, input.To) {
		return models.StateTransition{}, errors.Wrapf(models.ErrKycTransitionNotAllowed,
			"%s -> %s", input.From, input.To)
	}

	updated, err := l.repository.UpdateKycCaseStatus(ctx, tx, input.CaseId, input.From, input.To)
	if err != nil {
		return models.StateTransition{}, errors.Wrap(err, "error updating kyc case status")
	}
	if !updated {
		current, err := l.repository.GetKycCaseById(ctx, tx, input.CaseId)
		if err != nil {
			return models.StateTransition{}, err
		}
		return models.StateTransition{}, errors.Wrapf(models.InvalidStateError,
			"kyc case %s is %s, expected %s", input.CaseId, current.Status, input.From)
	}

	transition, err := l.repository.CreateKycStateTransition(ctx, tx, models.StateTransition{
		Id:        uuid.NewString(),
		CaseId:    input.CaseId,
		FromState: input.From,
		ToState:   input.To,
		Actor:     input.Actor,
		Reason:    input.Reason,
	})
	if err != nil {
		return models.StateTransition{}, errors.Wrap(err, "error recording state transition")
	}
	return transition, nil
}

// TransitionInTransaction runs a single transition in its own transaction.
func (l KycLifecycle) TransitionInTransaction(ctx context.Context, input models.KycTransitionInput) (models.StateTransition, error) {
	transition, err := executor_factory.TransactionReturnValue(ctx, l.transactionFactory,
		func(tx repositories.Executor) (models.StateTransition, error) {
			return l.Transition(ctx, tx, input)
		})
	if err != nil {
		return models.StateTransition{}, err
	}
	l.RecordCommitted(transition)
	return transition, nil
}

// RecordCommitted counts transitions once their transaction is committed.
func (l KycLifecycle) RecordCommitted(transitions ...models.StateTransition) {
	for _, t := range transitions {
		l.metrics.TransitionRecorded(string(t.FromState), string(t.ToState))
	}
}
