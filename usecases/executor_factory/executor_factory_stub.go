package executor_factory

import (
	"context"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/checkmarble/kyc-backend/repositories"
)

// ExecutorFactoryStub runs the usecases against a pgxmock pool, transactions included.
type ExecutorFactoryStub struct {
	Mock pgxmock.PgxPoolIface
}

func NewExecutorFactoryStub() ExecutorFactoryStub {
	pool, _ := pgxmock.NewPool()

	return ExecutorFactoryStub{
		Mock: pool,
	}
}

func (stub ExecutorFactoryStub) NewExecutor() repositories.Executor {
	return stub.Mock
}

func (stub ExecutorFactoryStub) Transaction(ctx context.Context, fn func(tx repositories.Executor) error) error {
	return repositories.NewExecutorGetter(stub.Mock).Transaction(ctx, fn)
}
