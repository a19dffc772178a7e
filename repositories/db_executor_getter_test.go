package repositories

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checkmarble/kyc-backend/models"
)

func TestExecutorGetter_Transaction(t *testing.T) {
	t.Run("commit", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE kyc_cases").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()
		// pgx.BeginFunc always rolls back on exit, a closed transaction answers ErrTxClosed
		mock.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

		err = NewExecutorGetter(mock).Transaction(context.Background(), func(tx Executor) error {
			_, err := tx.Exec(context.Background(), "UPDATE kyc_cases SET status = 'ANALYZED'")
			return err
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()
		mock.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

		err = NewExecutorGetter(mock).Transaction(context.Background(), func(tx Executor) error {
			return models.InvalidStateError
		})
		assert.ErrorIs(t, err, models.InvalidStateError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ignored rollback error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()
		mock.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

		err = NewExecutorGetter(mock).Transaction(context.Background(), func(tx Executor) error {
			return models.ErrIgnoreRollBackError
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
