package outbox_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bxcodec/dbresolver/v2"
	"github.com/stretchr/testify/require"

	"github.com/lumenfund/pledgeflow/internal/outbox"
)

func TestPostgresRepository_ClaimBatch_ReclaimsFailedAndStaleProcessingRows(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db := dbresolver.New(dbresolver.WithPrimaryDBs(sqlDB))
	repo := outbox.NewPostgresRepository(db)

	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "aggregate_ref", "event_kind", "payload", "status",
		"retry_count", "max_retries", "created_at", "updated_at",
	}).
		AddRow("11111111-1111-1111-1111-111111111111", "pledge-1", "DonationCreated", []byte(`{}`), "PENDING", 0, 10, now, now).
		AddRow("22222222-2222-2222-2222-222222222222", "pledge-2", "DonationCreated", []byte(`{}`), "FAILED", 1, 10, now, now).
		AddRow("33333333-3333-3333-3333-333333333333", "pledge-3", "DonationCreated", []byte(`{}`), "PROCESSING", 0, 10, now, now)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM outbox WHERE retry_count < max_retries AND \(status IN \(\$1, \$2\) OR \(status = \$3 AND updated_at < \$4\)\) ORDER BY created_at ASC LIMIT \$5 FOR UPDATE SKIP LOCKED`).
		WithArgs("PENDING", "FAILED", "PROCESSING", sqlmock.AnyArg(), 100).
		WillReturnRows(rows)
	mock.ExpectExec(`UPDATE outbox SET status = \$1, updated_at = now\(\) WHERE id = \$2`).
		WithArgs("PROCESSING", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE outbox SET status = \$1, updated_at = now\(\) WHERE id = \$2`).
		WithArgs("PROCESSING", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE outbox SET status = \$1, updated_at = now\(\) WHERE id = \$2`).
		WithArgs("PROCESSING", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	batch, err := repo.ClaimBatch(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, batch, 3, "PENDING, FAILED, and stale PROCESSING rows must all be reclaimable")

	for _, rec := range batch {
		require.Equal(t, outbox.StatusProcessing, rec.Status)
	}

	require.NoError(t, mock.ExpectationsWereMet())
}
