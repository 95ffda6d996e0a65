package ledger_test

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/lumenfund/pledgeflow/internal/idempotency"
	"github.com/lumenfund/pledgeflow/internal/ledger"
	"github.com/lumenfund/pledgeflow/internal/mlog"
	"github.com/lumenfund/pledgeflow/internal/money"
)

func setupAccountEngine(t *testing.T) (*ledger.Engine, *fakeRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.MatchExpectationsInOrder(false)

	for i := 0; i < 5; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}

	repo := newFakeRepository(db)

	engine := &ledger.Engine{
		Repo:        repo,
		Outbox:      &fakeOutbox{},
		Idempotency: idempotency.New(&fakeL1{data: map[string]*idempotency.Record{}}, &fakeL2{data: map[string]*idempotency.Record{}}),
		Logger:      mlog.NoneLogger{},
	}

	return engine, repo
}

func TestEngine_OpenAccount_CreatesActiveZeroBalanceAccount(t *testing.T) {
	engine, _ := setupAccountEngine(t)

	acct, err := engine.OpenAccount(context.Background(), ledger.OpenAccountRequest{
		OwnerRef:   "owner-1",
		HolderName: "Ada Lovelace",
		Currency:   "USD",
	})

	require.NoError(t, err)
	require.Equal(t, ledger.AccountActive, acct.Status)
	require.True(t, acct.Balance.Equal(money.Zero))
	require.NotEmpty(t, acct.AccountNumber)
}

func TestEngine_OpenAccount_RejectsDuplicateOwner(t *testing.T) {
	engine, repo := setupAccountEngine(t)

	seedAccount(repo, "acct-existing", "USD", "0.00", ledger.AccountActive)
	repo.accounts["acct-existing"].OwnerRef = "owner-1"

	_, err := engine.OpenAccount(context.Background(), ledger.OpenAccountRequest{
		OwnerRef:   "owner-1",
		HolderName: "Ada Lovelace",
		Currency:   "USD",
	})

	require.ErrorIs(t, err, ledger.ErrOwnerAlreadyHasAccount)
}

func TestEngine_OpenAccount_RejectsBlankHolderName(t *testing.T) {
	engine, _ := setupAccountEngine(t)

	_, err := engine.OpenAccount(context.Background(), ledger.OpenAccountRequest{OwnerRef: "owner-1", Currency: "USD"})

	require.ErrorIs(t, err, ledger.ErrHolderNameRequired)
}
