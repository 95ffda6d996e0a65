package ledger_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lumenfund/pledgeflow/internal/idempotency"
	"github.com/lumenfund/pledgeflow/internal/ledger"
	"github.com/lumenfund/pledgeflow/internal/mlog"
	"github.com/lumenfund/pledgeflow/internal/money"
	"github.com/lumenfund/pledgeflow/internal/outbox"
)

// fakeRepository keeps accounts/entries in memory, guarded by a mutex to
// stand in for row-level locking, while delegating transaction
// bookkeeping to a real *sql.Tx from sqlmock.
type fakeRepository struct {
	db *sql.DB

	mu       sync.Mutex
	accounts map[string]*ledger.Account
	entries  map[uuid.UUID]*ledger.LedgerEntry
}

func newFakeRepository(db *sql.DB) *fakeRepository {
	return &fakeRepository{
		db:       db,
		accounts: map[string]*ledger.Account{},
		entries:  map[uuid.UUID]*ledger.LedgerEntry{},
	}
}

func (f *fakeRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return f.db.BeginTx(ctx, nil)
}

func (f *fakeRepository) InsertAccount(ctx context.Context, tx *sql.Tx, acct *ledger.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.accounts {
		if existing.OwnerRef == acct.OwnerRef {
			return ledger.ErrOwnerAlreadyHasAccount
		}
	}

	cp := *acct
	f.accounts[acct.AccountNumber] = &cp

	return nil
}

func (f *fakeRepository) LoadAccountForUpdate(ctx context.Context, tx *sql.Tx, accountNumber string) (*ledger.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	acct, ok := f.accounts[accountNumber]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}

	cp := *acct

	return &cp, nil
}

func (f *fakeRepository) UpdateAccount(ctx context.Context, tx *sql.Tx, acct *ledger.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := *acct
	f.accounts[acct.AccountNumber] = &cp

	return nil
}

func (f *fakeRepository) InsertEntry(ctx context.Context, tx *sql.Tx, entry *ledger.LedgerEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := *entry
	f.entries[entry.ID] = &cp

	return nil
}

func (f *fakeRepository) UpdateEntry(ctx context.Context, tx *sql.Tx, entry *ledger.LedgerEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := *entry
	f.entries[entry.ID] = &cp

	return nil
}

func (f *fakeRepository) GetEntry(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*ledger.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.entries[id]
	if !ok {
		return nil, ledger.ErrEntryNotFound
	}

	cp := *entry

	return &cp, nil
}

func (f *fakeRepository) sumBalances() money.Amount {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := money.Zero

	for _, acct := range f.accounts {
		total = total.Add(acct.Balance)
	}

	return total
}

type fakeOutbox struct {
	mu       sync.Mutex
	inserted int
}

func (f *fakeOutbox) Insert(ctx context.Context, tx *sql.Tx, rec *outbox.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.inserted++

	return nil
}

func (f *fakeOutbox) ClaimBatch(ctx context.Context, limit int) ([]*outbox.Record, error) {
	return nil, nil
}
func (f *fakeOutbox) MarkPublished(ctx context.Context, id uuid.UUID) error { return nil }
func (f *fakeOutbox) MarkFailed(ctx context.Context, id uuid.UUID, lastErr string) error {
	return nil
}
func (f *fakeOutbox) MarkDLQ(ctx context.Context, id uuid.UUID, lastErr string) error { return nil }
func (f *fakeOutbox) PurgeProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type fakeL1 struct {
	mu   sync.Mutex
	data map[string]*idempotency.Record
}

func (f *fakeL1) Get(ctx context.Context, key string) (*idempotency.Record, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.data[key]

	return rec, ok, nil
}

func (f *fakeL1) Set(ctx context.Context, rec *idempotency.Record, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.data[rec.Key] = rec

	return nil
}

type fakeL2 struct {
	mu   sync.Mutex
	data map[string]*idempotency.Record
}

func (f *fakeL2) Get(ctx context.Context, key string) (*idempotency.Record, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.data[key]

	return rec, ok, nil
}

func (f *fakeL2) InsertTx(ctx context.Context, tx *sql.Tx, rec *idempotency.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.data[rec.Key]; !exists {
		f.data[rec.Key] = rec
	}

	return nil
}

func setupEngine(t *testing.T) (*ledger.Engine, *fakeRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.MatchExpectationsInOrder(false)

	for i := 0; i < 40; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}

	repo := newFakeRepository(db)

	engine := &ledger.Engine{
		Repo:        repo,
		Outbox:      &fakeOutbox{},
		Idempotency: idempotency.New(&fakeL1{data: map[string]*idempotency.Record{}}, &fakeL2{data: map[string]*idempotency.Record{}}),
		MaxTransfer: money.MustFromString("10000.00"),
		Logger:      mlog.NoneLogger{},
	}

	return engine, repo
}

func seedAccount(repo *fakeRepository, number, currency, balance string, status ledger.AccountStatus) {
	repo.accounts[number] = &ledger.Account{
		ID:            uuid.New(),
		AccountNumber: number,
		Currency:      currency,
		Balance:       money.MustFromString(balance),
		Status:        status,
	}
}

func TestEngine_Transfer_MovesBalanceAndConservesValue(t *testing.T) {
	engine, repo := setupEngine(t)

	seedAccount(repo, "acct-A", "USD", "100.00", ledger.AccountActive)
	seedAccount(repo, "acct-B", "USD", "50.00", ledger.AccountActive)

	before := repo.sumBalances()

	result, err := engine.Transfer(context.Background(), ledger.TransferRequest{
		From: "acct-A", To: "acct-B", Amount: money.MustFromString("30.00"), Timestamp: time.Now(),
	})

	require.NoError(t, err)
	require.Equal(t, 200, result.StatusCode)
	require.Equal(t, "completed", result.Body["status"])

	require.True(t, repo.accounts["acct-A"].Balance.Equal(money.MustFromString("70.00")))
	require.True(t, repo.accounts["acct-B"].Balance.Equal(money.MustFromString("80.00")))

	after := repo.sumBalances()
	require.True(t, before.Equal(after), "conservation of value must hold across a transfer")
}

func TestEngine_Transfer_IdempotentReplay(t *testing.T) {
	engine, repo := setupEngine(t)

	seedAccount(repo, "acct-A", "USD", "100.00", ledger.AccountActive)
	seedAccount(repo, "acct-B", "USD", "50.00", ledger.AccountActive)

	req := ledger.TransferRequest{
		From: "acct-A", To: "acct-B", Amount: money.MustFromString("30.00"),
		IdempotencyKey: "fixed-key", Timestamp: time.Now(),
	}

	first, err := engine.Transfer(context.Background(), req)
	require.NoError(t, err)

	second, err := engine.Transfer(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, first.Body, second.Body)
	require.True(t, repo.accounts["acct-A"].Balance.Equal(money.MustFromString("70.00")), "replay must not re-apply the balance change")
}

func TestEngine_Transfer_InsufficientBalanceRejected(t *testing.T) {
	engine, repo := setupEngine(t)

	seedAccount(repo, "acct-A", "USD", "10.00", ledger.AccountActive)
	seedAccount(repo, "acct-B", "USD", "50.00", ledger.AccountActive)

	result, err := engine.Transfer(context.Background(), ledger.TransferRequest{
		From: "acct-A", To: "acct-B", Amount: money.MustFromString("30.00"), Timestamp: time.Now(),
	})

	require.NoError(t, err)
	require.Equal(t, 400, result.StatusCode)
	require.Equal(t, ledger.ReasonInsufficientFunds, result.Body["reason"])
}

func TestEngine_Transfer_CurrencyMismatchRejected(t *testing.T) {
	engine, repo := setupEngine(t)

	seedAccount(repo, "acct-A", "USD", "100.00", ledger.AccountActive)
	seedAccount(repo, "acct-B", "EUR", "50.00", ledger.AccountActive)

	result, err := engine.Transfer(context.Background(), ledger.TransferRequest{
		From: "acct-A", To: "acct-B", Amount: money.MustFromString("30.00"), Timestamp: time.Now(),
	})

	require.NoError(t, err)
	require.Equal(t, 400, result.StatusCode)
	require.Equal(t, ledger.ReasonCurrencyMismatch, result.Body["reason"])
}

func TestEngine_Transfer_SameAccountRejected(t *testing.T) {
	engine, repo := setupEngine(t)

	seedAccount(repo, "acct-A", "USD", "100.00", ledger.AccountActive)

	result, err := engine.Transfer(context.Background(), ledger.TransferRequest{
		From: "acct-A", To: "acct-A", Amount: money.MustFromString("1.00"), Timestamp: time.Now(),
	})

	require.NoError(t, err)
	require.Equal(t, 400, result.StatusCode)
	require.Equal(t, ledger.ReasonSameAccount, result.Body["reason"])
}

func TestEngine_Transfer_ConcurrentBidirectionalTransfersDoNotDeadlock(t *testing.T) {
	engine, repo := setupEngine(t)

	seedAccount(repo, "acct-A", "USD", "100.00", ledger.AccountActive)
	seedAccount(repo, "acct-B", "USD", "100.00", ledger.AccountActive)

	before := repo.sumBalances()

	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()

		_, _ = engine.Transfer(context.Background(), ledger.TransferRequest{
			From: "acct-A", To: "acct-B", Amount: money.MustFromString("10.00"), Timestamp: time.Now(),
		})
	}()

	go func() {
		defer wg.Done()

		_, _ = engine.Transfer(context.Background(), ledger.TransferRequest{
			From: "acct-B", To: "acct-A", Amount: money.MustFromString("5.00"), Timestamp: time.Now().Add(time.Millisecond),
		})
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("transfers deadlocked")
	}

	after := repo.sumBalances()
	require.True(t, before.Equal(after), "conservation of value must hold under concurrent bidirectional transfers")
}

func TestEngine_Deposit_CreditsAccount(t *testing.T) {
	engine, repo := setupEngine(t)

	seedAccount(repo, "acct-A", "USD", "100.00", ledger.AccountActive)

	result, err := engine.Deposit(context.Background(), ledger.SingleAccountRequest{
		AccountNumber: "acct-A", Amount: money.MustFromString("25.00"), Timestamp: time.Now(),
	})

	require.NoError(t, err)
	require.Equal(t, 200, result.StatusCode)
	require.True(t, repo.accounts["acct-A"].Balance.Equal(money.MustFromString("125.00")))
}

func TestEngine_Withdrawal_InsufficientBalanceRejected(t *testing.T) {
	engine, repo := setupEngine(t)

	seedAccount(repo, "acct-A", "USD", "10.00", ledger.AccountActive)

	result, err := engine.Withdrawal(context.Background(), ledger.SingleAccountRequest{
		AccountNumber: "acct-A", Amount: money.MustFromString("25.00"), Timestamp: time.Now(),
	})

	require.NoError(t, err)
	require.Equal(t, 400, result.StatusCode)
	require.Equal(t, ledger.ReasonInsufficientFunds, result.Body["reason"])
}
