package idempotency_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenfund/pledgeflow/internal/idempotency"
)

type fakeL1 struct {
	data map[string]*idempotency.Record
	sets int
}

func newFakeL1() *fakeL1 { return &fakeL1{data: map[string]*idempotency.Record{}} }

func (f *fakeL1) Get(ctx context.Context, key string) (*idempotency.Record, bool, error) {
	rec, ok := f.data[key]
	return rec, ok, nil
}

func (f *fakeL1) Set(ctx context.Context, rec *idempotency.Record, ttl time.Duration) error {
	f.sets++
	f.data[rec.Key] = rec
	return nil
}

type fakeL2 struct {
	data    map[string]*idempotency.Record
	inserts int
}

func newFakeL2() *fakeL2 { return &fakeL2{data: map[string]*idempotency.Record{}} }

func (f *fakeL2) Get(ctx context.Context, key string) (*idempotency.Record, bool, error) {
	rec, ok := f.data[key]
	return rec, ok, nil
}

func (f *fakeL2) InsertTx(ctx context.Context, tx *sql.Tx, rec *idempotency.Record) error {
	f.inserts++

	if _, exists := f.data[rec.Key]; exists {
		return nil
	}

	f.data[rec.Key] = rec

	return nil
}

func TestStore_Lookup_MissBothLayers(t *testing.T) {
	store := idempotency.New(newFakeL1(), newFakeL2())

	_, ok, err := store.Lookup(context.Background(), "nope")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Lookup_L1Hit(t *testing.T) {
	l1 := newFakeL1()
	l1.data["k1"] = &idempotency.Record{Key: "k1", StatusCode: 200, ExpiresAt: time.Now().Add(time.Hour)}

	store := idempotency.New(l1, newFakeL2())

	rec, ok, err := store.Lookup(context.Background(), "k1")

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 200, rec.StatusCode)
}

func TestStore_Lookup_L2HitWarmsL1(t *testing.T) {
	l1 := newFakeL1()
	l2 := newFakeL2()
	l2.data["k2"] = &idempotency.Record{Key: "k2", StatusCode: 404, ExpiresAt: time.Now().Add(time.Hour)}

	store := idempotency.New(l1, l2)

	rec, ok, err := store.Lookup(context.Background(), "k2")

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 404, rec.StatusCode)
	assert.Equal(t, 1, l1.sets, "L2 hit should warm L1")
}

func TestStore_Lookup_ExpiredL1FallsThroughToL2(t *testing.T) {
	l1 := newFakeL1()
	l1.data["k3"] = &idempotency.Record{Key: "k3", StatusCode: 200, ExpiresAt: time.Now().Add(-time.Minute)}

	l2 := newFakeL2()
	l2.data["k3"] = &idempotency.Record{Key: "k3", StatusCode: 201, ExpiresAt: time.Now().Add(time.Hour)}

	store := idempotency.New(l1, l2)

	rec, ok, err := store.Lookup(context.Background(), "k3")

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 201, rec.StatusCode)
}

func TestStore_SaveTx_TwoConcurrentWritersBothSucceed(t *testing.T) {
	l2 := newFakeL2()
	store := idempotency.New(newFakeL1(), l2)

	rec1 := &idempotency.Record{Key: "shared", StatusCode: 200}
	rec2 := &idempotency.Record{Key: "shared", StatusCode: 500}

	require.NoError(t, store.SaveTx(context.Background(), nil, rec1))
	require.NoError(t, store.SaveTx(context.Background(), nil, rec2))

	assert.Equal(t, 2, l2.inserts)
	assert.Equal(t, 200, l2.data["shared"].StatusCode, "the first writer's record wins")
}

func TestHashParts_DeterministicAndDistinct(t *testing.T) {
	a := idempotency.HashParts("acct-1", "acct-2", "10.00", "2026-08-01T00:00:00Z")
	b := idempotency.HashParts("acct-1", "acct-2", "10.00", "2026-08-01T00:00:00Z")
	c := idempotency.HashParts("acct-1", "acct-2", "10.01", "2026-08-01T00:00:00Z")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
