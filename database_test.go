package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseAddWatchlistEntry(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	entry, err := db.AddWatchlistEntry(ctx, "u1", " aapl ", "  Apple Inc.  ")
	require.NoError(t, err)
	assert.Equal(t, "u1", entry.OwnerID)
	assert.Equal(t, "AAPL", entry.Symbol)
	assert.Equal(t, "Apple Inc.", entry.Company)
	assert.False(t, entry.AddedAt.IsZero())

	_, err = db.AddWatchlistEntry(ctx, "u1", "AAPL", "Apple again")
	assert.ErrorIs(t, err, ErrAlreadyInWatchlist)

	// Same symbol for another owner is a different entry.
	_, err = db.AddWatchlistEntry(ctx, "u2", "AAPL", "Apple Inc.")
	require.NoError(t, err)

	entries, err := db.GetWatchlist(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Apple Inc.", entries[0].Company)
}

func TestDatabaseGetWatchlistOrder(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	for _, symbol := range []string{"TSLA", "AAPL", "MSFT"} {
		_, err := db.AddWatchlistEntry(ctx, "u1", symbol, symbol)
		require.NoError(t, err)
	}

	entries, err := db.GetWatchlist(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "TSLA", entries[0].Symbol)
	assert.Equal(t, "AAPL", entries[1].Symbol)
	assert.Equal(t, "MSFT", entries[2].Symbol)

	empty, err := db.GetWatchlist(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDatabaseRemoveWatchlistEntry(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	_, err := db.AddWatchlistEntry(ctx, "u1", "AAPL", "Apple Inc.")
	require.NoError(t, err)
	_, err = db.AddWatchlistEntry(ctx, "u2", "AAPL", "Apple Inc.")
	require.NoError(t, err)

	require.NoError(t, db.RemoveWatchlistEntry(ctx, "u1", "aapl"))
	assert.ErrorIs(t, db.RemoveWatchlistEntry(ctx, "u1", "AAPL"), ErrNotInWatchlist)

	remaining, err := db.GetWatchlist(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	// Removed entries can be added again.
	_, err = db.AddWatchlistEntry(ctx, "u1", "AAPL", "Apple Inc.")
	assert.NoError(t, err)
}

func TestDatabaseGetWatchlistSymbolsByEmail(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	owner, err := db.CreateUser(ctx, "Trader@Example.com", "Trader")
	require.NoError(t, err)
	assert.Equal(t, "trader@example.com", owner.Email)

	for _, symbol := range []string{"NVDA", "AMD"} {
		_, err := db.AddWatchlistEntry(ctx, owner.ID, symbol, "")
		require.NoError(t, err)
	}

	symbols, err := db.GetWatchlistSymbolsByEmail(ctx, "trader@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA", "AMD"}, symbols)

	symbols, err = db.GetWatchlistSymbolsByEmail(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, symbols)

	symbols, err = db.GetWatchlistSymbolsByEmail(ctx, "unknown@example.com")
	require.NoError(t, err)
	assert.NotNil(t, symbols)
	assert.Empty(t, symbols)
}

func TestDatabaseSessions(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	owner, err := db.CreateUser(ctx, "a@example.com", "A")
	require.NoError(t, err)

	token, err := db.CreateSession(ctx, owner.ID, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	resolved, err := db.ResolveSession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, owner, resolved)

	expired, err := db.CreateSession(ctx, owner.ID, -time.Minute)
	require.NoError(t, err)
	_, err = db.ResolveSession(ctx, expired)
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = db.ResolveSession(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = db.ResolveSession(ctx, "")
	assert.ErrorIs(t, err, ErrNoSession)

	orphan, err := db.CreateSession(ctx, "deleted-user", time.Hour)
	require.NoError(t, err)
	_, err = db.ResolveSession(ctx, orphan)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestDatabaseListOwners(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	owners, err := db.ListOwners(ctx)
	require.NoError(t, err)
	assert.Empty(t, owners)

	a, err := db.CreateUser(ctx, "a@example.com", "")
	require.NoError(t, err)
	b, err := db.CreateUser(ctx, "b@example.com", "")
	require.NoError(t, err)

	_, err = db.CreateUser(ctx, "A@example.com", "")
	assert.Error(t, err, "emails are unique")

	owners, err = db.ListOwners(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Owner{a, b}, owners)
}

func TestDatabaseClosed(t *testing.T) {
	db := newTestDatabase(t)
	require.NoError(t, db.Close())

	_, err := db.GetWatchlist(context.Background(), "u1")
	assert.Error(t, err)
}
