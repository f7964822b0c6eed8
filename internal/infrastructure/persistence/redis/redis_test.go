package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshop/internal/domain/book"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
	"github.com/xiebiao/bookshop/pkg/logger"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	store := NewSessionStore(client)

	_, err := store.GetSession(ctx, 1)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	require.NoError(t, store.SaveSession(ctx, 1, map[string]interface{}{"email": "a@example.com", "name": "A"}, time.Hour))
	session, err := store.GetSession(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", session["email"])
	assert.Equal(t, time.Hour, mr.TTL("session:1"))

	mr.FastForward(2 * time.Hour)
	_, err = store.GetSession(ctx, 1)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	require.NoError(t, store.SaveSession(ctx, 1, map[string]interface{}{"email": "a@example.com"}, time.Hour))
	require.NoError(t, store.DeleteSession(ctx, 1))
	assert.False(t, mr.Exists("session:1"))
}

func TestSessionStore_Blacklist(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	store := NewSessionStore(client)

	revoked, err := store.IsInBlacklist(ctx, "token-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.AddToBlacklist(ctx, "token-1", time.Minute))
	revoked, err = store.IsInBlacklist(ctx, "token-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, _ = store.IsInBlacklist(ctx, "token-1")
	assert.False(t, revoked)
}

func TestBookCache(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	cache := NewBookCache(client, 10*time.Minute, logger.Discard())

	assert.Nil(t, cache.Get(ctx, 1))

	categoryID := uint(3)
	b := &book.Book{ID: 1, Title: "Go", ISBN: "isbn-1", Price: decimal.RequireFromString("19.90"), Stock: 4, CategoryID: &categoryID}
	cache.Set(ctx, b)
	assert.Equal(t, 10*time.Minute, mr.TTL("book:1"))

	got := cache.Get(ctx, 1)
	require.NotNil(t, got)
	assert.Equal(t, "Go", got.Title)
	assert.True(t, b.Price.Equal(got.Price))
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, categoryID, *got.CategoryID)

	cache.Set(ctx, &book.Book{ID: 2, Title: "Rust"})
	cache.Invalidate(ctx, 1, 2)
	assert.Nil(t, cache.Get(ctx, 1))
	assert.Nil(t, cache.Get(ctx, 2))
}

func TestBookCache_CorruptedData(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	cache := NewBookCache(client, time.Minute, logger.Discard())

	require.NoError(t, mr.Set("book:1", "{not json"))
	assert.Nil(t, cache.Get(ctx, 1))
}

// Redis不可用时降级: Get返回nil,Set/Invalidate不panic
func TestBookCache_RedisDown(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	cache := NewBookCache(client, time.Minute, logger.Discard())
	mr.Close()

	assert.Nil(t, cache.Get(ctx, 1))
	assert.NotPanics(t, func() {
		cache.Set(ctx, &book.Book{ID: 1})
		cache.Invalidate(ctx, 1)
	})
}
