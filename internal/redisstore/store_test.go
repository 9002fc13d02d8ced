package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type cachedPrompt struct {
	Name    string `json:"name"`
	Version int    `json:"version"`
	Text    string `json:"text"`
}

func setupTestStore(t *testing.T) (*miniredis.Miniredis, *Store) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	config := DefaultConfig()
	config.Addr = mr.Addr()
	config.DefaultTTL = time.Minute

	store, err := NewStore(config, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return mr, store
}

func TestStore_SetGetRoundTrip(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()

	in := cachedPrompt{Name: "greeting", Version: 4, Text: "Hello {{name}}"}
	require.NoError(t, store.SetJSON(ctx, "greeting@production", in, 0))

	var out cachedPrompt
	require.NoError(t, store.GetJSON(ctx, "greeting@production", &out))
	assert.Equal(t, in, out)
}

func TestStore_MissReturnsErrCacheMiss(t *testing.T) {
	_, store := setupTestStore(t)

	var out cachedPrompt
	err := store.GetJSON(context.Background(), "absent", &out)
	assert.True(t, IsCacheMiss(err))
}

func TestStore_TTLExpiry(t *testing.T) {
	mr, store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetJSON(ctx, "greeting", cachedPrompt{Name: "greeting"}, 10*time.Second))

	var out cachedPrompt
	require.NoError(t, store.GetJSON(ctx, "greeting", &out))

	mr.FastForward(11 * time.Second)
	err := store.GetJSON(ctx, "greeting", &out)
	assert.True(t, IsCacheMiss(err), "expired entries behave as misses")
}

func TestStore_Delete(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetJSON(ctx, "a", cachedPrompt{Name: "a"}, 0))
	require.NoError(t, store.SetJSON(ctx, "b", cachedPrompt{Name: "b"}, 0))
	require.NoError(t, store.Delete(ctx, "a", "b"))

	var out cachedPrompt
	assert.True(t, IsCacheMiss(store.GetJSON(ctx, "a", &out)))
	assert.True(t, IsCacheMiss(store.GetJSON(ctx, "b", &out)))
}

func TestStore_ClosedStoreRejectsOperations(t *testing.T) {
	_, store := setupTestStore(t)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "close is idempotent")

	var out cachedPrompt
	assert.Error(t, store.GetJSON(context.Background(), "x", &out))
	assert.Error(t, store.SetJSON(context.Background(), "x", out, 0))
	assert.Error(t, store.Ping(context.Background()))
}
