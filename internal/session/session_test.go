package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dappbind "github.com/branched-services/go-dappbind"
)

var (
	_ dappbind.SessionStore = (*FileStore)(nil)
	_ dappbind.SessionStore = (*RedisStore)(nil)
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, path, store.Path())

	wallet, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, wallet, "missing file means no session")

	require.NoError(t, store.Save(ctx, "keystore:0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"))
	wallet, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "keystore:0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", wallet)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// a second store on the same file sees the session
	other, err := NewFileStore(path)
	require.NoError(t, err)
	wallet, err = other.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "keystore:0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", wallet)

	require.NoError(t, store.Clear(ctx))
	wallet, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, wallet)

	// clearing twice is fine
	assert.NoError(t, store.Clear(ctx))
}

func TestFileStoreDefaultPath(t *testing.T) {
	store, err := NewFileStore("")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(store.Path()))
	assert.Equal(t, "session", filepath.Base(store.Path()))
	assert.Equal(t, ".dappctl", filepath.Base(filepath.Dir(store.Path())))
}

func TestFileStoreExpandsHome(t *testing.T) {
	store, err := NewFileStore("~/sessions/dappctl")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(store.Path()))
	assert.NotContains(t, store.Path(), "~")
}

func TestNewRedisStoreValidation(t *testing.T) {
	_, err := NewRedisStore(context.Background(), RedisConfig{})
	assert.Error(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = NewRedisStore(ctx, RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestNewRedisStoreWithClientDefaults(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()
	store := NewRedisStoreWithClient(client, "", 0)
	assert.Equal(t, DefaultKey, store.key)
}

// TestRedisStore runs against a real server when REDIS_ADDR is set.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	store, err := NewRedisStore(ctx, RedisConfig{Addr: addr, Key: "dappctl:test:" + t.Name()})
	require.NoError(t, err)
	defer store.Close()
	defer store.Clear(ctx)

	wallet, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, wallet)

	require.NoError(t, store.Save(ctx, "injected"))
	wallet, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "injected", wallet)

	require.NoError(t, store.Clear(ctx))
	wallet, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, wallet)
}
