package kvstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedisStore(t *testing.T, maxValue int) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, "site:", maxValue), mr
}

func TestRedis_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newMiniRedisStore(t, 0)

	_, ok, err := store.Get(ctx, KeyProducts)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, KeyProducts, `[{"id":"M1"}]`))
	raw, err := mr.Get("site:" + KeyProducts)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"M1"}]`, raw)

	v, ok, err := store.Get(ctx, KeyProducts)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"M1"}]`, v)

	require.NoError(t, store.Delete(ctx, KeyProducts))
	assert.False(t, mr.Exists("site:"+KeyProducts))
}

func TestRedis_KeysStripsNamespace(t *testing.T) {
	ctx := context.Background()
	store, mr := newMiniRedisStore(t, 0)
	require.NoError(t, mr.Set("site:savita_products", "[]"))
	require.NoError(t, mr.Set("site:savita_inquiries", "[]"))
	require.NoError(t, mr.Set("other:savita_products", "[]"))

	keys, err := store.Keys(ctx, "savita_")
	require.NoError(t, err)
	assert.Equal(t, []string{"savita_inquiries", "savita_products"}, keys)
}

func TestRedis_ValueLimit(t *testing.T) {
	store, _ := newMiniRedisStore(t, 10)
	err := store.Set(context.Background(), KeyInquiries, strings.Repeat("z", 11))
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestRedis_ServerErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("out of memory maps to quota", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectSet("site:"+KeyInquiries, "[]", 0).
			SetErr(errors.New("OOM command not allowed when used memory > 'maxmemory'."))

		err := NewRedis(db, "site:", 0).Set(ctx, KeyInquiries, "[]")
		assert.ErrorIs(t, err, ErrQuotaExceeded)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other failures are plain errors", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectGet("site:" + KeyProducts).SetErr(errors.New("connection reset"))

		_, _, err := NewRedis(db, "site:", 0).Get(ctx, KeyProducts)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrQuotaExceeded)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
