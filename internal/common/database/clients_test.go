package database

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"export-assistant/internal/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_MemoryBackendOpensNothing(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: "memory"}}

	c, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, c.Redis)
	assert.Nil(t, c.Postgres)
	assert.Nil(t, c.Elasticsearch)
	assert.NoError(t, c.Close())
}

func TestOpen_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{
		Storage:  config.StorageConfig{Backend: "redis"},
		Database: config.DatabaseConfig{Redis: config.RedisConfig{Address: mr.Addr()}},
	}

	c, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, c.Redis)
	assert.NoError(t, c.Redis.Ping(context.Background()))
	assert.NoError(t, c.Close())
}

func TestOpen_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := &config.Config{
		Storage:  config.StorageConfig{Backend: "redis"},
		Database: config.DatabaseConfig{Redis: config.RedisConfig{Address: addr}},
	}
	_, err := Open(context.Background(), cfg)
	assert.ErrorContains(t, err, "redis ping failed")
}

func TestNewElasticsearch(t *testing.T) {
	es, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{"http://127.0.0.1:9200"}})
	require.NoError(t, err)
	assert.NotNil(t, es.Client)
}

func TestElasticsearchPing(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(status)
	}))
	defer srv.Close()

	es, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	assert.NoError(t, es.Ping(context.Background()))

	status = http.StatusUnauthorized
	assert.ErrorContains(t, es.Ping(context.Background()), "401")
}

func TestPostgresCloseWithoutPool(t *testing.T) {
	assert.NoError(t, (&PostgresClient{}).Close())
	assert.NoError(t, (&RedisClient{}).Close())
}
