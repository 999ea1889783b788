package main

import (
	"context"
	"errors"
	"fmt"

	"export-assistant/internal/catalog"
	"export-assistant/internal/collaborator"
	"export-assistant/internal/common/config"
	"export-assistant/internal/common/database"
	"export-assistant/internal/leads"
	"export-assistant/internal/models"
)

// errMemoryStorage is returned by one-shot commands that would otherwise
// read or write a throwaway in-process store.
var errMemoryStorage = errors.New("storage.backend is memory, so stored data lives only inside a running serve process; configure the redis backend")

// loadLeads reads the lead list from the shared key-value store, or from
// the postgres mirror when storage is in-process.
func loadLeads(ctx context.Context, cfg *config.Config, clients *database.Clients) ([]models.Inquiry, error) {
	if cfg.Storage.Backend == "redis" {
		return leads.NewStore(newKV(clients, cfg), log).List(ctx)
	}
	if clients.Postgres == nil {
		return nil, errMemoryStorage
	}
	log.Info("reading leads from the postgres mirror", nil)
	return leads.NewPostgresRepository(clients.Postgres.DB).List(ctx)
}

// catalogStorage is the part of the stack the catalog commands need.
type catalogStorage struct {
	clients *database.Clients
	catalog *catalog.Service
	index   *catalog.SearchIndex
}

// openCatalogStorage connects to the shared store and, when enabled, the
// search index. Seeding and indexing never call the AI collaborator.
func openCatalogStorage(ctx context.Context, cfg *config.Config) (*catalogStorage, error) {
	if cfg.Storage.Backend != "redis" {
		return nil, errMemoryStorage
	}
	clients, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open backends: %w", err)
	}
	cs := &catalogStorage{
		clients: clients,
		catalog: catalog.NewService(newKV(clients, cfg), collaborator.FailingStub(collaborator.KindUnavailable), log),
	}
	if clients.Elasticsearch != nil {
		cs.index = catalog.NewSearchIndex(clients.Elasticsearch.Client, cfg.Database.Elasticsearch.ProductIndex, log)
	}
	return cs, nil
}

func (cs *catalogStorage) Close() error {
	return cs.clients.Close()
}
