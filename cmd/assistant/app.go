package main

import (
	"context"
	"errors"
	"fmt"

	"export-assistant/internal/admin"
	"export-assistant/internal/catalog"
	"export-assistant/internal/chat"
	"export-assistant/internal/collaborator"
	"export-assistant/internal/common/camunda"
	"export-assistant/internal/common/config"
	"export-assistant/internal/common/database"
	"export-assistant/internal/common/observability"
	"export-assistant/internal/inquiry"
	"export-assistant/internal/kvstore"
	"export-assistant/internal/leads"
	"export-assistant/internal/server"
)

// app holds every component built from the configuration. Optional
// backends stay nil when disabled.
type app struct {
	clients *database.Clients
	zeebe   *camunda.Client
	obs     *observability.Observability

	kv      kvstore.Store
	collab  collaborator.Collaborator
	mirror  *leads.PostgresRepository
	leads   *leads.Store
	catalog *catalog.Service
	index   *catalog.SearchIndex
	script  chat.Script
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	clients, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open backends: %w", err)
	}
	a.clients = clients

	a.kv = newKV(clients, cfg)

	if cfg.GenAI.APIKey == "" {
		log.Warn("no genai api key configured, every collaborator call will use its fallback", nil)
		a.collab = collaborator.FailingStub(collaborator.KindUnavailable)
	} else {
		gemini, err := collaborator.NewGemini(ctx, collaborator.GeminiConfig{
			APIKey:         cfg.GenAI.APIKey,
			BaseURL:        cfg.GenAI.BaseURL,
			Timeout:        config.GetDuration(cfg.GenAI.Timeout),
			ChatModel:      cfg.GenAI.ChatModel,
			ReasoningModel: cfg.GenAI.ReasoningModel,
			MapsModel:      cfg.GenAI.MapsModel,
			ImageModel:     cfg.GenAI.ImageModel,
			MaxRetries:     2,
		}, log)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.collab = gemini
	}

	var opts []leads.Option
	if clients.Postgres != nil {
		a.mirror = leads.NewPostgresRepository(clients.Postgres.DB)
		if err := a.mirror.EnsureSchema(ctx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		opts = append(opts, leads.WithMirror(a.mirror))
	}
	if cfg.Camunda.Enabled {
		zc, err := camunda.NewClient(ctx, cfg.Camunda)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("connect zeebe: %w", err)
		}
		a.zeebe = zc
		opts = append(opts, leads.WithSink(camunda.NewProcessStarter(zc, cfg.Camunda.ProcessID, log)))
	}
	a.leads = leads.NewStore(a.kv, log, opts...)

	a.catalog = catalog.NewService(a.kv, a.collab, log)
	if clients.Elasticsearch != nil {
		a.index = catalog.NewSearchIndex(clients.Elasticsearch.Client, cfg.Database.Elasticsearch.ProductIndex, log)
	}

	a.script = chat.DefaultScript()
	a.script.CompanyName = cfg.App.CompanyName
	a.script.ContactPhone = cfg.App.ContactPhone
	a.script.ThinkingBudget = cfg.GenAI.ThinkingBudget

	a.obs = observability.New(cfg.App.Name, observability.Options{
		JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
		SampleRatio:    cfg.Tracing.SampleRatio,
	})
	return a, nil
}

func newKV(clients *database.Clients, cfg *config.Config) kvstore.Store {
	if cfg.Storage.Backend == "redis" {
		return kvstore.NewRedis(clients.Redis.Client, cfg.Storage.KeyPrefix, cfg.Storage.MaxValueBytes)
	}
	return kvstore.NewMemory(cfg.Storage.QuotaBytes)
}

// serverDeps builds the HTTP layer on top of the shared components.
func (a *app) serverDeps(cfg *config.Config) server.Deps {
	deps := server.Deps{
		Chat:           chat.NewController(a.collab, a.leads, a.script, log),
		Sessions:       chat.NewSessions(config.GetDuration(cfg.Server.SessionTTL), a.script.Welcome()),
		Catalog:        a.catalog,
		Inquiries:      inquiry.NewService(a.leads, a.collab, log),
		Admin:          admin.NewService(a.leads, a.collab, cfg.Server.AdminAccessKey, log),
		Logger:         log,
		Observability:  a.obs,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Checks:         map[string]server.HealthCheck{},
	}
	if a.index != nil {
		deps.Index = a.index
		deps.Checks["elasticsearch"] = a.clients.Elasticsearch.Ping
	}
	if a.clients.Redis != nil {
		deps.Checks["redis"] = a.clients.Redis.Ping
	}
	if a.clients.Postgres != nil {
		deps.Checks["postgres"] = a.clients.Postgres.Ping
	}
	if a.zeebe != nil {
		deps.Checks["zeebe"] = a.zeebe.HealthCheck
	}
	return deps
}

func (a *app) Close() error {
	var errs []error
	if a.obs != nil {
		a.obs.Shutdown(context.Background())
	}
	if a.zeebe != nil {
		if err := a.zeebe.Close(); err != nil {
			errs = append(errs, fmt.Errorf("zeebe: %w", err))
		}
	}
	if a.clients != nil {
		if err := a.clients.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
