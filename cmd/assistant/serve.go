package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	awsclient "export-assistant/internal/common/aws"
	"export-assistant/internal/common/camunda"
	"export-assistant/internal/common/config"
	"export-assistant/internal/common/zoho"
	"export-assistant/internal/server"
	draftquotation "export-assistant/internal/workers/leads/draft-quotation"
	notifyexportdesk "export-assistant/internal/workers/leads/notify-export-desk"
	syncleadcrm "export-assistant/internal/workers/leads/sync-lead-crm"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const sessionSweepInterval = time.Minute

var (
	serveAddr   string
	withWorkers bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the lead follow-up workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				log.Warn("close backends", map[string]interface{}{"error": err.Error()})
			}
		}()

		if err := a.catalog.Seed(ctx, false); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		if a.index != nil {
			if err := reindex(ctx, a.catalog, a.index); err != nil {
				// Search falls back to the in-process filter.
				log.Warn("initial catalog indexing failed", map[string]interface{}{"error": err.Error()})
			}
		}

		var workers []*camunda.Worker
		if withWorkers && a.zeebe != nil {
			workers, err = startWorkers(ctx, a, cfg)
			if err != nil {
				return err
			}
		}
		defer func() {
			for _, w := range workers {
				w.Stop()
			}
		}()

		addr := cfg.Server.Address
		if serveAddr != "" {
			addr = serveAddr
		}
		deps := a.serverDeps(cfg)
		srv := server.New(deps)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.Run(gctx, addr,
				config.GetDuration(cfg.Server.ReadTimeout),
				config.GetDuration(cfg.Server.WriteTimeout))
		})
		g.Go(func() error {
			return deps.Sessions.Run(gctx, sessionSweepInterval)
		})

		log.Info("assistant started", map[string]interface{}{
			"address": addr,
			"storage": cfg.Storage.Backend,
			"workers": len(workers),
		})
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.address)")
	serveCmd.Flags().BoolVar(&withWorkers, "workers", true, "run the Zeebe job workers when camunda is enabled")
	rootCmd.AddCommand(serveCmd)
}

// startWorkers opens a job worker for every enabled task type.
func startWorkers(ctx context.Context, a *app, cfg *config.Config) ([]*camunda.Worker, error) {
	zb := a.zeebe.Zeebe()
	var started []*camunda.Worker
	abort := func(err error) ([]*camunda.Worker, error) {
		for _, w := range started {
			w.Stop()
		}
		return nil, err
	}

	if dqCfg := draftquotation.ConfigFromApp(cfg); dqCfg.Enabled {
		h, err := draftquotation.NewHandler(dqCfg, a.collab, log)
		if err != nil {
			return abort(err)
		}
		started = append(started, camunda.StartWorker(zb, draftquotation.TaskType, dqCfg.MaxJobsActive, h, log))
	}

	if ndCfg := notifyexportdesk.ConfigFromApp(cfg); ndCfg.Enabled {
		var mailer notifyexportdesk.Mailer
		var texter notifyexportdesk.Texter
		if ndCfg.EmailEnabled || ndCfg.SMSEnabled {
			awsCfg, err := awsclient.LoadConfig(ctx, cfg.Integrations.AWS.Region)
			if err != nil {
				return abort(fmt.Errorf("load aws config: %w", err))
			}
			if ndCfg.EmailEnabled {
				mailer = awsclient.NewMailer(awsclient.NewSESFromConfig(awsCfg), cfg.Integrations.AWS.SES.FromEmail)
			}
			if ndCfg.SMSEnabled {
				texter = awsclient.NewTexter(awsclient.NewSNSFromConfig(awsCfg), cfg.Integrations.AWS.SNS.DefaultSMSSenderID)
			}
		}
		h, err := notifyexportdesk.NewHandler(ndCfg, mailer, texter, log)
		if err != nil {
			return abort(err)
		}
		started = append(started, camunda.StartWorker(zb, notifyexportdesk.TaskType, ndCfg.MaxJobsActive, h, log))
	}

	if crmCfg := syncleadcrm.ConfigFromApp(cfg); crmCfg.Enabled {
		var crm syncleadcrm.CRM
		if crmCfg.CRMEnabled {
			zc := cfg.Integrations.Zoho
			crm = zoho.NewCRMClient(zc.BaseURL, zc.AuthToken, crmCfg.Timeout)
		}
		h, err := syncleadcrm.NewHandler(crmCfg, crm, log)
		if err != nil {
			return abort(err)
		}
		started = append(started, camunda.StartWorker(zb, syncleadcrm.TaskType, crmCfg.MaxJobsActive, h, log))
	}

	return started, nil
}
