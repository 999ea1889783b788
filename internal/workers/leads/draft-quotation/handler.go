// Package draftquotation drafts the export quotation email for a new lead.
package draftquotation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"export-assistant/internal/admin"
	"export-assistant/internal/collaborator"
	apperrors "export-assistant/internal/common/errors"
	"export-assistant/internal/common/logger"
	"export-assistant/internal/common/metrics"
	"export-assistant/internal/models"
	"export-assistant/internal/workers/leads/followup"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "draft-quotation"

// minDraftLength rejects drafts too short to be an email.
const minDraftLength = 40

type Handler struct {
	config *Config
	collab collaborator.Collaborator
	errors *apperrors.JobErrorHandler
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(cfg *Config, collab collaborator.Collaborator, log logger.Logger) (*Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	log = log.With(map[string]interface{}{"worker": TaskType})
	return &Handler{
		config: cfg,
		collab: collab,
		errors: apperrors.NewJobErrorHandler(log),
		logger: log,
		now:    time.Now,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := followup.ParseVariables(job)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		// The last attempt and non-retryable failures still hand the desk
		// a reply to send.
		if !apperrors.AsStandard(err).Retryable || job.GetRetries() <= 1 {
			h.logger.WithError(err).Warn("quotation draft replaced by fallback", map[string]interface{}{
				"leadId": input.LeadID,
				"jobKey": job.GetKey(),
			})
			output = &Output{QuotationDraft: admin.FallbackQuotation, DraftedAt: h.now().UTC(), Fallback: true}
		} else {
			h.fail(ctx, client, job, err)
			return
		}
	}

	if err := followup.Complete(ctx, client, job, output, h.logger); err != nil {
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

// Execute asks the collaborator for a quotation follow-up email.
func (h *Handler) Execute(ctx context.Context, input models.FollowUpVariables) (*Output, error) {
	prompt := admin.QuotationPrompt(models.Inquiry{
		Name:    input.Name,
		Company: input.Company,
		Message: input.Requirement,
	})

	draft, err := h.collab.GenerateText(ctx, prompt, collaborator.TextOptions{})
	if err != nil {
		return nil, collaborator.StandardError(err)
	}
	draft = strings.TrimSpace(draft)
	if len(draft) < minDraftLength {
		return nil, apperrors.NewQuotationDraftFailedError(input.LeadID, fmt.Sprintf("draft of %d characters", len(draft)))
	}

	h.logger.Info("quotation drafted", map[string]interface{}{"leadId": input.LeadID, "length": len(draft)})
	return &Output{QuotationDraft: draft, DraftedAt: h.now().UTC()}, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, followup.Code(err)).Inc()
	h.errors.Handle(ctx, client, job, err)
}
