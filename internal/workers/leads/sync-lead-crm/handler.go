// Package syncleadcrm pushes a captured lead into Zoho CRM as a contact,
// reusing an existing contact with the same email.
package syncleadcrm

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	apperrors "export-assistant/internal/common/errors"
	httpclient "export-assistant/internal/common/http"
	"export-assistant/internal/common/logger"
	"export-assistant/internal/common/metrics"
	"export-assistant/internal/common/zoho"
	"export-assistant/internal/models"
	"export-assistant/internal/workers/leads/followup"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "sync-lead-crm"

type Handler struct {
	config *Config
	crm    CRM
	errors *apperrors.JobErrorHandler
	logger logger.Logger
}

func NewHandler(cfg *Config, crm CRM, log logger.Logger) (*Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if cfg.CRMEnabled && crm == nil {
		return nil, fmt.Errorf("%s: crm enabled without a client", TaskType)
	}
	log = log.With(map[string]interface{}{"worker": TaskType})
	return &Handler{
		config: cfg,
		crm:    crm,
		errors: apperrors.NewJobErrorHandler(log),
		logger: log,
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
		h.fail(ctx, client, job, err)
		return
	}

	if err := followup.Complete(ctx, client, job, output, h.logger); err != nil {
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

// Execute looks the lead up by email and creates a contact when none exists.
func (h *Handler) Execute(ctx context.Context, input models.FollowUpVariables) (*Output, error) {
	if !h.config.CRMEnabled {
		return &Output{CRMStatus: StatusSkipped}, nil
	}

	existing, err := h.crm.SearchContacts(ctx, input.Email)
	if err != nil {
		return nil, crmError(err)
	}
	if len(existing) > 0 {
		h.logger.Info("lead already in crm", map[string]interface{}{"leadId": input.LeadID, "contactId": existing[0].ID})
		return &Output{CRMContactID: existing[0].ID, CRMStatus: StatusExisting}, nil
	}

	id, err := h.crm.CreateContact(ctx, toContact(input))
	if err != nil {
		return nil, crmError(err)
	}
	h.logger.Info("crm contact created", map[string]interface{}{"leadId": input.LeadID, "contactId": id})
	return &Output{CRMContactID: id, CRMStatus: StatusCreated}, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, followup.Code(err)).Inc()
	h.errors.Handle(ctx, client, job, err)
}

// crmError marks rejections by the CRM as final; 429, 5xx and transport
// failures stay retryable.
func crmError(err error) *apperrors.StandardError {
	stdErr := apperrors.NewCRMSyncFailedError(err)
	var statusErr *httpclient.StatusError
	if stderrors.As(err, &statusErr) && !statusErr.Temporary() {
		stdErr.Retryable = false
	}
	return stdErr
}

func toContact(input models.FollowUpVariables) *zoho.Contact {
	first, last := splitName(input.Name)
	source := "Website Inquiry"
	if input.Source == models.SourceChat {
		source = "Savita Chatbot"
	}
	return &zoho.Contact{
		Email:       input.Email,
		FirstName:   first,
		LastName:    last,
		Company:     input.Company,
		Country:     input.Country,
		Description: input.Requirement,
		Source:      source,
	}
}

// splitName puts everything after the first word in the last name. A
// single word is used as the last name, which the CRM requires.
func splitName(name string) (first, last string) {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return "", fields[0]
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}
