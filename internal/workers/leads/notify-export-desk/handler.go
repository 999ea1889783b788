// Package notifyexportdesk tells the export desk about a new lead: an SES
// email for every lead and an SNS text for high-intent chat leads.
package notifyexportdesk

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "export-assistant/internal/common/errors"
	"export-assistant/internal/common/logger"
	"export-assistant/internal/common/metrics"
	"export-assistant/internal/models"
	"export-assistant/internal/workers/leads/followup"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "notify-export-desk"

// maxSMSLength is one SMS segment, in characters.
const maxSMSLength = 160

type Handler struct {
	config *Config
	mailer Mailer
	texter Texter
	errors *apperrors.JobErrorHandler
	logger logger.Logger
	now    func() time.Time
}

// NewHandler accepts a nil mailer or texter when that channel is disabled.
func NewHandler(cfg *Config, mailer Mailer, texter Texter, log logger.Logger) (*Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if cfg.EmailEnabled && mailer == nil {
		return nil, fmt.Errorf("%s: email enabled without a mailer", TaskType)
	}
	if cfg.SMSEnabled && texter == nil {
		return nil, fmt.Errorf("%s: sms enabled without a texter", TaskType)
	}
	log = log.With(map[string]interface{}{"worker": TaskType})
	return &Handler{
		config: cfg,
		mailer: mailer,
		texter: texter,
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
	var draft draftVariables
	if err := job.GetVariablesAs(&draft); err != nil {
		h.logger.WithError(err).Warn("quotation draft unreadable", map[string]interface{}{"leadId": input.LeadID})
	}

	output, err := h.Execute(ctx, input, draft.QuotationDraft)
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

// Execute sends the desk notifications. Only an email failure fails the
// job; a retry would otherwise repeat a delivered email.
func (h *Handler) Execute(ctx context.Context, input models.FollowUpVariables, quotationDraft string) (*Output, error) {
	out := &Output{NotifiedAt: h.now().UTC()}

	if h.config.EmailEnabled {
		id, err := h.mailer.Send(ctx, h.config.DeskEmail, input.Email, emailSubject(input), emailBody(input, quotationDraft))
		if err != nil {
			return nil, apperrors.NewNotificationSendFailedError("email", err)
		}
		out.EmailMessageID = id
		out.DeskNotified = true
	}

	if h.config.SMSEnabled && input.HighIntent {
		id, err := h.texter.Send(ctx, h.config.DeskPhone, smsBody(input))
		if err != nil {
			h.logger.WithError(err).Warn("desk sms not sent", map[string]interface{}{"leadId": input.LeadID})
			out.SMSError = err.Error()
		} else {
			out.SMSMessageID = id
			out.DeskNotified = true
		}
	}

	h.logger.Info("export desk notified", map[string]interface{}{
		"leadId":   input.LeadID,
		"email":    out.EmailMessageID != "",
		"sms":      out.SMSMessageID != "",
		"notified": out.DeskNotified,
	})
	return out, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, followup.Code(err)).Inc()
	h.errors.Handle(ctx, client, job, err)
}

func emailSubject(input models.FollowUpVariables) string {
	if input.HighIntent {
		return fmt.Sprintf("[Chat lead] %s wants a quotation", input.Name)
	}
	return fmt.Sprintf("[Inquiry] %s", input.Name)
}

func emailBody(input models.FollowUpVariables, quotationDraft string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lead: %s\n", input.LeadID)
	fmt.Fprintf(&b, "Name: %s\n", input.Name)
	fmt.Fprintf(&b, "Email: %s\n", input.Email)
	if input.Company != "" {
		fmt.Fprintf(&b, "Company: %s\n", input.Company)
	}
	if input.Country != "" {
		fmt.Fprintf(&b, "Country: %s\n", input.Country)
	}
	fmt.Fprintf(&b, "Source: %s\n\n", input.Source)
	fmt.Fprintf(&b, "Requirement:\n%s\n", input.Requirement)
	if quotationDraft != "" {
		fmt.Fprintf(&b, "\nSuggested reply:\n%s\n", quotationDraft)
	}
	return b.String()
}

func smsBody(input models.FollowUpVariables) string {
	msg := fmt.Sprintf("New chat lead %s <%s>: %s", input.Name, input.Email, input.Requirement)
	if r := []rune(msg); len(r) > maxSMSLength {
		msg = string(r[:maxSMSLength-3]) + "..."
	}
	return msg
}
