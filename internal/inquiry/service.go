// Package inquiry accepts contact-form submissions.
package inquiry

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"export-assistant/internal/collaborator"
	apperrors "export-assistant/internal/common/errors"
	"export-assistant/internal/common/logger"
	"export-assistant/internal/common/validation"
	"export-assistant/internal/models"

	"github.com/google/uuid"
)

// MaxAttachmentBytes bounds the decoded size of an attachment.
const MaxAttachmentBytes = 10 * 1024 * 1024

const FallbackAcknowledgement = "Our technical team has received your inquiry. A specialist will review your requirements and provide a detailed quotation shortly."

var formSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["name", "email", "message"],
	"properties": {
		"name":    {"type": "string", "minLength": 1, "maxLength": 200},
		"company": {"type": "string", "maxLength": 200},
		"email":   {"type": "string", "minLength": 3, "maxLength": 320},
		"country": {"type": "string", "maxLength": 100},
		"phone":   {"type": "string", "maxLength": 40},
		"product": {"type": "string", "maxLength": 200},
		"message": {"type": "string", "minLength": 1, "maxLength": 5000},
		"attachment": {
			"type": "object",
			"required": ["name", "data"],
			"properties": {
				"name": {"type": "string", "minLength": 1},
				"type": {"type": "string"},
				"data": {"type": "string", "minLength": 1}
			}
		}
	}
}`)

// Form is a contact-form submission.
type Form struct {
	Name       string             `json:"name"`
	Company    string             `json:"company,omitempty"`
	Email      string             `json:"email"`
	Country    string             `json:"country,omitempty"`
	Phone      string             `json:"phone,omitempty"`
	Product    string             `json:"product,omitempty"`
	Message    string             `json:"message"`
	Attachment *models.Attachment `json:"attachment,omitempty"`
}

// Receipt is returned to the visitor after a successful submission.
type Receipt struct {
	Inquiry         models.Inquiry `json:"inquiry"`
	Acknowledgement string         `json:"acknowledgement"`
}

// Appender persists an inquiry in the shared lead list.
type Appender interface {
	Append(ctx context.Context, inq models.Inquiry) (models.Inquiry, error)
}

type Service struct {
	leads  Appender
	collab collaborator.Collaborator
	logger logger.Logger
}

func NewService(leads Appender, collab collaborator.Collaborator, log logger.Logger) *Service {
	return &Service{
		leads:  leads,
		collab: collab,
		logger: log.With(map[string]interface{}{"component": "inquiry"}),
	}
}

// Submit validates the form, generates the technical acknowledgement and
// persists the inquiry. An acknowledgement failure never blocks the save.
func (s *Service) Submit(ctx context.Context, form Form) (Receipt, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)
	form.Message = strings.TrimSpace(form.Message)
	if err := Validate(form); err != nil {
		return Receipt{}, err
	}

	ack := s.acknowledge(ctx, form)

	inq, err := s.leads.Append(ctx, models.Inquiry{
		ID:         uuid.NewString(),
		Kind:       models.KindContactForm,
		Name:       form.Name,
		Email:      form.Email,
		Company:    form.Company,
		Country:    form.Country,
		Phone:      form.Phone,
		Product:    form.Product,
		Message:    form.Message,
		Attachment: form.Attachment,
		Source:     models.SourceContactForm,
	})
	if err != nil {
		s.logger.WithError(err).Error("inquiry not persisted", map[string]interface{}{"email": form.Email})
		return Receipt{}, err
	}
	return Receipt{Inquiry: inq, Acknowledgement: ack}, nil
}

func (s *Service) acknowledge(ctx context.Context, form Form) string {
	country := form.Country
	if country == "" {
		country = "an unspecified country"
	}
	prompt := fmt.Sprintf("The client %q from %s just sent an inquiry regarding: %q.\n"+
		"Generate a short (2-3 sentences), highly professional \"Technical Acknowledgment\" that mentions their specific country and requirement.\n"+
		"Tone: Formal, Industrial, Reliable.", form.Name, country, form.Message)

	text, err := s.collab.GenerateText(ctx, prompt, collaborator.TextOptions{})
	if err != nil {
		s.logger.WithError(err).Warn("acknowledgement generation failed, using fallback", nil)
		return FallbackAcknowledgement
	}
	return text
}

// Validate checks the form against the request schema, the email format
// and the attachment size limit.
func Validate(form Form) error {
	result, err := formSchema.Validate(form)
	if err != nil {
		return apperrors.NewValidationFailedError(err.Error())
	}
	if !result.Valid {
		return apperrors.NewValidationFailedError(strings.Join(result.GetErrorMessages(), "; "))
	}
	if !validation.ValidateEmail(form.Email) {
		return apperrors.NewValidationFailedError("email: invalid format")
	}
	if form.Phone != "" && !validation.ValidatePhone(form.Phone) {
		return apperrors.NewValidationFailedError("phone: invalid format")
	}
	if form.Attachment != nil {
		if n := attachmentSize(form.Attachment.Data); n > MaxAttachmentBytes {
			return apperrors.NewValidationFailedError(fmt.Sprintf("attachment: %d bytes exceeds the 10MB limit", n))
		}
	}
	return nil
}

// attachmentSize is the decoded size of a base64 data URL payload.
func attachmentSize(dataURL string) int {
	payload := dataURL
	if i := strings.IndexByte(dataURL, ','); i >= 0 && strings.HasPrefix(dataURL, "data:") {
		payload = dataURL[i+1:]
	}
	n := base64.StdEncoding.DecodedLen(len(payload))
	return n - strings.Count(payload[max(0, len(payload)-2):], "=")
}
