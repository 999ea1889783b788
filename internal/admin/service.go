// Package admin holds the operations behind the admin panel.
package admin

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"

	"export-assistant/internal/collaborator"
	apperrors "export-assistant/internal/common/errors"
	"export-assistant/internal/common/logger"
	"export-assistant/internal/common/validation"
	"export-assistant/internal/leads"
	"export-assistant/internal/models"
)

const (
	FallbackQuotation = "Thank you for your interest in Savita Global. We have received your inquiry."
	FallbackMarket    = "Market data currently unavailable."
)

// FallbackSEO is returned when SEO generation fails or answers off-schema.
var FallbackSEO = models.SEOContent{
	TitleTag:        "Industrial Manufacturing Excellence | Savita Global",
	MetaDescription: "Global leaders in industrial machinery and precision brass components. Exporting world-class engineering solutions from India to 45+ countries.",
}

var seoSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["titleTag", "metaDescription"],
	"properties": {
		"titleTag":        {"type": "string", "minLength": 1},
		"metaDescription": {"type": "string", "minLength": 1},
		"keywordsUsed":    {"type": "array", "items": {"type": "string"}}
	}
}`)

// LeadBook is the part of the lead store the admin panel works on.
type LeadBook interface {
	List(ctx context.Context) ([]models.Inquiry, error)
	Get(ctx context.Context, id string) (models.Inquiry, error)
	UpdateStatus(ctx context.Context, id string, status models.InquiryStatus) (models.Inquiry, error)
}

type Service struct {
	leads     LeadBook
	collab    collaborator.Collaborator
	accessKey string
	logger    logger.Logger
}

func NewService(book LeadBook, collab collaborator.Collaborator, accessKey string, log logger.Logger) *Service {
	return &Service{
		leads:     book,
		collab:    collab,
		accessKey: accessKey,
		logger:    log.With(map[string]interface{}{"component": "admin"}),
	}
}

// Authorize compares key with the configured access key in constant time.
// An unconfigured key rejects everything.
func (s *Service) Authorize(key string) error {
	if s.accessKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.accessKey)) != 1 {
		return apperrors.NewUnauthorizedError()
	}
	return nil
}

func (s *Service) Inquiries(ctx context.Context) ([]models.Inquiry, error) {
	return s.leads.List(ctx)
}

func (s *Service) Summary(ctx context.Context) (leads.Summary, error) {
	list, err := s.leads.List(ctx)
	if err != nil {
		return leads.Summary{}, err
	}
	return leads.Summarize(list), nil
}

// MarkResponded resolves an inquiry.
func (s *Service) MarkResponded(ctx context.Context, id string) (models.Inquiry, error) {
	inq, err := s.leads.UpdateStatus(ctx, id, models.StatusResolved)
	if err != nil {
		return models.Inquiry{}, err
	}
	s.logger.Info("inquiry resolved", map[string]interface{}{"leadId": id})
	return inq, nil
}

// DraftQuotationReply drafts a follow-up email for a stored inquiry.
func (s *Service) DraftQuotationReply(ctx context.Context, id string) (string, error) {
	inq, err := s.leads.Get(ctx, id)
	if err != nil {
		return "", err
	}
	text, err := s.collab.GenerateText(ctx, QuotationPrompt(inq), collaborator.TextOptions{})
	if err != nil {
		s.logger.WithError(err).Warn("quotation draft failed, using fallback", map[string]interface{}{"leadId": id})
		return FallbackQuotation, nil
	}
	return text, nil
}

// QuotationPrompt asks for a follow-up email answering inq.
func QuotationPrompt(inq models.Inquiry) string {
	product := inq.Product
	if product == "" {
		product = "our industrial products"
	}
	return fmt.Sprintf("Draft a professional, warm, and corporate export quotation follow-up email for a client named %s who inquired about %s. "+
		"Their message was: %q. Keep it concise and professional.", inq.Name, product, inq.Message)
}

// GenerateSEO asks for a title tag and meta description as JSON.
func (s *Service) GenerateSEO(ctx context.Context, keywords, target string) models.SEOContent {
	prompt := fmt.Sprintf("Generate high-performance SEO title tags and meta descriptions for an industrial export business.\n"+
		"Target: %s\nKeywords to incorporate: %s\n"+
		"Brand Identity: Savita Global Group of Industries - Global Industrial Manufacturers and Exporters.\n"+
		"Ensure the title tag is under 60 characters and the meta description is between 150-160 characters.", target, keywords)

	text, err := s.collab.GenerateText(ctx, prompt, collaborator.TextOptions{
		JSONSchema: &collaborator.ResponseSchema{
			StringFields: []string{"titleTag", "metaDescription"},
			ArrayFields:  []string{"keywordsUsed"},
			Required:     []string{"titleTag", "metaDescription"},
		},
	})
	if err != nil {
		s.logger.WithError(err).Warn("seo generation failed, using fallback", nil)
		return FallbackSEO
	}

	content, err := parseSEO(text)
	if err != nil {
		s.logger.WithError(err).Warn("seo response off schema, using fallback", nil)
		return FallbackSEO
	}
	return content
}

func parseSEO(text string) (models.SEOContent, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return models.SEOContent{}, fmt.Errorf("decode seo json: %w", err)
	}
	result, err := seoSchema.Validate(doc)
	if err != nil {
		return models.SEOContent{}, err
	}
	if !result.Valid {
		return models.SEOContent{}, fmt.Errorf("seo json invalid: %v", result.GetErrorMessages())
	}

	var content models.SEOContent
	if err := json.Unmarshal([]byte(text), &content); err != nil {
		return models.SEOContent{}, fmt.Errorf("decode seo content: %w", err)
	}
	return content, nil
}

// Translate returns text unchanged when translation fails.
func (s *Service) Translate(ctx context.Context, text, language string) string {
	prompt := fmt.Sprintf("Translate the following industrial text into %s. Maintain the professional corporate tone: %q", language, text)
	out, err := s.collab.GenerateText(ctx, prompt, collaborator.TextOptions{})
	if err != nil {
		s.logger.WithError(err).Warn("translation failed, returning source text", map[string]interface{}{"language": language})
		return text
	}
	return out
}

// MarketInsights answers a market question grounded on web search.
func (s *Service) MarketInsights(ctx context.Context, query string) collaborator.Grounded {
	out, err := s.collab.GenerateGroundedText(ctx, query, collaborator.GroundingOptions{WebSearch: true})
	if err != nil {
		s.logger.WithError(err).Warn("market insights failed", nil)
		return collaborator.Grounded{Text: FallbackMarket}
	}
	return out
}
