package collaborator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"export-assistant/internal/common/logger"
	"export-assistant/internal/common/metrics"
	"export-assistant/internal/models"

	"google.golang.org/genai"
)

type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration

	ChatModel      string
	ReasoningModel string
	MapsModel      string
	ImageModel     string

	// MaxRetries bounds retries of 5xx and transport failures.
	MaxRetries int
	HTTPClient *http.Client
}

// Gemini implements Collaborator on the Gemini API.
type Gemini struct {
	client *genai.Client
	cfg    GeminiConfig
	logger logger.Logger
}

func NewGemini(ctx context.Context, cfg GeminiConfig, log logger.Logger) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{
		client: client,
		cfg:    cfg,
		logger: log.With(map[string]interface{}{"component": "collaborator"}),
	}, nil
}

func (g *Gemini) GenerateText(ctx context.Context, prompt string, opts TextOptions) (string, error) {
	model := g.cfg.ChatModel
	gc := &genai.GenerateContentConfig{}
	if opts.ThinkingBudget > 0 {
		model = g.cfg.ReasoningModel
		gc.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(int32(opts.ThinkingBudget))}
	}
	if opts.Model != "" {
		model = opts.Model
	}
	if opts.SystemInstruction != "" {
		gc.SystemInstruction = genai.NewContentFromText(opts.SystemInstruction, genai.RoleUser)
	}
	if opts.JSONSchema != nil {
		gc.ResponseMIMEType = "application/json"
		gc.ResponseSchema = toGenaiSchema(opts.JSONSchema)
	}

	resp, err := g.generate(ctx, OpGenerateText, model, prompt, gc)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", g.fail(OpGenerateText, KindMalformed, errors.New("empty response text"))
	}
	return text, nil
}

func (g *Gemini) GenerateGroundedText(ctx context.Context, prompt string, opts GroundingOptions) (Grounded, error) {
	gc := &genai.GenerateContentConfig{}
	if opts.WebSearch {
		gc.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	resp, err := g.generate(ctx, OpGenerateGroundedText, g.cfg.ChatModel, prompt, gc)
	if err != nil {
		return Grounded{}, err
	}
	out := Grounded{Text: strings.TrimSpace(resp.Text())}
	if out.Text == "" {
		return Grounded{}, g.fail(OpGenerateGroundedText, KindMalformed, errors.New("empty response text"))
	}
	for _, chunk := range groundingChunks(resp) {
		if chunk.Web != nil && chunk.Web.URI != "" {
			out.Citations = append(out.Citations, models.Citation{URI: chunk.Web.URI, Title: chunk.Web.Title})
		}
	}
	return out, nil
}

func (g *Gemini) GenerateLocationGroundedText(ctx context.Context, prompt string, loc Location) (Grounded, error) {
	gc := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleMaps: &genai.GoogleMaps{}}},
		ToolConfig: &genai.ToolConfig{
			RetrievalConfig: &genai.RetrievalConfig{
				LatLng: &genai.LatLng{
					Latitude:  genai.Ptr(loc.Latitude),
					Longitude: genai.Ptr(loc.Longitude),
				},
			},
		},
	}

	resp, err := g.generate(ctx, OpGenerateLocationText, g.cfg.MapsModel, prompt, gc)
	if err != nil {
		return Grounded{}, err
	}
	out := Grounded{Text: strings.TrimSpace(resp.Text())}
	if out.Text == "" {
		return Grounded{}, g.fail(OpGenerateLocationText, KindMalformed, errors.New("empty response text"))
	}
	for _, chunk := range groundingChunks(resp) {
		if chunk.Maps != nil && chunk.Maps.URI != "" {
			out.Places = append(out.Places, models.Place{URI: chunk.Maps.URI, Title: chunk.Maps.Title, PlaceID: chunk.Maps.PlaceID})
		}
	}
	return out, nil
}

func (g *Gemini) GenerateImage(ctx context.Context, prompt string, opts ImageOptions) ([]byte, error) {
	gc := &genai.GenerateContentConfig{}
	if opts.AspectRatio != "" {
		gc.ImageConfig = &genai.ImageConfig{AspectRatio: opts.AspectRatio}
	}

	resp, err := g.generate(ctx, OpGenerateImage, g.cfg.ImageModel, prompt, gc)
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, nil
		}
	}
	return nil, nil
}

// generate performs one GenerateContent call with retries on transient
// failures, and converts every failure into *Error.
func (g *Gemini) generate(ctx context.Context, op, model, prompt string, gc *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	start := time.Now()
	defer func() {
		metrics.CollaboratorDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, g.fail(op, KindTimeout, ctx.Err())
			}
		}

		resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), gc)
		if err == nil {
			metrics.CollaboratorCalls.WithLabelValues(op, "ok").Inc()
			return resp, nil
		}
		lastErr = err
		if classify(err) != KindUnavailable {
			break
		}
	}
	return nil, g.fail(op, classify(lastErr), lastErr)
}

func (g *Gemini) fail(op string, kind Kind, err error) error {
	metrics.CollaboratorCalls.WithLabelValues(op, string(kind)).Inc()
	g.logger.Warn("collaborator call failed", map[string]interface{}{
		"op":    op,
		"kind":  string(kind),
		"error": err,
	})
	return &Error{Kind: kind, Op: op, Err: err}
}

func classify(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED":
			return KindQuota
		case apiErr.Code == http.StatusRequestTimeout || apiErr.Code == http.StatusGatewayTimeout:
			return KindTimeout
		case apiErr.Code >= 500:
			return KindUnavailable
		default:
			return KindMalformed
		}
	}
	return KindUnavailable
}

func groundingChunks(resp *genai.GenerateContentResponse) []*genai.GroundingChunk {
	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	return resp.Candidates[0].GroundingMetadata.GroundingChunks
}

func toGenaiSchema(s *ResponseSchema) *genai.Schema {
	props := make(map[string]*genai.Schema, len(s.StringFields)+len(s.ArrayFields))
	for _, f := range s.StringFields {
		props[f] = &genai.Schema{Type: genai.TypeString}
	}
	for _, f := range s.ArrayFields {
		props[f] = &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
	}
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: s.Required}
}
