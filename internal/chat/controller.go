// Package chat runs the assistant conversation: the scripted three-question
// lead capture and the routing of free questions to the AI collaborator.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"export-assistant/internal/collaborator"
	"export-assistant/internal/common/logger"
	"export-assistant/internal/common/metrics"
	"export-assistant/internal/models"
)

// LeadRecorder persists a completed capture.
type LeadRecorder interface {
	CaptureChatLead(ctx context.Context, name, email, requirement string) (models.Inquiry, error)
}

// Session is one visitor conversation. The transcript lives in memory only.
type Session struct {
	ID string

	mu         sync.Mutex
	stage      Stage
	transcript []models.Message
	lastActive time.Time
}

func newSession(id, welcome string, now time.Time) *Session {
	return &Session{
		ID:         id,
		stage:      Idle{},
		transcript: []models.Message{{Role: models.RoleAssistant, Text: welcome}},
		lastActive: now,
	}
}

// NewSession starts a conversation whose transcript opens with welcome.
func NewSession(id, welcome string) *Session {
	return newSession(id, welcome, time.Now())
}

func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

func (s *Session) Transcript() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.transcript...)
}

// Failure explains why an answer was replaced by the fallback text.
type Failure struct {
	Kind  collaborator.Kind
	Cause error
}

// Reply is the outcome of one submission.
type Reply struct {
	// Messages are the assistant messages appended by this submission.
	Messages []models.Message `json:"messages"`
	Stage    string           `json:"stage"`
	Route    Route            `json:"route,omitempty"`
	Failure  *Failure         `json:"-"`
	// Lead is set when this submission completed a capture.
	Lead *models.Inquiry `json:"lead,omitempty"`
}

type Controller struct {
	collab collaborator.Collaborator
	leads  LeadRecorder
	script Script
	logger logger.Logger
	now    func() time.Time
}

func NewController(collab collaborator.Collaborator, leads LeadRecorder, script Script, log logger.Logger) *Controller {
	return &Controller{
		collab: collab,
		leads:  leads,
		script: script,
		logger: log.With(map[string]interface{}{"component": "chat"}),
		now:    time.Now,
	}
}

func (c *Controller) Script() Script { return c.script }

// Handle processes one user submission. Submissions to the same session
// are serialised; the lock is held across the collaborator call.
func (c *Controller) Handle(ctx context.Context, s *Session, text string) Reply {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	defer s.mu.Unlock()

	if text == "" {
		return Reply{Stage: s.stage.String()}
	}

	s.lastActive = c.now()
	s.transcript = append(s.transcript, models.Message{Role: models.RoleUser, Text: text})

	reply := c.advance(ctx, s, text)
	s.transcript = append(s.transcript, reply.Messages...)
	reply.Stage = s.stage.String()

	metrics.ChatMessagesHandled.WithLabelValues(string(reply.Route)).Inc()
	return reply
}

// advance applies text to the session stage. The caller holds s.mu.
func (c *Controller) advance(ctx context.Context, s *Session, text string) Reply {
	switch st := s.stage.(type) {
	case AwaitingName:
		s.stage = AwaitingEmail{Name: text}
		return c.say(RouteLeadCapture, c.script.AskEmail(text))

	case AwaitingEmail:
		s.stage = AwaitingRequirement{Name: st.Name, Email: text}
		return c.say(RouteLeadCapture, c.script.AskRequirement())

	case AwaitingRequirement:
		s.stage = Complete{}
		reply := c.say(RouteLeadCapture, c.script.Logged(st.Email))
		lead, err := c.leads.CaptureChatLead(ctx, st.Name, st.Email, text)
		if err != nil {
			c.logger.WithError(err).Error("lead capture not persisted", map[string]interface{}{
				"sessionId": s.ID,
			})
			return reply
		}
		reply.Lead = &lead
		c.logger.Info("lead captured", map[string]interface{}{"sessionId": s.ID, "leadId": lead.ID})
		return reply
	}

	route := Classify(text, s.stage)
	if route == RouteLeadCapture {
		s.stage = AwaitingName{}
		return c.say(route, c.script.AskName())
	}
	return c.ask(ctx, s.ID, route, text)
}

func (c *Controller) ask(ctx context.Context, sessionID string, route Route, text string) Reply {
	var (
		msg = models.Message{Role: models.RoleAssistant}
		err error
	)
	switch route {
	case RouteDeepReasoning:
		msg.Text, err = c.collab.GenerateText(ctx, text, collaborator.TextOptions{
			SystemInstruction: c.script.consultantInstruction(),
			ThinkingBudget:    c.script.ThinkingBudget,
		})
	case RouteSearchGrounded:
		var g collaborator.Grounded
		g, err = c.collab.GenerateGroundedText(ctx, text, collaborator.GroundingOptions{WebSearch: true})
		msg.Text, msg.Citations = g.Text, g.Citations
	default:
		msg.Text, err = c.collab.GenerateText(ctx, text, collaborator.TextOptions{
			SystemInstruction: c.script.assistantInstruction(),
		})
	}

	if err != nil {
		kind := collaborator.KindOf(err)
		if kind == "" {
			kind = collaborator.KindUnavailable
		}
		c.logger.WithError(err).Warn("answer replaced by fallback", map[string]interface{}{
			"sessionId": sessionID,
			"route":     string(route),
			"kind":      string(kind),
		})
		reply := c.say(route, c.script.Fallback())
		reply.Failure = &Failure{Kind: kind, Cause: err}
		return reply
	}
	return Reply{Route: route, Messages: []models.Message{msg}}
}

func (c *Controller) say(route Route, text string) Reply {
	return Reply{
		Route:    route,
		Messages: []models.Message{{Role: models.RoleAssistant, Text: text}},
	}
}
