package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"export-assistant/internal/collaborator"
	"export-assistant/internal/common/logger"
	"export-assistant/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// genai pulls in opencensus, whose view worker starts at init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type recordedLead struct {
	name, email, requirement string
}

type fakeLeads struct {
	mu    sync.Mutex
	leads []recordedLead
	err   error
}

func (f *fakeLeads) CaptureChatLead(ctx context.Context, name, email, requirement string) (models.Inquiry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.Inquiry{}, f.err
	}
	f.leads = append(f.leads, recordedLead{name, email, requirement})
	return models.Inquiry{
		ID:      "ai-lead-test",
		Kind:    models.KindChatLead,
		Name:    name,
		Email:   email,
		Message: requirement,
		Status:  models.StatusPending,
		Source:  models.SourceChat,
	}, nil
}

func (f *fakeLeads) recorded() []recordedLead {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedLead(nil), f.leads...)
}

func newTestController(t *testing.T, collab collaborator.Collaborator) (*Controller, *fakeLeads, *Session) {
	t.Helper()
	leads := &fakeLeads{}
	script := DefaultScript()
	c := NewController(collab, leads, script, logger.NewTestLogger(t))
	return c, leads, NewSession("s-1", script.Welcome())
}

// ==========================
// Lead capture
// ==========================

func TestHandle_FullCaptureSequence(t *testing.T) {
	stub := &collaborator.Stub{}
	c, leads, s := newTestController(t, stub)
	ctx := context.Background()
	script := c.Script()

	r := c.Handle(ctx, s, "What is the price of the CNC lathe?")
	assert.Equal(t, RouteLeadCapture, r.Route)
	assert.Equal(t, "awaiting_name", r.Stage)
	require.Len(t, r.Messages, 1)
	assert.Equal(t, script.AskName(), r.Messages[0].Text)

	r = c.Handle(ctx, s, "  Ravi Kumar ")
	assert.Equal(t, "awaiting_email", r.Stage)
	assert.Equal(t, script.AskEmail("Ravi Kumar"), r.Messages[0].Text)
	assert.Equal(t, AwaitingEmail{Name: "Ravi Kumar"}, s.Stage())

	r = c.Handle(ctx, s, "ravi@example.com")
	assert.Equal(t, "awaiting_requirement", r.Stage)
	assert.Equal(t, script.AskRequirement(), r.Messages[0].Text)

	r = c.Handle(ctx, s, "2 CNC lathes, shipping to Dubai")
	assert.Equal(t, "complete", r.Stage)
	assert.Equal(t, script.Logged("ravi@example.com"), r.Messages[0].Text)
	require.NotNil(t, r.Lead)
	assert.Equal(t, "Ravi Kumar", r.Lead.Name)

	require.Len(t, leads.recorded(), 1)
	assert.Equal(t, recordedLead{"Ravi Kumar", "ravi@example.com", "2 CNC lathes, shipping to Dubai"}, leads.recorded()[0])
	assert.Empty(t, stub.Calls(), "capture answers must not reach the collaborator")
}

func TestHandle_CaptureAnswersAreNotClassified(t *testing.T) {
	c, leads, s := newTestController(t, &collaborator.Stub{})
	ctx := context.Background()

	c.Handle(ctx, s, "I want to buy brass parts")
	// Keywords inside capture answers do not restart or reroute the sequence.
	r := c.Handle(ctx, s, "Export Price Manager")
	assert.Equal(t, "awaiting_email", r.Stage)
	r = c.Handle(ctx, s, "not-an-email")
	assert.Equal(t, "awaiting_requirement", r.Stage)
	r = c.Handle(ctx, s, strings.Repeat("technical tolerance ", 10))
	assert.Equal(t, "complete", r.Stage)

	require.Len(t, leads.recorded(), 1)
	assert.Equal(t, "not-an-email", leads.recorded()[0].email)
}

func TestHandle_CompleteNeverReentersCapture(t *testing.T) {
	stub := &collaborator.Stub{}
	c, leads, s := newTestController(t, stub)
	ctx := context.Background()

	for _, text := range []string{"quote please", "Asha", "asha@example.com", "brass fittings"} {
		c.Handle(ctx, s, text)
	}
	r := c.Handle(ctx, s, "price of another order?")
	assert.Equal(t, RouteContextualChat, r.Route)
	assert.Equal(t, "complete", r.Stage)
	assert.Len(t, leads.recorded(), 1)
	require.Len(t, stub.Calls(), 1)
}

func TestHandle_LeadPersistenceFailureStillCloses(t *testing.T) {
	c, leads, s := newTestController(t, &collaborator.Stub{})
	leads.err = errors.New("storage full")
	ctx := context.Background()

	for _, text := range []string{"buy", "Asha", "asha@example.com"} {
		c.Handle(ctx, s, text)
	}
	r := c.Handle(ctx, s, "brass fittings")
	assert.Equal(t, "complete", r.Stage)
	assert.Nil(t, r.Lead)
	assert.Equal(t, c.Script().Logged("asha@example.com"), r.Messages[0].Text)
}

// ==========================
// Routing
// ==========================

func TestHandle_RoutesToCollaborator(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		route  Route
		op     string
		assert func(t *testing.T, call collaborator.Call)
	}{
		{
			name:  "deep reasoning",
			text:  "What tolerance can you hold on SS shafts?",
			route: RouteDeepReasoning,
			op:    collaborator.OpGenerateText,
			assert: func(t *testing.T, call collaborator.Call) {
				assert.Equal(t, 32768, call.Text.ThinkingBudget)
				assert.Contains(t, call.Text.SystemInstruction, "senior industrial consultant")
			},
		},
		{
			name:  "long message without keywords",
			text:  strings.Repeat("Tell me about your brass inserts. ", 3)[:80],
			route: RouteDeepReasoning,
			op:    collaborator.OpGenerateText,
			assert: func(t *testing.T, call collaborator.Call) {
				assert.Equal(t, 32768, call.Text.ThinkingBudget)
			},
		},
		{
			name:  "search grounded",
			text:  "latest brass trend",
			route: RouteSearchGrounded,
			op:    collaborator.OpGenerateGroundedText,
			assert: func(t *testing.T, call collaborator.Call) {
				assert.True(t, call.Grounded.WebSearch)
			},
		},
		{
			name:  "contextual chat",
			text:  "Who is your CEO?",
			route: RouteContextualChat,
			op:    collaborator.OpGenerateText,
			assert: func(t *testing.T, call collaborator.Call) {
				assert.Zero(t, call.Text.ThinkingBudget)
				assert.Contains(t, call.Text.SystemInstruction, "Savita Global Group of Industries")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &collaborator.Stub{}
			c, _, s := newTestController(t, stub)

			r := c.Handle(context.Background(), s, tt.text)
			assert.Equal(t, tt.route, r.Route)
			assert.Equal(t, "idle", r.Stage)
			assert.Nil(t, r.Failure)

			calls := stub.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, tt.op, calls[0].Op)
			assert.Equal(t, tt.text, calls[0].Prompt)
			tt.assert(t, calls[0])
		})
	}
}

func TestHandle_SearchCitationsAreKept(t *testing.T) {
	stub := &collaborator.Stub{
		GroundedFunc: func(ctx context.Context, prompt string, opts collaborator.GroundingOptions) (collaborator.Grounded, error) {
			return collaborator.Grounded{
				Text:      "Brass prices rose 4%.",
				Citations: []models.Citation{{URI: "https://example.com/r", Title: "Report"}},
			}, nil
		},
	}
	c, _, s := newTestController(t, stub)

	r := c.Handle(context.Background(), s, "current brass market")
	require.Len(t, r.Messages, 1)
	assert.Equal(t, "Brass prices rose 4%.", r.Messages[0].Text)
	assert.Equal(t, []models.Citation{{URI: "https://example.com/r", Title: "Report"}}, r.Messages[0].Citations)
}

func TestHandle_CollaboratorFailureYieldsFallback(t *testing.T) {
	for _, kind := range []collaborator.Kind{
		collaborator.KindTimeout,
		collaborator.KindQuota,
		collaborator.KindMalformed,
		collaborator.KindUnavailable,
	} {
		t.Run(string(kind), func(t *testing.T) {
			c, _, s := newTestController(t, collaborator.FailingStub(kind))

			r := c.Handle(context.Background(), s, "Who founded the company?")
			require.Len(t, r.Messages, 1)
			assert.Equal(t, c.Script().Fallback(), r.Messages[0].Text)
			assert.Contains(t, r.Messages[0].Text, "+91 9506943134")
			require.NotNil(t, r.Failure)
			assert.Equal(t, kind, r.Failure.Kind)
			assert.Equal(t, Idle{}, s.Stage())
		})
	}
}

func TestHandle_UntypedFailureCountsAsUnavailable(t *testing.T) {
	c, _, s := newTestController(t, &collaborator.Stub{Err: errors.New("boom")})

	r := c.Handle(context.Background(), s, "hello")
	require.NotNil(t, r.Failure)
	assert.Equal(t, collaborator.KindUnavailable, r.Failure.Kind)
}

// ==========================
// Transcript
// ==========================

func TestHandle_EmptyInputIsIgnored(t *testing.T) {
	stub := &collaborator.Stub{}
	c, _, s := newTestController(t, stub)

	r := c.Handle(context.Background(), s, "   \n\t")
	assert.Empty(t, r.Messages)
	assert.Equal(t, "idle", r.Stage)
	assert.Len(t, s.Transcript(), 1)
	assert.Empty(t, stub.Calls())
}

func TestHandle_EmptyInputIsIgnoredAtEveryStage(t *testing.T) {
	answers := []string{"quote please", "Asha", "asha@example.com", "brass fittings"}
	for n := 0; n <= len(answers); n++ {
		stub := &collaborator.Stub{}
		c, leads, s := newTestController(t, stub)
		ctx := context.Background()
		for _, text := range answers[:n] {
			c.Handle(ctx, s, text)
		}
		before := s.Stage()
		transcript := s.Transcript()
		calls := len(stub.Calls())

		t.Run(before.String(), func(t *testing.T) {
			r := c.Handle(ctx, s, "  ")
			assert.Empty(t, r.Messages)
			assert.Equal(t, before.String(), r.Stage)
			assert.Equal(t, before, s.Stage())
			assert.Equal(t, transcript, s.Transcript())
			assert.Len(t, stub.Calls(), calls)
			assert.Len(t, leads.recorded(), n/len(answers))
		})
	}
}

func TestHandle_FallbackInCompleteKeepsStage(t *testing.T) {
	stub := &collaborator.Stub{}
	c, leads, s := newTestController(t, stub)
	ctx := context.Background()
	for _, text := range []string{"buy", "Asha", "asha@example.com", "brass fittings"} {
		c.Handle(ctx, s, text)
	}
	require.Equal(t, Complete{}, s.Stage())

	stub.Err = &collaborator.Error{Kind: collaborator.KindTimeout, Op: "text", Err: context.DeadlineExceeded}
	r := c.Handle(ctx, s, "Who founded the company?")
	require.Len(t, r.Messages, 1)
	assert.Equal(t, c.Script().Fallback(), r.Messages[0].Text)
	require.NotNil(t, r.Failure)
	assert.Equal(t, collaborator.KindTimeout, r.Failure.Kind)
	assert.Equal(t, "complete", r.Stage)
	assert.Equal(t, Complete{}, s.Stage())
	assert.Len(t, leads.recorded(), 1)
}

func TestHandle_TranscriptOrdering(t *testing.T) {
	c, _, s := newTestController(t, &collaborator.Stub{})
	ctx := context.Background()

	c.Handle(ctx, s, "hello")
	c.Handle(ctx, s, "order please")

	tr := s.Transcript()
	require.Len(t, tr, 5)
	assert.Equal(t, c.Script().Welcome(), tr[0].Text)
	assert.Equal(t, models.RoleUser, tr[1].Role)
	assert.Equal(t, "hello", tr[1].Text)
	assert.Equal(t, models.RoleAssistant, tr[2].Role)
	assert.Equal(t, "stub answer", tr[2].Text)
	assert.Equal(t, "order please", tr[3].Text)
	assert.Equal(t, c.Script().AskName(), tr[4].Text)
}

func TestHandle_ConcurrentSubmissionsAreSerialised(t *testing.T) {
	release := make(chan struct{})
	var inFlight, maxInFlight int
	var mu sync.Mutex
	stub := &collaborator.Stub{
		TextFunc: func(ctx context.Context, prompt string, opts collaborator.TextOptions) (string, error) {
			mu.Lock()
			inFlight++
			if inFlight > maxInFlight {
				maxInFlight = inFlight
			}
			mu.Unlock()
			<-release
			mu.Lock()
			inFlight--
			mu.Unlock()
			return "answer to " + prompt, nil
		},
	}
	c, _, s := newTestController(t, stub)

	var wg sync.WaitGroup
	for _, text := range []string{"hello", "hi there"} {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			c.Handle(context.Background(), s, text)
		}(text)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, maxInFlight)
	tr := s.Transcript()
	require.Len(t, tr, 5)
	// Each answer directly follows its own question.
	assert.Equal(t, "answer to "+tr[1].Text, tr[2].Text)
	assert.Equal(t, "answer to "+tr[3].Text, tr[4].Text)
}
