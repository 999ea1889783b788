package collaborator

import (
	"context"
	"sync"
)

// Call records one invocation of a Stub.
type Call struct {
	Op       string
	Prompt   string
	Text     TextOptions
	Grounded GroundingOptions
	Location Location
	Image    ImageOptions
}

// Stub is a scriptable Collaborator. Unset funcs answer with canned text.
// Err, when set, fails every call with that error.
type Stub struct {
	TextFunc     func(ctx context.Context, prompt string, opts TextOptions) (string, error)
	GroundedFunc func(ctx context.Context, prompt string, opts GroundingOptions) (Grounded, error)
	LocationFunc func(ctx context.Context, prompt string, loc Location) (Grounded, error)
	ImageFunc    func(ctx context.Context, prompt string, opts ImageOptions) ([]byte, error)
	Err          error

	mu    sync.Mutex
	calls []Call
}

// FailingStub fails every call with the given kind.
func FailingStub(kind Kind) *Stub {
	return &Stub{Err: &Error{Kind: kind, Op: "stub", Err: context.DeadlineExceeded}}
}

func (s *Stub) record(c Call) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
}

// Calls returns a copy of the recorded invocations.
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func (s *Stub) GenerateText(ctx context.Context, prompt string, opts TextOptions) (string, error) {
	s.record(Call{Op: OpGenerateText, Prompt: prompt, Text: opts})
	if s.Err != nil {
		return "", s.Err
	}
	if s.TextFunc != nil {
		return s.TextFunc(ctx, prompt, opts)
	}
	return "stub answer", nil
}

func (s *Stub) GenerateGroundedText(ctx context.Context, prompt string, opts GroundingOptions) (Grounded, error) {
	s.record(Call{Op: OpGenerateGroundedText, Prompt: prompt, Grounded: opts})
	if s.Err != nil {
		return Grounded{}, s.Err
	}
	if s.GroundedFunc != nil {
		return s.GroundedFunc(ctx, prompt, opts)
	}
	return Grounded{Text: "stub grounded answer"}, nil
}

func (s *Stub) GenerateLocationGroundedText(ctx context.Context, prompt string, loc Location) (Grounded, error) {
	s.record(Call{Op: OpGenerateLocationText, Prompt: prompt, Location: loc})
	if s.Err != nil {
		return Grounded{}, s.Err
	}
	if s.LocationFunc != nil {
		return s.LocationFunc(ctx, prompt, loc)
	}
	return Grounded{Text: "stub places answer"}, nil
}

func (s *Stub) GenerateImage(ctx context.Context, prompt string, opts ImageOptions) ([]byte, error) {
	s.record(Call{Op: OpGenerateImage, Prompt: prompt, Image: opts})
	if s.Err != nil {
		return nil, s.Err
	}
	if s.ImageFunc != nil {
		return s.ImageFunc(ctx, prompt, opts)
	}
	return nil, nil
}
