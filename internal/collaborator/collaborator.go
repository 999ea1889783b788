// Package collaborator is the port to the external generative-AI service.
// Calls are best-effort: every caller keeps its own fallback text and uses
// the failure Kind only for logging, metrics and tests.
package collaborator

import (
	"context"
	"errors"
	"fmt"

	apperrors "export-assistant/internal/common/errors"
	"export-assistant/internal/models"
)

type Collaborator interface {
	GenerateText(ctx context.Context, prompt string, opts TextOptions) (string, error)
	GenerateGroundedText(ctx context.Context, prompt string, opts GroundingOptions) (Grounded, error)
	GenerateLocationGroundedText(ctx context.Context, prompt string, loc Location) (Grounded, error)
	// GenerateImage returns nil bytes and no error when the model answered
	// without an image.
	GenerateImage(ctx context.Context, prompt string, opts ImageOptions) ([]byte, error)
}

type TextOptions struct {
	SystemInstruction string
	// ThinkingBudget > 0 selects the reasoning model.
	ThinkingBudget int
	// Model overrides the configured model.
	Model string
	// JSONSchema asks for a JSON response matching the schema.
	JSONSchema *ResponseSchema
}

// ResponseSchema describes a flat JSON object response.
type ResponseSchema struct {
	StringFields []string
	ArrayFields  []string
	Required     []string
}

type GroundingOptions struct {
	WebSearch bool
}

type Location struct {
	Latitude  float64
	Longitude float64
}

type ImageOptions struct {
	AspectRatio string
}

// Grounded is generated text plus the sources it was grounded on.
type Grounded struct {
	Text      string            `json:"text"`
	Citations []models.Citation `json:"citations,omitempty"`
	Places    []models.Place    `json:"places,omitempty"`
}

type Kind string

const (
	KindTimeout     Kind = "timeout"
	KindQuota       Kind = "quota"
	KindMalformed   Kind = "malformed"
	KindUnavailable Kind = "unavailable"
)

// Error is the only error type returned by Collaborator implementations.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("collaborator %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the failure kind of err, or "" when err is not a
// collaborator error.
func KindOf(err error) Kind {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return ""
}

const (
	OpGenerateText         = "generate_text"
	OpGenerateGroundedText = "generate_grounded_text"
	OpGenerateLocationText = "generate_location_grounded_text"
	OpGenerateImage        = "generate_image"
)

// StandardError converts a collaborator failure into the shared error
// codes used by the job workers.
func StandardError(err error) *apperrors.StandardError {
	var cerr *Error
	if !errors.As(err, &cerr) {
		return apperrors.NewCollaboratorUnavailableError("unknown", err)
	}
	switch cerr.Kind {
	case KindTimeout:
		return apperrors.NewCollaboratorTimeoutError(cerr.Op)
	case KindQuota:
		return apperrors.NewCollaboratorQuotaError(cerr.Op, cerr.Err)
	case KindMalformed:
		return apperrors.NewCollaboratorMalformedError(cerr.Op, fmt.Sprint(cerr.Err))
	default:
		return apperrors.NewCollaboratorUnavailableError(cerr.Op, cerr.Err)
	}
}
