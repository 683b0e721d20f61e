// Package ai is the boundary to the generative model used for label scans,
// grounded questions and speech. Every failure is reported as ErrFailure so
// callers can fall back without inspecting transport details.
package ai

import (
	"context"
	"errors"
	"fmt"

	"git.0xdad.com/tblyler/ocutrack/db"
)

var (
	// ErrFailure wraps every error returned by a Gateway
	ErrFailure = errors.New("ai request failed")
)

// FallbackAnswer shown when a question could not be answered
const FallbackAnswer = "I'm sorry, I couldn't find up-to-date information right now."

// LabelFields extracted from a photo of a medication label. Zero values mean the label did not say.
type LabelFields struct {
	Name      string
	Kind      db.Kind
	Dosage    string
	Frequency int
	Eye       db.Eye
}

// Source cited by a grounded answer
type Source struct {
	Title string
	URL   string
}

// Answer to a medical question
type Answer struct {
	Text    string
	Sources []Source
}

// Gateway to the generative model
type Gateway interface {
	AnalyzeLabelImage(ctx context.Context, image []byte, mimeType string) (LabelFields, error)
	AskMedicalQuestion(ctx context.Context, question string) (Answer, error)
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

func failure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrFailure, op, err)
}
