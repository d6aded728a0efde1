package domain

import (
	"context"
	"os"
	"time"
)

// MediaAsset is a downloaded and normalized audio file in a per-invocation
// scratch directory. Release removes the directory; it is safe to call twice.
type MediaAsset struct {
	Path     string
	Duration time.Duration
	Format   string
	Dir      string
}

func (a *MediaAsset) Release() error {
	if a == nil || a.Dir == "" {
		return nil
	}
	err := os.RemoveAll(a.Dir)
	a.Dir = ""
	return err
}

// Transcript is the plain text produced by speech-to-text. It may be empty
// for silent media.
type Transcript string

// MediaFetcher resolves a video URL into a local audio asset.
type MediaFetcher interface {
	Fetch(ctx context.Context, url string) (*MediaAsset, error)
}

// Transcriber converts an audio asset into text.
type Transcriber interface {
	Transcribe(ctx context.Context, asset *MediaAsset) (Transcript, error)
}

// QuestionGenerator asks a text generation model for a quiz and returns its raw reply.
type QuestionGenerator interface {
	Generate(ctx context.Context, transcript Transcript) (string, error)
}

// ResponseParser turns a raw generator reply into a validated draft.
type ResponseParser interface {
	Parse(raw string) (*QuizDraft, error)
}

// QuizPipeline runs the full URL to draft pipeline on behalf of userID.
type QuizPipeline interface {
	Run(ctx context.Context, userID, url string) (*QuizDraft, error)
}

// ModelHealth describes the state of the shared speech-to-text model.
type ModelHealth struct {
	Healthy     bool      `json:"healthy"`
	Message     string    `json:"message,omitempty"`
	ModelLoaded bool      `json:"model_loaded"`
	Model       string    `json:"model"`
	Path        string    `json:"path"`
	LoadedAt    time.Time `json:"loaded_at,omitempty"`
}

// ModelHealthReporter is implemented by transcribers that own a model.
type ModelHealthReporter interface {
	Health() ModelHealth
}
