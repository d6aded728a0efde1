// Package app wires configuration into the concrete adapters shared by the
// API server and the quizctl command.
package app

import (
	"context"
	"fmt"

	"clipquiz/internal/adapter/media"
	"clipquiz/internal/adapter/quizgen"
	"clipquiz/internal/adapter/transcriber"
	"clipquiz/internal/config"
	"clipquiz/internal/quizparse"
	"clipquiz/internal/service"

	"go.uber.org/zap"
)

// Pipeline is a configured pipeline plus the transcriber that owns the
// process-wide speech-to-text model.
type Pipeline struct {
	*service.Pipeline
	Transcriber *transcriber.WhisperTranscriber
}

// BuildPipeline constructs every stage from cfg. With transcriber.eager_load
// the model is loaded here; a failure is logged and retried on first use.
func BuildPipeline(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	fetcher := media.NewYtDlpFetcher(cfg.Media, logger.Named("media"))

	model := transcriber.NewModel(cfg.Transcriber)
	if cfg.Transcriber.EagerLoad {
		if path, err := model.Load(); err != nil {
			logger.Warn("speech-to-text model not available yet",
				zap.String("model", cfg.Transcriber.Model),
				zap.Error(err))
		} else {
			logger.Info("speech-to-text model loaded", zap.String("path", path))
		}
	}
	stt := transcriber.NewWhisperTranscriber(cfg.Transcriber, model, logger.Named("transcriber"))

	llm, err := quizgen.NewModel(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	generator := quizgen.NewLLMQuestionGenerator(llm, cfg.Quiz.QuestionCount, cfg.LLM.Temperature, logger.Named("quizgen"))
	parser := quizparse.NewParser(cfg.Quiz.MinQuestions, logger.Named("quizparse"))

	pipeline := service.NewPipeline(fetcher, stt, generator, parser, cfg.Pipeline, logger.Named("pipeline"))
	return &Pipeline{Pipeline: pipeline, Transcriber: stt}, nil
}
