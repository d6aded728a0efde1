package transcriber

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"clipquiz/internal/config"
	"clipquiz/internal/domain"
	"clipquiz/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const transcriptBase = "transcript"

// WhisperTranscriber runs whisper.cpp's CLI against the shared Model.
// Concurrent calls are bounded by a weighted semaphore sized by
// transcriber.max_concurrent; with the default of 1 inference is serialized.
type WhisperTranscriber struct {
	cfg    config.TranscriberConfig
	model  *Model
	sem    *semaphore.Weighted
	logger *zap.Logger
	runner util.CommandRunner
}

func NewWhisperTranscriber(cfg config.TranscriberConfig, model *Model, logger *zap.Logger) *WhisperTranscriber {
	if cfg.Binary == "" {
		cfg.Binary = "whisper-cli"
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if cfg.Threads <= 0 {
		cfg.Threads = 4
	}
	if cfg.Language == "" {
		cfg.Language = "auto"
	}
	return &WhisperTranscriber{
		cfg:    cfg,
		model:  model,
		sem:    semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		logger: logger,
		runner: util.ExecRunner,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (w *WhisperTranscriber) WithCommandRunner(runner util.CommandRunner) {
	w.runner = runner
}

// Transcribe implements domain.Transcriber. The transcript is written next to
// the audio file so it is removed together with the asset.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, asset *domain.MediaAsset) (domain.Transcript, error) {
	if asset == nil || asset.Path == "" {
		return "", domain.NewTranscriptionFailedError(errors.New("no audio file"))
	}

	modelPath, err := w.model.Load()
	if err != nil {
		return "", domain.NewModelUnavailableError(err).WithContext("model", w.cfg.Model)
	}

	if err := w.sem.Acquire(ctx, 1); err != nil {
		return "", domain.NewTranscriptionFailedError(err)
	}
	defer w.sem.Release(1)

	outBase := filepath.Join(filepath.Dir(asset.Path), transcriptBase)
	args := []string{
		"--model", modelPath,
		"--file", asset.Path,
		"--language", w.cfg.Language,
		"--threads", strconv.Itoa(w.cfg.Threads),
		"--no-timestamps",
		"--no-prints",
		"--output-txt",
		"--output-file", outBase,
	}

	if _, err := w.runner(ctx, w.cfg.Binary, args...); err != nil {
		if ctx.Err() != nil {
			return "", domain.NewTranscriptionFailedError(ctx.Err())
		}
		var cmdErr *util.CommandError
		if errors.As(err, &cmdErr) && strings.Contains(strings.ToLower(cmdErr.Stderr), "failed to initialize whisper context") {
			return "", domain.NewModelUnavailableError(err).WithContext("model", w.cfg.Model)
		}
		return "", domain.NewTranscriptionFailedError(err)
	}

	raw, err := os.ReadFile(outBase + ".txt")
	if err != nil {
		return "", domain.NewTranscriptionFailedError(err)
	}

	text := strings.Join(strings.Fields(string(raw)), " ")
	w.logger.Debug("audio transcribed",
		zap.String("model", w.cfg.Model),
		zap.Int("chars", len(text)),
		zap.Duration("audio_duration", asset.Duration))
	return domain.Transcript(text), nil
}

// Health reports the state of the shared model, attempting a load first if
// none has succeeded yet.
func (w *WhisperTranscriber) Health() domain.ModelHealth {
	if !w.model.Loaded() {
		_, _ = w.model.Load()
	}
	return w.model.Health()
}
