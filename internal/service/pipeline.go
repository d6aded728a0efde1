package service

import (
	"context"
	"time"

	"clipquiz/internal/config"
	"clipquiz/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Pipeline runs fetch, transcribe, generate and parse for one URL. Each call
// is independent; the stages share nothing but the injected adapters.
type Pipeline struct {
	fetcher     domain.MediaFetcher
	transcriber domain.Transcriber
	generator   domain.QuestionGenerator
	parser      domain.ResponseParser
	cfg         config.PipelineConfig
	logger      *zap.Logger
}

func NewPipeline(
	fetcher domain.MediaFetcher,
	transcriber domain.Transcriber,
	generator domain.QuestionGenerator,
	parser domain.ResponseParser,
	cfg config.PipelineConfig,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		fetcher:     fetcher,
		transcriber: transcriber,
		generator:   generator,
		parser:      parser,
		cfg:         cfg,
		logger:      logger,
	}
}

// Run implements domain.QuizPipeline. Stage errors are returned unchanged and
// the media asset is released on every return path, including cancellation.
func (p *Pipeline) Run(ctx context.Context, userID, url string) (*domain.QuizDraft, error) {
	log := p.logger.With(
		zap.String("invocation_id", uuid.NewString()),
		zap.String("user_id", userID),
	)
	start := time.Now()
	log.Info("pipeline started", zap.String("url", url))

	asset, err := runStage(ctx, p.cfg.DownloadTimeout, func(ctx context.Context) (*domain.MediaAsset, error) {
		return p.fetcher.Fetch(ctx, url)
	})
	// registered before the error check: a fetcher may hand back a partial asset with its error
	defer func() {
		if asset == nil {
			return
		}
		if rerr := asset.Release(); rerr != nil {
			log.Warn("failed to release media asset", zap.String("path", asset.Path), zap.Error(rerr))
		}
	}()
	if err == nil && asset == nil {
		err = domain.NewInternalError("media fetcher returned no asset", nil)
	}
	if err != nil {
		return nil, p.fail(ctx, log, "fetch", start, err)
	}
	log.Debug("stage finished", zap.String("stage", "fetch"), zap.Duration("media_duration", asset.Duration))

	transcript, err := runStage(ctx, p.cfg.TranscribeTimeout, func(ctx context.Context) (domain.Transcript, error) {
		return p.transcriber.Transcribe(ctx, asset)
	})
	if err != nil {
		return nil, p.fail(ctx, log, "transcribe", start, err)
	}
	if transcript == "" {
		log.Warn("empty transcript, generation will likely fail")
	}

	raw, err := runStage(ctx, p.cfg.GenerateTimeout, func(ctx context.Context) (string, error) {
		return p.generator.Generate(ctx, transcript)
	})
	if err != nil {
		return nil, p.fail(ctx, log, "generate", start, err)
	}

	draft, err := p.parser.Parse(raw)
	if err != nil {
		return nil, p.fail(ctx, log, "parse", start, err)
	}

	log.Info("pipeline finished",
		zap.Int("questions", len(draft.Questions)),
		zap.Duration("elapsed", time.Since(start)))
	return draft, nil
}

func (p *Pipeline) fail(ctx context.Context, log *zap.Logger, stage string, start time.Time, err error) error {
	if ctx.Err() != nil && domain.IsContextError(err) {
		log.Info("pipeline cancelled", zap.String("stage", stage), zap.Duration("elapsed", time.Since(start)))
		return err
	}
	log.Warn("pipeline failed",
		zap.String("stage", stage),
		zap.String("code", string(domain.CodeOf(err))),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))
	return err
}

// runStage bounds fn with timeout when one is configured.
func runStage[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return fn(ctx)
}

var _ domain.QuizPipeline = (*Pipeline)(nil)
