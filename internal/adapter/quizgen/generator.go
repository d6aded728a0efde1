package quizgen

import (
	"context"
	"errors"
	"net"
	"time"

	"clipquiz/internal/domain"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// LLMQuestionGenerator prompts a langchaingo model for a quiz. It returns the
// raw reply; structure is checked by the parser.
type LLMQuestionGenerator struct {
	model         llms.Model
	questionCount int
	temperature   float64
	logger        *zap.Logger
}

func NewLLMQuestionGenerator(model llms.Model, questionCount int, temperature float64, logger *zap.Logger) *LLMQuestionGenerator {
	if questionCount <= 0 {
		questionCount = 10
	}
	return &LLMQuestionGenerator{
		model:         model,
		questionCount: questionCount,
		temperature:   temperature,
		logger:        logger,
	}
}

// Generate implements domain.QuestionGenerator.
func (g *LLMQuestionGenerator) Generate(ctx context.Context, transcript domain.Transcript) (string, error) {
	prompt := BuildPrompt(transcript, g.questionCount)

	start := time.Now()
	reply, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt, llms.WithTemperature(g.temperature))
	if err != nil {
		if isTimeout(ctx, err) {
			return "", domain.NewGenerationTimeoutError(err)
		}
		return "", domain.NewGenerationServiceError(err)
	}

	g.logger.Debug("quiz generated",
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("reply_chars", len(reply)),
		zap.Duration("elapsed", time.Since(start)))
	return reply, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
