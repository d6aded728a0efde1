package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"clipquiz/internal/cache"
	"clipquiz/internal/config"
	"clipquiz/internal/domain"
	"clipquiz/internal/dto"
	"clipquiz/internal/util"

	"go.uber.org/zap"
)

// QuizService defines the quiz operations exposed to handlers and the CLI.
// Every operation is scoped to userID; another user's quiz is reported as
// not found.
type QuizService interface {
	// GenerateDraft runs the pipeline with retries and does not persist.
	GenerateDraft(ctx context.Context, userID, url string) (*domain.QuizDraft, error)
	CreateQuiz(ctx context.Context, userID, url string) (*dto.QuizResponse, error)
	ListQuizzes(ctx context.Context, userID string) ([]dto.QuizResponse, error)
	GetQuiz(ctx context.Context, userID, quizID string) (*dto.QuizResponse, error)
	UpdateQuiz(ctx context.Context, userID, quizID string, req *dto.UpdateQuizRequest) (*dto.QuizResponse, error)
	DeleteQuiz(ctx context.Context, userID, quizID string) error
}

type quizService struct {
	pipeline domain.QuizPipeline
	repo     domain.QuizRepository
	cache    domain.Cache
	cfg      *config.Config
	logger   *zap.Logger
}

// NewQuizService creates a QuizService. cache may be nil, in which case list
// results are not cached.
func NewQuizService(
	pipeline domain.QuizPipeline,
	repo domain.QuizRepository,
	cache domain.Cache,
	cfg *config.Config,
	logger *zap.Logger,
) QuizService {
	return &quizService{
		pipeline: pipeline,
		repo:     repo,
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *quizService) GenerateDraft(ctx context.Context, userID, url string) (*domain.QuizDraft, error) {
	return RunWithRetry(ctx, s.pipeline, userID, url, s.cfg.Pipeline.Retry, s.logger)
}

// RunWithRetry runs pipeline, retrying DownloadFailed, GenerationServiceError
// and GenerationTimeout with capped exponential backoff. It gives up after
// retry.MaxAttempts or as soon as ctx is done, returning the last stage error.
func RunWithRetry(
	ctx context.Context,
	pipeline domain.QuizPipeline,
	userID, url string,
	retry config.RetryConfig,
	logger *zap.Logger,
) (*domain.QuizDraft, error) {
	maxAttempts := retry.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; ; attempt++ {
		draft, err := pipeline.Run(ctx, userID, url)
		if err == nil {
			return draft, nil
		}
		if !domain.IsRetryable(err) || attempt >= maxAttempts || ctx.Err() != nil {
			return nil, err
		}

		delay := util.BackoffDelay(attempt, retry.BaseDelay, retry.MaxDelay)
		logger.Warn("retrying quiz generation",
			zap.String("user_id", userID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Duration("delay", delay),
			zap.String("code", string(domain.CodeOf(err))))
		if sleepErr := util.Sleep(ctx, delay); sleepErr != nil {
			return nil, err
		}
	}
}

func (s *quizService) CreateQuiz(ctx context.Context, userID, url string) (*dto.QuizResponse, error) {
	draft, err := s.GenerateDraft(ctx, userID, url)
	if err != nil {
		return nil, err
	}

	quiz := domain.NewQuizFromDraft(userID, strings.TrimSpace(url), draft)
	if err := s.repo.SaveQuiz(ctx, quiz); err != nil {
		return nil, domain.NewInternalError("Failed to save quiz", err)
	}
	s.invalidateList(ctx, userID)

	s.logger.Info("quiz created",
		zap.String("user_id", userID),
		zap.String("quiz_id", quiz.ID),
		zap.Int("questions", len(quiz.Questions)))
	return toQuizResponse(quiz), nil
}

func (s *quizService) ListQuizzes(ctx context.Context, userID string) ([]dto.QuizResponse, error) {
	key := cache.QuizListKey(userID)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			var resp []dto.QuizResponse
			if jsonErr := json.Unmarshal([]byte(cached), &resp); jsonErr == nil {
				return resp, nil
			}
			s.logger.Warn("discarding undecodable quiz list cache entry", zap.String("key", key))
		case !errors.Is(err, domain.ErrCacheMiss):
			s.logger.Warn("quiz list cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	quizzes, err := s.repo.ListQuizzesByUser(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list quizzes", err)
	}
	resp := make([]dto.QuizResponse, 0, len(quizzes))
	for _, q := range quizzes {
		resp = append(resp, *toQuizResponse(q))
	}

	if s.cache != nil {
		if data, err := json.Marshal(resp); err == nil {
			if err := s.cache.Set(ctx, key, string(data), s.cfg.Cache.QuizListTTL); err != nil {
				s.logger.Warn("quiz list cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return resp, nil
}

func (s *quizService) GetQuiz(ctx context.Context, userID, quizID string) (*dto.QuizResponse, error) {
	quiz, err := s.getOwned(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}
	return toQuizResponse(quiz), nil
}

func (s *quizService) UpdateQuiz(ctx context.Context, userID, quizID string, req *dto.UpdateQuizRequest) (*dto.QuizResponse, error) {
	quiz, err := s.getOwned(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}

	update := domain.QuizUpdate{Title: req.Title, Description: req.Description}
	if update.IsEmpty() {
		return toQuizResponse(quiz), nil
	}
	if err := update.Apply(quiz); err != nil {
		return nil, domain.ValidationErrors{{Field: "title", Code: domain.CodeValidation, Message: err.Error()}}
	}
	if err := s.repo.UpdateQuiz(ctx, quiz); err != nil {
		if errors.Is(err, domain.ErrQuizNotFound) {
			return nil, err
		}
		return nil, domain.NewInternalError("Failed to update quiz", err)
	}
	s.invalidateList(ctx, userID)
	return toQuizResponse(quiz), nil
}

func (s *quizService) DeleteQuiz(ctx context.Context, userID, quizID string) error {
	deleted, err := s.repo.DeleteQuiz(ctx, userID, quizID)
	if err != nil {
		return domain.NewInternalError("Failed to delete quiz", err)
	}
	if !deleted {
		return domain.NewQuizNotFoundError(quizID)
	}
	s.invalidateList(ctx, userID)
	return nil
}

func (s *quizService) getOwned(ctx context.Context, userID, quizID string) (*domain.Quiz, error) {
	quiz, err := s.repo.GetQuizByID(ctx, userID, quizID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get quiz", err)
	}
	if quiz == nil {
		return nil, domain.NewQuizNotFoundError(quizID)
	}
	return quiz, nil
}

func (s *quizService) invalidateList(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.QuizListKey(userID)); err != nil {
		s.logger.Warn("quiz list cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func toQuizResponse(q *domain.Quiz) *dto.QuizResponse {
	resp := &dto.QuizResponse{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		VideoURL:    q.VideoURL,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
		Questions:   make([]dto.QuestionResponse, 0, len(q.Questions)),
	}
	for _, question := range q.Questions {
		resp.Questions = append(resp.Questions, dto.QuestionResponse{
			ID:              question.ID,
			QuestionTitle:   question.QuestionTitle,
			QuestionOptions: question.Options,
			Answer:          question.Answer,
			CreatedAt:       question.CreatedAt,
		})
	}
	return resp
}
