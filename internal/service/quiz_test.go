package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"clipquiz/internal/cache"
	"clipquiz/internal/config"
	"clipquiz/internal/domain"
	"clipquiz/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		Pipeline: config.PipelineConfig{
			Retry: config.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond},
		},
		Quiz:  config.QuizConfig{QuestionCount: 10, MinQuestions: 1},
		Cache: config.CacheConfig{QuizListTTL: time.Minute},
	}
}

func scienceDraft() *domain.QuizDraft {
	return &domain.QuizDraft{
		Title:       "Science Quiz",
		Description: "Basic facts",
		Questions: []domain.QuestionDraft{{
			QuestionTitle: "What color is the sky?",
			Options:       []string{"Blue", "Red", "Green", "Yellow"},
			Answer:        "Blue",
		}},
	}
}

func storedQuiz(id, userID string) *domain.Quiz {
	q := domain.NewQuizFromDraft(userID, testURL, scienceDraft())
	q.ID = id
	q.Questions[0].ID = id + "-q0"
	q.Questions[0].QuizID = id
	return q
}

func newTestQuizService() (QuizService, *MockQuizPipeline, *MockQuizRepository, *MockCache) {
	pipeline := new(MockQuizPipeline)
	repo := new(MockQuizRepository)
	c := new(MockCache)
	return NewQuizService(pipeline, repo, c, testConfig(), zap.NewNop()), pipeline, repo, c
}

func TestQuizService_CreateQuiz(t *testing.T) {
	svc, pipeline, repo, c := newTestQuizService()
	ctx := context.Background()

	pipeline.On("Run", mock.Anything, "user-1", testURL).Return(scienceDraft(), nil).Once()
	repo.On("SaveQuiz", mock.Anything, mock.MatchedBy(func(q *domain.Quiz) bool {
		return q.UserID == "user-1" && q.Title == "Science Quiz" && len(q.Questions) == 1 && q.VideoURL == testURL
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Quiz).ID = "01HZX"
	}).Return(nil).Once()
	c.On("Delete", mock.Anything, cache.QuizListKey("user-1")).Return(nil).Once()

	resp, err := svc.CreateQuiz(ctx, "user-1", testURL)
	require.NoError(t, err)
	assert.Equal(t, "01HZX", resp.ID)
	assert.Equal(t, "Science Quiz", resp.Title)
	require.Len(t, resp.Questions, 1)
	assert.Equal(t, []string{"Blue", "Red", "Green", "Yellow"}, resp.Questions[0].QuestionOptions)
	assert.Equal(t, "Blue", resp.Questions[0].Answer)

	pipeline.AssertExpectations(t)
	repo.AssertExpectations(t)
	c.AssertExpectations(t)
}

func TestQuizService_CreateQuiz_MalformedNothingPersisted(t *testing.T) {
	svc, pipeline, repo, c := newTestQuizService()

	pipeline.On("Run", mock.Anything, "user-1", testURL).
		Return(nil, domain.NewMalformedGenerationOutputError("question 1: answer \"Cyan\" is not one of the options", nil)).Once()

	resp, err := svc.CreateQuiz(context.Background(), "user-1", testURL)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, domain.ErrMalformedGenerationOutput)
	repo.AssertNotCalled(t, "SaveQuiz", mock.Anything, mock.Anything)
	c.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	pipeline.AssertNumberOfCalls(t, "Run", 1)
}

func TestQuizService_GenerateDraft_RetriesTransientErrors(t *testing.T) {
	svc, pipeline, _, _ := newTestQuizService()

	pipeline.On("Run", mock.Anything, "user-1", testURL).Return(nil, domain.NewDownloadFailedError(assert.AnError)).Twice()
	pipeline.On("Run", mock.Anything, "user-1", testURL).Return(scienceDraft(), nil).Once()

	draft, err := svc.GenerateDraft(context.Background(), "user-1", testURL)
	require.NoError(t, err)
	assert.Equal(t, "Science Quiz", draft.Title)
	pipeline.AssertNumberOfCalls(t, "Run", 3)
}

func TestQuizService_GenerateDraft_GivesUpAfterMaxAttempts(t *testing.T) {
	svc, pipeline, _, _ := newTestQuizService()

	pipeline.On("Run", mock.Anything, "user-1", testURL).Return(nil, domain.NewGenerationTimeoutError(assert.AnError))

	_, err := svc.GenerateDraft(context.Background(), "user-1", testURL)
	assert.ErrorIs(t, err, domain.ErrGenerationTimeout)
	pipeline.AssertNumberOfCalls(t, "Run", 3)
}

func TestRunWithRetry_RetriesServiceErrors(t *testing.T) {
	pipeline := new(MockQuizPipeline)
	pipeline.On("Run", mock.Anything, "quizctl", testURL).Return(nil, domain.NewGenerationServiceError(assert.AnError)).Once()
	pipeline.On("Run", mock.Anything, "quizctl", testURL).Return(scienceDraft(), nil).Once()

	retry := config.RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	draft, err := RunWithRetry(context.Background(), pipeline, "quizctl", testURL, retry, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, scienceDraft(), draft)
	pipeline.AssertNumberOfCalls(t, "Run", 2)
}

func TestRunWithRetry_ZeroAttemptsRunsOnce(t *testing.T) {
	pipeline := new(MockQuizPipeline)
	pipeline.On("Run", mock.Anything, "quizctl", testURL).Return(nil, domain.NewDownloadFailedError(assert.AnError))

	_, err := RunWithRetry(context.Background(), pipeline, "quizctl", testURL, config.RetryConfig{}, zap.NewNop())
	assert.ErrorIs(t, err, domain.ErrDownloadFailed)
	pipeline.AssertNumberOfCalls(t, "Run", 1)
}

func TestQuizService_GenerateDraft_NoRetryForPermanentErrors(t *testing.T) {
	permanent := []*domain.DomainError{
		domain.NewInvalidSourceError("ftp://x", nil),
		domain.NewNotFoundError("video is unavailable"),
		domain.NewUnsupportedContentError("media has no audio track"),
		domain.NewModelUnavailableError(assert.AnError),
		domain.NewMalformedGenerationOutputError("bad", nil),
	}
	for _, perr := range permanent {
		t.Run(string(perr.Code), func(t *testing.T) {
			svc, pipeline, _, _ := newTestQuizService()
			pipeline.On("Run", mock.Anything, "user-1", testURL).Return(nil, perr)

			_, err := svc.GenerateDraft(context.Background(), "user-1", testURL)
			assert.Same(t, perr, err)
			pipeline.AssertNumberOfCalls(t, "Run", 1)
		})
	}
}

func TestQuizService_GenerateDraft_StopsWhenContextDone(t *testing.T) {
	pipeline := new(MockQuizPipeline)
	cfg := testConfig()
	cfg.Pipeline.Retry.BaseDelay = time.Hour
	cfg.Pipeline.Retry.MaxDelay = time.Hour
	svc := NewQuizService(pipeline, new(MockQuizRepository), nil, cfg, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	pipeline.On("Run", mock.Anything, "user-1", testURL).Return(nil, domain.NewDownloadFailedError(assert.AnError))

	_, err := svc.GenerateDraft(ctx, "user-1", testURL)
	assert.ErrorIs(t, err, domain.ErrDownloadFailed)
	pipeline.AssertNumberOfCalls(t, "Run", 1)
}

func TestQuizService_ListQuizzes_CacheMissThenFill(t *testing.T) {
	svc, _, repo, c := newTestQuizService()
	key := cache.QuizListKey("user-1")

	c.On("Get", mock.Anything, key).Return("", domain.ErrCacheMiss).Once()
	repo.On("ListQuizzesByUser", mock.Anything, "user-1").Return([]*domain.Quiz{storedQuiz("q1", "user-1")}, nil).Once()
	c.On("Set", mock.Anything, key, mock.AnythingOfType("string"), time.Minute).Return(nil).Once()

	resp, err := svc.ListQuizzes(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, resp, 1)
	assert.Equal(t, "q1", resp[0].ID)
	repo.AssertExpectations(t)
	c.AssertExpectations(t)
}

func TestQuizService_ListQuizzes_CacheHit(t *testing.T) {
	svc, _, repo, c := newTestQuizService()
	cached, err := json.Marshal([]dto.QuizResponse{{ID: "q1", Title: "Cached"}})
	require.NoError(t, err)

	c.On("Get", mock.Anything, cache.QuizListKey("user-1")).Return(string(cached), nil).Once()

	resp, err := svc.ListQuizzes(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, resp, 1)
	assert.Equal(t, "Cached", resp[0].Title)
	repo.AssertNotCalled(t, "ListQuizzesByUser", mock.Anything, mock.Anything)
}

func TestQuizService_ListQuizzes_CacheErrorFailsOpen(t *testing.T) {
	svc, _, repo, c := newTestQuizService()
	key := cache.QuizListKey("user-1")

	c.On("Get", mock.Anything, key).Return("", assert.AnError).Once()
	repo.On("ListQuizzesByUser", mock.Anything, "user-1").Return([]*domain.Quiz{}, nil).Once()
	c.On("Set", mock.Anything, key, "[]", time.Minute).Return(assert.AnError).Once()

	resp, err := svc.ListQuizzes(context.Background(), "user-1")
	require.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Empty(t, resp)
}

func TestQuizService_GetQuiz_OtherUsersQuizIsNotFound(t *testing.T) {
	svc, _, repo, _ := newTestQuizService()
	repo.On("GetQuizByID", mock.Anything, "user-2", "q1").Return(nil, nil).Once()

	_, err := svc.GetQuiz(context.Background(), "user-2", "q1")
	assert.ErrorIs(t, err, domain.ErrQuizNotFound)
}

func TestQuizService_UpdateQuiz(t *testing.T) {
	svc, _, repo, c := newTestQuizService()
	title := "Renamed"

	repo.On("GetQuizByID", mock.Anything, "user-1", "q1").Return(storedQuiz("q1", "user-1"), nil).Once()
	repo.On("UpdateQuiz", mock.Anything, mock.MatchedBy(func(q *domain.Quiz) bool {
		return q.Title == "Renamed" && q.Description == "Basic facts"
	})).Return(nil).Once()
	c.On("Delete", mock.Anything, cache.QuizListKey("user-1")).Return(nil).Once()

	resp, err := svc.UpdateQuiz(context.Background(), "user-1", "q1", &dto.UpdateQuizRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", resp.Title)
	repo.AssertExpectations(t)
	c.AssertExpectations(t)
}

func TestQuizService_UpdateQuiz_BlankTitle(t *testing.T) {
	svc, _, repo, _ := newTestQuizService()
	blank := "   "

	repo.On("GetQuizByID", mock.Anything, "user-1", "q1").Return(storedQuiz("q1", "user-1"), nil).Once()

	_, err := svc.UpdateQuiz(context.Background(), "user-1", "q1", &dto.UpdateQuizRequest{Title: &blank})
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "title", verrs[0].Field)
	repo.AssertNotCalled(t, "UpdateQuiz", mock.Anything, mock.Anything)
}

func TestQuizService_DeleteQuiz(t *testing.T) {
	svc, _, repo, c := newTestQuizService()

	repo.On("DeleteQuiz", mock.Anything, "user-1", "q1").Return(true, nil).Once()
	repo.On("DeleteQuiz", mock.Anything, "user-1", "missing").Return(false, nil).Once()
	c.On("Delete", mock.Anything, cache.QuizListKey("user-1")).Return(nil).Once()

	require.NoError(t, svc.DeleteQuiz(context.Background(), "user-1", "q1"))
	assert.ErrorIs(t, svc.DeleteQuiz(context.Background(), "user-1", "missing"), domain.ErrQuizNotFound)
	c.AssertExpectations(t)
}

func TestQuizService_RepositoryErrorIsInternal(t *testing.T) {
	svc, _, repo, _ := newTestQuizService()
	repo.On("GetQuizByID", mock.Anything, "user-1", "q1").Return(nil, assert.AnError).Once()

	_, err := svc.GetQuiz(context.Background(), "user-1", "q1")
	assert.Equal(t, domain.CodeInternal, domain.CodeOf(err))
	assert.ErrorIs(t, err, assert.AnError)
}
