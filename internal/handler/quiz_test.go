package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"clipquiz/internal/config"
	"clipquiz/internal/domain"
	"clipquiz/internal/dto"
	"clipquiz/internal/handler"
	"clipquiz/internal/middleware"
	"clipquiz/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "handler-test-secret"
	testQuizID = "01J9ZQ3V7C4X8N2M6K5H1G0F9E"
	videoURL   = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
)

// --- Manual Mocks ---

type MockQuizService struct {
	GenerateDraftFunc func(ctx context.Context, userID, url string) (*domain.QuizDraft, error)
	CreateQuizFunc    func(ctx context.Context, userID, url string) (*dto.QuizResponse, error)
	ListQuizzesFunc   func(ctx context.Context, userID string) ([]dto.QuizResponse, error)
	GetQuizFunc       func(ctx context.Context, userID, quizID string) (*dto.QuizResponse, error)
	UpdateQuizFunc    func(ctx context.Context, userID, quizID string, req *dto.UpdateQuizRequest) (*dto.QuizResponse, error)
	DeleteQuizFunc    func(ctx context.Context, userID, quizID string) error
}

func (m *MockQuizService) GenerateDraft(ctx context.Context, userID, url string) (*domain.QuizDraft, error) {
	if m.GenerateDraftFunc != nil {
		return m.GenerateDraftFunc(ctx, userID, url)
	}
	panic("MockQuizService.GenerateDraftFunc not implemented")
}

func (m *MockQuizService) CreateQuiz(ctx context.Context, userID, url string) (*dto.QuizResponse, error) {
	if m.CreateQuizFunc != nil {
		return m.CreateQuizFunc(ctx, userID, url)
	}
	panic("MockQuizService.CreateQuizFunc not implemented")
}

func (m *MockQuizService) ListQuizzes(ctx context.Context, userID string) ([]dto.QuizResponse, error) {
	if m.ListQuizzesFunc != nil {
		return m.ListQuizzesFunc(ctx, userID)
	}
	panic("MockQuizService.ListQuizzesFunc not implemented")
}

func (m *MockQuizService) GetQuiz(ctx context.Context, userID, quizID string) (*dto.QuizResponse, error) {
	if m.GetQuizFunc != nil {
		return m.GetQuizFunc(ctx, userID, quizID)
	}
	panic("MockQuizService.GetQuizFunc not implemented")
}

func (m *MockQuizService) UpdateQuiz(ctx context.Context, userID, quizID string, req *dto.UpdateQuizRequest) (*dto.QuizResponse, error) {
	if m.UpdateQuizFunc != nil {
		return m.UpdateQuizFunc(ctx, userID, quizID, req)
	}
	panic("MockQuizService.UpdateQuizFunc not implemented")
}

func (m *MockQuizService) DeleteQuiz(ctx context.Context, userID, quizID string) error {
	if m.DeleteQuizFunc != nil {
		return m.DeleteQuizFunc(ctx, userID, quizID)
	}
	panic("MockQuizService.DeleteQuizFunc not implemented")
}

type MockHealthService struct {
	Response dto.HealthResponse
}

func (m *MockHealthService) Check(ctx context.Context) dto.HealthResponse {
	return m.Response
}

// --- Helpers ---

type testEnv struct {
	app    *fiber.App
	auth   service.AuthService
	quiz   *MockQuizService
	health *MockHealthService
}

func setupApp(t *testing.T) *testEnv {
	t.Helper()
	auth, err := service.NewAuthService(config.AuthConfig{JWTSecret: testSecret})
	require.NoError(t, err)

	env := &testEnv{
		app:    fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()}),
		auth:   auth,
		quiz:   &MockQuizService{},
		health: &MockHealthService{Response: dto.HealthResponse{Status: service.StatusOK, Model: "base", ModelLoaded: true, Cache: "ok"}},
	}
	handler.RegisterRoutes(env.app, handler.NewQuizHandler(env.quiz), handler.NewHealthHandler(env.health), auth, "access_token")
	return env
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := e.auth.CreateJWT(context.Background(), userID, time.Hour)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func scienceQuizResponse() *dto.QuizResponse {
	return &dto.QuizResponse{
		ID:       testQuizID,
		Title:    "Science Quiz",
		VideoURL: videoURL,
		Questions: []dto.QuestionResponse{{
			ID:              "q1",
			QuestionTitle:   "What color is the sky?",
			QuestionOptions: []string{"Blue", "Red", "Green", "Yellow"},
			Answer:          "Blue",
		}},
	}
}

// --- Tests ---

func TestCreateQuiz_Success(t *testing.T) {
	env := setupApp(t)
	env.quiz.CreateQuizFunc = func(ctx context.Context, userID, url string) (*dto.QuizResponse, error) {
		assert.Equal(t, "user-1", userID)
		assert.Equal(t, videoURL, url)
		return scienceQuizResponse(), nil
	}

	status, body := env.do(t, "POST", "/api/quizzes", env.token(t, "user-1"), dto.CreateQuizRequest{URL: videoURL})
	assert.Equal(t, fiber.StatusCreated, status)

	var got dto.QuizResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "Science Quiz", got.Title)
	require.Len(t, got.Questions, 1)
	assert.Equal(t, "Blue", got.Questions[0].Answer)
}

func TestCreateQuiz_MissingURL(t *testing.T) {
	env := setupApp(t)

	status, body := env.do(t, "POST", "/api/quizzes", env.token(t, "user-1"), dto.CreateQuizRequest{URL: "  "})
	assert.Equal(t, fiber.StatusBadRequest, status)

	var got middleware.ValidationErrorResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, string(domain.CodeValidation), got.Code)
	require.Len(t, got.Errors, 1)
	assert.Equal(t, "url", got.Errors[0].Field)
}

func TestCreateQuiz_PipelineErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		retryable bool
	}{
		{"invalid source", domain.NewInvalidSourceError("ftp://x", nil), fiber.StatusBadRequest, false},
		{"not found", domain.NewNotFoundError("video is unavailable"), fiber.StatusNotFound, false},
		{"unsupported content", domain.NewUnsupportedContentError("media has no audio track"), fiber.StatusUnprocessableEntity, false},
		{"transcription failed", domain.NewTranscriptionFailedError(assert.AnError), fiber.StatusUnprocessableEntity, false},
		{"malformed output", domain.NewMalformedGenerationOutputError("bad", nil), fiber.StatusUnprocessableEntity, false},
		{"download failed", domain.NewDownloadFailedError(assert.AnError), fiber.StatusServiceUnavailable, true},
		{"generation service", domain.NewGenerationServiceError(assert.AnError), fiber.StatusServiceUnavailable, true},
		{"generation timeout", domain.NewGenerationTimeoutError(assert.AnError), fiber.StatusGatewayTimeout, true},
		{"model unavailable", domain.NewModelUnavailableError(assert.AnError), fiber.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupApp(t)
			env.quiz.CreateQuizFunc = func(ctx context.Context, userID, url string) (*dto.QuizResponse, error) {
				return nil, tt.err
			}

			status, body := env.do(t, "POST", "/api/quizzes", env.token(t, "user-1"), dto.CreateQuizRequest{URL: videoURL})
			assert.Equal(t, tt.status, status)

			var got middleware.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, string(domain.CodeOf(tt.err)), got.Code)
			assert.Equal(t, tt.retryable, got.Retryable)
		})
	}
}

func TestQuizRoutes_RequireAuth(t *testing.T) {
	env := setupApp(t)

	status, body := env.do(t, "GET", "/api/quizzes", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, string(body), "MISSING_AUTH_TOKEN")

	status, body = env.do(t, "GET", "/api/quizzes", "garbage", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, string(body), "INVALID_TOKEN")
}

func TestQuizRoutes_CookieFallback(t *testing.T) {
	env := setupApp(t)
	env.quiz.ListQuizzesFunc = func(ctx context.Context, userID string) ([]dto.QuizResponse, error) {
		assert.Equal(t, "cookie-user", userID)
		return []dto.QuizResponse{}, nil
	}

	req := httptest.NewRequest("GET", "/api/quizzes", nil)
	req.Header.Set("Cookie", "access_token="+env.token(t, "cookie-user"))
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestListQuizzes_ReturnsArray(t *testing.T) {
	env := setupApp(t)
	env.quiz.ListQuizzesFunc = func(ctx context.Context, userID string) ([]dto.QuizResponse, error) {
		return []dto.QuizResponse{*scienceQuizResponse()}, nil
	}

	status, body := env.do(t, "GET", "/api/quizzes", env.token(t, "user-1"), nil)
	assert.Equal(t, fiber.StatusOK, status)

	var got []dto.QuizResponse
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got, 1)
	assert.Equal(t, testQuizID, got[0].ID)
}

func TestGetQuiz(t *testing.T) {
	env := setupApp(t)
	env.quiz.GetQuizFunc = func(ctx context.Context, userID, quizID string) (*dto.QuizResponse, error) {
		if userID != "user-1" {
			return nil, domain.NewQuizNotFoundError(quizID)
		}
		return scienceQuizResponse(), nil
	}

	status, _ := env.do(t, "GET", "/api/quizzes/"+testQuizID, env.token(t, "user-1"), nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, body := env.do(t, "GET", "/api/quizzes/"+testQuizID, env.token(t, "user-2"), nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Contains(t, string(body), string(domain.CodeQuizNotFound))
}

func TestGetQuiz_InvalidID(t *testing.T) {
	env := setupApp(t)

	status, body := env.do(t, "GET", "/api/quizzes/not-a-ulid", env.token(t, "user-1"), nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(body), `"field":"id"`)
}

func TestPatchQuiz(t *testing.T) {
	env := setupApp(t)
	env.quiz.UpdateQuizFunc = func(ctx context.Context, userID, quizID string, req *dto.UpdateQuizRequest) (*dto.QuizResponse, error) {
		require.NotNil(t, req.Title)
		assert.Nil(t, req.Description)
		resp := scienceQuizResponse()
		resp.Title = *req.Title
		return resp, nil
	}

	title := "Renamed"
	status, body := env.do(t, "PATCH", "/api/quizzes/"+testQuizID, env.token(t, "user-1"), dto.UpdateQuizRequest{Title: &title})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), "Renamed")
}

func TestPatchQuiz_EmptyBody(t *testing.T) {
	env := setupApp(t)

	status, _ := env.do(t, "PATCH", "/api/quizzes/"+testQuizID, env.token(t, "user-1"), map[string]string{})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestReplaceQuiz_RequiresTitleAndClearsDescription(t *testing.T) {
	env := setupApp(t)
	env.quiz.UpdateQuizFunc = func(ctx context.Context, userID, quizID string, req *dto.UpdateQuizRequest) (*dto.QuizResponse, error) {
		require.NotNil(t, req.Description)
		assert.Equal(t, "", *req.Description)
		return scienceQuizResponse(), nil
	}

	description := "only a description"
	status, _ := env.do(t, "PUT", "/api/quizzes/"+testQuizID, env.token(t, "user-1"), dto.UpdateQuizRequest{Description: &description})
	assert.Equal(t, fiber.StatusBadRequest, status)

	title := "New title"
	status, _ = env.do(t, "PUT", "/api/quizzes/"+testQuizID, env.token(t, "user-1"), dto.UpdateQuizRequest{Title: &title})
	assert.Equal(t, fiber.StatusOK, status)
}

func TestDeleteQuiz(t *testing.T) {
	env := setupApp(t)
	env.quiz.DeleteQuizFunc = func(ctx context.Context, userID, quizID string) error {
		if quizID == testQuizID {
			return nil
		}
		return domain.NewQuizNotFoundError(quizID)
	}

	status, _ := env.do(t, "DELETE", "/api/quizzes/"+testQuizID, env.token(t, "user-1"), nil)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, _ = env.do(t, "DELETE", "/api/quizzes/01J9ZQ3V7C4X8N2M6K5H1G0F9F", env.token(t, "user-1"), nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestHealth(t *testing.T) {
	env := setupApp(t)

	status, body := env.do(t, "GET", "/api/health", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), `"model_loaded":true`)

	env.health.Response = dto.HealthResponse{Status: service.StatusDegraded, Model: "base", ModelMessage: "whisper model file not found", Cache: "ok"}
	status, _ = env.do(t, "GET", "/api/health", "", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
}
