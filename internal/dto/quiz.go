package dto

import "time"

// CreateQuizRequest is the body of POST /api/quizzes
// @Description Request body for generating a quiz from a video
type CreateQuizRequest struct {
	URL string `json:"url" example:"https://www.youtube.com/watch?v=dQw4w9WgXcQ"`
}

// QuestionResponse represents a question in the API response
type QuestionResponse struct {
	ID              string    `json:"id"`
	QuestionTitle   string    `json:"question_title"`
	QuestionOptions []string  `json:"question_options"`
	Answer          string    `json:"answer"`
	CreatedAt       time.Time `json:"created_at"`
}

// QuizResponse represents a quiz in the API response
// @Description Quiz with its questions in generation order
type QuizResponse struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	VideoURL    string             `json:"video_url"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Questions   []QuestionResponse `json:"questions"`
}

// UpdateQuizRequest carries a full (PUT) or partial (PATCH) update.
// @Description Editable quiz fields; omitted fields are left unchanged
type UpdateQuizRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// HealthResponse is returned by GET /api/health
type HealthResponse struct {
	Status       string `json:"status"`
	Model        string `json:"model"`
	ModelLoaded  bool   `json:"model_loaded"`
	ModelMessage string `json:"model_message,omitempty"`
	Cache        string `json:"cache"`
}
