package domain

import (
	"fmt"
	"strings"
	"time"
)

// OptionsPerQuestion is the fixed number of answer options every question carries.
const OptionsPerQuestion = 4

// MaxDescriptionLength bounds the quiz description requested from the generator.
const MaxDescriptionLength = 150

// ValidationError represents a validation error
type ValidationError struct {
	message string
}

func (e *ValidationError) Error() string {
	return e.message
}

func NewValidationError(message string) error {
	return &ValidationError{message: message}
}

// Quiz is a persisted, user-owned quiz generated from a video.
type Quiz struct {
	ID          string
	UserID      string
	Title       string
	Description string
	VideoURL    string
	Questions   []*Question
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Question belongs to exactly one Quiz. Position keeps the generated order.
type Question struct {
	ID            string
	QuizID        string
	Position      int
	QuestionTitle string
	Options       []string
	Answer        string
	CreatedAt     time.Time
}

// QuizDraft is the validated, not yet persisted output of the pipeline.
type QuizDraft struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Questions   []QuestionDraft `json:"questions"`
}

// QuestionDraft is a single multiple-choice question inside a QuizDraft.
type QuestionDraft struct {
	QuestionTitle string   `json:"question_title"`
	Options       []string `json:"question_options"`
	Answer        string   `json:"answer"`
}

// Validate checks the per-question invariants.
func (q *QuestionDraft) Validate() error {
	if strings.TrimSpace(q.QuestionTitle) == "" {
		return NewValidationError("question_title is required")
	}
	if len(q.Options) != OptionsPerQuestion {
		return NewValidationError(fmt.Sprintf("question must have exactly %d options, got %d", OptionsPerQuestion, len(q.Options)))
	}

	seen := make(map[string]struct{}, len(q.Options))
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return NewValidationError(fmt.Sprintf("option %d is empty", i+1))
		}
		if _, dup := seen[opt]; dup {
			return NewValidationError(fmt.Sprintf("duplicate option %q", opt))
		}
		seen[opt] = struct{}{}
	}

	// Exact comparison: "Paris" and "paris" are different answers.
	if _, ok := seen[q.Answer]; !ok {
		return NewValidationError(fmt.Sprintf("answer %q is not one of the options", q.Answer))
	}
	return nil
}

// Validate checks quiz-level invariants and every question. Errors on a
// question carry its 1-based index.
func (d *QuizDraft) Validate(minQuestions int) error {
	if strings.TrimSpace(d.Title) == "" {
		return NewValidationError("title is required")
	}
	if minQuestions < 1 {
		minQuestions = 1
	}
	if len(d.Questions) < minQuestions {
		return NewValidationError(fmt.Sprintf("quiz must have at least %d question(s), got %d", minQuestions, len(d.Questions)))
	}
	for i := range d.Questions {
		if err := d.Questions[i].Validate(); err != nil {
			return NewValidationError(fmt.Sprintf("question %d: %v", i+1, err))
		}
	}
	return nil
}

// NewQuizFromDraft builds an unsaved Quiz owned by userID. IDs are assigned by
// the repository.
func NewQuizFromDraft(userID, videoURL string, draft *QuizDraft) *Quiz {
	now := time.Now()
	quiz := &Quiz{
		UserID:      userID,
		Title:       draft.Title,
		Description: draft.Description,
		VideoURL:    videoURL,
		Questions:   make([]*Question, 0, len(draft.Questions)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for i, qd := range draft.Questions {
		options := make([]string, len(qd.Options))
		copy(options, qd.Options)
		quiz.Questions = append(quiz.Questions, &Question{
			Position:      i,
			QuestionTitle: qd.QuestionTitle,
			Options:       options,
			Answer:        qd.Answer,
			CreatedAt:     now,
		})
	}
	return quiz
}

// QuizUpdate carries the editable quiz fields. Nil means unchanged.
type QuizUpdate struct {
	Title       *string
	Description *string
}

// Apply writes the non-nil fields of u onto quiz.
func (u QuizUpdate) Apply(quiz *Quiz) error {
	if u.Title != nil {
		if strings.TrimSpace(*u.Title) == "" {
			return NewValidationError("title cannot be empty")
		}
		quiz.Title = *u.Title
	}
	if u.Description != nil {
		quiz.Description = *u.Description
	}
	quiz.UpdatedAt = time.Now()
	return nil
}

// IsEmpty reports whether the update changes nothing.
func (u QuizUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil
}
