package domain

import "context"

// QuizRepository defines the interface for quiz persistence. Every read and
// write is scoped to the owning user.
type QuizRepository interface {
	// SaveQuiz stores the quiz and its questions atomically and fills in IDs.
	SaveQuiz(ctx context.Context, quiz *Quiz) error

	// ListQuizzesByUser returns the user's quizzes, newest first, with questions.
	ListQuizzesByUser(ctx context.Context, userID string) ([]*Quiz, error)

	// GetQuizByID returns nil, nil when the quiz does not exist or belongs to someone else.
	GetQuizByID(ctx context.Context, userID, id string) (*Quiz, error)

	// UpdateQuiz persists title and description changes.
	UpdateQuiz(ctx context.Context, quiz *Quiz) error

	// DeleteQuiz removes the quiz and its questions. It reports whether a row was removed.
	DeleteQuiz(ctx context.Context, userID, id string) (bool, error)
}

// TransactionManager runs fn in a single database transaction. Repositories
// pick the transaction up from the context passed to fn.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
