package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clipquiz/internal/domain"
	"clipquiz/internal/repository/models"
	"clipquiz/internal/util"

	"github.com/jmoiron/sqlx"
)

const quizColumns = `
		id "id",
		user_id "user_id",
		title "title",
		description "description",
		video_url "video_url",
		created_at "created_at",
		updated_at "updated_at"`

const questionColumns = `
		qq.id "id",
		qq.quiz_id "quiz_id",
		qq.position "position",
		qq.question_title "question_title",
		qq.options "options",
		qq.answer "answer",
		qq.created_at "created_at"`

// QuizDatabaseAdapter implements domain.QuizRepository using sqlx on Oracle.
type QuizDatabaseAdapter struct {
	db  *sqlx.DB
	txm domain.TransactionManager
}

// NewQuizDatabaseAdapter creates a new instance of QuizDatabaseAdapter
func NewQuizDatabaseAdapter(db *sqlx.DB, txm domain.TransactionManager) domain.QuizRepository {
	return &QuizDatabaseAdapter{db: db, txm: txm}
}

// SaveQuiz implements domain.QuizRepository
func (a *QuizDatabaseAdapter) SaveQuiz(ctx context.Context, quiz *domain.Quiz) error {
	if quiz == nil {
		return fmt.Errorf("cannot save nil quiz")
	}

	now := time.Now()
	quizID := util.NewULID()
	modelQuiz := toModelQuiz(quiz)
	modelQuiz.ID = quizID
	modelQuiz.CreatedAt = now
	modelQuiz.UpdatedAt = now

	modelQuestions := make([]*models.Question, 0, len(quiz.Questions))
	for i, q := range quiz.Questions {
		mq := toModelQuestion(q)
		mq.ID = util.NewULID()
		mq.QuizID = quizID
		mq.Position = i
		mq.CreatedAt = now
		modelQuestions = append(modelQuestions, mq)
	}

	err := a.txm.WithTransaction(ctx, func(ctx context.Context) error {
		exec := GetExecutor(ctx, a.db)

		query := `INSERT INTO quizzes (
			id, user_id, title, description, video_url, created_at, updated_at
		) VALUES (
			:1, :2, :3, :4, :5, :6, :7
		)`
		if _, err := exec.ExecContext(ctx, query,
			modelQuiz.ID,
			modelQuiz.UserID,
			modelQuiz.Title,
			modelQuiz.Description,
			modelQuiz.VideoURL,
			modelQuiz.CreatedAt,
			modelQuiz.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert quiz: %w", err)
		}

		questionQuery := `INSERT INTO quiz_questions (
			id, quiz_id, position, question_title, options, answer, created_at
		) VALUES (
			:1, :2, :3, :4, :5, :6, :7
		)`
		for _, mq := range modelQuestions {
			if _, err := exec.ExecContext(ctx, questionQuery,
				mq.ID,
				mq.QuizID,
				mq.Position,
				mq.QuestionTitle,
				mq.Options,
				mq.Answer,
				mq.CreatedAt,
			); err != nil {
				return fmt.Errorf("failed to insert question %d: %w", mq.Position+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save quiz: %w", err)
	}

	quiz.ID = quizID
	quiz.CreatedAt = now
	quiz.UpdatedAt = now
	for i, q := range quiz.Questions {
		q.ID = modelQuestions[i].ID
		q.QuizID = quizID
		q.Position = i
		q.CreatedAt = now
	}
	return nil
}

// ListQuizzesByUser implements domain.QuizRepository
func (a *QuizDatabaseAdapter) ListQuizzesByUser(ctx context.Context, userID string) ([]*domain.Quiz, error) {
	exec := GetExecutor(ctx, a.db)

	var modelQuizzes []models.Quiz
	query := `SELECT` + quizColumns + `
	FROM quizzes
	WHERE user_id = :1
	ORDER BY created_at DESC, id DESC`
	if err := exec.SelectContext(ctx, &modelQuizzes, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list quizzes for user %s: %w", userID, err)
	}
	if len(modelQuizzes) == 0 {
		return []*domain.Quiz{}, nil
	}

	var modelQuestions []models.Question
	questionQuery := `SELECT` + questionColumns + `
	FROM quiz_questions qq
	JOIN quizzes q ON q.id = qq.quiz_id
	WHERE q.user_id = :1
	ORDER BY qq.quiz_id, qq.position`
	if err := exec.SelectContext(ctx, &modelQuestions, questionQuery, userID); err != nil {
		return nil, fmt.Errorf("failed to list questions for user %s: %w", userID, err)
	}

	byQuiz := make(map[string][]*domain.Question, len(modelQuizzes))
	for i := range modelQuestions {
		q := toDomainQuestion(&modelQuestions[i])
		byQuiz[q.QuizID] = append(byQuiz[q.QuizID], q)
	}

	quizzes := make([]*domain.Quiz, 0, len(modelQuizzes))
	for i := range modelQuizzes {
		quiz := toDomainQuiz(&modelQuizzes[i])
		if qs, ok := byQuiz[quiz.ID]; ok {
			quiz.Questions = qs
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, nil
}

// GetQuizByID implements domain.QuizRepository
func (a *QuizDatabaseAdapter) GetQuizByID(ctx context.Context, userID, id string) (*domain.Quiz, error) {
	exec := GetExecutor(ctx, a.db)

	var modelQuiz models.Quiz
	query := `SELECT` + quizColumns + `
	FROM quizzes
	WHERE id = :1
	AND user_id = :2`
	if err := exec.GetContext(ctx, &modelQuiz, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quiz by ID %s: %w", id, err)
	}

	var modelQuestions []models.Question
	questionQuery := `SELECT` + questionColumns + `
	FROM quiz_questions qq
	WHERE qq.quiz_id = :1
	ORDER BY qq.position`
	if err := exec.SelectContext(ctx, &modelQuestions, questionQuery, id); err != nil {
		return nil, fmt.Errorf("failed to get questions for quiz %s: %w", id, err)
	}

	quiz := toDomainQuiz(&modelQuiz)
	for i := range modelQuestions {
		quiz.Questions = append(quiz.Questions, toDomainQuestion(&modelQuestions[i]))
	}
	return quiz, nil
}

// UpdateQuiz implements domain.QuizRepository. Questions are immutable.
func (a *QuizDatabaseAdapter) UpdateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	if quiz == nil {
		return fmt.Errorf("cannot update nil quiz")
	}
	if quiz.ID == "" {
		return fmt.Errorf("cannot update quiz with empty ID")
	}
	modelQuiz := toModelQuiz(quiz)
	modelQuiz.UpdatedAt = time.Now()

	query := `UPDATE quizzes SET
		title = :1,
		description = :2,
		updated_at = :3
	WHERE id = :4
	AND user_id = :5`

	result, err := GetExecutor(ctx, a.db).ExecContext(ctx, query,
		modelQuiz.Title,
		modelQuiz.Description,
		modelQuiz.UpdatedAt,
		modelQuiz.ID,
		modelQuiz.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update quiz: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.NewQuizNotFoundError(quiz.ID)
	}
	quiz.UpdatedAt = modelQuiz.UpdatedAt
	return nil
}

// DeleteQuiz implements domain.QuizRepository
func (a *QuizDatabaseAdapter) DeleteQuiz(ctx context.Context, userID, id string) (bool, error) {
	var deleted bool
	err := a.txm.WithTransaction(ctx, func(ctx context.Context) error {
		exec := GetExecutor(ctx, a.db)

		result, err := exec.ExecContext(ctx, `DELETE FROM quizzes WHERE id = :1 AND user_id = :2`, id, userID)
		if err != nil {
			return fmt.Errorf("failed to delete quiz: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return nil
		}
		deleted = true

		// quiz_questions has ON DELETE CASCADE; this covers schemas created without it.
		if _, err := exec.ExecContext(ctx, `DELETE FROM quiz_questions WHERE quiz_id = :1`, id); err != nil {
			return fmt.Errorf("failed to delete questions: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

func toDomainQuiz(m *models.Quiz) *domain.Quiz {
	return &domain.Quiz{
		ID:          m.ID,
		UserID:      m.UserID,
		Title:       m.Title,
		Description: util.NullStringToString(m.Description),
		VideoURL:    m.VideoURL,
		Questions:   []*domain.Question{},
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toModelQuiz(d *domain.Quiz) *models.Quiz {
	return &models.Quiz{
		ID:          d.ID,
		UserID:      d.UserID,
		Title:       d.Title,
		Description: util.StringToNullString(d.Description),
		VideoURL:    d.VideoURL,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func toDomainQuestion(m *models.Question) *domain.Question {
	options := make([]string, len(m.Options))
	copy(options, m.Options)
	return &domain.Question{
		ID:            m.ID,
		QuizID:        m.QuizID,
		Position:      m.Position,
		QuestionTitle: m.QuestionTitle,
		Options:       options,
		Answer:        m.Answer,
		CreatedAt:     m.CreatedAt,
	}
}

func toModelQuestion(d *domain.Question) *models.Question {
	return &models.Question{
		ID:            d.ID,
		QuizID:        d.QuizID,
		Position:      d.Position,
		QuestionTitle: d.QuestionTitle,
		Options:       models.StringSlice(d.Options),
		Answer:        d.Answer,
		CreatedAt:     d.CreatedAt,
	}
}
