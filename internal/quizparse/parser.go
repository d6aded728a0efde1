// Package quizparse turns free-text model output into a validated QuizDraft.
package quizparse

import (
	"fmt"
	"strings"

	"clipquiz/internal/domain"

	"github.com/texttheater/golang-levenshtein/levenshtein"
	"go.uber.org/zap"
)

type wireQuestion struct {
	QuestionTitle   *string  `json:"question_title"`
	Question        *string  `json:"question"`
	Options         []string `json:"options"`
	QuestionOptions []string `json:"question_options"`
	Answer          *string  `json:"answer"`
}

type wireQuiz struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Questions   []wireQuestion `json:"questions"`
}

// Parser implements domain.ResponseParser.
type Parser struct {
	minQuestions int
	logger       *zap.Logger
}

func NewParser(minQuestions int, logger *zap.Logger) *Parser {
	if minQuestions < 1 {
		minQuestions = 1
	}
	return &Parser{minQuestions: minQuestions, logger: logger}
}

// Parse decodes raw in two phases. The first scans raw as is for the quiz
// object. If none decodes, the output is normalized once and scanned again.
// Every failure is MalformedGenerationOutput.
func (p *Parser) Parse(raw string) (*domain.QuizDraft, error) {
	normalized := normalize(raw)
	if isArray(normalized) {
		return nil, domain.NewMalformedGenerationOutputError("model output is a JSON array, expected a quiz object", nil).
			WithContext("snippet", snippet(raw))
	}

	wire, firstErr := decodeQuizObject(raw)
	if firstErr != nil {
		var err error
		if wire, err = decodeQuizObject(normalized); err != nil {
			return nil, domain.NewMalformedGenerationOutputError("model output is not a valid quiz JSON object", err).
				WithContext("snippet", snippet(raw))
		}
		p.logger.Debug("model output decoded after normalization", zap.NamedError("first_error", firstErr))
	}

	return p.toDraft(wire)
}

func (p *Parser) toDraft(w *wireQuiz) (*domain.QuizDraft, error) {
	if w.Title == nil || strings.TrimSpace(*w.Title) == "" {
		return nil, domain.NewMalformedGenerationOutputError("quiz title is missing", nil)
	}

	draft := &domain.QuizDraft{
		Title:     strings.TrimSpace(*w.Title),
		Questions: make([]domain.QuestionDraft, 0, len(w.Questions)),
	}
	if w.Description != nil {
		draft.Description = strings.TrimSpace(*w.Description)
	}

	for i, wq := range w.Questions {
		q, err := p.toQuestion(i+1, wq)
		if err != nil {
			return nil, err
		}
		draft.Questions = append(draft.Questions, q)
	}

	if err := draft.Validate(p.minQuestions); err != nil {
		return nil, domain.NewMalformedGenerationOutputError(err.Error(), nil).
			WithContext("question_count", len(draft.Questions))
	}
	return draft, nil
}

func (p *Parser) toQuestion(n int, wq wireQuestion) (domain.QuestionDraft, error) {
	q := domain.QuestionDraft{Options: wq.Options}
	switch {
	case wq.QuestionTitle != nil:
		q.QuestionTitle = strings.TrimSpace(*wq.QuestionTitle)
	case wq.Question != nil:
		q.QuestionTitle = strings.TrimSpace(*wq.Question)
	}
	if q.Options == nil {
		q.Options = wq.QuestionOptions
	}

	if wq.Answer == nil {
		return q, domain.NewMalformedGenerationOutputError(fmt.Sprintf("question %d: answer is missing", n), nil).
			WithContext("question", n)
	}
	q.Answer = *wq.Answer

	if err := q.Validate(); err != nil {
		derr := domain.NewMalformedGenerationOutputError(fmt.Sprintf("question %d: %v", n, err), nil).
			WithContext("question", n)
		if closest, ok := closestOption(q.Answer, q.Options); ok && closest != q.Answer {
			derr.WithContext("closest_option", closest)
		}
		return q, derr
	}

	p.warnNearDuplicates(n, q.Options)
	return q, nil
}

// closestOption returns the option with the smallest edit distance to answer.
func closestOption(answer string, options []string) (string, bool) {
	best, bestDist := "", -1
	for _, opt := range options {
		d := distance(answer, opt)
		if bestDist < 0 || d < bestDist {
			best, bestDist = opt, d
		}
	}
	return best, bestDist >= 0
}

// warnNearDuplicates logs options that differ only by case or a single edit;
// exact answer matching makes such questions ambiguous for players.
func (p *Parser) warnNearDuplicates(n int, options []string) {
	for i := 0; i < len(options); i++ {
		for j := i + 1; j < len(options); j++ {
			if distance(strings.ToLower(options[i]), strings.ToLower(options[j])) <= 2 {
				p.logger.Warn("question has near-duplicate options",
					zap.Int("question", n),
					zap.String("option_a", options[i]),
					zap.String("option_b", options[j]))
			}
		}
	}
}

func distance(a, b string) int {
	return levenshtein.DistanceForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
}

var _ domain.ResponseParser = (*Parser)(nil)
