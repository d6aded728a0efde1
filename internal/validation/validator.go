package validation

import (
	"strings"
	"unicode/utf8"

	"clipquiz/internal/domain"
	"clipquiz/internal/dto"
	"clipquiz/internal/util"
)

const (
	MaxURLLength         = 2048
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateCreateQuizRequest checks the request shape only; whether the URL
// points at a supported video is decided by the media fetcher.
func (v *Validator) ValidateCreateQuizRequest(req *dto.CreateQuizRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	url := strings.TrimSpace(req.URL)
	if url == "" {
		errors = append(errors, domain.NewMissingFieldError("url"))
	} else if len(url) > MaxURLLength {
		errors = append(errors, domain.NewOutOfRangeError("url", len(url), 1, MaxURLLength))
	}
	return errors
}

// ValidateUpdateQuizRequest validates PUT (requireTitle) and PATCH bodies.
func (v *Validator) ValidateUpdateQuizRequest(req *dto.UpdateQuizRequest, requireTitle bool) domain.ValidationErrors {
	var errors domain.ValidationErrors

	switch {
	case req.Title == nil:
		if requireTitle {
			errors = append(errors, domain.NewMissingFieldError("title"))
		}
	case strings.TrimSpace(*req.Title) == "":
		errors = append(errors, domain.NewMissingFieldError("title"))
	case utf8.RuneCountInString(*req.Title) > MaxTitleLength:
		errors = append(errors, domain.NewOutOfRangeError("title", utf8.RuneCountInString(*req.Title), 1, MaxTitleLength))
	}

	if req.Description != nil && utf8.RuneCountInString(*req.Description) > MaxDescriptionLength {
		errors = append(errors, domain.NewOutOfRangeError("description", utf8.RuneCountInString(*req.Description), 0, MaxDescriptionLength))
	}

	if !requireTitle && req.Title == nil && req.Description == nil && len(errors) == 0 {
		errors = append(errors, domain.FieldError{
			Field:   "body",
			Code:    domain.CodeMissingField,
			Message: "at least one of title or description is required",
		})
	}
	return errors
}

// ValidateQuizID validates a quiz identifier from the path.
func (v *Validator) ValidateQuizID(id string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(id) == "" {
		errors = append(errors, domain.NewMissingFieldError("id"))
	} else if !util.IsValidULID(id) {
		errors = append(errors, domain.NewInvalidFormatError("id", id))
	}
	return errors
}
