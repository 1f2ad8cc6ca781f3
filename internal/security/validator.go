// Package security provides validation of caller-supplied todo input.
package security

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/d-kuro/todo-mcp/internal/errors"
	"github.com/d-kuro/todo-mcp/internal/storage"
)

// Default limits on todo fields. Lengths are counted in characters.
const (
	DefaultMaxTitleLength       = 200
	DefaultMaxDescriptionLength = 1000
	DefaultMaxTags              = 10
)

var idPattern = regexp.MustCompile(`^[a-f0-9-]{36}$`)

// Validator defines the input validation interface.
type Validator interface {
	ValidateID(id string) error
	ValidateTitle(title string, required bool) error
	ValidateDescription(description string) error
	ValidateTags(tags []string) error
	ValidatePriority(priority string) error
}

// DefaultValidator provides default validation implementation.
type DefaultValidator struct {
	maxTitleLength       int
	maxDescriptionLength int
	maxTags              int
}

// NewDefaultValidator creates a new default validator with the standard limits.
func NewDefaultValidator() *DefaultValidator {
	return &DefaultValidator{
		maxTitleLength:       DefaultMaxTitleLength,
		maxDescriptionLength: DefaultMaxDescriptionLength,
		maxTags:              DefaultMaxTags,
	}
}

// WithMaxTitleLength overrides the title limit.
func (v *DefaultValidator) WithMaxTitleLength(n int) *DefaultValidator {
	v.maxTitleLength = n
	return v
}

// WithMaxDescriptionLength overrides the description limit.
func (v *DefaultValidator) WithMaxDescriptionLength(n int) *DefaultValidator {
	v.maxDescriptionLength = n
	return v
}

// WithMaxTags overrides the tag count limit.
func (v *DefaultValidator) WithMaxTags(n int) *DefaultValidator {
	v.maxTags = n
	return v
}

// ValidateID checks that id has the shape of a todo identifier.
func (v *DefaultValidator) ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return errors.Validation("Invalid TODO ID format")
	}
	return nil
}

// ValidateTitle checks a title. Create requires one; update only rejects
// a blank replacement.
func (v *DefaultValidator) ValidateTitle(title string, required bool) error {
	if strings.TrimSpace(title) == "" {
		if required {
			return errors.Validation("Title is required and cannot be empty")
		}
		return errors.Validation("Title cannot be empty")
	}
	if utf8.RuneCountInString(title) > v.maxTitleLength {
		return errors.Validationf("Title cannot exceed %d characters", v.maxTitleLength)
	}
	return nil
}

// ValidateDescription checks the description length.
func (v *DefaultValidator) ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > v.maxDescriptionLength {
		return errors.Validationf("Description cannot exceed %d characters", v.maxDescriptionLength)
	}
	return nil
}

// ValidateTags checks the number of tags.
func (v *DefaultValidator) ValidateTags(tags []string) error {
	if len(tags) > v.maxTags {
		return errors.Validationf("Cannot have more than %d tags", v.maxTags)
	}
	return nil
}

// ValidatePriority checks that priority is one of the known levels.
func (v *DefaultValidator) ValidatePriority(priority string) error {
	if !storage.Priority(priority).Valid() {
		return errors.Validation("Priority must be one of: low, medium, high")
	}
	return nil
}
