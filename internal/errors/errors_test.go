package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{name: "validation", err: Validation("bad"), want: CodeValidation},
		{name: "not found", err: NotFound("missing"), want: CodeNotFound},
		{name: "internal", err: Internal("boom"), want: CodeInternal},
		{name: "wrapped validation", err: fmt.Errorf("ctx: %w", Validation("bad")), want: CodeValidation},
		{name: "plain error", err: New("plain"), want: CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestToolErrorIs(t *testing.T) {
	err := Wrap(NotFound("TODO with id 'x' not found"), "update")

	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrValidation))
	assert.False(t, Is(err, ErrInternal))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "Title cannot be empty", MessageOf(Validation("Title cannot be empty")))
	assert.Equal(t, "boom", MessageOf(New("boom")))
	assert.Equal(t, "cause", MessageOf(&ToolError{Code: CodeInternal, Cause: New("cause")}))
	assert.Equal(t, "Unknown error occurred", MessageOf(nil))
}

func TestInternalWithCauseUnwraps(t *testing.T) {
	cause := New("disk on fire")
	err := InternalWithCause("publish failed", cause)

	assert.True(t, Is(err, cause))
	assert.Equal(t, "INTERNAL_ERROR: publish failed: disk on fire", err.Error())
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "context"))
}
