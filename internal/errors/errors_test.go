package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("no such directory")
	err := New(ClassesNotFound, "classes directory not found", cause)

	if err.Code != ClassesNotFound {
		t.Errorf("Code = %v, want %v", err.Code, ClassesNotFound)
	}
	if err.Message != "classes directory not found" {
		t.Errorf("Message = %q", err.Message)
	}
	if len(err.SuggestedFixes) != 2 {
		t.Errorf("len(SuggestedFixes) = %d, want 2", len(err.SuggestedFixes))
	}
}

func TestCvError_Error(t *testing.T) {
	tests := []struct {
		name      string
		code      ErrorCode
		message   string
		cause     error
		wantParts []string
	}{
		{
			name:      "with cause",
			code:      BuildFailed,
			message:   "maven exited with status 1",
			cause:     errors.New("exit status 1"),
			wantParts: []string{"BUILD_FAILED", "maven exited", "exit status 1"},
		},
		{
			name:      "without cause",
			code:      RunNotFound,
			message:   "run abc not found",
			wantParts: []string{"RUN_NOT_FOUND", "run abc not found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.code, tt.message, tt.cause).Error()
			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, want to contain %q", got, part)
				}
			}
		})
	}
}

func TestCvError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(InternalError, "something went wrong", cause)
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false")
	}
	if New(BuildTimeout, "timed out", nil).Unwrap() != nil {
		t.Errorf("Unwrap() on error without cause should return nil")
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("analyze: %w", Newf(PathTraversal, "bad name %q", "../x"))
	if got := CodeOf(wrapped); got != PathTraversal {
		t.Errorf("CodeOf() = %q, want %q", got, PathTraversal)
	}
	if !Is(wrapped, PathTraversal) {
		t.Errorf("Is() = false, want true")
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("CodeOf(plain) = %q, want empty", got)
	}
}

func TestWithDetails(t *testing.T) {
	err := Newf(InvalidConfig, "bad value").WithDetails(map[string]string{"field": "analysis.maxCallDepth"})
	if err.Details == nil {
		t.Errorf("Details not set")
	}
}

func TestGetSuggestedFixes(t *testing.T) {
	if fixes := GetSuggestedFixes(BuildTimeout); len(fixes) == 0 {
		t.Errorf("expected fixes for %s", BuildTimeout)
	}
	if fixes := GetSuggestedFixes(InternalError); fixes != nil {
		t.Errorf("expected no fixes for %s, got %v", InternalError, fixes)
	}
}
