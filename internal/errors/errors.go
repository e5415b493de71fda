package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ClassesNotFound indicates the compiled-output directory is missing
	ClassesNotFound ErrorCode = "CLASSES_NOT_FOUND"
	// BuildFailed indicates the build tool exited non-zero
	BuildFailed ErrorCode = "BUILD_FAILED"
	// BuildTimeout indicates the build tool exceeded its wall-clock limit
	BuildTimeout ErrorCode = "BUILD_TIMEOUT"
	// OutputUnavailable indicates the run output directory could not be created
	OutputUnavailable ErrorCode = "OUTPUT_UNAVAILABLE"
	// InvalidConfig indicates a configuration or manifest value is invalid
	InvalidConfig ErrorCode = "INVALID_CONFIG"
	// RunNotFound indicates no stored run has the requested id
	RunNotFound ErrorCode = "RUN_NOT_FOUND"
	// ExportFileNotFound indicates a run output file does not exist
	ExportFileNotFound ErrorCode = "EXPORT_FILE_NOT_FOUND"
	// PathTraversal indicates a requested file name escapes the run directory
	PathTraversal ErrorCode = "PATH_TRAVERSAL"
	// StoreFailed indicates the analysis store could not be read or written
	StoreFailed ErrorCode = "STORE_FAILED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditConfig suggests changing a configuration value
	EditConfig FixActionType = "edit-config"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
}

// CvError is a typed failure with a stable code and suggested fixes.
type CvError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a CvError carrying the default suggested fixes for its code.
func New(code ErrorCode, message string, cause error) *CvError {
	return &CvError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf is New with a formatted message and no cause.
func Newf(code ErrorCode, format string, args ...interface{}) *CvError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *CvError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *CvError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *CvError) WithDetails(details interface{}) *CvError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first CvError in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var cv *CvError
	if stderrors.As(err, &cv) {
		return cv.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	ClassesNotFound: {
		{
			Type:        RunCommand,
			Command:     "mvn -q -DskipTests compile",
			Safe:        true,
			Description: "Compile the project so target/classes exists",
		},
		{
			Type:        EditConfig,
			Command:     "codevision analyze --auto-compile",
			Description: "Let the analyzer run the build step itself",
		},
	},
	BuildTimeout: {
		{
			Type:        EditConfig,
			Command:     "codevision analyze --build-timeout 1200",
			Description: "Raise compile.maxRuntimeSeconds",
		},
	},
	BuildFailed: {
		{
			Type:        RunCommand,
			Command:     "mvn -DskipTests compile",
			Safe:        true,
			Description: "Run the build manually to see the failure",
		},
	},
	RunNotFound: {
		{
			Type:        RunCommand,
			Command:     "codevision runs list",
			Safe:        true,
			Description: "List stored runs",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
