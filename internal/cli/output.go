package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go-portal-sync/internal/common/errs"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the sync or store operation failed
	ExitCommandError = 2 // bad flags or configuration
)

// ExitError carries the process exit code for an error.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// GetExitCode maps err onto a process exit code. Configuration errors are
// command errors; everything else is a failure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errs.IsKind(err, errs.KindConfiguration) {
		return ExitCommandError
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the JSON envelope for command output.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

type CLIError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Success writes data as JSON, or calls text for the text format.
func (f *OutputFormatter) Success(data any, text func(w io.Writer)) error {
	if f.Format == "json" {
		return f.writeJSON(CLIResponse{Status: "ok", Data: data})
	}
	text(f.Writer)
	return nil
}

// Failure writes err, and data when present, then returns err unchanged.
func (f *OutputFormatter) Failure(err error, data any) error {
	if f.Format == "json" {
		if werr := f.writeJSON(CLIResponse{
			Status: "error",
			Data:   data,
			Error:  &CLIError{Kind: string(errs.KindOf(err)), Message: err.Error()},
		}); werr != nil {
			return werr
		}
	}
	return err
}

func (f *OutputFormatter) writeJSON(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
