// Package errors defines the typed error taxonomy of the pipeline.
package errors

import (
	"fmt"
	"time"
)

// ConfigurationError signals an invalid gate or pipeline configuration. It
// is raised synchronously at construction or reload and never silently
// ignored.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// NewConfigurationError creates a ConfigurationError for the given field.
func NewConfigurationError(field, reason string) error {
	return &ConfigurationError{Field: field, Reason: reason}
}

// ProducerError represents a collaborator that threw or timed out. It is
// absorbed locally into a warning CheckResult and never propagated past the
// check executor.
type ProducerError struct {
	CheckID string
	Timeout bool
	Err     error
}

func (e *ProducerError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("producer for check %q timed out", e.CheckID)
	}
	return fmt.Sprintf("producer for check %q failed: %v", e.CheckID, e.Err)
}

func (e *ProducerError) Unwrap() error { return e.Err }

// NewProducerError wraps a collaborator failure.
func NewProducerError(checkID string, err error) *ProducerError {
	return &ProducerError{CheckID: checkID, Err: err}
}

// NewProducerTimeout marks a collaborator call that exceeded its deadline.
func NewProducerTimeout(checkID string, timeout time.Duration) *ProducerError {
	return &ProducerError{
		CheckID: checkID,
		Timeout: true,
		Err:     fmt.Errorf("deadline of %v exceeded", timeout),
	}
}

// GateExecutionError signals that a gate itself failed to execute. It is
// captured into a synthetic failed GateResult so a report can still be
// produced.
type GateExecutionError struct {
	GateID string
	Err    error
}

func (e *GateExecutionError) Error() string {
	return fmt.Sprintf("gate %q execution failed: %v", e.GateID, e.Err)
}

func (e *GateExecutionError) Unwrap() error { return e.Err }

// HistoryLoadError reports malformed historical report data. It is reported
// to the caller but is never fatal to a run.
type HistoryLoadError struct {
	Path string
	Err  error
}

func (e *HistoryLoadError) Error() string {
	return fmt.Sprintf("failed to load report history from %q: %v", e.Path, e.Err)
}

func (e *HistoryLoadError) Unwrap() error { return e.Err }

// CommandError represents a CLI command failure carrying the exit code the
// process should terminate with.
type CommandError struct {
	ExitCode    int
	CommonError string
}

func (e *CommandError) Error() string {
	return e.CommonError
}

// NewCommandError creates a new CommandError encapsulating the error message
// and exit code.
func NewCommandError(err error, code int) *CommandError {
	return &CommandError{ExitCode: code, CommonError: err.Error()}
}
