package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrValidation signals a malformed query rejected before any backend call.
	ErrValidation = errors.New("invalid query")
	// ErrBackend signals a failed or timed out collaborator.
	ErrBackend = errors.New("backend error")
	// ErrConsistency signals a candidate id without a corpus record.
	ErrConsistency = errors.New("index and corpus diverged")
	// ErrNotFound signals a missing article.
	ErrNotFound = errors.New("not found")
)

// Stage names the pipeline step an error originated from.
type Stage string

// Pipeline stages.
const (
	StageText       Stage = "text"
	StageGraph      Stage = "graph"
	StageIdentity   Stage = "identity"
	StageUniverse   Stage = "universe"
	StageSort       Stage = "sort"
	StageProjection Stage = "projection"
)

// ValidationError describes why a query value could not be constructed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return ErrValidation.Error() + ": " + e.Reason
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for the given field.
func NewValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// BackendError wraps a collaborator failure with the stage and filter that triggered it.
type BackendError struct {
	Stage  Stage
	Filter string
	Err    error
}

func (e *BackendError) Error() string {
	var b strings.Builder
	b.WriteString(ErrBackend.Error())
	b.WriteString(" in ")
	b.WriteString(string(e.Stage))
	b.WriteString(" stage")
	if e.Filter != "" {
		b.WriteString(" (")
		b.WriteString(e.Filter)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the sentinel and the cause, so errors.Is matches either.
func (e *BackendError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrBackend}
	}
	return []error{ErrBackend, e.Err}
}

// NewBackendError wraps err as a backend failure. An existing BackendError is returned unchanged.
func NewBackendError(stage Stage, filter string, err error) error {
	var be *BackendError
	if errors.As(err, &be) {
		return err
	}
	return &BackendError{Stage: stage, Filter: filter, Err: err}
}

// ConsistencyError lists candidate ids that passed filtering but have no corpus record.
type ConsistencyError struct {
	Stage Stage
	IDs   []int64
}

func (e *ConsistencyError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("%s in %s stage: missing articles [%s]",
		ErrConsistency.Error(), e.Stage, strings.Join(ids, ", "))
}

func (e *ConsistencyError) Unwrap() error { return ErrConsistency }

// NewConsistencyError creates a consistency error for the given missing ids.
func NewConsistencyError(stage Stage, ids []int64) error {
	return &ConsistencyError{Stage: stage, IDs: ids}
}
