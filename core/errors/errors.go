// Package errors provides standardized error types and helpers for the choirdeck codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrMalformedNotation indicates a notation segment that cannot be parsed
	ErrMalformedNotation = errors.New("malformed notation")
	// ErrShardMismatch indicates per-segment counts that do not cover the normalized stream
	ErrShardMismatch = errors.New("shard count mismatch")
	// ErrLyricUnderflow indicates a lyric slice request beyond the available syllables
	ErrLyricUnderflow = errors.New("lyric underflow")
	// ErrFieldNotFound indicates a required field missing from a source document
	ErrFieldNotFound = errors.New("field not found")
	// ErrRender indicates a failure in an external rendering tool
	ErrRender = errors.New("render failed")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
)

// NotationError represents an unparseable notation segment with context
type NotationError struct {
	Segment string // The offending notation segment (may be truncated)
	Message string // What is wrong with it
	Err     error  // Underlying error, if any
}

func (e *NotationError) Error() string {
	if e.Segment != "" {
		return fmt.Sprintf("malformed notation %q: %s", e.Segment, e.Message)
	}
	return fmt.Sprintf("malformed notation: %s", e.Message)
}

func (e *NotationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrMalformedNotation
}

// ShardCountError represents an inconsistency between per-segment counts
// and the normalized token stream
type ShardCountError struct {
	Consumed  int // Normalized tokens accounted for by the segments
	Available int // Normalized tokens actually present
}

func (e *ShardCountError) Error() string {
	if e.Consumed < e.Available {
		return fmt.Sprintf("shard count mismatch: %d normalized tokens left over after %d consumed", e.Available-e.Consumed, e.Consumed)
	}
	return fmt.Sprintf("shard count mismatch: segments want %d normalized tokens, only %d available", e.Consumed, e.Available)
}

func (e *ShardCountError) Unwrap() error {
	return ErrShardMismatch
}

// LyricRangeError represents a lyric slice that ran past the available
// syllables. Slice carries the longest slice that could be produced, so
// callers may recover by using it.
type LyricRangeError struct {
	Start     int    // Requested start position
	End       int    // Requested (over-inclusive) end position
	Available int    // Syllables actually present
	Slice     string // Longest available slice
}

func (e *LyricRangeError) Error() string {
	return fmt.Sprintf("lyric underflow: slice [%d,%d) wants more than the %d syllables available", e.Start, e.End, e.Available)
}

func (e *LyricRangeError) Unwrap() error {
	return ErrLyricUnderflow
}

// FieldNotFoundError represents a required field missing from a source document
type FieldNotFoundError struct {
	Field string // Field name (e.g., "title", "tempo", "bassVerse")
	Path  string // Source file path, if known
	Err   error  // Underlying error, if any
}

func (e *FieldNotFoundError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("field %s not found in %s", e.Field, e.Path)
	}
	return fmt.Sprintf("field %s not found", e.Field)
}

func (e *FieldNotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrFieldNotFound
}

// RenderError represents a failure of an external rendering tool
type RenderError struct {
	Tool   string // Tool that failed (e.g., "lilypond", "timidity", "lame")
	Source string // Source file being rendered, if applicable
	Err    error  // Underlying error
}

func (e *RenderError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s failed on %s: %v", e.Tool, e.Source, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
}

func (e *RenderError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrRender
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Helper functions for creating common errors

// NewNotation creates a NotationError
func NewNotation(segment, message string) *NotationError {
	return &NotationError{
		Segment: segment,
		Message: message,
	}
}

// NewShardCount creates a ShardCountError
func NewShardCount(consumed, available int) *ShardCountError {
	return &ShardCountError{
		Consumed:  consumed,
		Available: available,
	}
}

// NewLyricRange creates a LyricRangeError
func NewLyricRange(start, end, available int, slice string) *LyricRangeError {
	return &LyricRangeError{
		Start:     start,
		End:       end,
		Available: available,
		Slice:     slice,
	}
}

// NewFieldNotFound creates a FieldNotFoundError
func NewFieldNotFound(field, path string) *FieldNotFoundError {
	return &FieldNotFoundError{
		Field: field,
		Path:  path,
	}
}

// NewRender creates a RenderError
func NewRender(tool, source string, err error) *RenderError {
	return &RenderError{
		Tool:   tool,
		Source: source,
		Err:    err,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
