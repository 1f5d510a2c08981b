package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/vango-dev/vtree/pkg/hosttree"
	"github.com/vango-dev/vtree/pkg/markup"
	"github.com/vango-dev/vtree/pkg/snapshot"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// Category represents the type of error.
type Category string

const (
	CategoryRender   Category = "render"
	CategoryMarkup   Category = "markup"
	CategoryConfig   Category = "config"
	CategorySnapshot Category = "snapshot"
	CategoryServer   Category = "server"
	CategoryCLI      Category = "cli"
)

// VtreeError is a structured error with a code, an explanation and a hint.
type VtreeError struct {
	// Code is a unique error identifier (e.g., "V001").
	Code string

	// Category is the error type (render, config, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// File is the input file involved, if any.
	File string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *VtreeError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *VtreeError) Unwrap() error {
	return e.Wrapped
}

// WithFile records the input file involved.
func (e *VtreeError) WithFile(path string) *VtreeError {
	e.File = path
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *VtreeError) WithSuggestion(s string) *VtreeError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *VtreeError) WithDetail(d string) *VtreeError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *VtreeError) Wrap(err error) *VtreeError {
	e.Wrapped = err
	return e
}

// New creates a VtreeError from a registered error code.
func New(code string) *VtreeError {
	template, ok := registry[code]
	if !ok {
		return &VtreeError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &VtreeError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new VtreeError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *VtreeError {
	return &VtreeError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a VtreeError with the given code.
// A VtreeError anywhere in err's chain is returned as is.
func FromError(err error, code string) *VtreeError {
	if err == nil {
		return nil
	}
	var ve *VtreeError
	if stderrors.As(err, &ve) {
		return ve
	}
	return New(code).Wrap(err)
}

// sentinels maps package errors to their codes. The first match wins.
var sentinels = []struct {
	err  error
	code string
}{
	{vdom.ErrNilContainer, "V002"},
	{vdom.ErrInvalidType, "V003"},
	{vdom.ErrInvalidChildren, "V004"},
	{vdom.ErrUncomparableKey, "V005"},
	{hosttree.ErrUnknownHandle, "V006"},
	{hosttree.ErrNotChild, "V006"},
	{hosttree.ErrNotElement, "V006"},
	{hosttree.ErrNotText, "V006"},
	{hosttree.ErrCycle, "V006"},
	{markup.ErrEmpty, "M002"},
	{markup.ErrMultipleRoots, "M003"},
	{snapshot.ErrNotFound, "S001"},
	{snapshot.ErrTooLarge, "S002"},
	{snapshot.ErrInvalidName, "S003"},
}

// Classify returns err as a VtreeError, choosing the code from the first
// known sentinel in its chain and falling back to fallback.
func Classify(err error, fallback string) *VtreeError {
	if err == nil {
		return nil
	}
	var ve *VtreeError
	if stderrors.As(err, &ve) {
		return ve
	}
	for _, s := range sentinels {
		if stderrors.Is(err, s.err) {
			return New(s.code).Wrap(err)
		}
	}
	return New(fallback).Wrap(err)
}
