package viewer

import (
	"context"
	"errors"
	"fmt"
)

// Messages shown to the user. Raw causes are only ever logged.
const (
	MsgEmptyLocator = "The URL of the PDF file is not specified."
	MsgLoadFailed   = "Error loading PDF. Please try again."
	MsgRenderFailed = "Error rendering PDF page. Please try again."
)

var (
	// ErrEmptyLocator is returned by Load when no source locator was given.
	ErrEmptyLocator = errors.New("viewer: source locator is empty")
	// ErrRenderCancelled marks a render that was superseded or torn down.
	// It is an expected outcome, not a failure.
	ErrRenderCancelled = errors.New("viewer: render cancelled")
	ErrNoDocument      = errors.New("viewer: no document loaded")
	ErrPageOutOfRange  = errors.New("viewer: page number out of range")
	ErrInvalidScale    = errors.New("viewer: scale must be positive")
	ErrClosed          = errors.New("viewer: closed")
)

// LoadError wraps a failure of the document engine to open a locator.
type LoadError struct {
	Locator string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("viewer: load %q: %v", e.Locator, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// RenderError wraps a rasterization failure other than cancellation.
type RenderError struct {
	Page  int
	Scale float64
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("viewer: render page %d at scale %.2f: %v", e.Page, e.Scale, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// IsCancelled reports whether err is the silent outcome of a superseded render.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrRenderCancelled) || errors.Is(err, context.Canceled)
}
