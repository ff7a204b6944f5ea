package viewer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// Option configures a Viewer.
type Option func(*Viewer)

// WithScale sets the initial render scale, clamped to [MinScale, MaxScale].
func WithScale(scale float64) Option {
	return func(v *Viewer) {
		if scale < MinScale {
			scale = MinScale
		}
		if scale > MaxScale {
			scale = MaxScale
		}
		v.state.Scale = scale
	}
}

// WithChangeListener registers fn to be called after every state change.
// fn may run on any goroutine and should read the new state with State.
func WithChangeListener(fn func()) Option {
	return func(v *Viewer) {
		v.onChange = fn
	}
}

// WithResizeListener registers fn to be called with the new bitmap size
// each time a render resizes the surface. fn runs without the viewer lock
// held and may call back into the Viewer.
func WithResizeListener(fn func(width, height int)) Option {
	return func(v *Viewer) {
		v.onResize = fn
	}
}

// Viewer renders one document at a time onto a Surface.
type Viewer struct {
	engine   Engine
	surface  Surface
	onChange func()
	onResize func(width, height int)

	mu      sync.Mutex
	state   State
	doc     Document
	loadGen uint64
	closed  bool
	job     *renderJob
	jobSeq  uint64
	jobs    sync.WaitGroup
}

// New creates a Viewer drawing documents opened by engine onto surface.
func New(engine Engine, surface Surface, opts ...Option) *Viewer {
	v := &Viewer{
		engine:  engine,
		surface: surface,
		state:   State{Scale: DefaultScale},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// State returns a snapshot of the current view state.
func (v *Viewer) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Load opens locator and makes it the viewer's document, releasing the
// previous one. Page 1 is rendered automatically on success.
//
// A load overtaken by a newer Load or by Close returns nil and changes
// nothing.
func (v *Viewer) Load(ctx context.Context, locator string) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	v.loadGen++
	gen := v.loadGen
	v.cancelJobLocked()
	previous := v.doc
	v.doc = nil
	v.state = State{Locator: locator, Scale: v.state.Scale, Loading: true}
	empty := strings.TrimSpace(locator) == ""
	if empty {
		v.state.Loading = false
		v.state.Error = MsgEmptyLocator
	}
	v.mu.Unlock()

	release(previous)
	v.notify()
	if empty {
		Logger.Warn("PDF locator is not specified")
		return ErrEmptyLocator
	}

	Logger.Debug("Loading PDF", "locator", locator)
	doc, err := v.engine.Open(ctx, locator)
	if err == nil && doc.NumPages() < 1 {
		release(doc)
		doc, err = nil, errors.New("document has no pages")
	}

	v.mu.Lock()
	if v.closed || gen != v.loadGen {
		v.mu.Unlock()
		Logger.Debug("Discarding stale load", "locator", locator)
		release(doc)
		return nil
	}
	if err != nil {
		v.state.Loading = false
		v.state.Error = MsgLoadFailed
		v.mu.Unlock()
		Logger.Error("Error loading PDF", "locator", locator, "error", err)
		v.notify()
		return &LoadError{Locator: locator, Err: err}
	}
	v.doc = doc
	v.state.NumPages = doc.NumPages()
	v.state.CurrentPage = 1
	v.state.Loading = false
	if d, ok := doc.(Describer); ok {
		v.state.Title = d.Info().Title
	}
	pages := v.state.NumPages
	v.scheduleRenderLocked()
	v.mu.Unlock()

	Logger.Info("PDF loaded", "locator", locator, "pages", pages)
	v.notify()
	return nil
}

// PreviousPage moves one page back. It is a no-op on the first page.
func (v *Viewer) PreviousPage() bool {
	return v.movePage(-1)
}

// NextPage moves one page forward. It is a no-op on the last page.
func (v *Viewer) NextPage() bool {
	return v.movePage(1)
}

func (v *Viewer) movePage(delta int) bool {
	v.mu.Lock()
	next := v.state.CurrentPage + delta
	if v.doc == nil || next < 1 || next > v.state.NumPages {
		v.mu.Unlock()
		return false
	}
	v.state.CurrentPage = next
	v.scheduleRenderLocked()
	v.mu.Unlock()
	v.notify()
	return true
}

// GoToPage jumps to page n.
func (v *Viewer) GoToPage(n int) error {
	v.mu.Lock()
	if v.doc == nil {
		v.mu.Unlock()
		return ErrNoDocument
	}
	if n < 1 || n > v.state.NumPages {
		v.mu.Unlock()
		return ErrPageOutOfRange
	}
	if n == v.state.CurrentPage {
		v.mu.Unlock()
		return nil
	}
	v.state.CurrentPage = n
	v.scheduleRenderLocked()
	v.mu.Unlock()
	v.notify()
	return nil
}

// ZoomIn raises the render scale by ScaleStep, up to MaxScale.
func (v *Viewer) ZoomIn() float64 {
	return v.setScale(zoomIn)
}

// ZoomOut lowers the render scale by ScaleStep, down to MinScale.
func (v *Viewer) ZoomOut() float64 {
	return v.setScale(zoomOut)
}

func (v *Viewer) setScale(step func(float64) float64) float64 {
	v.mu.Lock()
	scale := step(v.state.Scale)
	changed := scale != v.state.Scale
	v.state.Scale = scale
	if changed && v.doc != nil {
		v.scheduleRenderLocked()
	}
	v.mu.Unlock()
	if changed {
		v.notify()
	}
	return scale
}

// Close tears the viewer down: pending loads are discarded, the active
// render is cancelled and the document is destroyed. It is safe to call
// more than once.
func (v *Viewer) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	v.loadGen++
	v.cancelJobLocked()
	doc := v.doc
	v.doc = nil
	v.mu.Unlock()

	if doc == nil {
		return nil
	}
	return doc.Destroy()
}

func (v *Viewer) notify() {
	if v.onChange != nil {
		v.onChange()
	}
}

func release(doc Document) {
	if doc == nil {
		return
	}
	if err := doc.Destroy(); err != nil {
		Logger.Warn("Failed to destroy PDF document", "error", err)
	}
}
