// Package viewertest provides an in-memory viewer.Engine for tests.
package viewertest

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/drummonds/pdfpanel/viewer"
)

// Letter size in points.
const (
	PageWidth  = 612
	PageHeight = 792
)

// PageColor is the solid colour a fake page renders with.
func PageColor(page int) color.RGBA {
	return color.RGBA{R: uint8(page * 40), G: 0x80, B: uint8(255 - page), A: 0xff}
}

// Gate holds a render or an open until released.
type Gate struct {
	entered      chan struct{}
	release      chan struct{}
	enterOnce    sync.Once
	releaseOnce  sync.Once
	IgnoreCancel bool
}

func newGate() *Gate {
	return &Gate{entered: make(chan struct{}), release: make(chan struct{})}
}

// Entered is closed once something waits on the gate.
func (g *Gate) Entered() <-chan struct{} {
	return g.entered
}

// Release lets waiters through.
func (g *Gate) Release() {
	g.releaseOnce.Do(func() { close(g.release) })
}

func (g *Gate) wait(ctx context.Context) error {
	g.enterOnce.Do(func() { close(g.entered) })
	if g.IgnoreCancel {
		<-g.release
		return nil
	}
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Engine is a fake document engine keyed by locator.
type Engine struct {
	mu    sync.Mutex
	docs  map[string]*Document
	errs  map[string]error
	gates map[string]*Gate
	opens []string
}

// NewEngine returns an empty engine; every unknown locator fails to open.
func NewEngine() *Engine {
	return &Engine{
		docs:  make(map[string]*Document),
		errs:  make(map[string]error),
		gates: make(map[string]*Gate),
	}
}

// Add registers a document with the given number of pages.
// Every Open of locator returns a fresh handle sharing its configuration.
func (e *Engine) Add(locator string, pages int) *Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	doc := &Document{
		locator:   locator,
		numPages:  pages,
		gates:     make(map[int]*Gate),
		renderErr: make(map[int]error),
		title:     "Fake " + locator,
	}
	e.docs[locator] = doc
	return doc
}

// Fail makes Open of locator return err.
func (e *Engine) Fail(locator string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errs[locator] = err
}

// BlockOpen holds Open of locator until the returned gate is released.
func (e *Engine) BlockOpen(locator string) *Gate {
	e.mu.Lock()
	defer e.mu.Unlock()
	g := newGate()
	e.gates[locator] = g
	return g
}

// Opens lists the locators Open was called with, in order.
func (e *Engine) Opens() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.opens...)
}

func (e *Engine) Open(ctx context.Context, locator string) (viewer.Document, error) {
	e.mu.Lock()
	e.opens = append(e.opens, locator)
	gate := e.gates[locator]
	err := e.errs[locator]
	doc := e.docs[locator]
	e.mu.Unlock()

	if gate != nil {
		if werr := gate.wait(ctx); werr != nil {
			return nil, werr
		}
	}
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("fake: no document at %q", locator)
	}
	return doc.open(), nil
}

// Document is the shared configuration of a fake document.
type Document struct {
	mu        sync.Mutex
	locator   string
	numPages  int
	title     string
	gates     map[int]*Gate
	renderErr map[int]error
	handles   []*Handle
	rendered  []int
}

// BlockPage holds renders of page until the returned gate is released.
func (d *Document) BlockPage(page int) *Gate {
	d.mu.Lock()
	defer d.mu.Unlock()
	g := newGate()
	d.gates[page] = g
	return g
}

// FailPage makes renders of page return err.
func (d *Document) FailPage(page int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.renderErr[page] = err
}

// Rendered lists the pages whose render completed, in order.
func (d *Document) Rendered() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int(nil), d.rendered...)
}

// Handles returns every handle opened for this document.
func (d *Document) Handles() []*Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Handle(nil), d.handles...)
}

func (d *Document) open() *Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	h := &Handle{doc: d}
	d.handles = append(d.handles, h)
	return h
}

// Handle is one open instance of a fake Document.
type Handle struct {
	doc       *Document
	mu        sync.Mutex
	destroyed int
}

// Destroyed reports whether Destroy was called.
func (h *Handle) Destroyed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.destroyed > 0
}

func (h *Handle) NumPages() int {
	return h.doc.numPages
}

func (h *Handle) Info() viewer.DocumentInfo {
	info := viewer.DocumentInfo{Title: h.doc.title}
	for i := 0; i < h.doc.numPages; i++ {
		info.Pages = append(info.Pages, viewer.PageSize{Width: PageWidth, Height: PageHeight})
	}
	return info
}

func (h *Handle) Page(ctx context.Context, number int) (viewer.Page, error) {
	if h.Destroyed() {
		return nil, errors.New("fake: document destroyed")
	}
	if number < 1 || number > h.doc.numPages {
		return nil, viewer.ErrPageOutOfRange
	}
	return &page{handle: h, number: number}, nil
}

func (h *Handle) Destroy() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.destroyed++
	return nil
}

type page struct {
	handle *Handle
	number int
}

func (p *page) Number() int {
	return p.number
}

func (p *page) Size() (float64, float64) {
	return PageWidth, PageHeight
}

func (p *page) Render(ctx context.Context, vp viewer.Viewport) (image.Image, error) {
	d := p.handle.doc
	d.mu.Lock()
	gate := d.gates[p.number]
	err := d.renderErr[p.number]
	d.mu.Unlock()

	if gate != nil {
		if werr := gate.wait(ctx); werr != nil {
			return nil, werr
		}
	}
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, vp.Width, vp.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: PageColor(p.number)}, image.Point{}, draw.Src)

	d.mu.Lock()
	d.rendered = append(d.rendered, p.number)
	d.mu.Unlock()
	return img, nil
}
