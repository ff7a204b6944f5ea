// Package remote implements viewer.Engine against the pdfpanel HTTP API.
//
// It is what the browser panel uses: documents are opened and rasterized by
// the backend, pages travel as PNG.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/drummonds/pdfpanel/viewer"
)

// Logger is injected by main
var Logger = slog.Default()

// ErrStatus is wrapped by errors for unexpected HTTP statuses.
var ErrStatus = errors.New("unexpected status")

const destroyTimeout = 10 * time.Second

// Engine opens documents through the backend API at BaseURL.
type Engine struct {
	BaseURL string
	Client  *http.Client

	pending sync.WaitGroup
}

// New returns an engine for the API rooted at baseURL ("" for same origin).
func New(baseURL string) *Engine {
	return &Engine{BaseURL: baseURL, Client: http.DefaultClient}
}

type documentResponse struct {
	ID       string            `json:"id"`
	NumPages int               `json:"numPages"`
	Title    string            `json:"title"`
	Author   string            `json:"author"`
	Pages    []viewer.PageSize `json:"pages"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (e *Engine) client() *http.Client {
	if e.Client != nil {
		return e.Client
	}
	return http.DefaultClient
}

func (e *Engine) url(path string, query url.Values) string {
	u := e.BaseURL + "/api" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (e *Engine) do(ctx context.Context, method, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := e.client().Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("request to %s failed: %w", target, err)
	}
	return resp, nil
}

// statusError turns a non-success response into an error carrying the
// API's message.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr errorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		return fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, apiErr.Error)
	}
	return fmt.Errorf("%w %d", ErrStatus, resp.StatusCode)
}

// Open asks the backend to load locator.
func (e *Engine) Open(ctx context.Context, locator string) (viewer.Document, error) {
	resp, err := e.do(ctx, http.MethodGet, e.url("/document", url.Values{"src": {locator}}))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var doc documentResponse
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if doc.NumPages != len(doc.Pages) {
		return nil, fmt.Errorf("document %s reports %d pages but %d sizes", doc.ID, doc.NumPages, len(doc.Pages))
	}
	Logger.Debug("Opened remote document", "locator", locator, "id", doc.ID, "pages", doc.NumPages)
	return &Document{engine: e, resp: doc}, nil
}

// Wait blocks until every pending handle release has been sent.
func (e *Engine) Wait() {
	e.pending.Wait()
}

// Document is a handle held by the backend.
type Document struct {
	engine *Engine
	resp   documentResponse

	once sync.Once
}

// ID is the backend handle ID
func (d *Document) ID() string { return d.resp.ID }

func (d *Document) NumPages() int { return d.resp.NumPages }

func (d *Document) Info() viewer.DocumentInfo {
	return viewer.DocumentInfo{Title: d.resp.Title, Author: d.resp.Author, Pages: d.resp.Pages}
}

func (d *Document) Page(ctx context.Context, number int) (viewer.Page, error) {
	if number < 1 || number > d.resp.NumPages {
		return nil, fmt.Errorf("%w: %d of %d", viewer.ErrPageOutOfRange, number, d.resp.NumPages)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	size := d.resp.Pages[number-1]
	return &Page{doc: d, number: number, width: size.Width, height: size.Height}, nil
}

// Destroy releases the backend handle. The request is sent in the
// background so it never blocks the caller's goroutine.
func (d *Document) Destroy() error {
	d.once.Do(func() {
		e := d.engine
		e.pending.Add(1)
		go func() {
			defer e.pending.Done()
			ctx, cancel := context.WithTimeout(context.Background(), destroyTimeout)
			defer cancel()
			resp, err := e.do(ctx, http.MethodDelete, e.url("/document/"+url.PathEscape(d.resp.ID), nil))
			if err != nil {
				Logger.Warn("Failed to release remote document", "id", d.resp.ID, "error", err)
				return
			}
			resp.Body.Close()
		}()
	})
	return nil
}

// Page is a page of a remote document
type Page struct {
	doc           *Document
	number        int
	width, height float64
}

func (p *Page) Number() int { return p.number }

func (p *Page) Size() (float64, float64) { return p.width, p.height }

// Render fetches the page as PNG at vp.Scale.
func (p *Page) Render(ctx context.Context, vp viewer.Viewport) (image.Image, error) {
	e := p.doc.engine
	target := e.url(
		"/document/"+url.PathEscape(p.doc.resp.ID)+"/page/"+strconv.Itoa(p.number),
		url.Values{"scale": {strconv.FormatFloat(vp.Scale, 'f', -1, 64)}},
	)
	resp, err := e.do(ctx, http.MethodGet, target)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode page: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() != vp.Width || b.Dy() != vp.Height {
		img = imaging.Resize(img, vp.Width, vp.Height, imaging.Lanczos)
	}
	return img, nil
}
