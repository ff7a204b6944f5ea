package pdfengine

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"

	"github.com/drummonds/pdfpanel/viewer"
)

// PDFiumEngine renders with go-pdfium on WebAssembly (pure Go, no CGo).
// A single instance is shared by all documents it opens.
type PDFiumEngine struct {
	fetcher Fetcher

	mu       sync.Mutex
	pool     pdfium.Pool
	instance pdfium.Pdfium
}

// NewPDFiumEngine initialises the WebAssembly runtime
func NewPDFiumEngine(fetcher Fetcher) (*PDFiumEngine, error) {
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PDFium WebAssembly: %w", err)
	}

	instance, err := pool.GetInstance(time.Second * 30)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to get PDFium instance: %w", err)
	}

	return &PDFiumEngine{
		fetcher:  fetcher,
		pool:     pool,
		instance: instance,
	}, nil
}

// Open fetches the document and loads it into the PDFium instance
func (e *PDFiumEngine) Open(ctx context.Context, locator string) (viewer.Document, error) {
	return open(ctx, e.fetcher, locator, func(data []byte) (rasterizer, int, error) {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.instance == nil {
			return nil, 0, viewer.ErrClosed
		}

		doc, err := e.instance.OpenDocument(&requests.OpenDocument{
			File: &data,
		})
		if err != nil {
			return nil, 0, fmt.Errorf("unable to open PDF document: %w", err)
		}
		count, err := e.instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
			Document: doc.Document,
		})
		if err != nil {
			e.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})
			return nil, 0, fmt.Errorf("unable to get page count: %w", err)
		}
		return &pdfiumRaster{engine: e, doc: doc.Document}, count.PageCount, nil
	})
}

// Close shuts down the WebAssembly runtime
func (e *PDFiumEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pool != nil {
		e.pool.Close()
		e.pool = nil
	}
	e.instance = nil
	return nil
}

type pdfiumRaster struct {
	engine *PDFiumEngine
	doc    references.FPDF_DOCUMENT
}

func (r *pdfiumRaster) pageRef(index int) requests.Page {
	return requests.Page{
		ByIndex: &requests.PageByIndex{
			Document: r.doc,
			Index:    index,
		},
	}
}

func (r *pdfiumRaster) pageSize(index int) (float64, float64, error) {
	r.engine.mu.Lock()
	defer r.engine.mu.Unlock()
	if r.engine.instance == nil {
		return 0, 0, viewer.ErrClosed
	}
	size, err := r.engine.instance.GetPageSize(&requests.GetPageSize{Page: r.pageRef(index)})
	if err != nil {
		return 0, 0, err
	}
	return size.Width, size.Height, nil
}

func (r *pdfiumRaster) render(index int, vp viewer.Viewport) (image.Image, error) {
	r.engine.mu.Lock()
	defer r.engine.mu.Unlock()
	if r.engine.instance == nil {
		return nil, viewer.ErrClosed
	}
	pageRender, err := r.engine.instance.RenderPageInPixels(&requests.RenderPageInPixels{
		Page:   r.pageRef(index),
		Width:  vp.Width,
		Height: vp.Height,
	})
	if err != nil {
		return nil, err
	}
	// The result aliases WebAssembly memory released by Cleanup.
	img := imaging.Clone(pageRender.Result.Image)
	pageRender.Cleanup()
	return img, nil
}

func (r *pdfiumRaster) close() error {
	r.engine.mu.Lock()
	defer r.engine.mu.Unlock()
	if r.engine.instance == nil {
		return nil
	}
	_, err := r.engine.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: r.doc})
	return err
}
