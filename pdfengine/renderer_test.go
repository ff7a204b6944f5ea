package pdfengine

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drummonds/pdfpanel/viewer"
)

type memFetcher map[string][]byte

func (m memFetcher) Fetch(ctx context.Context, locator string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, ok := m[locator]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

type fakeRaster struct {
	mu      sync.Mutex
	sizes   [][2]float64
	renders []int
	closes  int
	failAt  int
	// width of the produced image, to exercise resizing
	skew int
}

func (f *fakeRaster) pageSize(index int) (float64, float64, error) {
	return f.sizes[index][0], f.sizes[index][1], nil
}

func (f *fakeRaster) render(index int, vp viewer.Viewport) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if index == f.failAt {
		return nil, errors.New("raster failure")
	}
	f.renders = append(f.renders, index)
	img := image.NewRGBA(image.Rect(0, 0, vp.Width+f.skew, vp.Height))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img, nil
}

func (f *fakeRaster) close() error {
	f.closes++
	return nil
}

func newFakeDocument(info viewer.DocumentInfo, r *fakeRaster) *document {
	return newDocument("/fake.pdf", info, len(r.sizes), r)
}

func TestNewUnknownKind(t *testing.T) {
	_, err := New("ghostscript", memFetcher{})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestNewFitzKind(t *testing.T) {
	e, err := New(KindFitz, memFetcher{})
	require.NoError(t, err)
	assert.IsType(t, &FitzEngine{}, e)
	assert.NoError(t, e.Close())
}

func TestDocumentPageSizes(t *testing.T) {
	r := &fakeRaster{sizes: [][2]float64{{612, 792}, {842, 595}}, failAt: -1}

	t.Run("from rasterizer", func(t *testing.T) {
		d := newFakeDocument(viewer.DocumentInfo{}, r)
		p, err := d.Page(context.Background(), 2)
		require.NoError(t, err)
		w, h := p.Size()
		assert.Equal(t, 842.0, w)
		assert.Equal(t, 595.0, h)
		assert.Equal(t, 2, p.Number())
	})

	t.Run("from info", func(t *testing.T) {
		d := newFakeDocument(viewer.DocumentInfo{Pages: []viewer.PageSize{{Width: 100, Height: 200}, {Width: 300, Height: 400}}}, r)
		p, err := d.Page(context.Background(), 1)
		require.NoError(t, err)
		w, h := p.Size()
		assert.Equal(t, 100.0, w)
		assert.Equal(t, 200.0, h)
	})

	t.Run("out of range", func(t *testing.T) {
		d := newFakeDocument(viewer.DocumentInfo{}, r)
		_, err := d.Page(context.Background(), 0)
		assert.ErrorIs(t, err, viewer.ErrPageOutOfRange)
		_, err = d.Page(context.Background(), 3)
		assert.ErrorIs(t, err, viewer.ErrPageOutOfRange)
	})
}

func TestPageRenderExactViewport(t *testing.T) {
	for _, skew := range []int{0, 3} {
		r := &fakeRaster{sizes: [][2]float64{{612, 792}}, failAt: -1, skew: skew}
		d := newFakeDocument(viewer.DocumentInfo{}, r)
		p, err := d.Page(context.Background(), 1)
		require.NoError(t, err)

		vp := viewer.ViewportFor(612, 792, 1.5)
		img, err := p.Render(context.Background(), vp)
		require.NoError(t, err)
		assert.Equal(t, vp.Width, img.Bounds().Dx())
		assert.Equal(t, vp.Height, img.Bounds().Dy())
	}
}

func TestPageRenderCancelled(t *testing.T) {
	r := &fakeRaster{sizes: [][2]float64{{612, 792}}, failAt: -1}
	d := newFakeDocument(viewer.DocumentInfo{}, r)
	p, err := d.Page(context.Background(), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Render(ctx, viewer.ViewportFor(612, 792, 1))
	assert.True(t, viewer.IsCancelled(err))
	assert.Empty(t, r.renders, "cancelled render must not reach the rasterizer")
}

func TestPageRenderFailure(t *testing.T) {
	r := &fakeRaster{sizes: [][2]float64{{612, 792}}, failAt: 0}
	d := newFakeDocument(viewer.DocumentInfo{}, r)
	p, err := d.Page(context.Background(), 1)
	require.NoError(t, err)

	_, err = p.Render(context.Background(), viewer.ViewportFor(612, 792, 1))
	require.Error(t, err)
	assert.False(t, viewer.IsCancelled(err))
}

func TestDocumentDestroyIdempotent(t *testing.T) {
	r := &fakeRaster{sizes: [][2]float64{{612, 792}}, failAt: -1}
	d := newFakeDocument(viewer.DocumentInfo{}, r)
	p, err := d.Page(context.Background(), 1)
	require.NoError(t, err)

	require.NoError(t, d.Destroy())
	require.NoError(t, d.Destroy())
	assert.Equal(t, 1, r.closes)

	_, err = p.Render(context.Background(), viewer.ViewportFor(612, 792, 1))
	assert.ErrorIs(t, err, viewer.ErrClosed)
}

func TestOpenFetchFailure(t *testing.T) {
	e := NewFitzEngine(memFetcher{})
	_, err := e.Open(context.Background(), "/missing.pdf")
	assert.Error(t, err)
}

func TestFitViewport(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	img.Set(0, 0, color.Black)
	assert.Same(t, image.Image(img), fitViewport(img, viewer.Viewport{Scale: 1, Width: 10, Height: 10}))

	out := fitViewport(img, viewer.Viewport{Scale: 1, Width: 20, Height: 5})
	assert.Equal(t, 20, out.Bounds().Dx())
	assert.Equal(t, 5, out.Bounds().Dy())
}

func TestPDFiumEngine(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping PDFium WebAssembly test in short mode")
	}
	fetcher := memFetcher{"/doc.pdf": minimalPDF("Sample", "Tester", [2]int{612, 792}, [2]int{300, 200})}
	e, err := NewPDFiumEngine(fetcher)
	require.NoError(t, err)
	defer e.Close()

	doc, err := e.Open(context.Background(), "/doc.pdf")
	require.NoError(t, err)
	defer doc.Destroy()
	assert.Equal(t, 2, doc.NumPages())

	p, err := doc.Page(context.Background(), 2)
	require.NoError(t, err)
	w, h := p.Size()
	assert.InDelta(t, 300, w, 0.5)
	assert.InDelta(t, 200, h, 0.5)

	vp := viewer.ViewportFor(w, h, 1.5)
	img, err := p.Render(context.Background(), vp)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, vp.Width, vp.Height), img.Bounds())

	if d, ok := doc.(viewer.Describer); ok {
		assert.Equal(t, "Sample", d.Info().Title)
	}
}
