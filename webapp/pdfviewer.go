package webapp

import (
	"context"
	"fmt"

	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/drummonds/pdfpanel/overlay"
	"github.com/drummonds/pdfpanel/remote"
	"github.com/drummonds/pdfpanel/viewer"
)

// MsgLoading is shown while a document loads
const MsgLoading = "Loading PDF..."

const (
	canvasID  = "pdf-canvas"
	wrapperID = "pdf-canvas-wrapper"
)

// PDFViewer is the panel: page navigation and zoom on top of a pan/zoom
// overlay wrapping the page canvas.
type PDFViewer struct {
	app.Compo
	PDFURL string

	viewer    *viewer.Viewer
	surface   *CanvasSurface
	transform *overlay.Transform
	state     viewer.State
	loadedURL string
}

// OnMount is called when the component is mounted
func (p *PDFViewer) OnMount(ctx app.Context) {
	p.surface = NewCanvasSurface()
	p.transform = overlay.New(overlay.DefaultConfig())
	p.viewer = viewer.New(remote.New(GetAPIBaseURL()), p.surface,
		viewer.WithChangeListener(func() {
			ctx.Dispatch(p.refresh)
		}),
		viewer.WithResizeListener(func(int, int) {
			ctx.Dispatch(p.layout)
		}))
	p.load(ctx)
}

// OnUpdate reloads when the document URL changes
func (p *PDFViewer) OnUpdate(ctx app.Context) {
	if p.viewer != nil && p.PDFURL != p.loadedURL {
		p.load(ctx)
	}
}

// OnDismount releases the document and cancels any render
func (p *PDFViewer) OnDismount() {
	if p.viewer != nil {
		p.viewer.Close()
	}
	if p.surface != nil {
		p.surface.Detach()
	}
}

func (p *PDFViewer) load(ctx app.Context) {
	locator := p.PDFURL
	p.loadedURL = locator
	v := p.viewer
	ctx.Async(func() {
		if err := v.Load(context.Background(), locator); err != nil {
			app.Logf("pdf viewer: %v", err)
		}
	})
}

// refresh copies the viewer state into the component. The canvas only
// exists after this render, so attaching it is deferred.
func (p *PDFViewer) refresh(ctx app.Context) {
	p.state = p.viewer.State()
	ctx.Defer(func(ctx app.Context) {
		p.surface.Attach(app.Window().GetElementByID(canvasID))
		p.layout(ctx)
	})
}

// layout feeds the wrapper and canvas sizes to the overlay transform.
func (p *PDFViewer) layout(ctx app.Context) {
	wrapper := app.Window().GetElementByID(wrapperID)
	if !wrapper.Truthy() {
		return
	}
	w, h := p.surface.Size()
	if w == 0 || h == 0 {
		return
	}
	p.transform.Layout(
		wrapper.Get("clientWidth").Float(),
		wrapper.Get("clientHeight").Float(),
		float64(w), float64(h),
	)
	ctx.Update()
}

func (p *PDFViewer) onPrevious(ctx app.Context, e app.Event) {
	p.viewer.PreviousPage()
}

func (p *PDFViewer) onNext(ctx app.Context, e app.Event) {
	p.viewer.NextPage()
}

func (p *PDFViewer) onZoomIn(ctx app.Context, e app.Event) {
	p.viewer.ZoomIn()
}

func (p *PDFViewer) onZoomOut(ctx app.Context, e app.Event) {
	p.viewer.ZoomOut()
}

// overlayAction adapts an overlay control to a click handler
func overlayAction(fn func()) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		if fn == nil {
			return
		}
		fn()
		ctx.Update()
	}
}

// pointer returns the event position relative to the overlay wrapper
func pointer(ctx app.Context, e app.Event) (float64, float64) {
	rect := ctx.JSSrc().Call("getBoundingClientRect")
	return e.Get("clientX").Float() - rect.Get("left").Float(),
		e.Get("clientY").Float() - rect.Get("top").Float()
}

func (p *PDFViewer) onWheel(ctx app.Context, e app.Event) {
	e.PreventDefault()
	x, y := pointer(ctx, e)
	p.transform.Wheel(e.Get("deltaY").Float(), x, y)
	ctx.Update()
}

func (p *PDFViewer) onMouseDown(ctx app.Context, e app.Event) {
	x, y := pointer(ctx, e)
	p.transform.StartPan(x, y)
}

func (p *PDFViewer) onMouseMove(ctx app.Context, e app.Event) {
	if !p.transform.Panning() {
		return
	}
	x, y := pointer(ctx, e)
	p.transform.MoveTo(x, y)
	ctx.Update()
}

func (p *PDFViewer) onMouseUp(ctx app.Context, e app.Event) {
	p.transform.EndPan()
}

func (p *PDFViewer) onDoubleClick(ctx app.Context, e app.Event) {
	x, y := pointer(ctx, e)
	p.transform.DoubleClick(x, y)
	ctx.Update()
}

// Render renders the panel
func (p *PDFViewer) Render() app.UI {
	s := p.state
	return app.Div().
		Class("pdf-viewer-container").
		Body(
			app.If(s.Loading, func() app.UI {
				return app.Div().Class("loading").Text(MsgLoading)
			}).ElseIf(s.Error != "", func() app.UI {
				return app.Div().Class("error").Text(s.Error)
			}).Else(func() app.UI {
				return p.renderPanel(s)
			}),
		)
}

func (p *PDFViewer) renderPanel(s viewer.State) app.UI {
	return app.Div().Body(
		app.Div().Class("pdf-controls").Body(
			app.Div().Class("page-navigation").Body(
				app.Button().
					Disabled(!s.CanGoPrevious()).
					OnClick(p.onPrevious).
					Text("< Previous"),
				app.Span().Text(s.PageLabel()),
				app.Button().
					Disabled(!s.CanGoNext()).
					OnClick(p.onNext).
					Text("Next >"),
			),
			app.Div().Class("zoom-controls").Body(
				app.Button().OnClick(p.onZoomOut).Text("-"),
				app.Span().Text(fmt.Sprintf("%d%%", s.ZoomPercent())),
				app.Button().OnClick(p.onZoomIn).Text("+"),
			),
		),
		p.renderOverlay(),
	)
}

func (p *PDFViewer) renderOverlay() app.UI {
	transform := "none"
	var controls overlay.Controls
	if p.transform != nil {
		transform = p.transform.CSS()
		controls = p.transform.Controls()
	}
	return app.Div().Class("pdf-canvas-wrapper").Body(
		app.Div().Class("tools").Body(
			app.Button().OnClick(overlayAction(controls.ZoomIn)).Text("+"),
			app.Button().OnClick(overlayAction(controls.ZoomOut)).Text("-"),
			app.Button().OnClick(overlayAction(controls.ResetTransform)).Text("Reset"),
		),
		app.Div().
			ID(wrapperID).
			Class("transform-wrapper").
			OnWheel(p.onWheel).
			OnMouseDown(p.onMouseDown).
			OnMouseMove(p.onMouseMove).
			OnMouseUp(p.onMouseUp).
			OnMouseLeave(p.onMouseUp).
			OnDblClick(p.onDoubleClick).
			Body(
				app.Div().
					Class("transform-component").
					Style("transform", transform).
					Style("transform-origin", "0 0").
					Body(
						app.Canvas().ID(canvasID).Class("pdf-canvas"),
					),
			),
	)
}
