package engine

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/labstack/echo/v4"

	"github.com/drummonds/pdfpanel/viewer"
)

// StatusClientClosedRequest is logged when the client goes away mid-render
const StatusClientClosedRequest = 499

const (
	defaultThumbnailWidth = 200
	maxThumbnailWidth     = 1024
)

// DocumentResponse describes an opened document
type DocumentResponse struct {
	ID       string            `json:"id"`
	NumPages int               `json:"numPages"`
	Title    string            `json:"title,omitempty"`
	Author   string            `json:"author,omitempty"`
	Pages    []viewer.PageSize `json:"pages"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Health reports that the API is up
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (serverHandler *ServerHandler) Health(context echo.Context) error {
	return context.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "pdfpanel API",
	})
}

// OpenDocument loads a document and returns its handle ID and page geometry
// @Summary Open a PDF document
// @Tags Documents
// @Produce json
// @Param src query string true "Document locator"
// @Success 200 {object} DocumentResponse
// @Failure 400 {object} errorResponse "Empty locator"
// @Failure 422 {object} errorResponse "Document could not be loaded"
// @Router /document [get]
func (serverHandler *ServerHandler) OpenDocument(context echo.Context) error {
	locator := context.QueryParam("src")
	if locator == "" {
		return context.JSON(http.StatusBadRequest, errorResponse{Error: viewer.MsgEmptyLocator})
	}

	ctx := context.Request().Context()
	id, doc, err := serverHandler.Registry.Open(ctx, locator)
	if err != nil {
		Logger.Error("Error loading PDF", "locator", locator, "error", err)
		return context.JSON(http.StatusUnprocessableEntity, errorResponse{Error: viewer.MsgLoadFailed})
	}

	response := DocumentResponse{ID: id, NumPages: doc.NumPages()}
	if d, ok := doc.(viewer.Describer); ok {
		info := d.Info()
		response.Title = info.Title
		response.Author = info.Author
	}
	for n := 1; n <= doc.NumPages(); n++ {
		page, err := doc.Page(ctx, n)
		if err != nil {
			Logger.Error("Error reading page size", "locator", locator, "page", n, "error", err)
			serverHandler.Registry.Remove(id)
			return context.JSON(http.StatusUnprocessableEntity, errorResponse{Error: viewer.MsgLoadFailed})
		}
		w, h := page.Size()
		response.Pages = append(response.Pages, viewer.PageSize{Width: w, Height: h})
	}
	return context.JSON(http.StatusOK, response)
}

// CloseDocument releases a document handle
// @Summary Close a PDF document
// @Tags Documents
// @Param id path string true "Document ID"
// @Success 204
// @Failure 404 {object} errorResponse
// @Router /document/{id} [delete]
func (serverHandler *ServerHandler) CloseDocument(context echo.Context) error {
	id := context.Param("id")
	err := serverHandler.Registry.Remove(id)
	if errors.Is(err, ErrUnknownDocument) {
		return context.JSON(http.StatusNotFound, errorResponse{Error: "Document not found"})
	}
	if err != nil {
		Logger.Warn("Error destroying document", "id", id, "error", err)
	}
	return context.NoContent(http.StatusNoContent)
}

// RenderPage rasterizes one page as PNG
// @Summary Render a page
// @Tags Documents
// @Produce png
// @Param id path string true "Document ID"
// @Param page path int true "1-indexed page number"
// @Param scale query number false "Scale factor (0.5 - 3.0)"
// @Success 200 {file} binary
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /document/{id}/page/{page} [get]
func (serverHandler *ServerHandler) RenderPage(context echo.Context) error {
	scale := viewer.DefaultScale
	if s := context.QueryParam("scale"); s != "" {
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(parsed) || parsed < viewer.MinScale || parsed > viewer.MaxScale {
			return context.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid scale"})
		}
		scale = parsed
	}

	page, status, err := serverHandler.lookupPage(context)
	if err != nil {
		return context.JSON(status, errorResponse{Error: err.Error()})
	}
	w, h := page.Size()
	return serverHandler.writePage(context, page, viewer.ViewportFor(w, h, scale), 0)
}

// RenderThumbnail renders a page fitted into a square of the given width
// @Summary Render a page thumbnail
// @Tags Documents
// @Produce png
// @Param id path string true "Document ID"
// @Param page path int true "1-indexed page number"
// @Param width query int false "Bounding box size in pixels"
// @Success 200 {file} binary
// @Router /document/{id}/page/{page}/thumbnail [get]
func (serverHandler *ServerHandler) RenderThumbnail(context echo.Context) error {
	width := defaultThumbnailWidth
	if s := context.QueryParam("width"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 1 || parsed > maxThumbnailWidth {
			return context.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid width"})
		}
		width = parsed
	}

	page, status, err := serverHandler.lookupPage(context)
	if err != nil {
		return context.JSON(status, errorResponse{Error: err.Error()})
	}
	w, h := page.Size()
	scale := math.Min(float64(width)/w, float64(width)/h)
	return serverHandler.writePage(context, page, viewer.ViewportFor(w, h, scale), width)
}

func (serverHandler *ServerHandler) lookupPage(context echo.Context) (viewer.Page, int, error) {
	doc, err := serverHandler.Registry.Get(context.Param("id"))
	if err != nil {
		return nil, http.StatusNotFound, errors.New("Document not found")
	}
	number, err := strconv.Atoi(context.Param("page"))
	if err != nil {
		return nil, http.StatusBadRequest, errors.New("Invalid page number")
	}
	page, err := doc.Page(context.Request().Context(), number)
	if errors.Is(err, viewer.ErrPageOutOfRange) {
		return nil, http.StatusNotFound, errors.New("Page out of range")
	}
	if err != nil {
		Logger.Error("Error fetching page", "page", number, "error", err)
		return nil, http.StatusInternalServerError, errors.New(viewer.MsgRenderFailed)
	}
	return page, http.StatusOK, nil
}

// writePage renders page into vp and streams it as PNG, fitting it into a
// fit x fit box when fit is positive.
func (serverHandler *ServerHandler) writePage(context echo.Context, page viewer.Page, vp viewer.Viewport, fit int) error {
	img, err := page.Render(context.Request().Context(), vp)
	if viewer.IsCancelled(err) {
		Logger.Debug("Render cancelled by client", "page", page.Number(), "scale", vp.Scale)
		return context.NoContent(StatusClientClosedRequest)
	}
	if err != nil {
		Logger.Error("Error rendering PDF page", "page", page.Number(), "scale", vp.Scale, "error", err)
		return context.JSON(http.StatusInternalServerError, errorResponse{Error: viewer.MsgRenderFailed})
	}
	if fit > 0 {
		img = imaging.Fit(img, fit, fit, imaging.Lanczos)
	}

	response := context.Response()
	response.Header().Set(echo.HeaderContentType, "image/png")
	response.Header().Set(echo.HeaderCacheControl, "no-store")
	response.WriteHeader(http.StatusOK)
	if err := imaging.Encode(response, img, imaging.PNG); err != nil {
		Logger.Error("Error encoding page", "page", page.Number(), "error", err)
		return err
	}
	return nil
}
