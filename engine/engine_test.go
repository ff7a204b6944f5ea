package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/drummonds/pdfpanel/config"
	"github.com/drummonds/pdfpanel/viewer"
	"github.com/drummonds/pdfpanel/viewer/viewertest"
)

func newTestHandler(t *testing.T) (*ServerHandler, *viewertest.Engine) {
	t.Helper()
	Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	fake := viewertest.NewEngine()
	e := echo.New()
	e.HTTPErrorHandler = APIErrorHandler(e)
	handler := &ServerHandler{
		Registry:     NewRegistry(fake),
		Echo:         e,
		ServerConfig: config.ServerConfig{HandleIdleMinutes: 1},
	}
	handler.AddRoutes()
	t.Cleanup(handler.Registry.Close)
	return handler, fake
}

func doRequest(handler *ServerHandler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	handler.Echo.ServeHTTP(rec, req)
	return rec
}

func openDocument(t *testing.T, handler *ServerHandler, locator string) DocumentResponse {
	t.Helper()
	rec := doRequest(handler, http.MethodGet, "/api/document?src="+locator)
	if rec.Code != http.StatusOK {
		t.Fatalf("Open %s: expected status 200, got %d: %s", locator, rec.Code, rec.Body.String())
	}
	var doc DocumentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("Failed to decode document response: %v", err)
	}
	return doc
}

func TestHealth(t *testing.T) {
	handler, _ := newTestHandler(t)
	rec := doRequest(handler, http.MethodGet, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %q", body["status"])
	}
}

func TestUnknownAPIRoute(t *testing.T) {
	handler, _ := newTestHandler(t)
	rec := doRequest(handler, http.MethodGet, "/api/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rec.Code)
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["path"] != "/api/nope" {
		t.Errorf("Expected path in 404 body, got %v", body)
	}
}

func TestOpenDocument(t *testing.T) {
	handler, fake := newTestHandler(t)
	fake.Add("/example.pdf", 3)
	fake.Fail("/broken.pdf", errors.New("corrupt xref"))

	doc := openDocument(t, handler, "/example.pdf")
	if doc.ID == "" {
		t.Error("Expected a document ID")
	}
	if doc.NumPages != 3 || len(doc.Pages) != 3 {
		t.Errorf("Expected 3 pages, got numPages=%d pages=%d", doc.NumPages, len(doc.Pages))
	}
	if doc.Pages[0].Width != viewertest.PageWidth || doc.Pages[0].Height != viewertest.PageHeight {
		t.Errorf("Unexpected page size %+v", doc.Pages[0])
	}
	if doc.Title != "Fake /example.pdf" {
		t.Errorf("Unexpected title %q", doc.Title)
	}

	tests := []struct {
		name    string
		target  string
		status  int
		message string
	}{
		{"empty locator", "/api/document?src=", http.StatusBadRequest, viewer.MsgEmptyLocator},
		{"missing locator", "/api/document", http.StatusBadRequest, viewer.MsgEmptyLocator},
		{"load failure", "/api/document?src=/broken.pdf", http.StatusUnprocessableEntity, viewer.MsgLoadFailed},
		{"unknown document", "/api/document?src=/missing.pdf", http.StatusUnprocessableEntity, viewer.MsgLoadFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(handler, http.MethodGet, tt.target)
			if rec.Code != tt.status {
				t.Fatalf("Expected status %d, got %d", tt.status, rec.Code)
			}
			var body errorResponse
			json.Unmarshal(rec.Body.Bytes(), &body)
			if body.Error != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, body.Error)
			}
		})
	}
}

func TestRenderPage(t *testing.T) {
	handler, fake := newTestHandler(t)
	fake.Add("/example.pdf", 3)
	doc := openDocument(t, handler, "/example.pdf")

	tests := []struct {
		name   string
		query  string
		page   int
		status int
		scale  float64
	}{
		{"default scale", "", 1, http.StatusOK, viewer.DefaultScale},
		{"min scale", "?scale=0.5", 2, http.StatusOK, 0.5},
		{"max scale", "?scale=3", 3, http.StatusOK, 3},
		{"scale too small", "?scale=0.4", 1, http.StatusBadRequest, 0},
		{"scale too large", "?scale=3.1", 1, http.StatusBadRequest, 0},
		{"scale not a number", "?scale=big", 1, http.StatusBadRequest, 0},
		{"page zero", "", 0, http.StatusNotFound, 0},
		{"page past end", "", 4, http.StatusNotFound, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/api/document/" + doc.ID + "/page/" + strconv.Itoa(tt.page) + tt.query
			rec := doRequest(handler, http.MethodGet, target)
			if rec.Code != tt.status {
				t.Fatalf("Expected status %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			if ct := rec.Header().Get(echo.HeaderContentType); ct != "image/png" {
				t.Errorf("Expected image/png, got %q", ct)
			}
			img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
			if err != nil {
				t.Fatalf("Response is not a PNG: %v", err)
			}
			vp := viewer.ViewportFor(viewertest.PageWidth, viewertest.PageHeight, tt.scale)
			if img.Bounds().Dx() != vp.Width || img.Bounds().Dy() != vp.Height {
				t.Errorf("Expected %dx%d, got %v", vp.Width, vp.Height, img.Bounds())
			}
		})
	}

	t.Run("unknown document", func(t *testing.T) {
		rec := doRequest(handler, http.MethodGet, "/api/document/01ARZ3NDEKTSV4RRFFQ69G5FAV/page/1")
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", rec.Code)
		}
	})

	t.Run("invalid page", func(t *testing.T) {
		rec := doRequest(handler, http.MethodGet, "/api/document/"+doc.ID+"/page/first")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", rec.Code)
		}
	})
}

func TestRenderPageFailure(t *testing.T) {
	handler, fake := newTestHandler(t)
	fake.Add("/example.pdf", 2).FailPage(2, errors.New("bad content stream"))
	doc := openDocument(t, handler, "/example.pdf")

	rec := doRequest(handler, http.MethodGet, "/api/document/"+doc.ID+"/page/2")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", rec.Code)
	}
	var body errorResponse
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Error != viewer.MsgRenderFailed {
		t.Errorf("Expected %q, got %q", viewer.MsgRenderFailed, body.Error)
	}
}

func TestRenderThumbnail(t *testing.T) {
	handler, fake := newTestHandler(t)
	fake.Add("/example.pdf", 1)
	doc := openDocument(t, handler, "/example.pdf")

	rec := doRequest(handler, http.MethodGet, "/api/document/"+doc.ID+"/page/1/thumbnail?width=100")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("Response is not a PNG: %v", err)
	}
	b := img.Bounds()
	if b.Dx() > 100 || b.Dy() > 100 || b.Dy() < 99 || b.Dx() >= b.Dy() {
		t.Errorf("Expected a portrait thumbnail fitted into 100x100, got %v", b)
	}

	rec = doRequest(handler, http.MethodGet, "/api/document/"+doc.ID+"/page/1/thumbnail?width=0")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for zero width, got %d", rec.Code)
	}
}

func TestCloseDocument(t *testing.T) {
	handler, fake := newTestHandler(t)
	source := fake.Add("/example.pdf", 1)
	doc := openDocument(t, handler, "/example.pdf")

	rec := doRequest(handler, http.MethodDelete, "/api/document/"+doc.ID)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", rec.Code)
	}
	if !source.Handles()[0].Destroyed() {
		t.Error("Expected the handle to be destroyed")
	}

	rec = doRequest(handler, http.MethodDelete, "/api/document/"+doc.ID)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 on second close, got %d", rec.Code)
	}
	rec = doRequest(handler, http.MethodGet, "/api/document/"+doc.ID+"/page/1")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 after close, got %d", rec.Code)
	}
}

func TestRegistryEvict(t *testing.T) {
	fake := viewertest.NewEngine()
	source := fake.Add("/a.pdf", 1)
	registry := NewRegistry(fake)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	registry.now = func() time.Time { return now }

	staleID, _, err := registry.Open(t.Context(), "/a.pdf")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	now = now.Add(5 * time.Minute)
	freshID, _, err := registry.Open(t.Context(), "/a.pdf")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	now = now.Add(6 * time.Minute)

	if n := registry.Evict(10 * time.Minute); n != 1 {
		t.Fatalf("Expected 1 eviction, got %d", n)
	}
	if _, err := registry.Get(staleID); !errors.Is(err, ErrUnknownDocument) {
		t.Errorf("Expected stale handle to be gone, got %v", err)
	}
	if _, err := registry.Get(freshID); err != nil {
		t.Errorf("Expected fresh handle to survive, got %v", err)
	}
	handles := source.Handles()
	if !handles[0].Destroyed() || handles[1].Destroyed() {
		t.Errorf("Unexpected destroy state: %v %v", handles[0].Destroyed(), handles[1].Destroyed())
	}

	// Get refreshed the fresh handle
	now = now.Add(9 * time.Minute)
	if n := registry.Evict(10 * time.Minute); n != 0 {
		t.Errorf("Expected no eviction after use, got %d", n)
	}
}

func TestRegistryRejectsEmptyDocument(t *testing.T) {
	fake := viewertest.NewEngine()
	source := fake.Add("/empty.pdf", 0)
	registry := NewRegistry(fake)

	if _, _, err := registry.Open(t.Context(), "/empty.pdf"); err == nil {
		t.Fatal("Expected error for document without pages")
	}
	if registry.Len() != 0 {
		t.Errorf("Expected empty registry, got %d", registry.Len())
	}
	if !source.Handles()[0].Destroyed() {
		t.Error("Expected the empty handle to be destroyed")
	}
}

func TestPublicDirectoryChecks(t *testing.T) {
	Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	dir := t.TempDir()

	created := filepath.Join(dir, "public")
	if err := publicDirectoryChecks(created); err != nil {
		t.Fatalf("Expected directory to be created, got %v", err)
	}
	if info, err := os.Stat(created); err != nil || !info.IsDir() {
		t.Fatalf("Expected %s to be a directory", created)
	}

	file := filepath.Join(dir, "file.pdf")
	os.WriteFile(file, []byte("%PDF"), 0644)
	if err := publicDirectoryChecks(file); err == nil {
		t.Error("Expected error when public path is a file")
	}
}
