package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/drummonds/pdfpanel/viewer"
)

var errNoDocument = errors.New("no document open, use: open <locator>")

// session is one terminal viewer: a viewer core drawing into memory.
type session struct {
	ctx     context.Context
	engine  viewer.Engine
	surface *viewer.ImageSurface
	viewer  *viewer.Viewer
}

func newSession(ctx context.Context, engine viewer.Engine) *session {
	s := &session{ctx: ctx, engine: engine}
	s.reset(viewer.DefaultScale)
	return s
}

func (s *session) reset(scale float64) {
	s.surface = viewer.NewImageSurface()
	s.viewer = viewer.New(s.engine, s.surface, viewer.WithScale(scale))
}

// status describes the visible page, or the panel's error.
func (s *session) status() (string, error) {
	s.viewer.Wait()
	st := s.viewer.State()
	if st.Error != "" {
		return "", errors.New(st.Error)
	}
	if st.NumPages == 0 {
		return "", errNoDocument
	}
	w, h := s.surface.Size()
	return fmt.Sprintf("%s  %d%%  (%dx%d px)", st.PageLabel(), st.ZoomPercent(), w, h), nil
}

func (s *session) open(locator string) (string, error) {
	if err := s.viewer.Load(s.ctx, locator); err != nil {
		viewer.Logger.Debug("Load failed", "locator", locator, "error", err)
	}
	return s.status()
}

func (s *session) loaded() bool {
	return s.viewer.State().NumPages > 0
}

func (s *session) next() (string, error) {
	if !s.loaded() {
		return "", errNoDocument
	}
	if !s.viewer.NextPage() {
		return "Already on the last page", nil
	}
	return s.status()
}

func (s *session) previous() (string, error) {
	if !s.loaded() {
		return "", errNoDocument
	}
	if !s.viewer.PreviousPage() {
		return "Already on the first page", nil
	}
	return s.status()
}

func (s *session) page(arg string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return "", fmt.Errorf("invalid page number %q", arg)
	}
	if err := s.viewer.GoToPage(n); err != nil {
		return "", err
	}
	return s.status()
}

func (s *session) zoom(in bool) (string, error) {
	if in {
		s.viewer.ZoomIn()
	} else {
		s.viewer.ZoomOut()
	}
	if !s.loaded() {
		return fmt.Sprintf("Zoom %d%%", s.viewer.State().ZoomPercent()), nil
	}
	return s.status()
}

func (s *session) info() (string, error) {
	if !s.loaded() {
		return "", errNoDocument
	}
	st := s.viewer.State()
	title := st.Title
	if title == "" {
		title = "(untitled)"
	}
	return fmt.Sprintf("Title: %s\nSource: %s\nPages: %d\nScale: %.1f", title, st.Locator, st.NumPages, st.Scale), nil
}

// save writes the rendered page; the format follows the file extension.
func (s *session) save(path string) (string, error) {
	if _, err := s.status(); err != nil {
		return "", err
	}
	if path == "" {
		return "", errors.New("usage: save <file.png>")
	}
	if err := imaging.Save(s.surface.Image(), path); err != nil {
		return "", fmt.Errorf("unable to save page: %w", err)
	}
	return "Saved " + path, nil
}

// close releases the document and starts a fresh viewer at the same zoom.
func (s *session) close() (string, error) {
	if !s.loaded() {
		return "", errNoDocument
	}
	scale := s.viewer.State().Scale
	s.viewer.Close()
	s.reset(scale)
	return "Closed", nil
}

func (s *session) shutdown() {
	s.viewer.Close()
}
