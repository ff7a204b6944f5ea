package viewer

import (
	"context"
)

type renderJob struct {
	id     uint64
	page   int
	scale  float64
	ctx    context.Context
	cancel context.CancelFunc
}

// RenderPage renders page at scale onto the surface and waits for it.
// It supersedes any render in flight. A superseded render returns
// ErrRenderCancelled and leaves the state untouched.
func (v *Viewer) RenderPage(ctx context.Context, page int, scale float64) error {
	v.mu.Lock()
	var err error
	switch {
	case v.closed:
		err = ErrClosed
	case v.doc == nil:
		err = ErrNoDocument
	case page < 1 || page > v.state.NumPages:
		err = ErrPageOutOfRange
	case scale <= 0:
		err = ErrInvalidScale
	}
	if err != nil {
		v.mu.Unlock()
		return err
	}
	doc := v.doc
	job := v.startJobLocked(ctx, page, scale)
	v.mu.Unlock()

	return v.runJob(job, doc)
}

// CancelRender cancels the active render, if any.
func (v *Viewer) CancelRender() {
	v.mu.Lock()
	v.cancelJobLocked()
	v.mu.Unlock()
}

// Wait blocks until every render started by a state change has finished.
func (v *Viewer) Wait() {
	v.jobs.Wait()
}

// scheduleRenderLocked starts an asynchronous render of the current page.
func (v *Viewer) scheduleRenderLocked() {
	doc := v.doc
	job := v.startJobLocked(context.Background(), v.state.CurrentPage, v.state.Scale)
	v.jobs.Add(1)
	go func() {
		defer v.jobs.Done()
		_ = v.runJob(job, doc)
	}()
}

func (v *Viewer) startJobLocked(parent context.Context, page int, scale float64) *renderJob {
	v.cancelJobLocked()
	v.jobSeq++
	ctx, cancel := context.WithCancel(parent)
	job := &renderJob{id: v.jobSeq, page: page, scale: scale, ctx: ctx, cancel: cancel}
	v.job = job
	return job
}

func (v *Viewer) cancelJobLocked() {
	if v.job != nil {
		v.job.cancel()
		v.job = nil
	}
}

func (v *Viewer) currentLocked(job *renderJob) bool {
	return !v.closed && v.job == job && job.ctx.Err() == nil
}

func (v *Viewer) runJob(job *renderJob, doc Document) error {
	defer v.finishJob(job)

	page, err := doc.Page(job.ctx, job.page)
	if err != nil {
		return v.renderFailed(job, err)
	}
	w, h := page.Size()
	vp := ViewportFor(w, h, job.scale)

	// claim the surface
	v.mu.Lock()
	if !v.currentLocked(job) {
		v.mu.Unlock()
		return ErrRenderCancelled
	}
	if err := v.surface.Resize(vp.Width, vp.Height); err != nil {
		v.mu.Unlock()
		return v.renderFailed(job, err)
	}
	v.surface.Clear()
	v.mu.Unlock()
	if v.onResize != nil {
		v.onResize(vp.Width, vp.Height)
	}

	img, err := page.Render(job.ctx, vp)
	if err != nil {
		return v.renderFailed(job, err)
	}

	v.mu.Lock()
	if !v.currentLocked(job) {
		v.mu.Unlock()
		Logger.Debug("Discarding superseded frame", "job", job.id, "page", job.page)
		return ErrRenderCancelled
	}
	err = v.surface.Draw(img)
	v.mu.Unlock()
	if err != nil {
		return v.renderFailed(job, err)
	}

	Logger.Debug("Rendered page", "job", job.id, "page", job.page, "scale", job.scale, "width", vp.Width, "height", vp.Height)
	return nil
}

func (v *Viewer) finishJob(job *renderJob) {
	v.mu.Lock()
	if v.job == job {
		v.job = nil
	}
	v.mu.Unlock()
	job.cancel()
}

func (v *Viewer) renderFailed(job *renderJob, err error) error {
	v.mu.Lock()
	if IsCancelled(err) || !v.currentLocked(job) {
		v.mu.Unlock()
		Logger.Debug("Render cancelled", "job", job.id, "page", job.page)
		return ErrRenderCancelled
	}
	v.state.Error = MsgRenderFailed
	v.mu.Unlock()

	Logger.Error("Error rendering PDF page", "page", job.page, "scale", job.scale, "error", err)
	v.notify()
	return &RenderError{Page: job.page, Scale: job.scale, Err: err}
}
