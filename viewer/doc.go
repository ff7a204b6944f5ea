// Package viewer holds the core of the PDF viewer panel: the document loader
// and the page render controller.
//
// A Viewer owns at most one open Document and one drawing Surface. Loads are
// tagged with a generation counter and renders run as jobs in a single-slot
// register, so a stale result never reaches the state or the surface.
package viewer
