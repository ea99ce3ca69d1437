package feed

import "photoshare/internal/models"

// Window shows the leading items of a collection, growing in fixed steps.
type Window struct {
	Increment int
	Visible   int
}

// NewWindow starts a window at one increment.
func NewWindow(increment int) Window {
	if increment <= 0 {
		increment = 15
	}
	return Window{Increment: increment, Visible: increment}
}

// More grows the window by one increment.
func (w *Window) More() {
	w.Visible += w.Increment
}

// Reset shrinks the window back to one increment.
func (w *Window) Reset() {
	w.Visible = w.Increment
}

// Slice is the page of leading items visible in posts.
type Slice struct {
	Items       []models.Post
	Total       int
	CanLoadMore bool
}

// Apply returns copies of the visible leading items.
func (w Window) Apply(posts []models.Post) Slice {
	n := w.Visible
	if n > len(posts) {
		n = len(posts)
	}
	items := make([]models.Post, 0, n)
	for _, p := range posts[:n] {
		items = append(items, p.Clone())
	}
	return Slice{Items: items, Total: len(posts), CanLoadMore: w.Visible < len(posts)}
}
