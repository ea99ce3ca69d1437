package feed

import (
	"fmt"
	"sort"
	"strings"

	"photoshare/internal/models"
)

// SortKey orders a projection.
type SortKey string

const (
	SortDateDesc  SortKey = "date_desc"
	SortDateAsc   SortKey = "date_asc"
	SortLikesDesc SortKey = "likes_desc"
)

// SortKeys lists the accepted keys, default first.
var SortKeys = []SortKey{SortDateDesc, SortDateAsc, SortLikesDesc}

// ParseSortKey accepts a key name, case-insensitively.
func ParseSortKey(s string) (SortKey, error) {
	key := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if key == "" {
		return SortDateDesc, nil
	}
	for _, k := range SortKeys {
		if k == key {
			return k, nil
		}
	}
	return "", models.NewValidationError(fmt.Sprintf("unknown sort %q", s))
}

// Label is the option text shown for the key.
func (k SortKey) Label() string {
	switch k {
	case SortDateAsc:
		return "Oldest first"
	case SortLikesDesc:
		return "Most liked"
	}
	return "Newest first"
}

// Sorted returns a copy of posts ordered by key. Equal elements keep their
// collection order.
func Sorted(posts []models.Post, key SortKey) []models.Post {
	out := make([]models.Post, len(posts))
	copy(out, posts)

	var less func(i, j int) bool
	switch key {
	case SortDateAsc:
		less = func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) }
	case SortLikesDesc:
		less = func(i, j int) bool { return out[i].LikeCount() > out[j].LikeCount() }
	default:
		less = func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) }
	}
	sort.SliceStable(out, less)
	return out
}

// TotalPages is max(1, ceil(n/size)).
func TotalPages(n, size int) int {
	if size <= 0 || n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// ClampPage bounds page into [1, TotalPages(n, size)].
func ClampPage(page, n, size int) int {
	last := TotalPages(n, size)
	if page > last {
		return last
	}
	if page < 1 {
		return 1
	}
	return page
}

// View is the sort and page selection over a collection.
type View struct {
	Sort     SortKey
	Page     int
	PageSize int
}

// Page is one projected page.
type Page struct {
	Items      []models.Post
	Sort       SortKey
	Page       int
	TotalPages int
	// Total is the size of the whole collection.
	Total int
}

func (p Page) HasPrev() bool { return p.Page > 1 }

func (p Page) HasNext() bool { return p.Page < p.TotalPages }

// Summary reads "Showing k of n".
func (p Page) Summary() string {
	return fmt.Sprintf("Showing %d of %d", len(p.Items), p.Total)
}

// Project sorts posts and slices out the clamped page. The returned items
// are copies.
func (v View) Project(posts []models.Post) Page {
	sorted := Sorted(posts, v.Sort)
	page := ClampPage(v.Page, len(sorted), v.PageSize)

	start := (page - 1) * v.PageSize
	end := start + v.PageSize
	if end > len(sorted) {
		end = len(sorted)
	}
	items := make([]models.Post, 0, end-start)
	for _, p := range sorted[start:end] {
		items = append(items, p.Clone())
	}
	return Page{
		Items:      items,
		Sort:       v.Sort,
		Page:       page,
		TotalPages: TotalPages(len(sorted), v.PageSize),
		Total:      len(sorted),
	}
}
