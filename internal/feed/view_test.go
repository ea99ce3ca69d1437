package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"photoshare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	return models.ParseTimestamp(s)
}

func ids(posts []models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func numbered(n int) []models.Post {
	posts := make([]models.Post, n)
	base := day("2024-01-01")
	for i := range posts {
		posts[i] = models.Post{ID: fmt.Sprint(i + 1), CreatedAt: base.Add(time.Duration(i) * time.Hour)}
	}
	return posts
}

func TestSorted_Scenario(t *testing.T) {
	t.Parallel()
	posts := []models.Post{
		{ID: "1", CreatedAt: day("2024-01-01"), LikerIDs: []string{}},
		{ID: "2", CreatedAt: day("2024-01-02"), LikerIDs: []string{"u1"}},
	}

	assert.Equal(t, []string{"2", "1"}, ids(Sorted(posts, SortDateDesc)))
	assert.Equal(t, []string{"2", "1"}, ids(Sorted(posts, SortLikesDesc)))
	assert.Equal(t, []string{"1", "2"}, ids(Sorted(posts, SortDateAsc)))
	// The input is not reordered.
	assert.Equal(t, []string{"1", "2"}, ids(posts))
}

func TestSorted_Stable(t *testing.T) {
	t.Parallel()
	same := day("2024-03-03")
	posts := []models.Post{
		{ID: "a", CreatedAt: same, LikerIDs: []string{"x"}},
		{ID: "b", CreatedAt: same, LikerIDs: []string{"y", "z"}},
		{ID: "c", CreatedAt: same, LikerIDs: []string{"q"}},
		{ID: "d", CreatedAt: same},
		{ID: "e", CreatedAt: same, LikerIDs: []string{"w"}},
	}

	assert.Equal(t, []string{"b", "a", "c", "e", "d"}, ids(Sorted(posts, SortLikesDesc)))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(Sorted(posts, SortDateDesc)))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(Sorted(posts, SortDateAsc)))
}

func TestParseSortKey(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    SortKey
		wantErr bool
	}{
		{"", SortDateDesc, false},
		{"date_desc", SortDateDesc, false},
		{"DATE_ASC", SortDateAsc, false},
		{" likes_desc ", SortLikesDesc, false},
		{"likes", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSortKey(tt.in)
		if tt.wantErr {
			assert.True(t, models.HasCode(err, models.CodeValidation), tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestTotalPages(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1, TotalPages(0, 6))
	assert.Equal(t, 1, TotalPages(6, 6))
	assert.Equal(t, 2, TotalPages(7, 6))
	assert.Equal(t, 3, TotalPages(13, 6))
}

func TestProject_ClampOvershoot(t *testing.T) {
	t.Parallel()
	for n := 0; n <= 20; n++ {
		for _, size := range []int{1, 3, 6, 15} {
			posts := numbered(n)
			last := TotalPages(n, size)
			for _, page := range []int{last + 5, last + 100, -3, 0} {
				got := View{Sort: SortDateAsc, Page: page, PageSize: size}.Project(posts)
				if n == 0 {
					assert.Empty(t, got.Items)
					assert.Equal(t, 1, got.Page)
					continue
				}
				require.NotEmpty(t, got.Items, "n=%d size=%d page=%d", n, size, page)
				if page > last {
					want := View{Sort: SortDateAsc, Page: last, PageSize: size}.Project(posts)
					assert.Equal(t, ids(want.Items), ids(got.Items))
					assert.Equal(t, last, got.Page)
				} else {
					assert.Equal(t, 1, got.Page)
				}
			}
		}
	}
}

func TestProject_PageBounds(t *testing.T) {
	t.Parallel()
	posts := numbered(14)
	v := View{Sort: SortDateAsc, Page: 1, PageSize: 6}

	p := v.Project(posts)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, ids(p.Items))
	assert.False(t, p.HasPrev())
	assert.True(t, p.HasNext())
	assert.Equal(t, "Showing 6 of 14", p.Summary())

	v.Page = 3
	p = v.Project(posts)
	assert.Equal(t, []string{"13", "14"}, ids(p.Items))
	assert.True(t, p.HasPrev())
	assert.False(t, p.HasNext())
	assert.Equal(t, 3, p.TotalPages)
}

func TestWindow(t *testing.T) {
	t.Parallel()
	posts := numbered(32)
	w := NewWindow(15)

	s := w.Apply(posts)
	assert.Len(t, s.Items, 15)
	assert.True(t, s.CanLoadMore)

	w.More()
	w.More()
	s = w.Apply(posts)
	assert.Len(t, s.Items, 32)
	assert.False(t, s.CanLoadMore)
	assert.Equal(t, 45, w.Visible)

	w.Reset()
	assert.Equal(t, 15, w.Visible)
	assert.Equal(t, 15, NewWindow(0).Increment)
}

func TestToggleMember(t *testing.T) {
	t.Parallel()
	orig := []string{"a", "b"}

	next, was := ToggleMember(orig, "c")
	assert.False(t, was)
	assert.Equal(t, []string{"a", "b", "c"}, next)

	back, was := ToggleMember(next, "c")
	assert.True(t, was)
	assert.ElementsMatch(t, orig, back)
	assert.Equal(t, []string{"a", "b"}, orig, "input must not change")
}

// lockedMutation records phase order and lock use.
type lockedMutation struct {
	Mutation[int]
	mu     sync.Mutex
	locked bool
}

func (m *lockedMutation) Lock()   { m.mu.Lock(); m.locked = true }
func (m *lockedMutation) Unlock() { m.mu.Unlock() }

func TestRun(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")

	tests := []struct {
		name      string
		commitErr error
		wantState int
	}{
		{"Commit", nil, 2},
		{"Compensate", boom, 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			state := 1
			var compensatedWith error
			m := &lockedMutation{Mutation: Mutation[int]{
				SnapshotFn: func() int { return state },
				ApplyFn:    func() { state = 2 },
				CommitFn: func(context.Context) error {
					assert.Equal(t, 2, state, "apply must precede commit")
					return tt.commitErr
				},
				CompensateFn: func(snap int, err error) {
					compensatedWith = err
					state = snap
				},
			}}

			err := Run[int](context.Background(), m)
			assert.ErrorIs(t, err, tt.commitErr)
			assert.Equal(t, tt.wantState, state)
			assert.Equal(t, tt.commitErr, compensatedWith)
			assert.True(t, m.locked)
		})
	}

	// Zero-value phases are no-ops.
	assert.NoError(t, Run[struct{}](context.Background(), Mutation[struct{}]{}))
}
