package screens

import (
	"context"
	"fmt"
	"time"

	"photoshare/internal/feed"
	"photoshare/internal/guard"
	"photoshare/internal/models"
	"photoshare/internal/observability"
	"photoshare/internal/session"
)

// HintSearch is shown on the search screen before a query is entered.
const HintSearch = "Type something in the search box above."

// Sizes are the page lengths of the post screens.
type Sizes struct {
	// Window is the feed and search visible-count step.
	Window int
	// Page is the dashboard page length.
	Page int
}

// Affordances are the per-post controls the session may use.
type Affordances struct {
	Like     bool
	Comment  bool
	Edit     bool
	Delete   bool
	Download bool
}

// Posts is a screen backed by a feed controller: the home feed, the
// creator dashboard or search.
type Posts struct {
	*feed.Controller
	Screen guard.Screen
	store  *session.Store
}

// NewFeed returns the home feed, shown in visible-count window mode.
func NewFeed(remote feed.PostRemote, store *session.Store, sizes Sizes, logger *observability.Logger) *Posts {
	return &Posts{
		Controller: feed.NewController(remote, store, feed.Options{
			WindowSize: sizes.Window,
			Logger:     logger,
		}),
		Screen: guard.ScreenFeed,
		store:  store,
	}
}

// NewDashboard returns the creator dashboard: the creator's own posts, paged.
func NewDashboard(remote feed.PostRemote, store *session.Store, sizes Sizes, logger *observability.Logger) *Posts {
	return &Posts{
		Controller: feed.NewController(remote, store, feed.Options{
			Scope:    feed.OwnedBy,
			PageSize: sizes.Page,
			Logger:   logger,
		}),
		Screen: guard.ScreenDashboard,
		store:  store,
	}
}

// NewSearch returns the search screen.
func NewSearch(remote feed.PostRemote, store *session.Store, sizes Sizes, logger *observability.Logger) *Posts {
	return &Posts{
		Controller: feed.NewController(remote, store, feed.Options{
			WindowSize: sizes.Window,
			LoadFailed: feed.MsgSearchFailed,
			Searching:  true,
			Logger:     logger,
		}),
		Screen: guard.ScreenSearch,
		store:  store,
	}
}

// Open loads the screen's posts. The search screen waits for a query.
func (p *Posts) Open(ctx context.Context) error {
	return p.Reload(ctx)
}

// Hint is the placeholder text for an empty screen, or "".
func (p *Posts) Hint() string {
	if p.Screen == guard.ScreenSearch && p.Query() == "" {
		return HintSearch
	}
	if p.Loaded() && len(p.Posts()) == 0 && p.LoadError() == "" {
		switch p.Screen {
		case guard.ScreenDashboard:
			return "You have not posted anything yet."
		case guard.ScreenSearch:
			return fmt.Sprintf("No posts match %q.", p.Query())
		default:
			return "No posts yet."
		}
	}
	return ""
}

// Affordances returns the controls shown on post for the current session.
func (p *Posts) Affordances(post models.Post) Affordances {
	s := p.store.Current()
	if !s.IsAuthenticated() {
		return Affordances{}
	}
	a := Affordances{
		Like:     true,
		Comment:  true,
		Download: s.Role.CanDownload(),
	}
	if s.Role.CanManagePosts() {
		uid, ok := s.Identity()
		owns := post.CreatorID == "" || (ok && uid == post.CreatorID)
		a.Edit = owns
		a.Delete = owns
	}
	return a
}

// Liked reports whether the current identity likes post.
func (p *Posts) Liked(post models.Post) bool {
	uid, _ := p.store.CurrentIdentity()
	return post.LikedBy(uid)
}

// FormatPostDate renders a post timestamp relative to now.
func FormatPostDate(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(now.Location())
	clock := t.Format("15:04")
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return "Today at " + clock
	}
	yy, ym, yd := now.AddDate(0, 0, -1).Date()
	if y1 == yy && m1 == ym && d1 == yd {
		return "Yesterday at " + clock
	}
	return t.Format("02 Jan 2006, 15:04")
}
