package feed

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"photoshare/internal/models"
	"photoshare/internal/observability"
)

// Fallback messages shown when the remote gives none.
const (
	MsgLikeFailed   = "Like failed"
	MsgEditFailed   = "Edit failed"
	MsgDeleteFailed = "Delete failed"
	MsgUploadFailed = "Upload failed"
	MsgLoadFailed   = "Failed to load posts"
	MsgSearchFailed = "Search failed"
	MsgPostNotFound = "Post not found"
)

// PromptDelete is the confirmation asked before deleting.
const PromptDelete = "Delete this post?"

// Action names used in logs and metrics.
const (
	ActionLike   = "like"
	ActionEdit   = "edit"
	ActionDelete = "delete"
	ActionCreate = "create"
)

// Options configures a Controller.
type Options struct {
	Scope Scope
	// PageSize is the page length of Page. Defaults to 6.
	PageSize int
	// WindowSize is the step of Window. Defaults to 15.
	WindowSize int
	// LoadFailed is the fallback message for a failed load.
	LoadFailed string
	// Searching makes the controller query-driven: an empty query loads
	// nothing and a failed load empties the collection.
	Searching bool
	Logger    *observability.Logger
}

// UploadState is the creation overlay.
type UploadState struct {
	Open bool
	Form UploadForm
	Err  string
	Busy bool
}

// Controller owns one screen's post collection and runs mutations on it.
// All methods are safe for concurrent use; remote calls never hold the lock.
type Controller struct {
	remote PostRemote
	ident  IdentitySource
	opts   Options
	logger *observability.Logger
	mlog   *observability.MutationLogger
	loader Loader
	obs    observers

	mu       sync.RWMutex
	posts    []models.Post
	loaded   bool
	loading  bool
	loadErr  string
	query    string
	view     View
	window   Window
	postErrs map[string]string
	busy     map[string]bool
	drafts   map[string]models.PostUpdate
	upload   UploadState
}

// NewController returns an empty controller. Call Reload to fetch.
func NewController(remote PostRemote, ident IdentitySource, opts Options) *Controller {
	if opts.PageSize <= 0 {
		opts.PageSize = 6
	}
	if opts.WindowSize <= 0 {
		opts.WindowSize = 15
	}
	if opts.LoadFailed == "" {
		opts.LoadFailed = MsgLoadFailed
	}
	if opts.Logger == nil {
		opts.Logger = observability.GlobalLogger
	}
	logger := opts.Logger.Component("feed")
	return &Controller{
		remote:   remote,
		ident:    ident,
		opts:     opts,
		logger:   logger,
		mlog:     observability.NewMutationLogger(opts.Logger),
		view:     View{Sort: SortDateDesc, Page: 1, PageSize: opts.PageSize},
		window:   NewWindow(opts.WindowSize),
		postErrs: make(map[string]string),
		busy:     make(map[string]bool),
		drafts:   make(map[string]models.PostUpdate),
	}
}

// Subscribe registers fn to run after every state change.
func (c *Controller) Subscribe(fn func()) (unsubscribe func()) {
	return c.obs.add(fn)
}

// Close cancels any in-flight load and discards its result. Later loads
// fail with ErrClosed.
func (c *Controller) Close() {
	c.loader.Close()
}

// Reload fetches the collection. On success the window shrinks back to one
// step and the page is re-clamped.
func (c *Controller) Reload(ctx context.Context) error {
	ctx = observability.EnsureCorrelationID(ctx)

	uid, hasID := c.ident.CurrentIdentity()
	if c.opts.Scope == OwnedBy && !hasID {
		c.logger.DebugContext(ctx, "skipping owned-posts load without identity")
		return nil
	}

	query := c.Query()
	if c.opts.Searching && query == "" {
		return nil
	}

	loadCtx, gen, err := c.loader.Begin(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()
	c.obs.notify()

	posts, err := c.remote.ListPosts(loadCtx, query)
	if err == nil && c.opts.Scope == OwnedBy {
		posts = ownedBy(posts, uid)
	}

	ferr := c.loader.Finish(gen, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.loading = false
		if err != nil {
			c.loadErr = models.UserMessage(err, c.opts.LoadFailed)
			if c.opts.Searching {
				c.posts = nil
			}
			return
		}
		c.posts = posts
		c.loaded = true
		c.loadErr = ""
		c.window.Reset()
		c.view.Page = ClampPage(c.view.Page, len(c.posts), c.view.PageSize)
		c.pruneLocked()
	})
	if ferr != nil {
		c.logger.DebugContext(ctx, "discarded load result", slog.String("reason", ferr.Error()))
		return ferr
	}
	c.obs.notify()

	if err != nil && !models.IsSuppressed(err) {
		c.logger.WarnContext(ctx, "failed to load posts", slog.String("error", err.Error()))
	}
	return err
}

// Search sets the query and reloads. A blank query clears the collection
// without a request.
func (c *Controller) Search(ctx context.Context, q string) error {
	q = strings.TrimSpace(q)

	c.mu.Lock()
	c.query = q
	c.window.Reset()
	if q == "" {
		c.posts = nil
		c.loaded = false
		c.loading = false
		c.loadErr = ""
	}
	c.mu.Unlock()

	if q == "" {
		// Supersede any load still running for the previous query.
		if _, gen, err := c.loader.Begin(ctx); err == nil {
			_ = c.loader.Finish(gen, func() {})
		}
		c.obs.notify()
		return nil
	}
	return c.Reload(ctx)
}

// Query is the current search query.
func (c *Controller) Query() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.query
}

// Posts returns copies of the collection in remote order.
func (c *Controller) Posts() []models.Post {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Post, len(c.posts))
	for i, p := range c.posts {
		out[i] = p.Clone()
	}
	return out
}

// Post returns a copy of one post.
func (c *Controller) Post(id string) (models.Post, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.posts[i].Clone(), true
	}
	return models.Post{}, false
}

// Page projects the collection through the current sort and page.
func (c *Controller) Page() Page {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view.Project(c.posts)
}

// Window returns the visible leading items in remote order.
func (c *Controller) Window() Slice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.window.Apply(c.posts)
}

// SetSort changes the sort key and returns to page 1.
func (c *Controller) SetSort(key SortKey) {
	c.mu.Lock()
	c.view.Sort = key
	c.view.Page = 1
	c.mu.Unlock()
	c.obs.notify()
}

// SetPage moves to page, clamped into range.
func (c *Controller) SetPage(page int) {
	c.mu.Lock()
	c.view.Page = ClampPage(page, len(c.posts), c.view.PageSize)
	c.mu.Unlock()
	c.obs.notify()
}

func (c *Controller) NextPage() { c.SetPage(c.Page().Page + 1) }

func (c *Controller) PrevPage() { c.SetPage(c.Page().Page - 1) }

// LoadMore grows the window by one step.
func (c *Controller) LoadMore() {
	c.mu.Lock()
	c.window.More()
	c.mu.Unlock()
	c.obs.notify()
}

// Loading reports whether a load is in flight.
func (c *Controller) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Loaded reports whether a load has completed successfully.
func (c *Controller) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// LoadError is the message of the last failed load, or "".
func (c *Controller) LoadError() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadErr
}

// PostError is the message of the last failed action on one post, or "".
func (c *Controller) PostError(id string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.postErrs[id]
}

// IsBusy reports whether an edit or delete of the post is in flight.
func (c *Controller) IsBusy(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.busy[id]
}

// ToggleLike flips the current identity's like on a post. The new liker set
// is visible before the remote call; a failed call restores the exact prior
// set and records an error for that post alone. Without an identity it does
// nothing.
func (c *Controller) ToggleLike(ctx context.Context, postID string) error {
	uid, ok := c.ident.CurrentIdentity()
	if !ok {
		observability.RecordMutation(ActionLike, observability.OutcomeSkipped)
		return nil
	}
	ctx = observability.EnsureCorrelationID(ctx)

	err := Run[likeSnapshot](ctx, &likeMutation{c: c, postID: postID, uid: uid})
	c.record(ctx, ActionLike, postID, err)
	return err
}

type likeSnapshot struct {
	likers []string
	found  bool
}

// likeMutation holds the controller lock across Snapshot and Apply.
type likeMutation struct {
	c      *Controller
	postID string
	uid    string
	found  bool
}

func (m *likeMutation) Lock()   { m.c.mu.Lock() }
func (m *likeMutation) Unlock() { m.c.mu.Unlock() }

func (m *likeMutation) Snapshot() likeSnapshot {
	i := m.c.indexLocked(m.postID)
	if i < 0 {
		return likeSnapshot{}
	}
	m.found = true
	return likeSnapshot{likers: slices.Clone(m.c.posts[i].LikerIDs), found: true}
}

func (m *likeMutation) Apply() {
	i := m.c.indexLocked(m.postID)
	if i < 0 {
		return
	}
	next, _ := ToggleMember(m.c.posts[i].LikerIDs, m.uid)
	m.c.posts[i].LikerIDs = next
	delete(m.c.postErrs, m.postID)
}

func (m *likeMutation) Commit(ctx context.Context) error {
	if !m.found {
		return models.NewValidationError(MsgPostNotFound)
	}
	m.c.mlog.LogApplied(ctx, ActionLike, m.postID)
	m.c.obs.notify()
	return m.c.remote.ToggleLike(ctx, m.postID)
}

func (m *likeMutation) Compensate(snap likeSnapshot, err error) {
	if !snap.found {
		return
	}
	m.c.mu.Lock()
	if i := m.c.indexLocked(m.postID); i >= 0 {
		m.c.posts[i].LikerIDs = snap.likers
	}
	m.c.setPostErrLocked(m.postID, err, MsgLikeFailed)
	m.c.mu.Unlock()

	observability.RecordRollback(ActionLike)
	m.c.obs.notify()
}

// OpenEditor returns the draft for a post, starting from its current fields.
func (c *Controller) OpenEditor(postID string) (models.PostUpdate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.drafts[postID]; ok {
		return d, true
	}
	i := c.indexLocked(postID)
	if i < 0 {
		return models.PostUpdate{}, false
	}
	d := models.UpdateFrom(c.posts[i])
	c.drafts[postID] = d
	delete(c.postErrs, postID)
	return d, true
}

// Draft returns the open editor's fields, if any.
func (c *Controller) Draft(postID string) (models.PostUpdate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.drafts[postID]
	return d, ok
}

// CloseEditor discards the draft.
func (c *Controller) CloseEditor(postID string) {
	c.mu.Lock()
	delete(c.drafts, postID)
	c.mu.Unlock()
	c.obs.notify()
}

// SaveEdit sends the edited fields. Local state is untouched until the
// reload that follows success; on failure the editor stays open holding upd.
func (c *Controller) SaveEdit(ctx context.Context, postID string, upd models.PostUpdate) error {
	ctx = observability.EnsureCorrelationID(ctx)
	if !c.acquire(postID) {
		return models.NewBusyError(ActionEdit)
	}
	defer c.release(postID)

	c.mu.Lock()
	c.drafts[postID] = upd
	delete(c.postErrs, postID)
	c.mu.Unlock()

	err := Run[struct{}](ctx, Mutation[struct{}]{
		CommitFn: func(ctx context.Context) error {
			return c.remote.UpdatePost(ctx, postID, upd)
		},
		CompensateFn: func(_ struct{}, err error) {
			c.failPost(postID, err, MsgEditFailed)
		},
	})
	c.record(ctx, ActionEdit, postID, err)
	if err != nil {
		return err
	}

	c.mu.Lock()
	delete(c.drafts, postID)
	c.mu.Unlock()
	c.reloadAfter(ctx, ActionEdit)
	return nil
}

// Delete removes a post after confirm approves. Declining issues no request.
func (c *Controller) Delete(ctx context.Context, postID string, confirm Confirmer) error {
	ctx = observability.EnsureCorrelationID(ctx)
	if confirm == nil || !confirm.Confirm(PromptDelete) {
		observability.RecordMutation(ActionDelete, observability.OutcomeSkipped)
		return nil
	}
	if !c.acquire(postID) {
		return models.NewBusyError(ActionDelete)
	}
	defer c.release(postID)

	c.mu.Lock()
	delete(c.postErrs, postID)
	c.mu.Unlock()

	err := Run[struct{}](ctx, Mutation[struct{}]{
		CommitFn: func(ctx context.Context) error {
			return c.remote.DeletePost(ctx, postID)
		},
		CompensateFn: func(_ struct{}, err error) {
			c.failPost(postID, err, MsgDeleteFailed)
		},
	})
	c.record(ctx, ActionDelete, postID, err)
	if err != nil {
		return err
	}
	c.reloadAfter(ctx, ActionDelete)
	return nil
}

// OpenUpload shows the creation overlay, keeping any previous form.
func (c *Controller) OpenUpload() {
	c.mu.Lock()
	c.upload.Open = true
	c.mu.Unlock()
	c.obs.notify()
}

// CloseUpload hides the overlay. The form is kept.
func (c *Controller) CloseUpload() {
	c.mu.Lock()
	c.upload.Open = false
	c.mu.Unlock()
	c.obs.notify()
}

// Upload returns the overlay state.
func (c *Controller) Upload() UploadState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.upload
}

// Create validates and uploads form. Success clears the form, closes the
// overlay, reloads and returns to page 1; failure keeps the form.
func (c *Controller) Create(ctx context.Context, form UploadForm) error {
	ctx = observability.EnsureCorrelationID(ctx)

	c.mu.Lock()
	if c.upload.Busy {
		c.mu.Unlock()
		return models.NewBusyError("upload")
	}
	c.upload.Form = form
	c.upload.Err = ""
	in, verr := form.Validate()
	if verr != nil {
		c.upload.Err = models.UserMessage(verr, MsgUploadFailed)
		c.mu.Unlock()
		c.obs.notify()
		observability.RecordMutation(ActionCreate, observability.OutcomeSkipped)
		return verr
	}
	c.upload.Busy = true
	c.mu.Unlock()
	c.obs.notify()

	err := Run[struct{}](ctx, Mutation[struct{}]{
		CommitFn: func(ctx context.Context) error {
			_, err := c.remote.CreatePost(ctx, in)
			return err
		},
		CompensateFn: func(_ struct{}, err error) {
			c.mu.Lock()
			c.upload.Err = models.UserMessage(err, MsgUploadFailed)
			c.mu.Unlock()
		},
	})
	c.record(ctx, ActionCreate, "", err)

	c.mu.Lock()
	c.upload.Busy = false
	if err == nil {
		c.upload = UploadState{}
	}
	c.mu.Unlock()
	if err != nil {
		c.obs.notify()
		return err
	}

	c.reloadAfter(ctx, ActionCreate)
	c.mu.Lock()
	c.view.Page = 1
	c.mu.Unlock()
	c.obs.notify()
	return nil
}

func (c *Controller) reloadAfter(ctx context.Context, action string) {
	if err := c.Reload(ctx); err != nil && !errors.Is(err, ErrClosed) && !errors.Is(err, ErrSuperseded) {
		c.logger.WarnContext(ctx, "reload after mutation failed",
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}

func (c *Controller) acquire(postID string) bool {
	c.mu.Lock()
	if c.busy[postID] {
		c.mu.Unlock()
		return false
	}
	c.busy[postID] = true
	c.mu.Unlock()
	c.obs.notify()
	return true
}

func (c *Controller) release(postID string) {
	c.mu.Lock()
	delete(c.busy, postID)
	c.mu.Unlock()
	c.obs.notify()
}

func (c *Controller) failPost(postID string, err error, fallback string) {
	c.mu.Lock()
	c.setPostErrLocked(postID, err, fallback)
	c.mu.Unlock()
	c.obs.notify()
}

func (c *Controller) setPostErrLocked(postID string, err error, fallback string) {
	if msg := models.UserMessage(err, fallback); msg != "" {
		c.postErrs[postID] = msg
	}
}

func (c *Controller) record(ctx context.Context, action, postID string, err error) {
	outcome := Outcome(err)
	observability.RecordMutation(action, outcome)
	switch {
	case err == nil:
		c.mlog.LogCommitted(ctx, action, postID)
	case outcome != observability.OutcomeCanceled:
		c.mlog.LogCompensated(ctx, action, postID, err)
	}
}

// Outcome maps an error onto a metrics outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeOK
	case errors.Is(err, context.Canceled):
		return observability.OutcomeCanceled
	case models.HasCode(err, models.CodeUnreachable):
		return observability.OutcomeUnreachable
	}
	return observability.OutcomeRejected
}

func (c *Controller) indexLocked(id string) int {
	for i := range c.posts {
		if c.posts[i].ID == id {
			return i
		}
	}
	return -1
}

// pruneLocked drops per-post state of posts no longer in the collection.
func (c *Controller) pruneLocked() {
	present := make(map[string]struct{}, len(c.posts))
	for _, p := range c.posts {
		present[p.ID] = struct{}{}
	}
	for id := range c.postErrs {
		if _, ok := present[id]; !ok {
			delete(c.postErrs, id)
		}
	}
	for id := range c.drafts {
		if _, ok := present[id]; !ok {
			delete(c.drafts, id)
		}
	}
}

func ownedBy(posts []models.Post, uid string) []models.Post {
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if p.CreatorID == uid {
			out = append(out, p)
		}
	}
	return out
}
