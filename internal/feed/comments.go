package feed

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"photoshare/internal/models"
	"photoshare/internal/observability"
)

// Comment thread messages.
const (
	MsgCommentsFailed = "Failed to load comments"
	MsgCommentFailed  = "Comment failed"
)

// Thread is the comment list of one post.
type Thread struct {
	remote CommentRemote
	postID string
	logger *observability.Logger
	loader Loader
	obs    observers

	mu       sync.RWMutex
	comments []models.Comment
	loading  bool
	err      string
}

// NewThread returns an empty thread for postID. Call Load to fetch.
func NewThread(remote CommentRemote, postID string, logger *observability.Logger) *Thread {
	if logger == nil {
		logger = observability.GlobalLogger
	}
	return &Thread{
		remote: remote,
		postID: postID,
		logger: logger.Component("comments"),
	}
}

// PostID is the post the thread belongs to.
func (t *Thread) PostID() string { return t.postID }

// Subscribe registers fn to run after every state change.
func (t *Thread) Subscribe(fn func()) (unsubscribe func()) {
	return t.obs.add(fn)
}

// Load fetches the comments. Results arriving after Close are dropped.
func (t *Thread) Load(ctx context.Context) error {
	loadCtx, gen, err := t.loader.Begin(ctx)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.loading = true
	t.mu.Unlock()
	t.obs.notify()

	comments, err := t.remote.ListComments(loadCtx, t.postID)
	ferr := t.loader.Finish(gen, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.loading = false
		if err != nil {
			t.err = models.UserMessage(err, MsgCommentsFailed)
			return
		}
		t.comments = comments
		t.err = ""
	})
	if ferr != nil {
		return ferr
	}
	t.obs.notify()

	if err != nil && !models.IsSuppressed(err) {
		t.logger.WarnContext(ctx, "failed to load comments",
			slog.String("post_id", t.postID),
			slog.String("error", err.Error()),
		)
	}
	return err
}

// Add posts text and reloads. Blank text is ignored.
func (t *Thread) Add(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	ctx = observability.EnsureCorrelationID(ctx)

	if err := t.remote.AddComment(ctx, t.postID, text); err != nil {
		t.mu.Lock()
		t.err = models.UserMessage(err, MsgCommentFailed)
		t.mu.Unlock()
		t.obs.notify()
		return err
	}
	return t.Load(ctx)
}

// Comments returns the loaded comments.
func (t *Thread) Comments() []models.Comment {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]models.Comment(nil), t.comments...)
}

// Loading reports whether a load is in flight.
func (t *Thread) Loading() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.loading
}

// Err is the last error message, or "".
func (t *Thread) Err() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

// Close cancels an in-flight load.
func (t *Thread) Close() {
	t.loader.Close()
}
