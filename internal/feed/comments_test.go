package feed

import (
	"context"
	"errors"
	"testing"

	"photoshare/internal/models"
	"photoshare/internal/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThread_LoadAndAdd(t *testing.T) {
	t.Parallel()
	remote := noopRemote()
	var stored []models.Comment
	remote.listCommentsFn = func(_ context.Context, postID string) ([]models.Comment, error) {
		assert.Equal(t, "p1", postID)
		return append([]models.Comment(nil), stored...), nil
	}
	remote.addCommentFn = func(_ context.Context, postID, text string) error {
		stored = append(stored, models.Comment{ID: "c1", Text: text, UserEmail: "a@b.co"})
		return nil
	}

	th := NewThread(remote, "p1", observability.Discard())
	require.NoError(t, th.Load(context.Background()))
	assert.Empty(t, th.Comments())

	require.NoError(t, th.Add(context.Background(), "nice shot"))
	require.Len(t, th.Comments(), 1)
	assert.Equal(t, "nice shot", th.Comments()[0].Text)
	assert.False(t, th.Loading())
}

func TestThread_BlankIsIgnored(t *testing.T) {
	t.Parallel()
	remote := noopRemote()
	remote.addCommentFn = func(context.Context, string, string) error {
		t.Error("blank comment must not be sent")
		return nil
	}
	th := NewThread(remote, "p1", observability.Discard())
	assert.NoError(t, th.Add(context.Background(), "  \t "))
}

func TestThread_Errors(t *testing.T) {
	t.Parallel()
	remote := noopRemote()
	remote.listCommentsFn = func(context.Context, string) ([]models.Comment, error) {
		return nil, models.NewUnreachableError(errors.New("refused"))
	}
	remote.addCommentFn = func(context.Context, string, string) error {
		return models.NewRejectedError(400, "Comment text is required")
	}
	th := NewThread(remote, "p1", observability.Discard())

	require.Error(t, th.Load(context.Background()))
	assert.Equal(t, MsgCommentsFailed, th.Err())

	require.Error(t, th.Add(context.Background(), "hi"))
	assert.Equal(t, "Comment text is required", th.Err())
}

func TestThread_CloseDropsLoad(t *testing.T) {
	t.Parallel()
	remote := noopRemote()
	started := make(chan struct{})
	remote.listCommentsFn = func(ctx context.Context, _ string) ([]models.Comment, error) {
		close(started)
		<-ctx.Done()
		return []models.Comment{{ID: "late"}}, nil
	}
	th := NewThread(remote, "p1", observability.Discard())

	done := make(chan error)
	go func() { done <- th.Load(context.Background()) }()
	<-started
	th.Close()

	assert.ErrorIs(t, <-done, ErrClosed)
	assert.Empty(t, th.Comments())
}
