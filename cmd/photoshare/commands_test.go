package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"photoshare/internal/api"
	"photoshare/internal/config"
	"photoshare/internal/devserver"
	"photoshare/internal/guard"
	"photoshare/internal/models"
	"photoshare/internal/observability"
	"photoshare/internal/screens"
	"photoshare/internal/session"
	"photoshare/internal/storage"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withDevserver points the shared command state at a fresh devserver for
// the duration of the test. Tests using it must not run in parallel.
func withDevserver(t *testing.T) *devserver.Server {
	t.Helper()
	srv, err := devserver.New(devserver.Config{
		JWTSecret: "cli-secret",
		Logger:    observability.Discard(),
	})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(ln) }()

	logger := observability.Discard()
	store := session.New(context.Background(), storage.NewMemory(), logger)
	nav := guard.NewNavigator(store, guard.PathLogin, logger)

	prev := current
	current = app{
		cfg:    &config.Config{FeedPageSize: 15, DashboardPageSize: 6},
		logger: logger,
		store:  store,
		client: api.New("http://"+ln.Addr().String()+"/api", 5*time.Second, store, logger),
		nav:    nav,
	}
	t.Cleanup(func() {
		nav.Close()
		current = prev
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func run(t *testing.T, cmd *cobra.Command, stdin string, stderr io.Writer, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	if stderr == nil {
		stderr = io.Discard
	}
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// onWrite calls fn before the first write passes through.
type onWrite struct {
	once sync.Once
	fn   func()
}

func (w *onWrite) Write(p []byte) (int, error) {
	w.once.Do(w.fn)
	return len(p), nil
}

func TestPrompter_SharesInput(t *testing.T) {
	t.Parallel()
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("first\r\nsecond\ny\n"))
	cmd.SetErr(io.Discard)

	p := newPrompter(cmd)
	secret, err := p.Secret("Password: ")
	require.NoError(t, err)
	assert.Equal(t, "first", secret)
	assert.Equal(t, "second", p.Line("Again: "))
	assert.True(t, p.Confirm("Delete?"))
	assert.False(t, p.Confirm("Delete?"))
}

func TestPrompter_Confirm(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" yes \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"yeah\n", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			cmd := &cobra.Command{}
			cmd.SetIn(strings.NewReader(tt.in))
			cmd.SetErr(io.Discard)
			assert.Equal(t, tt.want, newPrompter(cmd).Confirm("Delete?"))
		})
	}
}

func TestSignup_PipedPasswordAndConfirmation(t *testing.T) {
	withDevserver(t)
	authPassword, authConfirm, authRole = "", "", string(models.RoleUser)

	out, err := run(t, cmdSignup, "Secret#123\nSecret#123\n", nil, "--email", "piped@photoshare.dev")
	require.NoError(t, err)
	assert.Contains(t, out, "Account created")

	res, err := current.client.Login(context.Background(), models.Credentials{
		Email:    "piped@photoshare.dev",
		Password: "Secret#123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func TestSignup_PipedMismatch(t *testing.T) {
	withDevserver(t)
	authPassword, authConfirm, authRole = "", "", string(models.RoleUser)

	_, err := run(t, cmdSignup, "Secret#123\nSecret#124\n", nil, "--email", "mismatch@photoshare.dev")
	require.Error(t, err)
}

// creatorPost signs the creator in and uploads one post, returning its id.
func creatorPost(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	_, err := screens.NewLogin(current.client, current.store, current.nav, current.logger).
		Submit(ctx, models.Credentials{Email: "creator@photoshare.dev", Password: "Creator1!"})
	require.NoError(t, err)

	var img bytes.Buffer
	m := image.NewRGBA(image.Rect(0, 0, 2, 2))
	m.Set(1, 1, color.Black)
	require.NoError(t, png.Encode(&img, m))

	post, err := current.client.CreatePost(ctx, models.NewPost{
		FileName:    "dock.png",
		ContentType: "image/png",
		Image:       img.Bytes(),
		Title:       "Dock",
	})
	require.NoError(t, err)
	return post.ID
}

func remoteHas(t *testing.T, id string) bool {
	t.Helper()
	posts, err := current.client.ListPosts(context.Background(), "")
	require.NoError(t, err)
	for _, p := range posts {
		if p.ID == id {
			return true
		}
	}
	return false
}

func TestDelete_Declined(t *testing.T) {
	withDevserver(t)
	deleteYes = false
	id := creatorPost(t)

	out, err := run(t, cmdDelete, "n\n", nil, id)
	require.NoError(t, err)
	assert.Contains(t, out, "Kept.")
	assert.True(t, remoteHas(t, id))
}

func TestDelete_ReloadFailureStillReportsDeleted(t *testing.T) {
	srv := withDevserver(t)
	deleteYes = false
	id := creatorPost(t)

	// The prompt is written after the dashboard loaded, so only the reload
	// that follows the delete fails.
	prompt := &onWrite{fn: func() {
		srv.InjectFault("posts.list", devserver.Fault{Status: 500, Times: 1})
	}}
	out, err := run(t, cmdDelete, "y\n", prompt, id)
	require.NoError(t, err)
	assert.NotContains(t, out, "Kept.")
	assert.Contains(t, out, "Deleted "+id)
	assert.False(t, remoteHas(t, id))
}
