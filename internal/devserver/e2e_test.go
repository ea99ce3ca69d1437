package devserver_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net"
	"testing"
	"time"

	"photoshare/internal/api"
	"photoshare/internal/devserver"
	"photoshare/internal/feed"
	"photoshare/internal/guard"
	"photoshare/internal/models"
	"photoshare/internal/observability"
	"photoshare/internal/screens"
	"photoshare/internal/session"
	"photoshare/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	srv    *devserver.Server
	store  *session.Store
	client *api.Client
	nav    *guard.Navigator
}

func start(t *testing.T, seedPosts int) *harness {
	t.Helper()
	srv, err := devserver.New(devserver.Config{
		JWTSecret: "e2e-secret",
		SeedPosts: seedPosts,
		Seed:      7,
		Logger:    observability.Discard(),
	})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	store := session.New(context.Background(), storage.NewMemory(), observability.Discard())
	client := api.New("http://"+ln.Addr().String()+"/api", 5*time.Second, store, observability.Discard())
	nav := guard.NewNavigator(store, guard.PathLogin, observability.Discard())
	t.Cleanup(nav.Close)
	return &harness{srv: srv, store: store, client: client, nav: nav}
}

func (h *harness) login(t *testing.T, email, password string) guard.Resolution {
	t.Helper()
	res, err := screens.NewLogin(h.client, h.store, h.nav, observability.Discard()).
		Submit(context.Background(), models.Credentials{Email: email, Password: password})
	require.NoError(t, err)
	return res
}

func TestEndToEnd_LikeAndRollback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := start(t, 4)

	res := h.login(t, "viewer@photoshare.dev", "Viewer1!")
	assert.Equal(t, guard.ScreenFeed, res.Screen)
	uid, ok := h.store.CurrentIdentity()
	require.True(t, ok)

	home := screens.NewFeed(h.client, h.store, screens.Sizes{Window: 15}, observability.Discard())
	defer home.Close()
	require.NoError(t, home.Open(ctx))
	require.Len(t, home.Window().Items, 4)
	id := home.Window().Items[0].ID

	require.NoError(t, home.ToggleLike(ctx, id))
	post, _ := home.Post(id)
	assert.True(t, post.LikedBy(uid))

	remote, err := h.client.ListPosts(ctx, "")
	require.NoError(t, err)
	assert.True(t, remote[0].LikedBy(uid) || remote[1].LikedBy(uid) || remote[2].LikedBy(uid) || remote[3].LikedBy(uid))

	// A rejected unlike restores the liked state and surfaces the message.
	h.srv.InjectFault("posts.like", devserver.Fault{Status: 503, Message: "Likes are paused", Times: 1})
	err = home.ToggleLike(ctx, id)
	require.Error(t, err)
	post, _ = home.Post(id)
	assert.True(t, post.LikedBy(uid))
	assert.Equal(t, 1, post.LikeCount())
	assert.Equal(t, "Likes are paused", home.PostError(id))

	// Without a message the fallback is shown.
	h.srv.InjectFault("posts.like", devserver.Fault{Status: 500, Times: 1})
	require.Error(t, home.ToggleLike(ctx, id))
	assert.Equal(t, feed.MsgLikeFailed, home.PostError(id))

	require.NoError(t, home.ToggleLike(ctx, id))
	post, _ = home.Post(id)
	assert.False(t, post.LikedBy(uid))
	assert.Empty(t, home.PostError(id))
}

func TestEndToEnd_CreatorDashboard(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := start(t, 6)

	res := h.login(t, "creator@photoshare.dev", "Creator1!")
	assert.Equal(t, guard.ScreenDashboard, res.Screen)
	uid, _ := h.store.CurrentIdentity()

	dash := screens.NewDashboard(h.client, h.store, screens.Sizes{Page: 6}, observability.Discard())
	defer dash.Close()
	require.NoError(t, dash.Open(ctx))
	before := dash.Page().Total
	for _, p := range dash.Posts() {
		assert.Equal(t, uid, p.CreatorID)
	}

	var img bytes.Buffer
	m := image.NewRGBA(image.Rect(0, 0, 2, 2))
	m.Set(0, 0, color.White)
	require.NoError(t, png.Encode(&img, m))

	dash.OpenUpload()
	require.NoError(t, dash.Create(ctx, feed.UploadForm{
		FileName: "pier.png",
		Image:    img.Bytes(),
		Caption:  "  evening  ",
		Title:    "Pier",
	}))
	assert.False(t, dash.Upload().Open)
	assert.Equal(t, before+1, dash.Page().Total)
	assert.Equal(t, 1, dash.Page().Page)

	var created models.Post
	for _, p := range dash.Posts() {
		if p.Title == "Pier" {
			created = p
		}
	}
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "evening", created.Caption)

	var buf bytes.Buffer
	name, n, err := h.client.Download(ctx, created.ID, &buf)
	require.NoError(t, err)
	assert.Equal(t, "pier.png", name)
	assert.EqualValues(t, img.Len(), n)

	upd := models.PostUpdate{Title: "Pier at dusk", Location: "Brighton", Caption: "evening"}
	_, ok := dash.OpenEditor(created.ID)
	require.True(t, ok)
	require.NoError(t, dash.SaveEdit(ctx, created.ID, upd))
	edited, _ := dash.Post(created.ID)
	assert.Equal(t, "Brighton", edited.Location)

	require.NoError(t, dash.Delete(ctx, created.ID, feed.ConfirmFunc(func(string) bool { return true })))
	_, found := dash.Post(created.ID)
	assert.False(t, found)
	assert.Equal(t, before, dash.Page().Total)
}

func TestEndToEnd_CommentsAndLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := start(t, 1)
	h.login(t, "user@photoshare.dev", "User123!")

	posts, err := h.client.ListPosts(ctx, "")
	require.NoError(t, err)
	require.Len(t, posts, 1)

	thread := feed.NewThread(h.client, posts[0].ID, observability.Discard())
	defer thread.Close()
	require.NoError(t, thread.Load(ctx))
	assert.Empty(t, thread.Comments())
	require.NoError(t, thread.Add(ctx, "lovely light"))
	require.Len(t, thread.Comments(), 1)
	assert.Equal(t, "user@photoshare.dev", thread.Comments()[0].Author())

	profile := screens.NewProfile(h.client, h.store, h.nav, observability.Discard())
	profile.Load(ctx)
	assert.Equal(t, "US", profile.Initials())

	res := profile.Logout(ctx)
	assert.Equal(t, guard.ScreenLogin, res.Screen)
	_, err = h.client.ListPosts(ctx, "")
	assert.True(t, models.HasCode(err, models.CodeRejected))
	assert.Equal(t, guard.ScreenLogin, h.nav.Navigate(guard.PathHome).Screen)
}
