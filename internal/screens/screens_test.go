package screens

import (
	"context"
	"errors"
	"testing"
	"time"

	"photoshare/internal/guard"
	"photoshare/internal/models"
	"photoshare/internal/observability"
	"photoshare/internal/session"
	"photoshare/internal/storage"
	"photoshare/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authStub struct {
	LoginFn  func(ctx context.Context, creds models.Credentials) (models.LoginResult, error)
	SignupFn func(ctx context.Context, in models.SignupInput) error
	MeFn     func(ctx context.Context) (models.User, error)
}

func (s *authStub) Login(ctx context.Context, creds models.Credentials) (models.LoginResult, error) {
	if s.LoginFn == nil {
		return models.LoginResult{}, errors.New("unexpected login")
	}
	return s.LoginFn(ctx, creds)
}

func (s *authStub) Signup(ctx context.Context, in models.SignupInput) error {
	if s.SignupFn == nil {
		return errors.New("unexpected signup")
	}
	return s.SignupFn(ctx, in)
}

func (s *authStub) Me(ctx context.Context) (models.User, error) {
	if s.MeFn == nil {
		return models.User{}, errors.New("unexpected me")
	}
	return s.MeFn(ctx)
}

type postsStub struct {
	posts []models.Post
}

func (s *postsStub) ListPosts(context.Context, string) ([]models.Post, error) {
	return s.posts, nil
}
func (s *postsStub) CreatePost(context.Context, models.NewPost) (*models.Post, error) {
	return nil, nil
}
func (s *postsStub) UpdatePost(context.Context, string, models.PostUpdate) error { return nil }
func (s *postsStub) DeletePost(context.Context, string) error                    { return nil }
func (s *postsStub) ToggleLike(context.Context, string) error                    { return nil }

func token(t *testing.T, uid string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": uid}).SignedString([]byte("test"))
	require.NoError(t, err)
	return tok
}

func setup(t *testing.T, path string) (*session.Store, *guard.Navigator) {
	t.Helper()
	store := session.New(context.Background(), storage.NewMemory(), observability.Discard())
	nav := guard.NewNavigator(store, path, observability.Discard())
	t.Cleanup(nav.Close)
	return store, nav
}

func TestLogin_Submit(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		role       models.Role
		wantScreen guard.Screen
	}{
		{"Creator Lands On Dashboard", models.RoleCreator, guard.ScreenDashboard},
		{"User Lands On Feed", models.RoleUser, guard.ScreenFeed},
		{"Viewer Lands On Feed", models.RoleViewer, guard.ScreenFeed},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			store, nav := setup(t, guard.PathLogin)
			remote := &authStub{LoginFn: func(_ context.Context, creds models.Credentials) (models.LoginResult, error) {
				assert.Equal(t, "a@b.co", creds.Email)
				return models.LoginResult{Token: "tok", Role: tt.role}, nil
			}}
			l := NewLogin(remote, store, nav, observability.Discard())

			res, err := l.Submit(context.Background(), models.Credentials{Email: "a@b.co", Password: "pw"})
			require.NoError(t, err)
			assert.Equal(t, tt.wantScreen, res.Screen)
			assert.Equal(t, tt.wantScreen, nav.Current().Screen)
			assert.Equal(t, tt.role, store.Role())
			assert.Empty(t, l.Err())
		})
	}
}

func TestLogin_Failures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		creds   models.Credentials
		err     error
		wantMsg string
	}{
		{"Missing Email", models.Credentials{Password: "pw"}, nil, validation.MsgEmailRequired},
		{"Missing Password", models.Credentials{Email: "a@b.co"}, nil, validation.MsgPasswordRequired},
		{"Remote Message", models.Credentials{Email: "a@b.co", Password: "pw"}, models.NewRejectedError(401, "Invalid credentials"), "Invalid credentials"},
		{"No Message", models.Credentials{Email: "a@b.co", Password: "pw"}, models.NewRejectedError(500, ""), MsgLoginFailed},
		{"Unreachable", models.Credentials{Email: "a@b.co", Password: "pw"}, models.NewUnreachableError(errors.New("dial")), MsgLoginFailed},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			store, nav := setup(t, guard.PathLogin)
			remote := &authStub{LoginFn: func(context.Context, models.Credentials) (models.LoginResult, error) {
				return models.LoginResult{}, tt.err
			}}
			l := NewLogin(remote, store, nav, observability.Discard())

			res, err := l.Submit(context.Background(), tt.creds)
			require.Error(t, err)
			assert.Equal(t, tt.wantMsg, l.Err())
			assert.Equal(t, guard.ScreenLogin, res.Screen)
			assert.False(t, store.IsAuthenticated())
			assert.False(t, l.Busy())
		})
	}
}

func TestSignup_Submit(t *testing.T) {
	t.Parallel()
	_, nav := setup(t, guard.PathSignup)
	var got models.SignupInput
	remote := &authStub{SignupFn: func(_ context.Context, in models.SignupInput) error {
		got = in
		return nil
	}}
	s := NewSignup(remote, nav, observability.Discard())

	res, err := s.Submit(context.Background(), validation.SignupForm{
		Email: "new@x.io", Password: "Secure1!", ConfirmPassword: "Secure1!",
	})
	require.NoError(t, err)
	assert.Equal(t, guard.ScreenLogin, res.Screen)
	assert.Equal(t, models.RoleUser, got.Role)
}

func TestSignup_Failures(t *testing.T) {
	t.Parallel()
	t.Run("Validation Sends Nothing", func(t *testing.T) {
		_, nav := setup(t, guard.PathSignup)
		s := NewSignup(&authStub{}, nav, observability.Discard())
		_, err := s.Submit(context.Background(), validation.SignupForm{Email: "new@x.io", Password: "Secure1!", ConfirmPassword: "nope"})
		require.Error(t, err)
		assert.Equal(t, validation.MsgConfirmMismatch, s.Err())
	})

	t.Run("Remote Fallback", func(t *testing.T) {
		_, nav := setup(t, guard.PathSignup)
		s := NewSignup(&authStub{SignupFn: func(context.Context, models.SignupInput) error {
			return models.NewRejectedError(500, "")
		}}, nav, observability.Discard())
		res, err := s.Submit(context.Background(), validation.SignupForm{Email: "new@x.io", Password: "Secure1!", ConfirmPassword: "Secure1!"})
		require.Error(t, err)
		assert.Equal(t, MsgSignupFailed, s.Err())
		assert.Equal(t, guard.ScreenSignup, res.Screen)
	})
}

func TestProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("Loads Email", func(t *testing.T) {
		store, nav := setup(t, guard.PathProfile)
		store.Login(ctx, "tok", models.RoleViewer)
		p := NewProfile(&authStub{MeFn: func(context.Context) (models.User, error) {
			return models.User{Email: "jane.doe@x.io"}, nil
		}}, store, nav, observability.Discard())
		assert.True(t, p.Loading())

		p.Load(ctx)
		assert.False(t, p.Loading())
		assert.Equal(t, "jane.doe@x.io", p.Email())
		assert.Equal(t, "JA", p.Initials())
		assert.Equal(t, "Viewer", p.RoleLabel())

		res := p.Logout(ctx)
		assert.Equal(t, guard.ScreenLogin, res.Screen)
		assert.False(t, store.IsAuthenticated())
	})

	t.Run("Failure Leaves Email Empty", func(t *testing.T) {
		store, nav := setup(t, guard.PathProfile)
		p := NewProfile(&authStub{}, store, nav, observability.Discard())
		p.Load(ctx)
		assert.Empty(t, p.Email())
		assert.Empty(t, p.Initials())
		assert.Equal(t, "Unknown", p.RoleLabel())
	})
}

func TestInitials(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]string{
		"":            "",
		"a@x.io":      "A",
		"bob@x.io":    "BO",
		"élan@x.io":   "ÉL",
		"noatsign":    "NO",
		"@domain.com": "",
	} {
		assert.Equal(t, want, Initials(in), in)
	}
}

func TestPosts_Affordances(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	own := models.Post{ID: "p1", CreatorID: "u1"}
	other := models.Post{ID: "p2", CreatorID: "u2"}

	tests := []struct {
		name string
		role models.Role
		post models.Post
		want Affordances
	}{
		{"Creator Own", models.RoleCreator, own, Affordances{Like: true, Comment: true, Edit: true, Delete: true}},
		{"Creator Other", models.RoleCreator, other, Affordances{Like: true, Comment: true}},
		{"User", models.RoleUser, own, Affordances{Like: true, Comment: true, Download: true}},
		{"Viewer", models.RoleViewer, other, Affordances{Like: true, Comment: true, Download: true}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			store, _ := setup(t, guard.PathHome)
			store.Login(ctx, token(t, "u1"), tt.role)
			p := NewFeed(&postsStub{}, store, Sizes{}, observability.Discard())
			assert.Equal(t, tt.want, p.Affordances(tt.post))
		})
	}

	t.Run("Anonymous", func(t *testing.T) {
		store, _ := setup(t, guard.PathHome)
		p := NewFeed(&postsStub{}, store, Sizes{}, observability.Discard())
		assert.Equal(t, Affordances{}, p.Affordances(own))
	})
}

func TestDashboard_ShowsOwnPosts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := setup(t, guard.PathDashboard)
	store.Login(ctx, token(t, "u1"), models.RoleCreator)

	remote := &postsStub{posts: []models.Post{
		{ID: "a", CreatorID: "u1"},
		{ID: "b", CreatorID: "u2"},
		{ID: "c", CreatorID: "u1", LikerIDs: []string{"u1"}},
	}}
	d := NewDashboard(remote, store, Sizes{Page: 6}, observability.Discard())
	defer d.Close()

	require.NoError(t, d.Open(ctx))
	page := d.Page()
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, page.TotalPages)
	assert.True(t, d.Liked(page.Items[0]) || d.Liked(page.Items[1]))
	assert.Empty(t, d.Hint())
}

func TestSearch_Hint(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := setup(t, guard.PathSearch)
	s := NewSearch(&postsStub{}, store, Sizes{Window: 15}, observability.Discard())
	defer s.Close()

	require.NoError(t, s.Open(ctx))
	assert.Equal(t, HintSearch, s.Hint())

	require.NoError(t, s.Search(ctx, "lake"))
	assert.Equal(t, `No posts match "lake".`, s.Hint())
}

func TestFormatPostDate(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"Zero", time.Time{}, ""},
		{"Today", time.Date(2024, 3, 10, 9, 5, 0, 0, time.UTC), "Today at 09:05"},
		{"Yesterday", time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC), "Yesterday at 23:59"},
		{"Older", time.Date(2024, 2, 28, 7, 30, 0, 0, time.UTC), "28 Feb 2024, 07:30"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPostDate(tt.in, now))
		})
	}
}
