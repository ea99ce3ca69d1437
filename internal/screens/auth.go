// Package screens composes the session, guard and feed components into the
// application's screens. Screens hold no rendering; the CLI prints them.
package screens

import (
	"context"
	"log/slog"
	"sync"

	"photoshare/internal/guard"
	"photoshare/internal/models"
	"photoshare/internal/observability"
	"photoshare/internal/session"
	"photoshare/internal/validation"
)

// Fallback messages for the account screens.
const (
	MsgLoginFailed  = "Login failed"
	MsgSignupFailed = "Signup failed"
)

// AuthRemote is the account surface of the remote API.
type AuthRemote interface {
	Login(ctx context.Context, creds models.Credentials) (models.LoginResult, error)
	Signup(ctx context.Context, in models.SignupInput) error
	Me(ctx context.Context) (models.User, error)
}

// form is the submit state shared by the account screens.
type form struct {
	mu   sync.Mutex
	busy bool
	err  string
}

func (f *form) begin(action string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return models.NewBusyError(action)
	}
	f.busy = true
	f.err = ""
	return nil
}

func (f *form) end(err error, fallback string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	f.err = models.UserMessage(err, fallback)
}

func (f *form) fail(err error, fallback string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = models.UserMessage(err, fallback)
}

// Err is the message to show under the form, empty when there is none.
func (f *form) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Busy reports whether a submit is in flight.
func (f *form) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

// Login is the sign-in screen.
type Login struct {
	form
	remote AuthRemote
	store  *session.Store
	nav    *guard.Navigator
	logger *observability.Logger
}

// NewLogin returns the sign-in screen.
func NewLogin(remote AuthRemote, store *session.Store, nav *guard.Navigator, logger *observability.Logger) *Login {
	if logger == nil {
		logger = observability.GlobalLogger
	}
	return &Login{remote: remote, store: store, nav: nav, logger: logger.Component("screens")}
}

// Submit validates creds, signs in and moves to the role's home screen.
func (l *Login) Submit(ctx context.Context, creds models.Credentials) (guard.Resolution, error) {
	if err := validation.ValidateLogin(creds); err != nil {
		l.fail(err, MsgLoginFailed)
		return l.nav.Current(), err
	}
	if err := l.begin("login"); err != nil {
		return l.nav.Current(), err
	}

	res, err := l.remote.Login(ctx, creds)
	l.end(err, MsgLoginFailed)
	if err != nil {
		if !models.IsSuppressed(err) {
			l.logger.InfoContext(ctx, "login failed", slog.String("error", err.Error()))
		}
		return l.nav.Current(), err
	}

	l.store.Login(ctx, res.Token, res.Role)
	l.logger.InfoContext(ctx, "signed in", slog.String("role", string(res.Role)))
	return l.nav.Navigate(guard.RoleHome(res.Role)), nil
}

// Signup is the registration screen.
type Signup struct {
	form
	remote AuthRemote
	nav    *guard.Navigator
	logger *observability.Logger
}

// NewSignup returns the registration screen.
func NewSignup(remote AuthRemote, nav *guard.Navigator, logger *observability.Logger) *Signup {
	if logger == nil {
		logger = observability.GlobalLogger
	}
	return &Signup{remote: remote, nav: nav, logger: logger.Component("screens")}
}

// Submit validates f, registers the account and moves to the login screen.
func (s *Signup) Submit(ctx context.Context, f validation.SignupForm) (guard.Resolution, error) {
	in, err := validation.ValidateSignup(f)
	if err != nil {
		s.fail(err, MsgSignupFailed)
		return s.nav.Current(), err
	}
	if err := s.begin("signup"); err != nil {
		return s.nav.Current(), err
	}

	err = s.remote.Signup(ctx, in)
	s.end(err, MsgSignupFailed)
	if err != nil {
		return s.nav.Current(), err
	}
	s.logger.InfoContext(ctx, "account created", slog.String("role", string(in.Role)))
	return s.nav.Navigate(guard.PathLogin), nil
}
