package screens

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"photoshare/internal/guard"
	"photoshare/internal/models"
	"photoshare/internal/observability"
	"photoshare/internal/session"
)

// Profile shows the signed-in account.
type Profile struct {
	remote AuthRemote
	store  *session.Store
	nav    *guard.Navigator
	logger *observability.Logger

	mu      sync.RWMutex
	email   string
	loading bool
}

// NewProfile returns the profile screen. Call Load to fetch the email.
func NewProfile(remote AuthRemote, store *session.Store, nav *guard.Navigator, logger *observability.Logger) *Profile {
	if logger == nil {
		logger = observability.GlobalLogger
	}
	return &Profile{remote: remote, store: store, nav: nav, logger: logger.Component("screens"), loading: true}
}

// Load fetches the account email. Any failure leaves it empty.
func (p *Profile) Load(ctx context.Context) {
	u, err := p.remote.Me(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false
	if err != nil {
		p.email = ""
		if !models.IsSuppressed(err) {
			p.logger.DebugContext(ctx, "profile lookup failed", slog.String("error", err.Error()))
		}
		return
	}
	p.email = u.Email
}

// Loading is true until the first Load returns.
func (p *Profile) Loading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loading
}

func (p *Profile) Email() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.email
}

// Initials returns the first two characters of the email's local part,
// upper-cased.
func (p *Profile) Initials() string {
	return Initials(p.Email())
}

// Initials derives avatar initials from an email address.
func Initials(email string) string {
	if email == "" {
		return ""
	}
	local, _, _ := strings.Cut(email, "@")
	r := []rune(local)
	if len(r) > 2 {
		r = r[:2]
	}
	return strings.ToUpper(string(r))
}

// RoleLabel is the display name of the session role.
func (p *Profile) RoleLabel() string {
	return p.store.Role().Label()
}

// Logout ends the session and moves to the login screen.
func (p *Profile) Logout(ctx context.Context) guard.Resolution {
	p.store.Logout(ctx)
	return p.nav.Navigate(guard.PathLogin)
}
