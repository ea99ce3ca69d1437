// Package session holds the client's authentication credential and role.
//
// A single Store is shared by every consumer. Only Login and Logout write it;
// both persist through a storage.Storage and notify subscribers before
// returning, so the new state is visible everywhere once the call completes.
package session

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"photoshare/internal/models"
	"photoshare/internal/observability"
	"photoshare/internal/storage"

	"github.com/golang-jwt/jwt/v5"
)

// Session is an immutable snapshot of the store.
type Session struct {
	Credential string
	Role       models.Role
}

// IsAuthenticated reports whether a credential is present.
func (s Session) IsAuthenticated() bool {
	return s.Credential != ""
}

// Identity decodes the user id claim from the credential. See DecodeIdentity.
func (s Session) Identity() (string, bool) {
	return DecodeIdentity(s.Credential)
}

// Store is the shared session cell.
type Store struct {
	mu      sync.RWMutex
	current Session
	storage storage.Storage
	logger  *observability.Logger

	obsMu     sync.Mutex
	observers map[int]func(Session)
	nextObs   int
}

// New returns a store backed by st, loading any persisted session. A load
// failure is logged and leaves the session empty.
func New(ctx context.Context, st storage.Storage, logger *observability.Logger) *Store {
	if logger == nil {
		logger = observability.GlobalLogger
	}
	s := &Store{
		storage:   st,
		logger:    logger.Component("session"),
		observers: make(map[int]func(Session)),
	}

	rec, err := st.Load(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load persisted session", slog.String("error", err.Error()))
		return s
	}
	s.current = Session{Credential: rec.Token, Role: models.ParseRole(rec.Role)}
	return s
}

// Login stores the credential and role in memory and durable storage. It
// never fails: the credential was already accepted by the remote, and a
// storage failure only costs persistence across restarts.
func (s *Store) Login(ctx context.Context, credential string, role models.Role) {
	s.mu.Lock()
	s.current = Session{Credential: credential, Role: role}
	if err := s.storage.Save(ctx, storage.Record{Token: credential, Role: string(role)}); err != nil {
		s.logger.WarnContext(ctx, "failed to persist session", slog.String("error", err.Error()))
	}
	snap := s.current
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "logged in", slog.String("role", string(role)))
	s.notify(snap)
}

// Logout clears memory and durable storage under one write lock. Calling it
// while logged out is a no-op apart from re-clearing storage.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	was := s.current.IsAuthenticated()
	s.clearStorage(ctx)
	s.current = Session{}
	s.mu.Unlock()

	if !was {
		return
	}
	s.logger.InfoContext(ctx, "logged out")
	s.notify(Session{})
}

// clearAttempts is how many times Logout tries Storage.Clear before it
// falls back to overwriting the record with an empty one.
const clearAttempts = 3

// clearStorage removes the persisted session. When Clear keeps failing an
// empty record is saved instead, so the next start still loads as signed
// out. Callers hold s.mu.
func (s *Store) clearStorage(ctx context.Context) {
	var err error
	for i := 0; i < clearAttempts; i++ {
		if err = s.storage.Clear(ctx); err == nil {
			return
		}
	}
	s.logger.WarnContext(ctx, "failed to clear persisted session, overwriting it",
		slog.String("error", err.Error()),
		slog.Int("attempts", clearAttempts),
	)
	if err := s.storage.Save(ctx, storage.Record{}); err != nil {
		s.logger.ErrorContext(ctx, "persisted session could not be removed",
			slog.String("error", err.Error()),
		)
	}
}

// Current returns the present snapshot.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) IsAuthenticated() bool { return s.Current().IsAuthenticated() }

func (s *Store) Role() models.Role { return s.Current().Role }

func (s *Store) Credential() string { return s.Current().Credential }

// Token returns the bearer credential. It satisfies the API client's token
// source.
func (s *Store) Token() string { return s.Credential() }

// CurrentIdentity returns the user id of the current credential, or false
// when the credential is missing or not a decodable token.
func (s *Store) CurrentIdentity() (string, bool) {
	return s.Current().Identity()
}

// Subscribe registers fn to run after every Login and effective Logout with
// the new snapshot. The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Session)) (unsubscribe func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			delete(s.observers, id)
			s.obsMu.Unlock()
		})
	}
}

func (s *Store) notify(snap Session) {
	s.obsMu.Lock()
	fns := make([]func(Session), 0, len(s.observers))
	for id := 0; id < s.nextObs; id++ {
		if fn, ok := s.observers[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// DecodeIdentity extracts the "id" claim (falling back to "sub") from a JWT
// without verifying its signature; the client has no key to verify with.
// Anything that is not a well-formed token yields ("", false).
func DecodeIdentity(credential string) (string, bool) {
	if credential == "" {
		return "", false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return "", false
	}

	for _, key := range []string{"id", "sub"} {
		if id, ok := claimString(claims[key]); ok {
			return id, true
		}
	}
	return "", false
}

func claimString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		if val == "" {
			return "", false
		}
		return val, true
	case float64:
		if val != float64(int64(val)) {
			return "", false
		}
		return strconv.FormatInt(int64(val), 10), true
	}
	return "", false
}
