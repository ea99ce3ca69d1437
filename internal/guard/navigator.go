package guard

import (
	"log/slog"
	"sync"

	"photoshare/internal/observability"
	"photoshare/internal/session"
)

// SessionSource is the part of the session store the navigator reads.
type SessionSource interface {
	Current() session.Session
	Subscribe(func(session.Session)) (unsubscribe func())
}

// Navigator tracks the current screen. It re-resolves on every Navigate and
// on every session change, so a stale Allow never outlives a logout.
type Navigator struct {
	src    SessionSource
	logger *observability.Logger

	mu        sync.Mutex
	current   Resolution
	listeners []func(Resolution)

	unsubscribe func()
}

// NewNavigator starts at path and follows session changes from src until
// Close is called.
func NewNavigator(src SessionSource, path string, logger *observability.Logger) *Navigator {
	if logger == nil {
		logger = observability.GlobalLogger
	}
	n := &Navigator{src: src, logger: logger.Component("guard")}
	n.current = Resolve(src.Current(), path)
	n.unsubscribe = src.Subscribe(n.onSession)
	return n
}

// Navigate resolves path against the current session and makes the result
// current.
func (n *Navigator) Navigate(path string) Resolution {
	return n.move(n.src.Current(), path)
}

// Current returns the last resolution.
func (n *Navigator) Current() Resolution {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// OnChange registers fn to run after every resolution, including ones
// triggered by session changes.
func (n *Navigator) OnChange(fn func(Resolution)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, fn)
}

// Close stops following session changes.
func (n *Navigator) Close() {
	n.unsubscribe()
}

func (n *Navigator) onSession(s session.Session) {
	n.move(s, n.Current().Path)
}

func (n *Navigator) move(s session.Session, path string) Resolution {
	res := Resolve(s, path)

	n.mu.Lock()
	n.current = res
	listeners := append([]func(Resolution){}, n.listeners...)
	n.mu.Unlock()

	if res.Redirected() {
		n.logger.Debug("navigation redirected",
			slog.String("requested", res.Requested),
			slog.String("path", res.Path),
			slog.String("decision", res.First.Kind.String()),
		)
	}
	for _, fn := range listeners {
		fn(res)
	}
	return res
}
