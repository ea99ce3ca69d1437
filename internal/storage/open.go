package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"photoshare/internal/config"
	"photoshare/internal/observability"
)

// Open builds the backend selected by cfg.SessionStore. The returned closer
// releases backend resources and is never nil. An unreachable Redis falls
// back to the file backend so the client keeps working without it.
func Open(ctx context.Context, cfg *config.Config, logger *observability.Logger) (Storage, io.Closer, error) {
	if logger == nil {
		logger = observability.GlobalLogger
	}

	switch cfg.SessionStore {
	case config.StoreMemory:
		return NewMemory(), nopCloser{}, nil
	case config.StoreFile:
		return NewFile(cfg.SessionFile), nopCloser{}, nil
	case config.StoreSQLite:
		s, err := OpenSQLite(cfg.SessionDBPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.StoreRedis:
		client, err := DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis session store unavailable, falling back to file store",
				slog.String("error", err.Error()),
				slog.String("file", cfg.SessionFile),
			)
			return NewFile(cfg.SessionFile), nopCloser{}, nil
		}
		r := NewRedis(client, DefaultRedisPrefix)
		return r, r, nil
	}
	return nil, nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
