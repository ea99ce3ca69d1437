// Package api is the HTTP client for the photoshare remote API.
//
// Every call returns errors classified as models.AppError: a non-2xx
// response is CodeRejected carrying the remote's message, a transport
// failure is CodeUnreachable. Caller cancellation is returned unchanged as
// context.Canceled.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"photoshare/internal/config"
	"photoshare/internal/models"
	"photoshare/internal/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxBodyBytes bounds how much of a JSON response is read.
const maxBodyBytes = 10 << 20

// TokenSource yields the bearer credential for a request. An empty token
// sends no Authorization header.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Client talks to the remote API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *observability.Logger
}

// New returns a client for baseURL, which includes the /api prefix.
func New(baseURL string, timeout time.Duration, tokens TokenSource, logger *observability.Logger) *Client {
	if tokens == nil {
		tokens = StaticToken("")
	}
	if logger == nil {
		logger = observability.GlobalLogger
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		logger:  logger.Component("api"),
	}
}

// NewFromConfig builds a client from the loaded configuration.
func NewFromConfig(cfg *config.Config, tokens TokenSource, logger *observability.Logger) *Client {
	return New(cfg.APIBaseURL, cfg.RequestTimeout, tokens, logger)
}

// BaseURL is the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one call.
type request struct {
	endpoint    string
	method      string
	path        string
	body        io.Reader
	contentType string
	accept      string
}

func jsonRequest(endpoint, method, path string, payload any) (request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return request{}, fmt.Errorf("encode %s request: %w", endpoint, err)
	}
	return request{
		endpoint:    endpoint,
		method:      method,
		path:        path,
		body:        bytes.NewReader(data),
		contentType: "application/json",
	}, nil
}

// do performs r and returns the raw 2xx body.
func (c *Client) do(ctx context.Context, r request) (body []byte, err error) {
	if r.accept == "" {
		r.accept = "application/json"
	}
	err = c.exchange(ctx, r, func(resp *http.Response) error {
		var readErr error
		body, readErr = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		return readErr
	})
	return body, err
}

// exchange sends r with the request id and bearer headers inside a client
// span and records its latency. A 2xx response is handed to read; any read
// failure is classified as unreachable.
func (c *Client) exchange(ctx context.Context, r request, read func(*http.Response) error) (err error) {
	ctx, span := observability.Tracer().Start(ctx, "api."+r.endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", r.method),
			attribute.String("http.route", r.path),
		),
	)
	defer span.End()

	track := observability.TrackRequest(r.endpoint)
	defer func() {
		track(outcome(err))
		if err != nil && !errors.Is(err, context.Canceled) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", r.endpoint, err)
	}
	if r.accept != "" {
		req.Header.Set("Accept", r.accept)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	requestID := observability.ExtractCorrelationID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return context.Canceled
		}
		c.logger.WarnContext(ctx, "request failed",
			slog.String("endpoint", r.endpoint),
			slog.String("error", err.Error()),
		)
		return models.NewUnreachableError(err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		msg := remoteMessage(body)
		c.logger.DebugContext(ctx, "request rejected",
			slog.String("endpoint", r.endpoint),
			slog.Int("status", resp.StatusCode),
			slog.String("message", msg),
		)
		return models.NewRejectedError(resp.StatusCode, msg)
	}

	if err := read(resp); err != nil {
		if errors.Is(err, context.Canceled) {
			return context.Canceled
		}
		return models.NewUnreachableError(fmt.Errorf("read %s response: %w", r.endpoint, err))
	}
	return nil
}

// doJSON performs r and decodes a 2xx body into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, r request, out any) error {
	body, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return malformed(r.endpoint, err)
	}
	return nil
}

func malformed(endpoint string, err error) error {
	appErr := models.NewRejectedError(http.StatusOK, "")
	appErr.Err = fmt.Errorf("decode %s response: %w", endpoint, err)
	return appErr
}

// remoteMessage extracts the "message" (or "error") field of an error body.
func remoteMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	if s, ok := payload.Error.(string); ok {
		return s
	}
	return ""
}

func outcome(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeOK
	case errors.Is(err, context.Canceled):
		return observability.OutcomeCanceled
	case models.HasCode(err, models.CodeUnreachable):
		return observability.OutcomeUnreachable
	}
	return observability.OutcomeRejected
}
