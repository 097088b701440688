// Package rest is the HTTP implementation of the backend contract.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"registrar/internal/backend"
	"registrar/internal/session"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/circuit"
	"registrar/pkg/platform/sentinel"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultOpenCooldown = 15 * time.Second
	maxErrorBody        = 4 << 10
)

// Observer receives per-call outcomes. Outcome is the error code, or "ok".
type Observer interface {
	ObserveBackendCall(op, outcome string, d time.Duration)
	SetBackendCircuitOpen(open bool)
}

// Client talks JSON over HTTP to the registration backend using an explicit session.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	session  session.Session
	breaker  *circuit.Breaker
	cooldown time.Duration
	logger   *slog.Logger
	observer Observer
	tracer   trace.Tracer
	nowF     func() time.Time

	mu       sync.Mutex
	openedAt time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithBreaker sets the circuit breaker and how long it stays open before a probe.
func WithBreaker(b *circuit.Breaker, cooldown time.Duration) Option {
	return func(c *Client) {
		if b != nil {
			c.breaker = b
		}
		if cooldown > 0 {
			c.cooldown = cooldown
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithClock sets the time source used for session expiry and breaker cooldown.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.nowF = now
		}
	}
}

// New creates a client for baseURL authenticated as sess.
func New(baseURL string, sess session.Session, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("rest: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("rest: base url %q must be absolute", baseURL)
	}
	c := &Client{
		baseURL:  u,
		http:     &http.Client{Timeout: defaultTimeout},
		session:  sess,
		breaker:  circuit.New("backend", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(1)),
		cooldown: defaultOpenCooldown,
		logger:   slog.Default(),
		tracer:   otel.Tracer("registrar/internal/backend/rest"),
		nowF:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

var _ backend.Backend = (*Client)(nil)

// call describes one request.
type call struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        any
	out         any
	idempotent  bool
	statusCodes map[int]dErrors.Code
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Error            string            `json:"error"`
	ErrorDescription string            `json:"error_description"`
	Fields           map[string]string `json:"fields,omitempty"`
	RetryAfter       int               `json:"retry_after,omitempty"`
}

func (c *Client) do(ctx context.Context, r call) (err error) {
	start := c.nowF()
	ctx, span := c.tracer.Start(ctx, "backend."+r.op, trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(dErrors.CodeOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
		if c.observer != nil {
			c.observer.ObserveBackendCall(r.op, outcome, c.nowF().Sub(start))
		}
	}()

	if c.session.IsZero() || c.session.Expired(c.nowF()) {
		return dErrors.New(dErrors.CodeUnauthorized, "session expired")
	}
	if c.rejectOpen() {
		return dErrors.Wrap(sentinel.ErrUnavailable, dErrors.CodeNetwork, "backend unavailable")
	}

	req, err := c.newRequest(ctx, r)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "build request")
	}
	span.SetAttributes(attribute.String("http.method", r.method), attribute.String("http.path", req.URL.Path))

	resp, err := c.http.Do(req)
	if err != nil {
		c.recordFailure(ctx, r.op)
		if ctx.Err() != nil {
			return dErrors.Wrap(ctx.Err(), dErrors.CodeNetwork, "request cancelled")
		}
		return dErrors.Wrap(err, dErrors.CodeNetwork, "backend unreachable")
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusInternalServerError {
		c.recordFailure(ctx, r.op)
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return dErrors.New(dErrors.CodeNetwork, fmt.Sprintf("backend returned %d", resp.StatusCode))
	}
	c.recordSuccess(ctx)

	if resp.StatusCode >= http.StatusBadRequest {
		return c.mapError(r, resp)
	}
	if r.out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(r.out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeNetwork, "decode response")
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, r call) (*http.Request, error) {
	u := c.baseURL.JoinPath(r.path)
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}
	var body io.Reader
	if r.body != nil {
		buf, err := json.Marshal(r.body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", c.session.Authorization())
	if r.idempotent {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	return req, nil
}

func (c *Client) mapError(r call, resp *http.Response) error {
	var eb errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = json.Unmarshal(raw, &eb)
	msg := eb.ErrorDescription
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	if code, ok := r.statusCodes[resp.StatusCode]; ok {
		return dErrors.New(code, msg)
	}
	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return dErrors.Validation(msg, eb.Fields)
	case http.StatusUnauthorized, http.StatusForbidden:
		return dErrors.New(dErrors.CodeUnauthorized, msg)
	case http.StatusNotFound:
		return dErrors.New(dErrors.CodeNotFound, msg)
	case http.StatusConflict:
		return dErrors.New(dErrors.CodeDuplicateRegistration, msg)
	case http.StatusTooManyRequests:
		return dErrors.Throttled(time.Duration(eb.RetryAfter) * time.Second)
	default:
		return dErrors.New(dErrors.CodeInternal, msg)
	}
}

// rejectOpen reports whether the breaker is open and still cooling down.
// After the cooldown one probe is let through.
func (c *Client) rejectOpen() bool {
	if !c.breaker.IsOpen() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.nowF()
	if now.Sub(c.openedAt) < c.cooldown {
		return true
	}
	c.openedAt = now
	return false
}

func (c *Client) recordFailure(ctx context.Context, op string) {
	_, change := c.breaker.RecordFailure()
	if c.breaker.IsOpen() {
		c.mu.Lock()
		c.openedAt = c.nowF()
		c.mu.Unlock()
	}
	if !change.Opened {
		return
	}
	c.logger.WarnContext(ctx, "backend circuit opened", "op", op, "breaker", c.breaker.Name())
	if c.observer != nil {
		c.observer.SetBackendCircuitOpen(true)
	}
}

func (c *Client) recordSuccess(ctx context.Context) {
	_, change := c.breaker.RecordSuccess()
	if !change.Closed {
		return
	}
	c.logger.InfoContext(ctx, "backend circuit closed", "breaker", c.breaker.Name())
	if c.observer != nil {
		c.observer.SetBackendCircuitOpen(false)
	}
}

// IsUnavailable reports whether err came from an open circuit.
func IsUnavailable(err error) bool {
	return errors.Is(err, sentinel.ErrUnavailable)
}
