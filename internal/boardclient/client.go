// Package boardclient talks to a running board host: the fasthttp API for
// state, snapshots and resets, and the websocket stream for live frames.
package boardclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/Cheese-Board3D/pkg/boarddto"
	"github.com/valyala/fasthttp"
)

type Client struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Health(ctx context.Context) (*boarddto.HealthResponse, error) {
	var h boarddto.HealthResponse
	if _, err := c.do(ctx, fasthttp.MethodGet, "/healthz", nil, &h, true); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) State(ctx context.Context) (*boarddto.Frame, error) {
	var f boarddto.Frame
	if _, err := c.do(ctx, fasthttp.MethodGet, "/state", nil, &f, true); err != nil {
		return nil, err
	}
	return &f, nil
}

// Snapshot returns the PNG bytes of the current board.
func (c *Client) Snapshot(ctx context.Context) ([]byte, error) {
	return c.do(ctx, fasthttp.MethodGet, "/snapshot.png", nil, nil, true)
}

// Reset is not retried; the host may have applied a reset whose response was lost.
func (c *Client) Reset(ctx context.Context, fen string) (*boarddto.Frame, error) {
	var f boarddto.Frame
	if _, err := c.do(ctx, fasthttp.MethodPost, "/reset", boarddto.ResetRequest{FEN: fen}, &f, false); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) do(ctx context.Context, method, path string, in any, out any, retry bool) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := c.http.DoDeadline(req, resp, c.deadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
		} else if status := resp.StatusCode(); status < 200 || status >= 300 {
			lastErr = decodeError(status, resp.Body())
			if !shouldRetryStatus(status) {
				return nil, lastErr
			}
		} else {
			body := append([]byte(nil), resp.Body()...)
			if out != nil {
				if err := json.Unmarshal(body, out); err != nil {
					return nil, fmt.Errorf("decode response: %w", err)
				}
			}
			return body, nil
		}
		if attempt < attempts {
			if err := sleepWithContext(ctx, backoffDuration(attempt)); err != nil {
				return nil, lastErr
			}
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return nil, lastErr
}

// StatusError is a non-2xx answer from the host.
type StatusError struct {
	Status int
	boarddto.DomainError
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("board api status=%d: %s", e.Status, e.DomainError.Error())
}

func decodeError(status int, body []byte) error {
	se := &StatusError{Status: status}
	if err := json.Unmarshal(body, &se.DomainError); err != nil || se.Code == "" {
		se.DomainError = boarddto.DomainError{Code: boarddto.CodeInternal, Message: truncate(string(body), 512)}
	}
	return se
}

func (c *Client) deadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
