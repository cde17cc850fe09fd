// Package client talks to the opinions server over HTTP and websockets.
//
// Client implements opinion.Store, opinion.Lister and signup.Registrar, so
// controllers can run against a remote server:
//
//	c, err := client.New("http://localhost:8080")
//	board := opinion.NewBoard(c, c, opinion.WithDispatcher(loop))
//	go c.Watch(ctx, func(ev opinion.Event) {
//	    loop.Dispatch(func() { board.Apply(ev) })
//	})
package client

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
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/opinions/pkg/opinion"
	"github.com/vango-dev/opinions/pkg/signup"
)

// RemoteError is a non-2xx answer from the server.
type RemoteError struct {
	Status   int
	Messages []string
}

func (e *RemoteError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("remote: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("remote: %d: %s", e.Status, strings.Join(e.Messages, "; "))
}

// StatusOf returns the HTTP status of a RemoteError, or 0.
func StatusOf(err error) int {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}

// Client is an opinions server client.
type Client struct {
	base   *url.URL
	http   *http.Client
	dialer *websocket.Dialer
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithDialer sets the websocket dialer used by Watch.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithLogger sets the logger remote faults are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: 15 * time.Second},
		dialer: websocket.DefaultDialer,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) endpoint(path string) string {
	return c.base.JoinPath(path).String()
}

// do sends a JSON request and decodes a JSON answer into out, if non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("remote call failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		re := &RemoteError{Status: resp.StatusCode}
		var eb struct {
			Errors []string `json:"errors"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&eb) == nil {
			re.Messages = eb.Errors
		}
		c.logger.Warn("remote call rejected", "method", method, "path", path, "status", resp.StatusCode, "errors", re.Messages)
		return re
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ListOpinions returns every opinion.
func (c *Client) ListOpinions(ctx context.Context) ([]opinion.Opinion, error) {
	var list []opinion.Opinion
	if err := c.do(ctx, http.MethodGet, "/api/opinions", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Opinions implements opinion.Lister.
func (c *Client) Opinions(ctx context.Context) ([]opinion.Opinion, error) {
	return c.ListOpinions(ctx)
}

// CreateOpinion creates an opinion and returns it as stored.
func (c *Client) CreateOpinion(ctx context.Context, d opinion.Draft) (opinion.Opinion, error) {
	var op opinion.Opinion
	err := c.do(ctx, http.MethodPost, "/api/opinions", d, &op)
	return op, err
}

// AddOpinion implements opinion.Store.
func (c *Client) AddOpinion(ctx context.Context, d opinion.Draft) error {
	_, err := c.CreateOpinion(ctx, d)
	return err
}

// Vote sends one vote in dir and returns the opinion as stored.
func (c *Client) Vote(ctx context.Context, id string, dir opinion.Direction) (opinion.Opinion, error) {
	path := "/api/opinions/" + url.PathEscape(id) + "/" + dir.String() + "vote"
	var op opinion.Opinion
	err := c.do(ctx, http.MethodPost, path, nil, &op)
	return op, err
}

// UpvoteOpinion implements opinion.Store.
func (c *Client) UpvoteOpinion(ctx context.Context, id string) error {
	_, err := c.Vote(ctx, id, opinion.Up)
	return err
}

// DownvoteOpinion implements opinion.Store.
func (c *Client) DownvoteOpinion(ctx context.Context, id string) error {
	_, err := c.Vote(ctx, id, opinion.Down)
	return err
}

// Register implements signup.Registrar.
func (c *Client) Register(ctx context.Context, in signup.Input) error {
	return c.do(ctx, http.MethodPost, "/api/signup", in, nil)
}

// Watch streams pushed events to fn until ctx is done or the connection
// fails. fn runs on Watch's goroutine. Returns nil when ctx ends the
// stream.
func (c *Client) Watch(ctx context.Context, fn func(opinion.Event)) error {
	u := *c.base.JoinPath("/api/ws")
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}

	conn, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		c.logger.Warn("watch dial failed", "url", u.String(), "error", err)
		return fmt.Errorf("dial %s: %w", u.String(), err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	for {
		var ev opinion.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			c.logger.Warn("watch stream ended", "error", err)
			return fmt.Errorf("watch: %w", err)
		}
		fn(ev)
	}
}

var (
	_ opinion.Store    = (*Client)(nil)
	_ opinion.Lister   = (*Client)(nil)
	_ signup.Registrar = (*Client)(nil)
)
