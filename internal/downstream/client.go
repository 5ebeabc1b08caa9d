// Package downstream issues the outbound call of a hop.
//
// Every call carries the propagated directive as query parameters and runs
// behind a timeout boundary: connect, read and write timeouts are enforced
// on the connection, and any transport failure is reported as
// apperr.ErrUpstreamTimeout so callers can tell it apart from an error
// response the downstream hop chose to send.
package downstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iliamunaev/order-chain/internal/apperr"
	"github.com/iliamunaev/order-chain/internal/directive"
	"github.com/iliamunaev/order-chain/internal/logging"
	"github.com/iliamunaev/order-chain/internal/metrics"
	"github.com/iliamunaev/order-chain/internal/model"
	"github.com/iliamunaev/order-chain/internal/service/tracker"
)

const maxBodyBytes = 1 << 20

// Timeouts configures the boundary of one downstream dependency.
type Timeouts struct {
	Connect time.Duration
	Read    time.Duration
	Write   time.Duration
}

// Client calls one downstream hop.
type Client struct {
	target  string
	base    *url.URL
	http    *http.Client
	tracker *tracker.Tracker
	metrics *metrics.Metrics
	log     *slog.Logger
}

type Option func(*Client)

// WithTracker counts the client's in-flight calls on tr.
func WithTracker(tr *tracker.Tracker) Option {
	return func(c *Client) { c.tracker = tr }
}

// WithMetrics records call outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger for failed calls.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client for the hop named target reachable at baseURL.
func New(target, baseURL string, t Timeouts, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("downstream %s: parse base url: %w", target, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("downstream %s: unsupported scheme %q", target, base.Scheme)
	}

	c := &Client{
		target: target,
		base:   base,
		http:   &http.Client{Transport: NewTransport(t)},
		log:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracker == nil {
		c.tracker = &tracker.Tracker{}
	}
	if c.log == nil {
		c.log = logging.NewNop()
	}
	return c, nil
}

// Target is the name of the downstream hop.
func (c *Client) Target() string { return c.target }

// Get fetches path from the downstream hop with d attached and decodes the
// JSON body into out. Error responses come back as *apperr.RemoteError,
// transport failures as *apperr.UpstreamTimeoutError.
func (c *Client) Get(ctx context.Context, path string, d directive.Directive, out any) error {
	u := c.base.JoinPath(path)
	q := u.Query()
	d.Encode(q)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.target, err)
	}
	req.Header.Set("Accept", "application/json")
	if id := logging.RequestID(ctx); id != "" {
		req.Header.Set(logging.RequestIDHeader, id)
	}

	done := c.tracker.Start()
	defer done()

	start := time.Now()
	err = c.do(req, out)
	dur := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = apperr.Kind(err)
		c.log.Debug("downstream call failed",
			"target", c.target,
			"path", u.Path,
			"kind", outcome,
			"duration", dur,
			"error", err,
		)
	}
	c.metrics.ObserveDownstream(c.target, outcome, dur)

	return err
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return c.normalize(req.Context(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return c.normalize(req.Context(), err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return c.remoteError(resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.target, err)
	}
	return nil
}

// normalize turns a transport failure into the uniform upstream timeout.
// A call ended by the caller's own context reports that context's error
// instead.
func (c *Client) normalize(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return fmt.Errorf("%s: %w", c.target, cerr)
	}
	return &apperr.UpstreamTimeoutError{Service: c.target, Cause: err}
}

func (c *Client) remoteError(status int, body []byte) error {
	re := &apperr.RemoteError{Service: c.target, Status: status}

	var payload model.ErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != nil {
		re.ErrKind = payload.Error.Kind
		re.Message = payload.Error.Message
	} else {
		re.Message = strings.TrimSpace(string(body))
	}
	if re.ErrKind == "" && status == apperr.StatusUpstreamTimeout {
		re.ErrKind = apperr.KindUpstreamTimeout
	}
	return re
}

// NewTransport builds the transport that enforces t on every connection.
// Read and write timeouts apply to each individual read or write, so a
// stalled peer is detected even after headers have arrived.
func NewTransport(t Timeouts) *http.Transport {
	dialer := &net.Dialer{Timeout: t.Connect, KeepAlive: 30 * time.Second}

	return &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return &deadlineConn{Conn: conn, read: t.Read, write: t.Write}, nil
		},
		ResponseHeaderTimeout: t.Read,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       idleTimeout(t.Read),
	}
}

func idleTimeout(read time.Duration) time.Duration {
	if read > 0 && read < 90*time.Second {
		return read
	}
	return 90 * time.Second
}

type deadlineConn struct {
	net.Conn
	read  time.Duration
	write time.Duration
}

func (c *deadlineConn) Read(b []byte) (int, error) {
	if c.read > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.read)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(b)
}

func (c *deadlineConn) Write(b []byte) (int, error) {
	if c.write > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.write)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Write(b)
}
