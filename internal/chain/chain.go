// Package chain drives one request through a hop.
//
// A request moves RECEIVED -> DIRECTIVE_CHECKED, then either acts on the
// directive addressed to this hop or forwards it, and ends RESPONDED.
// A hop that acted and did not fail continues with its normal work, but the
// directive is consumed and is not passed further down the chain.
package chain

import (
	"context"
	"log/slog"

	"github.com/iliamunaev/order-chain/internal/apperr"
	"github.com/iliamunaev/order-chain/internal/directive"
	"github.com/iliamunaev/order-chain/internal/logging"
	"github.com/iliamunaev/order-chain/internal/metrics"
)

// State is a step of the per-request state machine.
type State int

const (
	Received State = iota
	DirectiveChecked
	ActingAsTarget
	Forwarding
	Responded
)

func (s State) String() string {
	switch s {
	case Received:
		return "RECEIVED"
	case DirectiveChecked:
		return "DIRECTIVE_CHECKED"
	case ActingAsTarget:
		return "ACTING_AS_TARGET"
	case Forwarding:
		return "FORWARDING"
	case Responded:
		return "RESPONDED"
	default:
		return "UNKNOWN"
	}
}

// Hop is one service of the chain.
type Hop struct {
	name    string
	log     *slog.Logger
	metrics *metrics.Metrics
	observe func(State)
}

type Option func(*Hop)

// WithLogger logs state transitions at debug level.
func WithLogger(log *slog.Logger) Option {
	return func(h *Hop) { h.log = log }
}

// WithMetrics counts the faults the hop injects.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hop) { h.metrics = m }
}

// WithObserver calls fn on every state a request enters.
func WithObserver(fn func(State)) Option {
	return func(h *Hop) { h.observe = fn }
}

// NewHop creates the hop called name.
func NewHop(name string, opts ...Option) *Hop {
	h := &Hop{name: name, log: logging.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	if h.log == nil {
		h.log = logging.NewNop()
	}
	return h
}

// Name is the service name directives are matched against.
func (h *Hop) Name() string { return h.name }

func (h *Hop) enter(ctx context.Context, s State, attrs ...any) {
	if h.observe != nil {
		h.observe(s)
	}
	h.log.DebugContext(ctx, "request state",
		append([]any{"state", s.String(), "request_id", logging.RequestID(ctx)}, attrs...)...)
}

// Run handles d for h and then calls next, which does the hop's normal work
// with the directive it must attach to its outbound call. A failing
// directive ends the request before next runs.
func Run[T any](ctx context.Context, h *Hop, d directive.Directive, next func(ctx context.Context, fwd directive.Directive) (T, error)) (T, error) {
	var zero T

	h.enter(ctx, Received)
	h.enter(ctx, DirectiveChecked, "target", d.Target)

	fwd := d
	if d.ShouldActHere(h.name) {
		h.enter(ctx, ActingAsTarget, "delay_ms", d.DelayMillis, "fail", d.Fail)
		if d.Delay {
			h.metrics.InjectedFault("delay")
		}
		if d.Fail {
			h.metrics.InjectedFault("failure")
		}
		if err := directive.Apply(ctx, d, h.name); err != nil {
			h.enter(ctx, Responded, "kind", apperr.Kind(err))
			return zero, err
		}
		fwd = directive.Directive{}
	}

	h.enter(ctx, Forwarding, "forward_target", fwd.Target)
	out, err := next(ctx, fwd)
	if err != nil {
		h.enter(ctx, Responded, "kind", apperr.Kind(err))
		return zero, err
	}
	h.enter(ctx, Responded)
	return out, nil
}
