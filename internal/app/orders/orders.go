// Package orders contains the orchestration of the orders hop.
package orders

import (
	"context"
	"log/slog"

	"github.com/iliamunaev/order-chain/internal/apperr"
	"github.com/iliamunaev/order-chain/internal/chain"
	"github.com/iliamunaev/order-chain/internal/directive"
	"github.com/iliamunaev/order-chain/internal/fanout"
	"github.com/iliamunaev/order-chain/internal/logging"
	"github.com/iliamunaev/order-chain/internal/metrics"
	"github.com/iliamunaev/order-chain/internal/model"
	"github.com/iliamunaev/order-chain/internal/service/pool"
	"github.com/iliamunaev/order-chain/internal/store"
)

// Name is the service name directives address this hop by.
const Name = "orders"

// DefaultMaxInFlight bounds the tracking calls of one request.
const DefaultMaxInFlight = 8

// Tracker fetches the tracking of one order from the next hop.
type Tracker interface {
	Track(ctx context.Context, orderID int, d directive.Directive) (model.Tracking, error)
}

// Service orchestrates the orders hop.
type Service struct {
	hop      *chain.Hop
	store    store.Orders
	tracking Tracker
	pool     *pool.Pool
	limit    int
	log      *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

// WithPool shares p between all requests so the hop as a whole never has
// more than p.Size() tracking calls outstanding.
func WithPool(p *pool.Pool) Option {
	return func(s *Service) { s.pool = p }
}

// WithMaxInFlight bounds the tracking calls of a single request.
func WithMaxInFlight(n int) Option {
	return func(s *Service) { s.limit = n }
}

// WithLogger sets the logger for dropped branches.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithMetrics counts dropped branches.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates an orchestration service with dependencies.
func New(hop *chain.Hop, st store.Orders, tr Tracker, opts ...Option) *Service {
	s := &Service{
		hop:      hop,
		store:    st,
		tracking: tr,
		limit:    DefaultMaxInFlight,
		log:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logging.NewNop()
	}
	return s
}

// CustomerOrders returns the orders of customerID joined with their
// tracking. Tracking is fetched for every order concurrently; an order
// whose tracking could not be fetched is left out of the result.
//
// The customer is not validated here: the customers hop already did.
func (s *Service) CustomerOrders(ctx context.Context, customerID int, d directive.Directive) ([]model.OrderView, error) {
	return chain.Run(ctx, s.hop, d, func(ctx context.Context, fwd directive.Directive) ([]model.OrderView, error) {
		orders, err := s.store.OrdersByCustomer(ctx, customerID)
		if err != nil {
			return nil, err
		}

		opts := fanout.Options{Limit: s.limit}
		if s.pool != nil {
			opts.Limiter = s.pool
		}
		results := fanout.Run(ctx, orders, opts, func(ctx context.Context, o model.Order) (model.OrderView, error) {
			t, err := s.tracking.Track(ctx, o.ID, fwd)
			if err != nil {
				return model.OrderView{}, err
			}
			t.OrderID = 0
			return model.OrderView{OrderID: o.ID, ProductName: o.ProductName, Tracking: t}, nil
		})

		ok, failed := fanout.Split(results)
		for _, f := range failed {
			kind := apperr.Kind(f.Err)
			s.log.WarnContext(ctx, "tracking branch dropped",
				"customer_id", customerID,
				"order_id", f.Key.ID,
				"kind", kind,
				"request_id", logging.RequestID(ctx),
				"error", f.Err,
			)
			s.metrics.BranchFailure(kind)
		}

		views := make([]model.OrderView, 0, len(ok))
		for _, r := range ok {
			views = append(views, r.Value)
		}
		return views, nil
	})
}

// ListOrders returns every order.
func (s *Service) ListOrders(ctx context.Context) ([]model.Order, error) {
	return s.store.ListOrders(ctx)
}

// FindOrder returns the orders with id: one, or none when id is unknown.
func (s *Service) FindOrder(ctx context.Context, id int) ([]model.Order, error) {
	o, err := s.store.FindOrder(ctx, id)
	switch {
	case err == nil:
		return []model.Order{o}, nil
	case apperr.Kind(err) == apperr.KindNotFound:
		return []model.Order{}, nil
	default:
		return nil, err
	}
}
