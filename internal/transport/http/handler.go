// Package httptransport implements the HTTP surface of each hop.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/iliamunaev/order-chain/internal/apperr"
	"github.com/iliamunaev/order-chain/internal/directive"
	"github.com/iliamunaev/order-chain/internal/logging"
	"github.com/iliamunaev/order-chain/internal/metrics"
	"github.com/iliamunaev/order-chain/internal/middleware"
	"github.com/iliamunaev/order-chain/internal/model"
)

// DefaultRequestTimeout bounds the work of one request when no timeout is configured.
const DefaultRequestTimeout = 30 * time.Second

// Options configures a hop's router.
type Options struct {
	// RequestTimeout bounds each request, including its downstream calls.
	RequestTimeout time.Duration
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
}

type customerService interface {
	Customer(ctx context.Context, id int, d directive.Directive) (model.CustomerResponse, error)
	ListCustomers(ctx context.Context) ([]model.Customer, error)
	Fail(code int) error
}

type orderService interface {
	CustomerOrders(ctx context.Context, customerID int, d directive.Directive) ([]model.OrderView, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	FindOrder(ctx context.Context, id int) ([]model.Order, error)
}

type trackingService interface {
	Track(ctx context.Context, orderID int, d directive.Directive) (model.Tracking, error)
}

type server struct {
	requestTimeout time.Duration
	log            *slog.Logger
}

func newServer(opts Options) (*server, chi.Router) {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	s := &server{requestTimeout: opts.RequestTimeout, log: opts.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(opts.Logger, opts.Metrics))
	r.Use(chimw.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, apperr.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, model.ErrorResponse{
			Status: "error",
			Error:  &model.ErrorPayload{Kind: "method_not_allowed"},
		})
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())

	return s, r
}

// NewCustomersRouter serves the entry hop.
func NewCustomersRouter(svc customerService, opts Options) http.Handler {
	if svc == nil {
		panic("httptransport.NewCustomersRouter: nil service")
	}
	s, r := newServer(opts)

	r.Get("/customers", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := s.withTimeout(r)
		defer cancel()
		s.respond(w, r)(svc.ListCustomers(ctx))
	})
	r.Get("/customers/{customer-id}", func(w http.ResponseWriter, r *http.Request) {
		id, d, err := s.parse(r, "customer-id")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		ctx, cancel := s.withTimeout(r)
		defer cancel()
		s.respond(w, r)(svc.Customer(ctx, id, d))
	})
	r.Post("/error", func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, svc.Fail(0))
	})
	r.Post("/error/{http-code}", func(w http.ResponseWriter, r *http.Request) {
		code, err := intParam(chi.URLParam(r, "http-code"), "http-code")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeError(w, r, svc.Fail(code))
	})

	return r
}

// NewOrdersRouter serves the middle hop.
func NewOrdersRouter(svc orderService, opts Options) http.Handler {
	if svc == nil {
		panic("httptransport.NewOrdersRouter: nil service")
	}
	s, r := newServer(opts)

	r.Get("/customer-orders/{customer-id}", func(w http.ResponseWriter, r *http.Request) {
		id, d, err := s.parse(r, "customer-id")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		ctx, cancel := s.withTimeout(r)
		defer cancel()
		s.respond(w, r)(svc.CustomerOrders(ctx, id, d))
	})
	r.Get("/orders", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := s.withTimeout(r)
		defer cancel()
		s.respond(w, r)(svc.ListOrders(ctx))
	})
	r.Get("/orders/{order-id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := intParam(chi.URLParam(r, "order-id"), "order-id")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		ctx, cancel := s.withTimeout(r)
		defer cancel()
		s.respond(w, r)(svc.FindOrder(ctx, id))
	})

	return r
}

// NewTrackingRouter serves the last hop.
func NewTrackingRouter(svc trackingService, opts Options) http.Handler {
	if svc == nil {
		panic("httptransport.NewTrackingRouter: nil service")
	}
	s, r := newServer(opts)

	r.Get("/order-tracking/{order-id}", func(w http.ResponseWriter, r *http.Request) {
		id, d, err := s.parse(r, "order-id")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		ctx, cancel := s.withTimeout(r)
		defer cancel()
		s.respond(w, r)(svc.Track(ctx, id, d))
	})

	return r
}

// parse reads the path id named param and the directive of r.
func (s *server) parse(r *http.Request, param string) (int, directive.Directive, error) {
	id, err := intParam(chi.URLParam(r, param), param)
	if err != nil {
		return 0, directive.Directive{}, err
	}
	d, err := directive.FromQuery(r.URL.Query())
	if err != nil {
		return 0, directive.Directive{}, err
	}
	return id, d, nil
}

// withTimeout sets a deadline for the whole request, downstream calls included.
func (s *server) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.requestTimeout)
}

// respond writes the result of a service call.
func (s *server) respond(w http.ResponseWriter, r *http.Request) func(v any, err error) {
	return func(v any, err error) {
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// writeJSON writes v as a JSON response with the given status code.
// The Content-Type is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
