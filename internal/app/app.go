// Package app wires a hop from its configuration and serves it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/iliamunaev/order-chain/internal/app/customers"
	"github.com/iliamunaev/order-chain/internal/app/orders"
	"github.com/iliamunaev/order-chain/internal/app/tracking"
	"github.com/iliamunaev/order-chain/internal/chain"
	"github.com/iliamunaev/order-chain/internal/config"
	"github.com/iliamunaev/order-chain/internal/downstream"
	"github.com/iliamunaev/order-chain/internal/metrics"
	"github.com/iliamunaev/order-chain/internal/service/pool"
	"github.com/iliamunaev/order-chain/internal/service/tracker"
	trackgen "github.com/iliamunaev/order-chain/internal/service/tracking"
	"github.com/iliamunaev/order-chain/internal/store"
	"github.com/iliamunaev/order-chain/internal/store/memory"
	"github.com/iliamunaev/order-chain/internal/store/redis"
	httptransport "github.com/iliamunaev/order-chain/internal/transport/http"
)

// ShutdownTimeout is how long in-flight requests get once serving stops.
const ShutdownTimeout = 5 * time.Second

type options struct {
	clock func() time.Time
}

type Option func(*options)

// WithClock sets the tracking hop's notion of today.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// Hop is one wired service of the chain.
type Hop struct {
	Name    string
	Handler http.Handler
	Metrics *metrics.Metrics
	// InFlight counts outstanding downstream calls.
	InFlight *tracker.Tracker

	requestTimeout time.Duration
	log            *slog.Logger
	closers        []func() error
}

// New builds the hop called name from cfg.
func New(ctx context.Context, name string, cfg config.Hop, log *slog.Logger, opts ...Option) (*Hop, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	log = log.With("service", name)
	tr := &tracker.Tracker{}
	m := metrics.New(name, func() float64 { return float64(tr.Running()) })
	h := &Hop{
		Name:           name,
		Metrics:        m,
		InFlight:       tr,
		requestTimeout: cfg.RequestTimeout.Std(),
		log:            log,
	}
	hop := chain.NewHop(name, chain.WithLogger(log), chain.WithMetrics(m))
	ropts := httptransport.Options{RequestTimeout: cfg.RequestTimeout.Std(), Logger: log, Metrics: m}

	client := func(target string) (*downstream.Client, error) {
		t := cfg.Downstream.Timeouts
		return downstream.New(target, cfg.Downstream.BaseURL,
			downstream.Timeouts{Connect: t.Connect.Std(), Read: t.Read.Std(), Write: t.Write.Std()},
			downstream.WithTracker(tr),
			downstream.WithMetrics(m),
			downstream.WithLogger(log),
		)
	}

	switch name {
	case config.Customers:
		st, err := h.openStore(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		c, err := client(config.Orders)
		if err != nil {
			return nil, errors.Join(err, h.Close())
		}
		svc := customers.New(hop, st, downstream.NewOrders(c))
		h.Handler = httptransport.NewCustomersRouter(svc, ropts)

	case config.Orders:
		st, err := h.openStore(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		c, err := client(config.Tracking)
		if err != nil {
			return nil, errors.Join(err, h.Close())
		}
		svc := orders.New(hop, st, downstream.NewTracking(c),
			orders.WithPool(pool.New(cfg.FanOut.PoolSize)),
			orders.WithMaxInFlight(cfg.FanOut.MaxInFlight),
			orders.WithLogger(log),
			orders.WithMetrics(m),
		)
		h.Handler = httptransport.NewOrdersRouter(svc, ropts)

	case config.Tracking:
		var gopts []trackgen.Option
		if cfg.Tracking.Seed != 0 {
			gopts = append(gopts, trackgen.WithSeed(cfg.Tracking.Seed))
		}
		if o.clock != nil {
			gopts = append(gopts, trackgen.WithClock(o.clock))
		}
		svc := tracking.New(hop, trackgen.NewGenerator(gopts...))
		h.Handler = httptransport.NewTrackingRouter(svc, ropts)

	default:
		return nil, fmt.Errorf("unknown hop %q", name)
	}

	return h, nil
}

func (h *Hop) openStore(ctx context.Context, cfg config.Store) (store.Store, error) {
	data := store.Data{}
	if cfg.Seed {
		data = store.SeedData()
	}

	switch cfg.Driver {
	case "redis":
		s := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redis.WithPrefix(cfg.Redis.Prefix))
		h.closers = append(h.closers, s.Close)
		if err := s.Ping(ctx); err != nil {
			return nil, errors.Join(fmt.Errorf("redis store: %w", err), h.Close())
		}
		if cfg.Seed {
			if err := s.Load(ctx, data); err != nil {
				return nil, errors.Join(fmt.Errorf("redis store: %w", err), h.Close())
			}
		}
		h.log.Info("store ready", "driver", "redis", "addr", cfg.Redis.Addr, "seeded", cfg.Seed)
		return s, nil
	default:
		s, err := memory.New(data)
		if err != nil {
			return nil, err
		}
		h.log.Info("store ready", "driver", "memory", "seeded", cfg.Seed)
		return s, nil
	}
}

// Close releases what New opened.
func (h *Hop) Close() error {
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		errs = append(errs, h.closers[i]())
	}
	h.closers = nil
	return errors.Join(errs...)
}

func (h *Hop) server() *http.Server {
	return &http.Server{
		Handler:           h.Handler,
		ReadHeaderTimeout: 3 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      h.requestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(h.log.Handler(), slog.LevelWarn),
	}
}

// Serve serves the hop on ln until ctx is done, then shuts down gracefully,
// giving in-flight requests ShutdownTimeout to complete.
func (h *Hop) Serve(ctx context.Context, ln net.Listener) error {
	srv := h.server()

	serverErrors := make(chan error, 1)
	go func() {
		h.log.Info("listening", "addr", ln.Addr().String())
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s: serve: %w", h.Name, err)
	case <-ctx.Done():
	}

	h.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		h.log.Warn("graceful shutdown did not complete", "timeout", ShutdownTimeout, "error", err)
		if cerr := srv.Close(); cerr != nil {
			h.log.Error("error killing server", "error", cerr)
		}
		return fmt.Errorf("%s: shutdown: %w", h.Name, err)
	}
	h.log.Info("stopped gracefully")
	return nil
}
