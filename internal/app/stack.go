package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/iliamunaev/order-chain/internal/config"
)

// Listening is called with the address each hop of a stack is bound to.
type Listening func(hop string, addr net.Addr)

// RunStack serves all three hops in one process, each wired to the address
// the next hop actually listens on, until ctx is done or one hop fails.
func RunStack(ctx context.Context, cfg *config.Config, log *slog.Logger, onListen Listening, opts ...Option) error {
	listeners := make(map[string]net.Listener, len(config.HopNames))
	closeAll := func() {
		for _, ln := range listeners {
			_ = ln.Close()
		}
	}

	for _, name := range config.HopNames {
		hc, _ := cfg.Hop(name)
		ln, err := net.Listen("tcp", hc.Listen)
		if err != nil {
			closeAll()
			return fmt.Errorf("%s: listen on %s: %w", name, hc.Listen, err)
		}
		listeners[name] = ln
		if onListen != nil {
			onListen(name, ln.Addr())
		}
	}

	// Point each hop at its neighbour.
	local := *cfg
	local.Hops.Customers.Downstream.BaseURL = baseURL(listeners[config.Orders].Addr())
	local.Hops.Orders.Downstream.BaseURL = baseURL(listeners[config.Tracking].Addr())

	hops := make([]*Hop, 0, len(config.HopNames))
	defer func() {
		for _, h := range hops {
			if err := h.Close(); err != nil {
				log.Warn("close hop", "service", h.Name, "error", err)
			}
		}
	}()
	for _, name := range config.HopNames {
		hc, _ := local.Hop(name)
		h, err := New(ctx, name, *hc, log, opts...)
		if err != nil {
			closeAll()
			return err
		}
		hops = append(hops, h)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, h := range hops {
		ln := listeners[h.Name]
		g.Go(func() error { return h.Serve(gctx, ln) })
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func baseURL(addr net.Addr) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "http://" + addr.String()
	}
	if ip := net.ParseIP(host); ip == nil || ip.IsUnspecified() {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}
