// Package tracking produces the shipment state reported for an order.
// Randomness and time are injected so output can be reproduced.
package tracking

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/iliamunaev/order-chain/internal/model"
)

const (
	PartnerFedEx = "FEDEX"
	PartnerDHL   = "DHL"

	StatusDispatched = "DISPATCHED"
	StatusDelivered  = "DELIVERED"

	maxTrackingID = 10
	dateLayout    = time.DateOnly
)

var (
	partners = []string{PartnerFedEx, PartnerDHL}
	statuses = []string{StatusDispatched, StatusDelivered}
)

// Generator draws tracking records. Safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

type Option func(*Generator)

// WithSeed makes the sequence of draws repeatable.
func WithSeed(seed uint64) Option {
	return func(g *Generator) { g.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithClock sets the source of "today".
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a generator. Without WithSeed draws are unseeded.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return g
}

// Track returns the tracking of orderID. A delivered order has no
// tentative delivery date; otherwise it is due today.
func (g *Generator) Track(orderID int) model.Tracking {
	g.mu.Lock()
	status := statuses[g.rng.IntN(len(statuses))]
	partner := partners[g.rng.IntN(len(partners))]
	id := g.rng.IntN(maxTrackingID) + 1
	g.mu.Unlock()

	t := model.Tracking{
		OrderID:    orderID,
		TrackingID: id,
		Partner:    partner,
		Status:     status,
	}
	if status != StatusDelivered {
		t.TentativeDeliveryDate = g.now().Format(dateLayout)
	}
	return t
}
