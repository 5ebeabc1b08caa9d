// Package tracking is the last hop of the chain.
package tracking

import (
	"context"

	"github.com/iliamunaev/order-chain/internal/chain"
	"github.com/iliamunaev/order-chain/internal/directive"
	"github.com/iliamunaev/order-chain/internal/model"
	"github.com/iliamunaev/order-chain/internal/service/tracking"
)

// Name is the service name directives address this hop by.
const Name = "tracking"

// Service answers tracking lookups.
type Service struct {
	hop *chain.Hop
	gen *tracking.Generator
}

// New creates the service. A nil gen draws unseeded.
func New(hop *chain.Hop, gen *tracking.Generator) *Service {
	if gen == nil {
		gen = tracking.NewGenerator()
	}
	return &Service{hop: hop, gen: gen}
}

// Track returns the tracking of orderID. There is no hop after this one, so
// a directive addressed elsewhere is dropped.
func (s *Service) Track(ctx context.Context, orderID int, d directive.Directive) (model.Tracking, error) {
	return chain.Run(ctx, s.hop, d, func(context.Context, directive.Directive) (model.Tracking, error) {
		return s.gen.Track(orderID), nil
	})
}
