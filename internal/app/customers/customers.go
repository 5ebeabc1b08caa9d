// Package customers contains the orchestration of the entry hop.
package customers

import (
	"context"
	"net/http"

	"github.com/iliamunaev/order-chain/internal/apperr"
	"github.com/iliamunaev/order-chain/internal/chain"
	"github.com/iliamunaev/order-chain/internal/directive"
	"github.com/iliamunaev/order-chain/internal/model"
	"github.com/iliamunaev/order-chain/internal/store"
)

// Name is the service name directives address this hop by.
const Name = "customers"

// OrdersFetcher fetches a customer's orders from the next hop.
type OrdersFetcher interface {
	CustomerOrders(ctx context.Context, customerID int, d directive.Directive) ([]model.OrderView, error)
}

// Service orchestrates the customers hop.
type Service struct {
	hop    *chain.Hop
	store  store.Customers
	orders OrdersFetcher
}

// New creates an orchestration service with dependencies.
func New(hop *chain.Hop, st store.Customers, orders OrdersFetcher) *Service {
	return &Service{hop: hop, store: st, orders: orders}
}

// Customer returns the customer with id and its tracked orders.
// An unknown id fails with apperr.ErrNotFound before d is looked at.
func (s *Service) Customer(ctx context.Context, id int, d directive.Directive) (model.CustomerResponse, error) {
	c, err := s.store.FindCustomer(ctx, id)
	if err != nil {
		return model.CustomerResponse{}, err
	}

	return chain.Run(ctx, s.hop, d, func(ctx context.Context, fwd directive.Directive) (model.CustomerResponse, error) {
		orders, err := s.orders.CustomerOrders(ctx, id, fwd)
		if err != nil {
			return model.CustomerResponse{}, err
		}
		return model.CustomerResponse{Customer: c, Orders: orders}, nil
	})
}

// ListCustomers returns every customer.
func (s *Service) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	return s.store.ListCustomers(ctx)
}

// Fail manufactures an error response with status code, for exercising
// callers' error handling. Zero means 500.
func (s *Service) Fail(code int) error {
	if code == 0 {
		code = http.StatusInternalServerError
	}
	if code < 400 || code > 599 {
		return apperr.BadRequest("http code %d is not an error status", code)
	}
	if code == apperr.StatusUpstreamTimeout {
		return apperr.BadRequest("http code %d is reserved for upstream timeouts", code)
	}
	return &apperr.InjectedFailure{Service: s.hop.Name(), Status: code}
}
