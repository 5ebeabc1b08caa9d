// Package memory is an in-process store.
package memory

import (
	"context"
	"sync"

	"github.com/iliamunaev/order-chain/internal/apperr"
	"github.com/iliamunaev/order-chain/internal/model"
	"github.com/iliamunaev/order-chain/internal/store"
)

// Store implements store.Store in memory.
// Safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	customers   map[int]model.Customer
	orders      map[int]model.Order
	byCustomer  map[int][]int
	customerIDs []int
	orderIDs    []int
}

// New creates a store holding data. data must pass Data.Validate.
func New(data store.Data) (*Store, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}

	s := &Store{
		customers:  make(map[int]model.Customer, len(data.Customers)),
		orders:     make(map[int]model.Order, len(data.Orders)),
		byCustomer: make(map[int][]int),
	}
	for _, c := range data.Customers {
		s.customers[c.ID] = c
		s.customerIDs = append(s.customerIDs, c.ID)
	}
	for _, o := range data.Orders {
		s.orders[o.ID] = o
		s.orderIDs = append(s.orderIDs, o.ID)
		s.byCustomer[o.CustomerID] = append(s.byCustomer[o.CustomerID], o.ID)
	}
	return s, nil
}

// FindCustomer returns the customer with id.
func (s *Store) FindCustomer(ctx context.Context, id int) (model.Customer, error) {
	if err := ctx.Err(); err != nil {
		return model.Customer{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return model.Customer{}, apperr.ErrNotFound
	}
	return c, nil
}

// ListCustomers returns every customer in insertion order.
func (s *Store) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Customer, 0, len(s.customerIDs))
	for _, id := range s.customerIDs {
		out = append(out, s.customers[id])
	}
	return out, nil
}

// FindOrder returns the order with id.
func (s *Store) FindOrder(ctx context.Context, id int) (model.Order, error) {
	if err := ctx.Err(); err != nil {
		return model.Order{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return model.Order{}, apperr.ErrNotFound
	}
	return o, nil
}

// OrdersByCustomer returns the orders placed by customerID.
func (s *Store) OrdersByCustomer(ctx context.Context, customerID int) ([]model.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(s.byCustomer[customerID]), nil
}

// ListOrders returns every order in insertion order.
func (s *Store) ListOrders(ctx context.Context) ([]model.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(s.orderIDs), nil
}

// collect must be called with the lock held.
func (s *Store) collect(ids []int) []model.Order {
	out := make([]model.Order, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.orders[id])
	}
	return out
}
