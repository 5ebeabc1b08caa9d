// Package store defines the entity lookups the hops depend on.
package store

import (
	"context"
	"fmt"

	"github.com/iliamunaev/order-chain/internal/model"
)

// Customers is the customers hop's view of the store.
type Customers interface {
	// FindCustomer returns apperr.ErrNotFound when id is unknown.
	FindCustomer(ctx context.Context, id int) (model.Customer, error)
	ListCustomers(ctx context.Context) ([]model.Customer, error)
}

// Orders is the orders hop's view of the store.
type Orders interface {
	// FindOrder returns apperr.ErrNotFound when id is unknown.
	FindOrder(ctx context.Context, id int) (model.Order, error)
	// OrdersByCustomer returns the customer's orders in insertion order.
	// An unknown customer has no orders.
	OrdersByCustomer(ctx context.Context, customerID int) ([]model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
}

// Store serves both hops.
type Store interface {
	Customers
	Orders
}

// Data is the content a store starts with.
type Data struct {
	Customers []model.Customer
	Orders    []model.Order
}

// Validate checks ids are positive and unique and every order has an owner.
func (d Data) Validate() error {
	customers := make(map[int]struct{}, len(d.Customers))
	for _, c := range d.Customers {
		if c.ID <= 0 {
			return fmt.Errorf("customer %q: id must be positive", c.Name)
		}
		if _, dup := customers[c.ID]; dup {
			return fmt.Errorf("customer %d: duplicate id", c.ID)
		}
		customers[c.ID] = struct{}{}
	}

	orders := make(map[int]struct{}, len(d.Orders))
	for _, o := range d.Orders {
		if o.ID <= 0 {
			return fmt.Errorf("order %q: id must be positive", o.ProductName)
		}
		if _, dup := orders[o.ID]; dup {
			return fmt.Errorf("order %d: duplicate id", o.ID)
		}
		if _, ok := customers[o.CustomerID]; !ok {
			return fmt.Errorf("order %d: unknown customer %d", o.ID, o.CustomerID)
		}
		orders[o.ID] = struct{}{}
	}
	return nil
}

// SeedData is the sample data every hop ships with.
func SeedData() Data {
	names := []string{"Aakash", "Viren", "Anusha", "Hari", "Suriya", "Sajeev", "Sameer"}
	customers := make([]model.Customer, len(names))
	for i, n := range names {
		customers[i] = model.Customer{ID: i + 1, Name: n}
	}

	products := []struct {
		customer int
		product  string
	}{
		{1, "10kg Fortune Wheat Flour"},
		{2, "200g Emami Bath Soap"},
		{3, "2kg Safeda Mango"},
		{4, "250g, Bru Coffee"},
		{4, "500g, Nirma Detergent"},
		{5, "250g Tata Tea"},
		{6, "1kg Toor Dal"},
		{7, "1/2kg Carrot"},
	}
	orders := make([]model.Order, len(products))
	for i, p := range products {
		orders[i] = model.Order{ID: i + 1, CustomerID: p.customer, ProductName: p.product}
	}

	return Data{Customers: customers, Orders: orders}
}
