package downstream

import (
	"context"
	"strconv"

	"github.com/iliamunaev/order-chain/internal/directive"
	"github.com/iliamunaev/order-chain/internal/model"
)

// Orders is the customers hop's client of the orders hop.
type Orders struct{ c *Client }

// NewOrders wraps c, which must point at the orders hop.
func NewOrders(c *Client) *Orders { return &Orders{c: c} }

// CustomerOrders fetches the tracked orders of customerID.
func (o *Orders) CustomerOrders(ctx context.Context, customerID int, d directive.Directive) ([]model.OrderView, error) {
	var out []model.OrderView
	if err := o.c.Get(ctx, "/customer-orders/"+strconv.Itoa(customerID), d, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.OrderView{}
	}
	return out, nil
}

// Tracking is the orders hop's client of the tracking hop.
type Tracking struct{ c *Client }

// NewTracking wraps c, which must point at the tracking hop.
func NewTracking(c *Client) *Tracking { return &Tracking{c: c} }

// Track fetches the tracking of orderID.
func (t *Tracking) Track(ctx context.Context, orderID int, d directive.Directive) (model.Tracking, error) {
	var out model.Tracking
	if err := t.c.Get(ctx, "/order-tracking/"+strconv.Itoa(orderID), d, &out); err != nil {
		return model.Tracking{}, err
	}
	return out, nil
}
