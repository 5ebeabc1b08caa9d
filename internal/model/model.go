// Package model defines the entities and payloads exchanged between the
// customers, orders and tracking hops.
// It keeps transport-level types in one place for reuse.
package model

// Customer is a customer record.
type Customer struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Order is an order record owned by a customer.
type Order struct {
	ID          int    `json:"id"`
	CustomerID  int    `json:"customer_id"`
	ProductName string `json:"product_name"`
}

// Tracking is the shipment state of one order.
type Tracking struct {
	OrderID               int    `json:"order_id,omitempty"`
	TrackingID            int    `json:"tracking_id"`
	Partner               string `json:"partner"`
	Status                string `json:"status"`
	TentativeDeliveryDate string `json:"tentative_delivery_date,omitempty"` // only while not delivered
}

// OrderView is one order joined with its tracking, as returned by the orders hop.
type OrderView struct {
	OrderID     int      `json:"order_id"`
	ProductName string   `json:"product_name"`
	Tracking    Tracking `json:"tracking"`
}

// CustomerResponse is the payload returned by the customers hop.
type CustomerResponse struct {
	Customer Customer    `json:"customer"`
	Orders   []OrderView `json:"orders"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Status string        `json:"status"` // always "error"
	Error  *ErrorPayload `json:"error,omitempty"`
}

// ErrorPayload describes an error response.
type ErrorPayload struct {
	Kind    string `json:"kind"`              // "not_found", "injected_failure", "upstream_timeout"
	Message string `json:"message,omitempty"` // optional, human-readable error message
}
