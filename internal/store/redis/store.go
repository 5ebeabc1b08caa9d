// Package redis stores customers and orders in Redis.
//
// Entities are JSON strings under <prefix>customer:<id> and <prefix>order:<id>.
// Lists of ids keep insertion order: <prefix>customers, <prefix>orders and
// <prefix>customer:<id>:orders.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	backend "github.com/redis/go-redis/v9"

	"github.com/iliamunaev/order-chain/internal/apperr"
	"github.com/iliamunaev/order-chain/internal/model"
	"github.com/iliamunaev/order-chain/internal/store"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "chain:"

// Store implements store.Store using Redis.
type Store struct {
	client *backend.Client
	prefix string
}

type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) customerKey(id int) string { return s.prefix + "customer:" + strconv.Itoa(id) }
func (s *Store) orderKey(id int) string { return s.prefix + "order:" + strconv.Itoa(id) }
func (s *Store) customersKey() string { return s.prefix + "customers" }
func (s *Store) ordersKey() string { return s.prefix + "orders" }
func (s *Store) customerOrdersKey(id int) string {
	return s.prefix + "customer:" + strconv.Itoa(id) + ":orders"
}

// Load replaces the stored entities with data.
func (s *Store) Load(ctx context.Context, data store.Data) error {
	if err := data.Validate(); err != nil {
		return err
	}

	old, err := s.client.Keys(ctx, s.prefix+"*").Result()
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}

	pipe := s.client.TxPipeline()
	if len(old) > 0 {
		pipe.Del(ctx, old...)
	}
	for _, c := range data.Customers {
		raw, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal customer %d: %w", c.ID, err)
		}
		pipe.Set(ctx, s.customerKey(c.ID), raw, 0)
		pipe.RPush(ctx, s.customersKey(), c.ID)
	}
	for _, o := range data.Orders {
		raw, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("failed to marshal order %d: %w", o.ID, err)
		}
		pipe.Set(ctx, s.orderKey(o.ID), raw, 0)
		pipe.RPush(ctx, s.ordersKey(), o.ID)
		pipe.RPush(ctx, s.customerOrdersKey(o.CustomerID), o.ID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to load into redis: %w", err)
	}
	return nil
}

// FindCustomer returns the customer with id.
func (s *Store) FindCustomer(ctx context.Context, id int) (model.Customer, error) {
	var c model.Customer
	if err := s.get(ctx, s.customerKey(id), &c); err != nil {
		return model.Customer{}, err
	}
	return c, nil
}

// ListCustomers returns every customer in insertion order.
func (s *Store) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	return list[model.Customer](ctx, s, s.customersKey(), s.customerKey)
}

// FindOrder returns the order with id.
func (s *Store) FindOrder(ctx context.Context, id int) (model.Order, error) {
	var o model.Order
	if err := s.get(ctx, s.orderKey(id), &o); err != nil {
		return model.Order{}, err
	}
	return o, nil
}

// OrdersByCustomer returns the orders placed by customerID.
func (s *Store) OrdersByCustomer(ctx context.Context, customerID int) ([]model.Order, error) {
	return list[model.Order](ctx, s, s.customerOrdersKey(customerID), s.orderKey)
}

// ListOrders returns every order in insertion order.
func (s *Store) ListOrders(ctx context.Context) ([]model.Order, error) {
	return list[model.Order](ctx, s, s.ordersKey(), s.orderKey)
}

func (s *Store) get(ctx context.Context, key string, out any) error {
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return apperr.ErrNotFound
		}
		return fmt.Errorf("failed to get %s from redis: %w", key, err)
	}
	if err := json.Unmarshal(val, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

// list resolves the ids held by listKey. Ids whose entity is gone are skipped.
func list[T any](ctx context.Context, s *Store, listKey string, entityKey func(int) string) ([]T, error) {
	ids, err := s.client.LRange(ctx, listKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from redis: %w", listKey, err)
	}
	out := make([]T, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt id %q in %s: %w", raw, listKey, err)
		}
		keys = append(keys, entityKey(id))
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read entities from redis: %w", err)
	}
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var item T
		if err := json.Unmarshal([]byte(str), &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", keys[i], err)
		}
		out = append(out, item)
	}
	return out, nil
}
