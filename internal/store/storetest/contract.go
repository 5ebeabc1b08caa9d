// Package storetest holds the behavior every store.Store must share.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliamunaev/order-chain/internal/apperr"
	"github.com/iliamunaev/order-chain/internal/store"
)

// RunContract checks s against store.SeedData, which s must already hold.
func RunContract(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()
	seed := store.SeedData()

	t.Run("FindCustomer", func(t *testing.T) {
		c, err := s.FindCustomer(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, "Viren", c.Name)
	})

	t.Run("FindCustomer unknown", func(t *testing.T) {
		_, err := s.FindCustomer(ctx, 999)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("ListCustomers keeps order", func(t *testing.T) {
		got, err := s.ListCustomers(ctx)
		require.NoError(t, err)
		assert.Equal(t, seed.Customers, got)
	})

	t.Run("OrdersByCustomer", func(t *testing.T) {
		got, err := s.OrdersByCustomer(ctx, 4)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "250g, Bru Coffee", got[0].ProductName)
		assert.Equal(t, "500g, Nirma Detergent", got[1].ProductName)
	})

	t.Run("OrdersByCustomer unknown is empty", func(t *testing.T) {
		got, err := s.OrdersByCustomer(ctx, 999)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NotNil(t, got)
	})

	t.Run("FindOrder", func(t *testing.T) {
		o, err := s.FindOrder(ctx, 8)
		require.NoError(t, err)
		assert.Equal(t, 7, o.CustomerID)

		_, err = s.FindOrder(ctx, 0)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("ListOrders keeps order", func(t *testing.T) {
		got, err := s.ListOrders(ctx)
		require.NoError(t, err)
		assert.Equal(t, seed.Orders, got)
	})
}
