package customers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliamunaev/order-chain/internal/apperr"
	"github.com/iliamunaev/order-chain/internal/chain"
	"github.com/iliamunaev/order-chain/internal/directive"
	"github.com/iliamunaev/order-chain/internal/model"
	"github.com/iliamunaev/order-chain/internal/store"
	"github.com/iliamunaev/order-chain/internal/store/memory"
)

type stubOrders struct {
	called bool
	got    directive.Directive
	err    error
}

func (s *stubOrders) CustomerOrders(_ context.Context, customerID int, d directive.Directive) ([]model.OrderView, error) {
	s.called = true
	s.got = d
	if s.err != nil {
		return nil, s.err
	}
	return []model.OrderView{{OrderID: customerID * 10, ProductName: "p"}}, nil
}

func newService(t *testing.T, orders OrdersFetcher) *Service {
	t.Helper()
	st, err := memory.New(store.SeedData())
	require.NoError(t, err)
	return New(chain.NewHop(Name), st, orders)
}

func TestCustomer(t *testing.T) {
	t.Parallel()

	timeout := &apperr.UpstreamTimeoutError{Service: "orders"}

	tests := []struct {
		name       string
		id         int
		directive  directive.Directive
		ordersErr  error
		wantStatus int
		wantCalled bool
		wantFwd    directive.Directive
	}{
		{name: "plain", id: 2, wantStatus: http.StatusOK, wantCalled: true},
		{
			name:       "foreign directive forwarded",
			id:         2,
			directive:  directive.Directive{Target: "tracking", Fail: true, FailureCode: 500},
			wantStatus: http.StatusOK,
			wantCalled: true,
			wantFwd:    directive.Directive{Target: "tracking", Fail: true, FailureCode: 500},
		},
		{
			name:       "failure here",
			id:         2,
			directive:  directive.Directive{Target: "customers", Fail: true, FailureCode: 503},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "unknown customer wins over directive",
			id:         99,
			directive:  directive.Directive{Target: "customers", Fail: true, FailureCode: 503},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "orders timed out",
			id:         2,
			ordersErr:  timeout,
			wantStatus: http.StatusRequestTimeout,
			wantCalled: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			orders := &stubOrders{err: tt.ordersErr}
			resp, err := newService(t, orders).Customer(context.Background(), tt.id, tt.directive)

			assert.Equal(t, tt.wantStatus, apperr.HTTPStatus(err))
			assert.Equal(t, tt.wantCalled, orders.called)
			assert.Equal(t, tt.wantFwd, orders.got)
			if err == nil {
				assert.Equal(t, tt.id, resp.Customer.ID)
				assert.Equal(t, []model.OrderView{{OrderID: tt.id * 10, ProductName: "p"}}, resp.Orders)
			}
		})
	}
}

func TestListCustomers(t *testing.T) {
	t.Parallel()

	got, err := newService(t, &stubOrders{}).ListCustomers(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 7)
	assert.Equal(t, "Sameer", got[6].Name)
}

func TestFail(t *testing.T) {
	t.Parallel()

	svc := newService(t, &stubOrders{})

	tests := []struct {
		code int
		want int
	}{
		{code: 0, want: http.StatusInternalServerError},
		{code: 418, want: 418},
		{code: 503, want: 503},
		{code: 200, want: http.StatusBadRequest},
		{code: 408, want: http.StatusBadRequest},
		{code: 700, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, apperr.HTTPStatus(svc.Fail(tt.code)), "code %d", tt.code)
	}
}
