package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliamunaev/order-chain/internal/apperr"
	"github.com/iliamunaev/order-chain/internal/directive"
	"github.com/iliamunaev/order-chain/internal/logging"
	"github.com/iliamunaev/order-chain/internal/metrics"
	"github.com/iliamunaev/order-chain/internal/model"
)

// --- stubs for unit tests ---

type stubCustomers struct {
	gotID        int
	gotDirective directive.Directive
	err          error
	deadline     time.Duration
}

func (s *stubCustomers) Customer(ctx context.Context, id int, d directive.Directive) (model.CustomerResponse, error) {
	s.gotID, s.gotDirective = id, d
	if dl, ok := ctx.Deadline(); ok {
		s.deadline = time.Until(dl)
	}
	if s.err != nil {
		return model.CustomerResponse{}, s.err
	}
	return model.CustomerResponse{Customer: model.Customer{ID: id, Name: "Hari"}, Orders: []model.OrderView{}}, nil
}

func (s *stubCustomers) ListCustomers(context.Context) ([]model.Customer, error) {
	return []model.Customer{{ID: 1, Name: "Aakash"}}, s.err
}

func (s *stubCustomers) Fail(code int) error {
	if code == 0 {
		code = http.StatusInternalServerError
	}
	return &apperr.InjectedFailure{Service: "customers", Status: code}
}

type stubOrders struct{ panicOn bool }

func (s *stubOrders) CustomerOrders(context.Context, int, directive.Directive) ([]model.OrderView, error) {
	if s.panicOn {
		panic("boom")
	}
	return []model.OrderView{{OrderID: 4, ProductName: "250g, Bru Coffee"}}, nil
}

func (s *stubOrders) ListOrders(context.Context) ([]model.Order, error) { return []model.Order{}, nil }

func (s *stubOrders) FindOrder(_ context.Context, id int) ([]model.Order, error) {
	return []model.Order{{ID: id, CustomerID: 1}}, nil
}

type stubTracking struct{}

func (stubTracking) Track(_ context.Context, orderID int, d directive.Directive) (model.Tracking, error) {
	if d.ShouldActHere("tracking") && d.Fail {
		return model.Tracking{}, &apperr.InjectedFailure{Service: "tracking", Status: d.FailureCode}
	}
	return model.Tracking{OrderID: orderID, TrackingID: 1, Partner: "FEDEX", Status: "DELIVERED"}, nil
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func errorKindOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out model.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Status != "error" || out.Error == nil {
		t.Fatalf("expected an error body, got %+v", out)
	}
	return out.Error.Kind
}

// --- unit tests (stub-based) ---

func TestCustomersRouter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		target     string
		svcErr     error
		wantStatus int
		wantKind   string
	}{
		{name: "customer", method: http.MethodGet, target: "/customers/4", wantStatus: http.StatusOK},
		{name: "list", method: http.MethodGet, target: "/customers", wantStatus: http.StatusOK},
		{name: "non numeric id", method: http.MethodGet, target: "/customers/x", wantStatus: http.StatusBadRequest, wantKind: "bad_request"},
		{
			name:       "invalid directive",
			method:     http.MethodGet,
			target:     "/customers/4?emulateFailure=yes&httpFailureCode=200",
			wantStatus: http.StatusBadRequest,
			wantKind:   "bad_request",
		},
		{name: "not found", method: http.MethodGet, target: "/customers/9", svcErr: apperr.ErrNotFound, wantStatus: http.StatusNotFound, wantKind: "not_found"},
		{
			name:       "upstream timeout",
			method:     http.MethodGet,
			target:     "/customers/4",
			svcErr:     &apperr.UpstreamTimeoutError{Service: "orders", Cause: errors.New("i/o timeout")},
			wantStatus: http.StatusRequestTimeout,
			wantKind:   "upstream_timeout",
		},
		{name: "own deadline", method: http.MethodGet, target: "/customers/4", svcErr: context.DeadlineExceeded, wantStatus: http.StatusGatewayTimeout, wantKind: "timeout"},
		{name: "error default", method: http.MethodPost, target: "/error", wantStatus: http.StatusInternalServerError, wantKind: "injected_failure"},
		{name: "error code", method: http.MethodPost, target: "/error/429", wantStatus: http.StatusTooManyRequests, wantKind: "injected_failure"},
		{name: "error code not numeric", method: http.MethodPost, target: "/error/teapot", wantStatus: http.StatusBadRequest, wantKind: "bad_request"},
		{name: "unknown route", method: http.MethodGet, target: "/nope", wantStatus: http.StatusNotFound, wantKind: "not_found"},
		{name: "wrong method", method: http.MethodDelete, target: "/customers/4", wantStatus: http.StatusMethodNotAllowed, wantKind: "method_not_allowed"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewCustomersRouter(&stubCustomers{err: tt.svcErr}, Options{})
			rec := serve(h, tt.method, tt.target)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.wantKind == "" {
				return
			}
			assert.Equal(t, tt.wantKind, errorKindOf(t, rec))
		})
	}
}

func TestCustomersRouter_PassesDirectiveAndDeadline(t *testing.T) {
	t.Parallel()

	svc := &stubCustomers{}
	h := NewCustomersRouter(svc, Options{RequestTimeout: time.Second})

	rec := serve(h, http.MethodGet, "/customers/4?customizeBehaviorTargetApp=orders&emulateDelay=YES&delayInMs=50")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 4, svc.gotID)
	assert.Equal(t, directive.Directive{Target: "orders", Delay: true, DelayMillis: 50}, svc.gotDirective)
	assert.Greater(t, svc.deadline, time.Duration(0))
	assert.LessOrEqual(t, svc.deadline, time.Second)
	assert.NotEmpty(t, rec.Header().Get(logging.RequestIDHeader))
}

func TestOrdersRouter(t *testing.T) {
	t.Parallel()

	h := NewOrdersRouter(&stubOrders{}, Options{})

	rec := serve(h, http.MethodGet, "/customer-orders/4")
	require.Equal(t, http.StatusOK, rec.Code)
	var views []model.OrderView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&views))
	assert.Len(t, views, 1)

	rec = serve(h, http.MethodGet, "/orders/3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":3,"customer_id":1,"product_name":""}]`, rec.Body.String())

	rec = serve(h, http.MethodGet, "/orders")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestOrdersRouter_RecoversPanic(t *testing.T) {
	t.Parallel()

	h := NewOrdersRouter(&stubOrders{panicOn: true}, Options{})
	rec := serve(h, http.MethodGet, "/customer-orders/4")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTrackingRouter(t *testing.T) {
	t.Parallel()

	h := NewTrackingRouter(stubTracking{}, Options{})

	rec := serve(h, http.MethodGet, "/order-tracking/7")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"order_id":7,"tracking_id":1,"partner":"FEDEX","status":"DELIVERED"}`, rec.Body.String())

	rec = serve(h, http.MethodGet, "/order-tracking/7?emulateFailure=yes&httpFailureCode=503")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "injected_failure", errorKindOf(t, rec))
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	m := metrics.New("tracking", nil)
	h := NewTrackingRouter(stubTracking{}, Options{Metrics: m})

	rec := serve(h, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	serve(h, http.MethodGet, "/order-tracking/1")
	rec = serve(h, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/order-tracking/{order-id}"`)
}

func TestNew_NilServicePanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for nil service")
		}
	}()
	NewTrackingRouter(nil, Options{})
}

func TestNewServer_DefaultTimeout(t *testing.T) {
	t.Parallel()

	s, _ := newServer(Options{})
	if s.requestTimeout != DefaultRequestTimeout {
		t.Fatalf("expected default timeout %v, got %v", DefaultRequestTimeout, s.requestTimeout)
	}
}
