package checkout

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eakan-Git/Bookworm/api"
	"github.com/Eakan-Git/Bookworm/cart"
	apperrors "github.com/Eakan-Git/Bookworm/pkg/errors"
	"github.com/Eakan-Git/Bookworm/pkg/localstate"
)

// --- Test helpers ---

// memStore keeps local state in a map so tests run against a real cart
// service.
type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, apperrors.NotFound("state key", key)
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

var _ localstate.Store = (*memStore)(nil)

// fakeOrders scripts the backend's order endpoint.
type fakeOrders struct {
	order *api.Order
	err   error

	calls [][]api.OrderItem
}

func (f *fakeOrders) CreateOrder(_ context.Context, items []api.OrderItem) (*api.Order, error) {
	f.calls = append(f.calls, items)
	if f.err != nil {
		return nil, f.err
	}
	return f.order, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestFlow(t *testing.T, orders *fakeOrders) (*Flow, *cart.Service) {
	t.Helper()

	svc, err := cart.NewService(context.Background(), cart.NewStateRepository(newMemStore(), testLogger()), testLogger())
	require.NoError(t, err)
	return New(svc, orders, testLogger()), svc
}

func ptr(v float64) *float64 { return &v }

// ============================================================================
// PlaceOrder
// ============================================================================

func TestPlaceOrder_SubmitsEffectivePricesAndClearsCart(t *testing.T) {
	orders := &fakeOrders{order: &api.Order{ID: 100, Amount: 35}}
	flow, svc := newTestFlow(t, orders)
	ctx := context.Background()

	svc.Add(ctx, cart.Book{ID: 1, Title: "Dune", Price: 10}, 2)
	svc.Add(ctx, cart.Book{ID: 2, Title: "DDIA", Price: 20, DiscountPrice: ptr(15)}, 1)

	order, err := flow.PlaceOrder(ctx)

	require.NoError(t, err)
	assert.Equal(t, 100, order.ID)

	require.Len(t, orders.calls, 1)
	assert.Equal(t, []api.OrderItem{
		{BookID: 1, Quantity: 2, Price: 10},
		{BookID: 2, Quantity: 1, Price: 15},
	}, orders.calls[0])

	assert.Equal(t, 0, svc.LineCount(), "successful checkout empties the cart")
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	orders := &fakeOrders{}
	flow, _ := newTestFlow(t, orders)

	_, err := flow.PlaceOrder(context.Background())

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Empty(t, orders.calls, "an empty cart never reaches the backend")
}

func TestPlaceOrder_PriceMismatchReconcilesWithoutResubmit(t *testing.T) {
	orders := &fakeOrders{err: &api.PriceMismatchError{
		Message: "Price mismatch detected. The prices of some items have changed.",
		Mismatches: []api.PriceMismatch{
			{BookID: 1, ExpectedPrice: 10, ActualPrice: 12},
		},
	}}
	flow, svc := newTestFlow(t, orders)
	ctx := context.Background()

	svc.Add(ctx, cart.Book{ID: 1, Title: "Dune", Price: 10}, 2)
	svc.Add(ctx, cart.Book{ID: 2, Title: "DDIA", Price: 20}, 1)

	_, err := flow.PlaceOrder(ctx)

	var mismatch *api.PriceMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.ErrorIs(t, err, apperrors.ErrPriceMismatch)

	assert.Len(t, orders.calls, 1, "the order is not resubmitted automatically")

	// The cart survives with the backend's prices applied.
	active := svc.ActiveCart()
	assert.Equal(t, 12.0, active.Lines[active.FindIndex(1)].Price)
	assert.Equal(t, 20.0, active.Lines[active.FindIndex(2)].Price)
	assert.Equal(t, 2, svc.LineCount())
}

func TestPlaceOrder_OtherErrorLeavesCartUntouched(t *testing.T) {
	orders := &fakeOrders{err: apperrors.Network(assert.AnError)}
	flow, svc := newTestFlow(t, orders)
	ctx := context.Background()

	svc.Add(ctx, cart.Book{ID: 1, Price: 10}, 2)

	_, err := flow.PlaceOrder(ctx)

	assert.ErrorIs(t, err, apperrors.ErrNetwork)
	assert.Equal(t, 2, svc.Quantity(1))
	assert.Equal(t, 10.0, svc.Total()/2)
}
