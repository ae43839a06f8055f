// Package checkout turns the active cart into an order and deals with the
// backend's stale-price rejection.
package checkout

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Eakan-Git/Bookworm/api"
	"github.com/Eakan-Git/Bookworm/cart"
	apperrors "github.com/Eakan-Git/Bookworm/pkg/errors"
)

// Cart is the slice of the cart service the flow needs.
type Cart interface {
	ActiveCart() cart.Cart
	ReconcilePrices(ctx context.Context, corrections []cart.PriceCorrection)
	ClearActiveCart(ctx context.Context)
}

// OrdersAPI submits orders to the backend.
type OrdersAPI interface {
	CreateOrder(ctx context.Context, items []api.OrderItem) (*api.Order, error)
}

// Flow coordinates order placement between the cart and the backend.
type Flow struct {
	cart   Cart
	orders OrdersAPI
	logger *slog.Logger
}

// New creates a checkout flow.
func New(cart Cart, orders OrdersAPI, logger *slog.Logger) *Flow {
	return &Flow{cart: cart, orders: orders, logger: logger}
}

// PlaceOrder submits the active cart. Each line is sent with its effective
// price, the one the user saw. On a price-mismatch rejection the cart is
// reconciled to the backend's prices and the *api.PriceMismatchError is
// returned; the order is never resubmitted automatically, the user confirms
// the new prices first. On success the active cart is cleared.
func (f *Flow) PlaceOrder(ctx context.Context) (*api.Order, error) {
	active := f.cart.ActiveCart()
	if active.IsEmpty() {
		return nil, apperrors.InvalidInput("cannot place an order with an empty cart")
	}

	items := make([]api.OrderItem, 0, active.LineCount())
	for _, line := range active.Lines {
		items = append(items, api.OrderItem{
			BookID:   line.BookID,
			Quantity: line.Quantity,
			Price:    line.EffectivePrice(),
		})
	}

	order, err := f.orders.CreateOrder(ctx, items)
	if err != nil {
		var mismatch *api.PriceMismatchError
		if errors.As(err, &mismatch) {
			corrections := make([]cart.PriceCorrection, 0, len(mismatch.Mismatches))
			for _, m := range mismatch.Mismatches {
				corrections = append(corrections, cart.PriceCorrection{
					BookID:      m.BookID,
					ActualPrice: m.ActualPrice,
				})
			}
			f.cart.ReconcilePrices(ctx, corrections)

			f.logger.WarnContext(ctx, "order rejected with stale prices, cart reconciled",
				slog.Int("mismatches", len(corrections)),
			)
		}
		return nil, err
	}

	f.cart.ClearActiveCart(ctx)

	f.logger.InfoContext(ctx, "order placed",
		slog.Int("order_id", order.ID),
		slog.Int("lines", len(items)),
	)
	return order, nil
}
