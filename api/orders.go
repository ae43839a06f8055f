package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/Eakan-Git/Bookworm/pkg/errors"
	"github.com/Eakan-Git/Bookworm/pkg/httpclient"
	"github.com/Eakan-Git/Bookworm/pkg/validator"
)

const ordersPath = "/api/v1/orders"

// OrderItem is one line of an order submission: the book, the quantity and
// the price the client last saw. The backend validates the price against
// the catalog and rejects the order when they diverge.
type OrderItem struct {
	BookID   int     `json:"book_id" validate:"required"`
	Quantity int     `json:"quantity" validate:"required,gte=1,lte=8"`
	Price    float64 `json:"price" validate:"gte=0"`
}

type orderRequest struct {
	OrderItems []OrderItem `json:"order_items" validate:"required,min=1,dive"`
}

// OrderLine is one line of a created order as stored by the backend.
type OrderLine struct {
	ID       int     `json:"id"`
	OrderID  int     `json:"order_id"`
	BookID   int     `json:"book_id"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order is a created order.
type Order struct {
	ID        int         `json:"id"`
	UserID    int         `json:"user_id"`
	OrderDate string      `json:"order_date,omitempty"`
	Amount    float64     `json:"order_amount"`
	Items     []OrderLine `json:"order_items"`
}

// PriceMismatch reports one book whose catalog price no longer matches what
// the client submitted.
type PriceMismatch struct {
	BookID        int     `json:"book_id"`
	ExpectedPrice float64 `json:"expected_price"`
	ActualPrice   float64 `json:"actual_price"`
}

// PriceMismatchError is the backend's stale-price rejection, carrying the
// authoritative prices so the caller can reconcile its cart.
type PriceMismatchError struct {
	Message    string
	Mismatches []PriceMismatch
}

func (e *PriceMismatchError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("order rejected: %d price mismatches", len(e.Mismatches))
}

func (e *PriceMismatchError) Unwrap() error {
	return apperrors.ErrPriceMismatch
}

// CreateOrder submits an order. A stale-price rejection comes back as a
// *PriceMismatchError; other non-2xx answers become regular AppErrors.
func (c *Client) CreateOrder(ctx context.Context, items []OrderItem) (*Order, error) {
	payload := orderRequest{OrderItems: items}
	if err := validator.Validate(payload); err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode order: %w", err)
	}

	resp, err := c.send(ctx, http.MethodPost, ordersPath, "application/json", body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusConflict {
		return nil, parseOrderRejection(resp)
	}

	var order Order
	if err := decodeJSON(resp, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// parseOrderRejection distinguishes a price-mismatch payload from any other
// 400/409 body.
func parseOrderRejection(resp *http.Response) error {
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("server returned status %d (failed to read body: %w)", resp.StatusCode, readErr)
	}

	var envelope struct {
		Detail struct {
			Message    string          `json:"message"`
			Mismatches []PriceMismatch `json:"mismatches"`
		} `json:"detail"`
	}
	if json.Unmarshal(body, &envelope) == nil && len(envelope.Detail.Mismatches) > 0 {
		return &PriceMismatchError{
			Message:    envelope.Detail.Message,
			Mismatches: envelope.Detail.Mismatches,
		}
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	return httpclient.ParseResponseError(resp)
}
