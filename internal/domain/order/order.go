// Package order describes the order creation request sent at checkout.
package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Simulated payment instrument attached to every order. No real card data is
// ever collected by the storefront.
const (
	TestCardNumber         = "1111222233334444"
	TestCardHolderName     = "TESTUSER"
	TestCardSecurityNumber = "111"
)

// CheckoutInfo is the shipping and payment selection entered by the buyer.
// A zero RequestID is replaced with a fresh one when the checkout starts.
type CheckoutInfo struct {
	RequestID  uuid.UUID
	City       string
	Street     string
	State      string
	Country    string
	ZipCode    string
	CardTypeID int
}

// Item is a priced order line.
type Item struct {
	ID          string
	ProductID   int
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// CreateOrderRequest is submitted to the ordering service.
type CreateOrderRequest struct {
	UserID             string
	UserName           string
	City               string
	Street             string
	State              string
	Country            string
	ZipCode            string
	CardNumber         string
	CardHolderName     string
	CardExpiration     time.Time
	CardSecurityNumber string
	CardTypeID         int
	Buyer              string
	Items              []Item
}

// Submitter creates orders. requestID is the idempotency key of the attempt.
type Submitter interface {
	Submit(ctx context.Context, req CreateOrderRequest, requestID uuid.UUID) error
}
