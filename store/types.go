// Package store holds the XML-RPC messages of a small shop service. The
// types carry xmlrpc tags only; prices go through a constructor declared
// at runtime (see NewPrice).
package store

import (
	"time"
)

// PlaceOrder is the request of shop.placeOrder.
type PlaceOrder struct {
	_ struct{} `xmlrpc:"request"`

	Customer Customer    `xmlrpc:"index=0"`
	Items    []OrderItem `xmlrpc:"index=1"`
	Note     *string     `xmlrpc:"index=2"`
}

// OrderReceipt is the response of shop.placeOrder.
type OrderReceipt struct {
	_ struct{} `xmlrpc:"response"`

	Order    Order    `xmlrpc:"index=0"`
	Warnings []string `xmlrpc:"index=1"`
}

// Customer places orders.
type Customer struct {
	_ struct{} `xmlrpc:"struct"`

	ID       int64   `xmlrpc:"key=id"`
	Email    string  `xmlrpc:"key=email"`
	FullName string  `xmlrpc:"key=name"`
	Address  *string `xmlrpc:"key=address"`
	IsActive bool    `xmlrpc:"key=active"`
}

// Order is a transaction made by a customer.
type Order struct {
	_ struct{} `xmlrpc:"struct"`

	ID         int64       `xmlrpc:"key=id"`
	CustomerID int64       `xmlrpc:"key=customer_id"`
	Status     OrderStatus `xmlrpc:"key=status"`
	Total      Price       `xmlrpc:"key=total"`
	Items      []OrderItem `xmlrpc:"key=items"`
	OrderedAt  time.Time   `xmlrpc:"key=ordered_at,via=iso8601"`
}

// OrderItem is one product line, sent as a positional array.
type OrderItem struct {
	_ struct{} `xmlrpc:"array"`

	ProductID int64  `xmlrpc:"index=0"`
	Quantity  int    `xmlrpc:"index=1"`
	UnitPrice int64  `xmlrpc:"index=2"`
	Name      string `xmlrpc:"-"` // filled from the catalog
}

// Price is an amount in the lowest currency unit. It is immutable once
// bound and can only be built through NewPrice.
type Price struct {
	_ struct{} `xmlrpc:"array"`

	Cents    int64  `xmlrpc:"index=0,final"`
	Currency string `xmlrpc:"index=1,final"`
}

// NewPrice builds a Price from its wire slots.
func NewPrice(cents int64, currency string) Price {
	if currency == "" {
		currency = "EUR"
	}

	return Price{Cents: cents, Currency: currency}
}

// Fault is the conventional XML-RPC fault struct.
type Fault struct {
	_ struct{} `xmlrpc:"struct"`

	Code    int    `xmlrpc:"key=faultCode"`
	Message string `xmlrpc:"key=faultString"`
}

// OrderStatus is a type-safe order state.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusCancelled OrderStatus = "CANCELLED"
)
