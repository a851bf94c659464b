package domain

import "github.com/shopspring/decimal"

// Side of an order.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// OrderStatus variants for a venue order result.
const (
	OrderStatusNew             = "NEW"
	OrderStatusPartiallyFilled = "PARTIALLY_FILLED"
	OrderStatusFilled          = "FILLED"
	OrderStatusCanceled        = "CANCELED"
	OrderStatusRejected        = "REJECTED"
)

// OrderResult is the fixed shape every connector must map its venue's
// order response into. All quantities are in base asset units.
type OrderResult struct {
	ID        string
	Status    string
	Filled    decimal.Decimal
	Remaining decimal.Decimal
}

// FullyFilled reports whether nothing is left open on the order.
func (r *OrderResult) FullyFilled() bool {
	return !r.Remaining.IsPositive()
}

// NoFill reports whether the order executed nothing at all.
func (r *OrderResult) NoFill() bool {
	return !r.Filled.IsPositive()
}

// Rejected reports whether the venue refused the order outright.
func (r *OrderResult) Rejected() bool {
	return r.Status == OrderStatusRejected
}
