package models

import (
	"github.com/shopspring/decimal"
)

const (
	InvoiceStatusUnpaid        = "unpaid"
	InvoiceStatusPartiallyPaid = "partially_paid"
	InvoiceStatusPaid          = "paid"
	InvoiceStatusVoid          = "void"
)

// Money is a decimal amount that always renders with cents. Plain
// decimal.Decimal trims trailing zeros in JSON, turning 100.00 into "100"
// on the wire.
type Money struct {
	decimal.Decimal
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.StringFixed(2) + `"`), nil
}

// Invoice is the public reference resource fetched by its opaque token.
// Status and totals reflect whatever the platform has recorded so far;
// right after a payment they may still predate the processor webhook.
type Invoice struct {
	Number       string `json:"number"`
	Status       string `json:"status"`
	Total        Money  `json:"total"`
	AmountPaid   Money  `json:"amount_paid"`
	BalanceDue   Money  `json:"balance_due"`
	ContactName  string `json:"contact_name"`
	Organization string `json:"organization,omitempty"`
}
