package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMoney_JSON(t *testing.T) {
	t.Run("keeps cents on marshal", func(t *testing.T) {
		raw, err := json.Marshal(Invoice{
			Number:     "INV-0042",
			Status:     InvoiceStatusUnpaid,
			Total:      Money{Decimal: decimal.RequireFromString("100.00")},
			AmountPaid: Money{Decimal: decimal.Zero},
			BalanceDue: Money{Decimal: decimal.RequireFromString("99.9")},
		})

		require.NoError(t, err)
		require.Contains(t, string(raw), `"total":"100.00"`, "trailing zeros should survive")
		require.Contains(t, string(raw), `"amount_paid":"0.00"`)
		require.Contains(t, string(raw), `"balance_due":"99.90"`)
	})

	t.Run("unmarshal keeps decimal semantics", func(t *testing.T) {
		var invoice Invoice

		err := json.Unmarshal([]byte(`{"total": "100.00", "amount_paid": 0, "balance_due": 100}`), &invoice)

		require.NoError(t, err)
		require.True(t, invoice.Total.Equal(decimal.RequireFromString("100.00")))
		require.True(t, invoice.AmountPaid.Equal(decimal.Zero))
		require.True(t, invoice.BalanceDue.Equal(decimal.RequireFromString("100")))
	})
}
