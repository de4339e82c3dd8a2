package confirmation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ledgerbook/portal/internal/logger"
	"github.com/ledgerbook/portal/internal/models"
	"github.com/ledgerbook/portal/internal/platform"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls int

	// responses[i] answers call i; the last response repeats
	responses []func() (models.Invoice, error)
}

func (f *fakeFetcher) FetchInvoice(ctx context.Context, token string) (models.Invoice, error) {
	f.mu.Lock()
	i := f.calls
	f.calls++
	f.mu.Unlock()

	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i]()
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func unpaidInvoice() models.Invoice {
	return models.Invoice{
		Number:      "INV-0042",
		Status:      models.InvoiceStatusUnpaid,
		Total:       models.Money{Decimal: decimal.RequireFromString("100.00")},
		AmountPaid:  models.Money{Decimal: decimal.Zero},
		BalanceDue:  models.Money{Decimal: decimal.RequireFromString("100.00")},
		ContactName: "Jane Doe",
	}
}

func found(inv models.Invoice) func() (models.Invoice, error) {
	return func() (models.Invoice, error) { return inv, nil }
}

func notFound() (models.Invoice, error) {
	return models.Invoice{}, platform.NewError(platform.KindNotFound, "", errors.New("404"))
}

func transient() (models.Invoice, error) {
	return models.Invoice{}, platform.NewError(platform.KindTransient, "", errors.New("502"))
}

func TestReconcile(t *testing.T) {
	t.Parallel()

	noopLogger := logger.NewNoOpLogger()

	t.Run("renders fetched invoice as recorded", func(t *testing.T) {
		// Webhook lag: record still says unpaid right after the payment
		fetcher := &fakeFetcher{responses: []func() (models.Invoice, error){found(unpaidInvoice())}}
		s := NewService(Config{}, fetcher, noopLogger)

		result := s.Reconcile(t.Context(), "inv_xyz", "cs_123")

		require.True(t, result.Acknowledged)
		require.NotNil(t, result.Invoice)
		require.Equal(t, models.InvoiceStatusUnpaid, result.Invoice.Status, "status must be shown as fetched, never assumed paid")
		require.True(t, result.Invoice.Total.Equal(decimal.RequireFromString("100.00")))
		require.True(t, result.Invoice.BalanceDue.Equal(decimal.RequireFromString("100.00")))
		require.Equal(t, "cs_123", result.PaymentRef)
	})

	t.Run("not found degrades to acknowledgment without detail", func(t *testing.T) {
		fetcher := &fakeFetcher{responses: []func() (models.Invoice, error){notFound}}
		s := NewService(Config{}, fetcher, noopLogger)

		result := s.Reconcile(t.Context(), "inv_xyz", "")

		require.True(t, result.Acknowledged, "soft failure is still an acknowledgment")
		require.Nil(t, result.Invoice, "detail section should be omitted")
	})

	t.Run("transient error degrades to acknowledgment without detail", func(t *testing.T) {
		fetcher := &fakeFetcher{responses: []func() (models.Invoice, error){transient}}
		s := NewService(Config{}, fetcher, noopLogger)

		result := s.Reconcile(t.Context(), "inv_xyz", "")

		require.True(t, result.Acknowledged)
		require.Nil(t, result.Invoice)
	})

	t.Run("blank token short-circuits", func(t *testing.T) {
		tests := []struct {
			name  string
			token string
		}{
			{name: "empty", token: ""},
			{name: "whitespace", token: "  "},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				fetcher := &fakeFetcher{responses: []func() (models.Invoice, error){found(unpaidInvoice())}}
				s := NewService(Config{}, fetcher, noopLogger)

				result := s.Reconcile(t.Context(), tt.token, "cs_123")

				require.True(t, result.Acknowledged)
				require.Nil(t, result.Invoice)
				require.Zero(t, fetcher.callCount(), "missing token must not trigger an external call")
			})
		}
	})

	t.Run("default policy is a single attempt", func(t *testing.T) {
		fetcher := &fakeFetcher{responses: []func() (models.Invoice, error){transient}}
		s := NewService(Config{}, fetcher, noopLogger)

		s.Reconcile(t.Context(), "inv_xyz", "")

		require.Equal(t, 1, fetcher.callCount())
	})

	t.Run("retry is capped at configured attempts", func(t *testing.T) {
		fetcher := &fakeFetcher{responses: []func() (models.Invoice, error){transient}}
		s := NewService(Config{Attempts: 3, RetryDelay: time.Millisecond}, fetcher, noopLogger)

		result := s.Reconcile(t.Context(), "inv_xyz", "")

		require.Equal(t, 3, fetcher.callCount(), "attempts are a hard cap")
		require.Nil(t, result.Invoice)
	})

	t.Run("retry succeeds on later attempt", func(t *testing.T) {
		fetcher := &fakeFetcher{responses: []func() (models.Invoice, error){
			notFound,
			found(unpaidInvoice()),
		}}
		s := NewService(Config{Attempts: 3, RetryDelay: time.Millisecond}, fetcher, noopLogger)

		result := s.Reconcile(t.Context(), "inv_xyz", "")

		require.Equal(t, 2, fetcher.callCount(), "retry should stop on first success")
		require.NotNil(t, result.Invoice)
		require.Equal(t, "INV-0042", result.Invoice.Number)
	})

	t.Run("context cancel stops the retry window", func(t *testing.T) {
		fetcher := &fakeFetcher{responses: []func() (models.Invoice, error){transient}}
		s := NewService(Config{Attempts: 5, RetryDelay: time.Minute}, fetcher, noopLogger)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		result := s.Reconcile(ctx, "inv_xyz", "")

		require.Equal(t, 1, fetcher.callCount(), "cancelled context should stop further attempts")
		require.True(t, result.Acknowledged)
		require.Nil(t, result.Invoice)
	})
}
