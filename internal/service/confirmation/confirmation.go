// Package confirmation implements the post-payment reconciliation flow.
//
// The browser lands on the "payment complete" page holding a public invoice
// token. Arrival there is gated on the payment itself, but the invoice
// record is updated by the processor webhook and may still lag behind. The
// flow fetches the record best-effort and degrades to a detail-free
// acknowledgment instead of ever surfacing an error: the payment happened,
// only the read may have failed.
package confirmation

import (
	"context"
	"strings"
	"time"

	"github.com/ledgerbook/portal/internal/logger"
	"github.com/ledgerbook/portal/internal/models"
)

type Fetcher interface {
	FetchInvoice(ctx context.Context, token string) (models.Invoice, error)
}

type Config struct {
	// Hard cap on fetch attempts per mount. Defaults to 1 (no retry);
	// anything above it is a short, bounded reconciliation window, never
	// open-ended polling.
	Attempts int

	// Fixed delay between attempts
	RetryDelay time.Duration
}

const defaultRetryDelay = 2 * time.Second

// Result is always an acknowledgment. Invoice is nil when the detail could
// not be fetched; the status and totals inside are rendered exactly as the
// platform recorded them.
type Result struct {
	Acknowledged bool
	Invoice      *models.Invoice

	// Display-only correlation reference (e.g. processor session ID),
	// never used for authorization
	PaymentRef string
}

type Service struct {
	attempts   int
	retryDelay time.Duration

	fetcher Fetcher
	logger  logger.Logger
}

func NewService(cfg Config, fetcher Fetcher, logger logger.Logger) *Service {
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}

	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}

	return &Service{
		attempts:   attempts,
		retryDelay: retryDelay,
		fetcher:    fetcher,
		logger:     logger,
	}
}

// Reconcile fetches the invoice for one mount of the confirmation page.
// It never returns an error: every failure degrades to an acknowledgment
// without detail. Read-only; nothing is mutated anywhere.
func (s *Service) Reconcile(ctx context.Context, invoiceToken string, paymentRef string) Result {
	result := Result{Acknowledged: true, PaymentRef: paymentRef}

	// Malformed input never reaches the platform
	if strings.TrimSpace(invoiceToken) == "" {
		s.logger.Debug("Confirmation mounted without invoice token")
		return result
	}

	for attempt := 1; attempt <= s.attempts; attempt++ {
		invoice, err := s.fetcher.FetchInvoice(ctx, invoiceToken)
		if err == nil {
			result.Invoice = &invoice
			return result
		}

		s.logger.Info("Invoice fetch failed, degrading softly",
			"error", err,
			"attempt", attempt,
			"attempts", s.attempts,
		)

		if attempt == s.attempts {
			break
		}

		select {
		case <-ctx.Done():
			return result
		case <-time.After(s.retryDelay):
		}
	}

	return result
}
