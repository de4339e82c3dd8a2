package handlers

import (
	"net/http"

	"github.com/ledgerbook/portal/internal/handlers/render"
	"github.com/ledgerbook/portal/internal/models"
	"github.com/ledgerbook/portal/internal/service/confirmation"
)

// handleConfirmed backs the post-payment confirmation page.
//
// It always answers 200: reaching this page is gated on the payment having
// happened, so a missing or lagging invoice record degrades to an
// acknowledgment without the detail block, never to an error.
func handleConfirmed(svc *confirmation.Service) http.Handler {
	type ConfirmedResponse struct {
		Acknowledged bool            `json:"acknowledged"`
		PaymentRef   string          `json:"payment_ref,omitempty"`
		Invoice      *models.Invoice `json:"invoice,omitempty"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		result := svc.Reconcile(r.Context(), query.Get("invoice"), query.Get("session_id"))

		render.JSON(w, ConfirmedResponse{
			Acknowledged: result.Acknowledged,
			PaymentRef:   result.PaymentRef,
			Invoice:      result.Invoice,
		})
	})
}
