// Package platform implements the client for the Ledgerbook platform API:
// the external authority for magic-link token exchange and the source of
// truth for public invoice records.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ledgerbook/portal/internal/apperrors"
	"github.com/ledgerbook/portal/internal/logger"
	"github.com/ledgerbook/portal/internal/models"
)

const (
	// The authority explicitly rejected the token (expired, consumed, unknown)
	KindRejected = "rejected"

	// Resource does not exist (or not yet: webhook lag may hide a fresh one)
	KindNotFound = "not-found"

	// Network or server error, no definitive answer
	KindTransient = "transient"
)

const requestTimeout = 5 * time.Second

type Error struct {
	Kind string

	// Human-readable message from the platform, may be empty
	Message string

	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("kind: %s, message: %q, error: %v", e.Kind, e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	switch e.Kind {
	case KindRejected:
		return apperrors.ErrTokenRejected
	case KindNotFound:
		return apperrors.ErrInvoiceNotFound
	default:
		return apperrors.ErrUpstreamUnavailable
	}
}

func NewError(kind string, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// SessionGrant is what the platform returns for a valid single-use token
type SessionGrant struct {
	Credential string         `json:"session_token"`
	Contact    models.Contact `json:"contact"`
}

type Client struct {
	BaseURL string

	client *http.Client
	logger logger.Logger
}

func NewClient(baseURL string, logger logger.Logger) *Client {
	return &Client{
		BaseURL: baseURL,
		client:  &http.Client{},
		logger:  logger,
	}
}

// ExchangeToken redeems a single-use magic-link token for a session grant.
//
// The call is not safely repeatable: the platform invalidates the token on
// first redemption, so replays come back as KindRejected. Callers must
// guard against issuing it twice for the same mount.
func (c *Client) ExchangeToken(ctx context.Context, token string) (SessionGrant, error) {
	var grant SessionGrant

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return grant, NewError(KindTransient, "", fmt.Errorf("failed to encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/v1/auth/sessions", bytes.NewReader(body))
	if err != nil {
		return grant, NewError(KindTransient, "", fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return grant, NewError(KindTransient, "", fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close() // nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
			c.logger.Warn("Failed to decode exchange response", "error", err)
			return grant, NewError(KindTransient, "", fmt.Errorf("failed to decode response: %w", err))
		}
		c.logger.Debug("Token exchanged", "contact", grant.Contact.Name)
		return grant, nil

	case http.StatusUnauthorized, http.StatusNotFound, http.StatusGone:
		return grant, NewError(KindRejected, c.readErrorMessage(resp), fmt.Errorf("token rejected with status %d", resp.StatusCode))

	default:
		c.logger.Warn("Unexpected status from token exchange", "status_code", resp.StatusCode)
		return grant, NewError(KindTransient, "", fmt.Errorf("unexpected status code %d", resp.StatusCode))
	}
}

// FetchInvoice reads the public invoice record by its opaque token.
//
// The record is updated by the payment processor webhook, so right after a
// payment it may still carry the pre-payment status and totals. That is
// not an error; the caller renders whatever came back.
func (c *Client) FetchInvoice(ctx context.Context, token string) (models.Invoice, error) {
	var invoice models.Invoice

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/v1/public/invoices/"+token, nil)
	if err != nil {
		return invoice, NewError(KindTransient, "", fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return invoice, NewError(KindTransient, "", fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close() // nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(&invoice); err != nil {
			c.logger.Warn("Failed to decode invoice response", "error", err)
			return invoice, NewError(KindTransient, "", fmt.Errorf("failed to decode response: %w", err))
		}
		c.logger.Debug("Invoice fetched", "number", invoice.Number, "status", invoice.Status)
		return invoice, nil

	case http.StatusNotFound:
		return invoice, NewError(KindNotFound, "", fmt.Errorf("no invoice for token"))

	default:
		c.logger.Warn("Unexpected status from invoice fetch", "status_code", resp.StatusCode)
		return invoice, NewError(KindTransient, "", fmt.Errorf("unexpected status code %d", resp.StatusCode))
	}
}

func (c *Client) readErrorMessage(resp *http.Response) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ""
	}
	return body.Message
}
