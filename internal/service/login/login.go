// Package login implements the magic-link token exchange flow.
//
// A flow instance corresponds to one mount of the "verifying your link"
// screen. It issues at most one exchange call against the platform, no
// matter how often its trigger re-fires, establishes the session on
// success, and reports a terminal success or failure state.
package login

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ledgerbook/portal/internal/apperrors"
	"github.com/ledgerbook/portal/internal/flow"
	"github.com/ledgerbook/portal/internal/logger"
	"github.com/ledgerbook/portal/internal/models"
	"github.com/ledgerbook/portal/internal/platform"
	"github.com/ledgerbook/portal/internal/session"
)

const (
	// Shown when the platform rejected the token without a message of its
	// own, and for malformed or transiently failing exchanges. The only
	// remedy in every case is requesting a fresh link.
	DefaultFailureMessage = "Invalid or expired login link"

	ConsumedFailureMessage = "This login link has already been used"

	defaultLandingTarget = "/dashboard"

	// Cosmetic: keeps the success acknowledgment visible before the client
	// navigates away. Correctness never depends on it.
	defaultNavigateDelay = 1500 * time.Millisecond
)

type Exchanger interface {
	ExchangeToken(ctx context.Context, token string) (platform.SessionGrant, error)
}

type Config struct {
	// Destination for the post-login navigation directive
	LandingTarget string

	// Delay before the scheduled navigation fires
	NavigateDelay time.Duration
}

// Result is the UI-visible outcome of a flow instance.
type Result struct {
	State   flow.State
	Message string

	// Set on success only
	Session       models.Session
	NavigateTo    string
	NavigateAfter time.Duration
}

// Flow is a single-mount token exchange instance. Create one per mount
// with New; a resolved instance never runs again.
type Flow struct {
	landingTarget string
	navigateDelay time.Duration

	exchanger Exchanger
	sessions  session.Establisher
	tokens    session.TokenLog // optional cross-restart replay guard
	nav       flow.Navigator   // optional
	logger    logger.Logger

	tracker flow.Tracker

	mu        sync.Mutex
	result    Result
	cancelNav func()
}

func New(cfg Config, exchanger Exchanger, sessions session.Establisher, tokens session.TokenLog, nav flow.Navigator, logger logger.Logger) *Flow {
	landing := cfg.LandingTarget
	if landing == "" {
		landing = defaultLandingTarget
	}

	delay := cfg.NavigateDelay
	if delay <= 0 {
		delay = defaultNavigateDelay
	}

	return &Flow{
		landingTarget: landing,
		navigateDelay: delay,
		exchanger:     exchanger,
		sessions:      sessions,
		tokens:        tokens,
		nav:           nav,
		logger:        logger,
	}
}

// Run drives the flow to a terminal state and returns it.
//
// Only the first call does any work: the exchange call is not safely
// repeatable (the platform invalidates tokens on redemption), so repeated
// or concurrent Run calls return the current result without touching the
// platform again.
func (f *Flow) Run(ctx context.Context, token string) Result {
	if !f.tracker.Begin() {
		return f.snapshot()
	}

	if strings.TrimSpace(token) == "" {
		return f.resolveFailure(DefaultFailureMessage)
	}

	if f.tokens != nil {
		err := f.tokens.MarkConsumed(ctx, session.HashToken(token))
		switch {
		case errors.Is(err, apperrors.ErrTokenAlreadyConsumed):
			f.logger.Warn("Login link replayed")
			return f.resolveFailure(ConsumedFailureMessage)
		case err != nil:
			// Log is advisory: the platform still enforces single use
			f.logger.Error("Failed to record token consumption", "error", err)
		}
	}

	grant, err := f.exchanger.ExchangeToken(ctx, token)
	if err != nil {
		f.logger.Warn("Token exchange failed", "error", err)
		return f.resolveFailure(failureMessage(err))
	}

	// Establish the session before anything becomes visible to navigation
	established, err := f.sessions.Establish(ctx, grant.Credential, grant.Contact)
	if err != nil {
		f.logger.Error("Failed to establish session", "error", err)
		return f.resolveFailure(DefaultFailureMessage)
	}

	f.logger.Info("Session established", "session_id", established.ID, "contact", established.Contact.Name)

	return f.resolveSuccess(established)
}

// Close tears down the instance: a scheduled navigation is cancelled so a
// torn-down mount never navigates. Safe to call at any point.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancelNav != nil {
		f.cancelNav()
	}
}

// State returns the current flow state.
func (f *Flow) State() flow.State {
	return f.tracker.State()
}

func (f *Flow) snapshot() Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.result.State == "" {
		return Result{State: f.tracker.State()}
	}
	return f.result
}

func (f *Flow) resolveFailure(message string) Result {
	f.tracker.Resolve(flow.StateResolvedFailure)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.result = Result{State: flow.StateResolvedFailure, Message: message}
	return f.result
}

func (f *Flow) resolveSuccess(established models.Session) Result {
	f.tracker.Resolve(flow.StateResolvedSuccess)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.result = Result{
		State:         flow.StateResolvedSuccess,
		Session:       established,
		NavigateTo:    f.landingTarget,
		NavigateAfter: f.navigateDelay,
	}

	if f.nav != nil {
		f.cancelNav = flow.ScheduleNavigation(f.nav, f.landingTarget, f.navigateDelay)
	}

	return f.result
}

// failureMessage maps an exchange error to the user-visible message.
// The platform's own message wins when it sent one.
func failureMessage(err error) string {
	var platformErr *platform.Error
	if errors.As(err, &platformErr) && platformErr.Kind == platform.KindRejected && platformErr.Message != "" {
		return platformErr.Message
	}

	return DefaultFailureMessage
}
