package handlers

import (
	"net/http"

	"github.com/ledgerbook/portal/internal/flow"
	"github.com/ledgerbook/portal/internal/handlers/render"
	"github.com/ledgerbook/portal/internal/handlers/sessionctx"
	"github.com/ledgerbook/portal/internal/logger"
	"github.com/ledgerbook/portal/internal/models"
	"github.com/ledgerbook/portal/internal/service/login"
)

// handleVerify runs one token exchange flow mount per request.
//
// The browser client shows its pending indicator while this request is in
// flight; the response tells it where to navigate and how long to keep the
// success acknowledgment on screen first.
func handleVerify(s Services, logger logger.Logger) http.Handler {
	type VerifyRequest struct {
		Token string `json:"token" validate:"required"`
	}
	type VerifySuccessResponse struct {
		Message         string         `json:"message"`
		Contact         models.Contact `json:"contact"`
		RedirectTo      string         `json:"redirect_to"`
		RedirectAfterMS int64          `json:"redirect_after_ms"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[VerifyRequest](w, r)
		if err != nil {
			// Malformed input never reaches the platform
			return
		}

		f := login.New(s.LoginConfig, s.Exchanger, s.Sessions, s.Tokens, nil, logger)
		defer f.Close()

		result := f.Run(r.Context(), data.Token)
		if result.State != flow.StateResolvedSuccess {
			render.ServiceError(w, result.Message, http.StatusUnauthorized)
			return
		}

		if err := s.Cookies.SetSession(w, result.Session); err != nil {
			logger.Error("Failed to set session cookie", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, VerifySuccessResponse{
			Message:         "Signed in successfully",
			Contact:         result.Session.Contact,
			RedirectTo:      result.NavigateTo,
			RedirectAfterMS: result.NavigateAfter.Milliseconds(),
		})
	})
}

func handleLogout(s Services, logger logger.Logger) http.Handler {
	type LogoutResponse struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Best effort: an invalid or missing cookie still clears client state
		if id, err := s.Cookies.SessionID(r); err == nil {
			if err := s.Sessions.Clear(r.Context(), id); err != nil {
				logger.Error("Failed to clear session", "error", err, "session_id", id)
			}
		}

		s.Cookies.ClearSession(w)
		render.JSON(w, LogoutResponse{Message: "Signed out"})
	})
}

func handleMe() http.Handler {
	type MeResponse struct {
		Contact models.Contact `json:"contact"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, MeResponse{Contact: session.Contact})
	})
}
