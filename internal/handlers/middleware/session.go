package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/ledgerbook/portal/internal/handlers/render"
	"github.com/ledgerbook/portal/internal/handlers/sessionctx"
	"github.com/ledgerbook/portal/internal/models"
)

type cookieParser interface {
	SessionID(r *http.Request) (uuid.UUID, error)
}

type sessionReader interface {
	Get(ctx context.Context, id uuid.UUID) (models.Session, error)
}

// SessionMiddleware resolves the session cookie to an established session
// and puts it into the request context. Requests without a valid, live
// session are rejected; the middleware never creates sessions.
func SessionMiddleware(cookies cookieParser, sessions sessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := cookies.SessionID(r)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			session, err := sessions.Get(r.Context(), id)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := sessionctx.New(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
