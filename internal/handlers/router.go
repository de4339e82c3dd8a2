package handlers

import (
	"net/http"

	"github.com/ledgerbook/portal/internal/handlers/middleware"
	"github.com/ledgerbook/portal/internal/logger"
	"github.com/ledgerbook/portal/internal/service/confirmation"
	"github.com/ledgerbook/portal/internal/service/login"
	"github.com/ledgerbook/portal/internal/session"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

// Services collects everything the API needs. The login flow only ever
// sees the Establisher slice of the store; reads go through the session
// middleware.
type Services struct {
	Exchanger    login.Exchanger
	LoginConfig  login.Config
	Sessions     session.Store
	Tokens       session.TokenLog
	Cookies      *session.CookieManager
	Confirmation *confirmation.Service
}

func NewRouter(s Services, logger logger.Logger) http.Handler {
	sessionMiddleware := middleware.SessionMiddleware(s.Cookies, s.Sessions)
	withSession := func(h http.Handler) http.Handler {
		return sessionMiddleware(h)
	}

	api := http.NewServeMux()

	api.Handle("POST /auth/verify", handleVerify(s, logger))
	api.Handle("POST /auth/logout", handleLogout(s, logger))
	api.Handle("GET /me", withSession(handleMe()))
	api.Handle("GET /checkout/confirmed", handleConfirmed(s.Confirmation))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	return chain(root,
		middleware.LoggerMiddleware(logger),
	)
}
