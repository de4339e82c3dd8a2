package session

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ledgerbook/portal/internal/models"
)

const defaultCookieName = "lb_session"

// Claims carried by the portal's session cookie. Only the session ID lives
// in the cookie; the session record itself stays in the store.
type cookieClaims struct {
	jwt.RegisteredClaims
	SessionID uuid.UUID `json:"sid"`
}

type CookieConfig struct {
	// Secret key to sign the cookie payload
	SecretKey string

	// Cookie name, defaults to "lb_session"
	Name string

	// Set the Secure attribute. Disable only for local development
	Secure bool
}

// CookieManager issues and reads the signed session cookie that ties a
// browser to its established session.
type CookieManager struct {
	key    string
	alg    jwt.SigningMethod
	name   string
	secure bool
}

func NewCookieManager(cfg CookieConfig) (*CookieManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	name := cfg.Name
	if name == "" {
		name = defaultCookieName
	}

	return &CookieManager{
		key:    cfg.SecretKey,
		alg:    jwt.SigningMethodHS256,
		name:   name,
		secure: cfg.Secure,
	}, nil
}

// SetSession writes the session cookie for an established session.
func (m *CookieManager) SetSession(w http.ResponseWriter, session models.Session) error {
	token := jwt.NewWithClaims(m.alg, cookieClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
		SessionID: session.ID,
	})

	signed, err := token.SignedString([]byte(m.key))
	if err != nil {
		return fmt.Errorf("error while signing session cookie. Err: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    signed,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// ClearSession expires the session cookie.
func (m *CookieManager) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionID parses and validates the session cookie from the request.
func (m *CookieManager) SessionID(r *http.Request) (uuid.UUID, error) {
	cookie, err := r.Cookie(m.name)
	if err != nil {
		return uuid.Nil, fmt.Errorf("session cookie not found. Err: %w", err)
	}

	claims := &cookieClaims{}
	token, err := jwt.ParseWithClaims(
		cookie.Value,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(m.key), nil },
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
	)

	switch {
	case err != nil:
		return uuid.Nil, fmt.Errorf("error parsing session cookie. Err: %w", err)
	case !token.Valid:
		return uuid.Nil, errors.New("session cookie is not valid")
	default:
		return claims.SessionID, nil
	}
}
