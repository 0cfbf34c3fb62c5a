// Package session issues and verifies the signed session token carried in
// the "token" cookie. It is stateless: nothing is persisted and revoking a
// session only clears the cookie.
package session

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"jobsync/marketplace-service/internal/marketplace"
)

// CookieName is the cookie holding the session token.
const CookieName = "token"

// Lifetime is the fixed validity window of an issued token.
const Lifetime = 365 * 24 * time.Hour

// Claims are the signed contents of a session token.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies session tokens.
type Authenticator struct {
	secret     []byte
	production bool
	now        func() time.Time
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithClock replaces time.Now, used by tests to move across the expiry.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) { a.now = now }
}

// NewAuthenticator returns an Authenticator signing with secret. production
// switches the cookie to Secure + SameSite=None.
func NewAuthenticator(secret string, production bool, opts ...Option) *Authenticator {
	a := &Authenticator{secret: []byte(secret), production: production, now: time.Now}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Issue signs a token for id, valid for Lifetime.
func (a *Authenticator) Issue(id marketplace.Identity) (string, error) {
	now := a.now()
	claims := Claims{
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(Lifetime)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns the identity
// it carries. Any failure is reported as marketplace.ErrUnauthorized.
func (a *Authenticator) Verify(token string) (marketplace.Identity, error) {
	if token == "" {
		return marketplace.Identity{}, marketplace.ErrUnauthorized
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return marketplace.Identity{}, fmt.Errorf("%w: %v", marketplace.ErrUnauthorized, err)
	}
	if claims.Email == "" {
		return marketplace.Identity{}, fmt.Errorf("%w: token carries no email", marketplace.ErrUnauthorized)
	}
	return marketplace.Identity{Email: claims.Email}, nil
}

// SetCookie writes a freshly issued token for id to w.
func (a *Authenticator) SetCookie(w http.ResponseWriter, id marketplace.Identity) error {
	token, err := a.Issue(id)
	if err != nil {
		return err
	}
	c := a.cookie(token)
	c.Expires = a.now().Add(Lifetime)
	c.MaxAge = int(Lifetime / time.Second)
	http.SetCookie(w, c)
	return nil
}

// Revoke returns an already-expired cookie that makes the client drop its
// session.
func (a *Authenticator) Revoke() *http.Cookie {
	c := a.cookie("")
	c.Expires = time.Unix(0, 0)
	c.MaxAge = -1
	return c
}

// ClearCookie writes the revoking cookie to w.
func (a *Authenticator) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, a.Revoke())
}

func (a *Authenticator) cookie(value string) *http.Cookie {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.production,
		SameSite: http.SameSiteStrictMode,
	}
	if a.production {
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

// FromRequest verifies the session cookie of r.
func (a *Authenticator) FromRequest(r *http.Request) (marketplace.Identity, error) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return marketplace.Identity{}, marketplace.ErrUnauthorized
	}
	return a.Verify(c.Value)
}

// FromBearer verifies an "authorization: Bearer <token>" value.
func (a *Authenticator) FromBearer(header string) (marketplace.Identity, error) {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return marketplace.Identity{}, marketplace.ErrUnauthorized
	}
	return a.Verify(strings.TrimSpace(header[len(prefix):]))
}

// ─── Context helpers ─────────────────────────────────────────────────────────

type ctxKeyIdentity struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id marketplace.Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity{}, id)
}

// IdentityFrom returns the identity stored by WithIdentity.
func IdentityFrom(ctx context.Context) (marketplace.Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity{}).(marketplace.Identity)
	return id, ok && id.Email != ""
}
