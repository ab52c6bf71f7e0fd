package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var ErrNoCredential = errors.New("auth: no bearer credential presented")
var ErrRevoked = errors.New("auth: token has been revoked")

// Principal is the authenticated identity attached to a request context.
type Principal struct {
	UserID int64
	Role   string
	JTI    string
}

// Authenticator decodes a bearer credential into a Principal: read the
// Authorization header first, fall back to a cookie, then verify the
// signature and check revocation.
type Authenticator struct {
	engine     TokenEngine
	revocation RevocationList
}

func NewAuthenticator(engine TokenEngine, revocation RevocationList) *Authenticator {
	return &Authenticator{engine: engine, revocation: revocation}
}

func BearerFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if c, err := r.Cookie("access_token"); err == nil {
		return c.Value
	}
	return ""
}

func (a *Authenticator) Authenticate(ctx context.Context, raw string) (Principal, error) {
	if raw == "" {
		return Principal{}, ErrNoCredential
	}

	claims, err := a.engine.Verify(raw, TokenAccess)
	if err != nil {
		return Principal{}, err
	}

	revoked, err := a.revocation.IsRevoked(ctx, claims.JTI)
	if err != nil {
		return Principal{}, err
	}
	if revoked {
		return Principal{}, ErrRevoked
	}

	return Principal{UserID: claims.UserID, Role: claims.Role, JTI: claims.JTI}, nil
}

// Logout revokes the access token's jti for the remainder of its lifetime.
func (a *Authenticator) Logout(ctx context.Context, raw string) error {
	claims, err := a.engine.Verify(raw, TokenAccess)
	if err != nil {
		return err
	}
	return a.revocation.Revoke(ctx, claims.JTI, claims.ExpiresAt)
}
