package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"strings"
	"testing"
	"time"
)

func newHS256(t *testing.T, accessTTL, refreshTTL time.Duration) *HS256Engine {
	t.Helper()
	return NewHS256Engine("test-access-secret-0123456789abcdef", "test-refresh-secret-0123456789abcdef", "checkoutcore", "checkoutcore-clients", accessTTL, refreshTTL)
}

func newRS256(t *testing.T, accessTTL, refreshTTL time.Duration) *RS256Engine {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return NewRS256Engine(key, "checkoutcore", "checkoutcore-clients", accessTTL, refreshTTL)
}

func engines(t *testing.T, accessTTL, refreshTTL time.Duration) map[string]TokenEngine {
	return map[string]TokenEngine{
		"HS256": newHS256(t, accessTTL, refreshTTL),
		"RS256": newRS256(t, accessTTL, refreshTTL),
	}
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	for name, engine := range engines(t, time.Minute, time.Hour) {
		t.Run(name, func(t *testing.T) {
			access, refresh, err := engine.IssuePair(42, "customer")
			if err != nil {
				t.Fatalf("issue pair: %v", err)
			}
			if access.JTI == "" || refresh.JTI == "" {
				t.Fatal("expected non-empty token ids")
			}
			if access.JTI == refresh.JTI {
				t.Fatal("access and refresh tokens must not share a token id")
			}

			claims, err := engine.Verify(access.Raw, TokenAccess)
			if err != nil {
				t.Fatalf("verify access: %v", err)
			}
			if claims.UserID != 42 || claims.Role != "customer" || claims.Type != TokenAccess {
				t.Fatalf("unexpected claims: %+v", claims)
			}
			if claims.JTI != access.JTI {
				t.Fatalf("jti mismatch: issued %q, decoded %q", access.JTI, claims.JTI)
			}

			rc, err := engine.Verify(refresh.Raw, TokenRefresh)
			if err != nil {
				t.Fatalf("verify refresh: %v", err)
			}
			if rc.Type != TokenRefresh {
				t.Fatalf("expected refresh type, got %s", rc.Type)
			}
		})
	}
}

func TestVerifyWrongType(t *testing.T) {
	t.Parallel()

	// RS256 shares one keypair across token types, so the mismatch is
	// caught by the typ claim. HS256 uses a secret per type, so the same
	// confusion already fails at the signature.
	t.Run("RS256", func(t *testing.T) {
		engine := newRS256(t, time.Minute, time.Hour)
		_, refresh, err := engine.IssuePair(1, "customer")
		if err != nil {
			t.Fatalf("issue pair: %v", err)
		}
		if _, err := engine.Verify(refresh.Raw, TokenAccess); err != ErrWrongType {
			t.Fatalf("expected ErrWrongType, got %v", err)
		}
	})
	t.Run("HS256", func(t *testing.T) {
		engine := newHS256(t, time.Minute, time.Hour)
		_, refresh, err := engine.IssuePair(1, "customer")
		if err != nil {
			t.Fatalf("issue pair: %v", err)
		}
		if _, err := engine.Verify(refresh.Raw, TokenAccess); err != ErrBadSignature {
			t.Fatalf("expected ErrBadSignature, got %v", err)
		}
	})
}

func TestVerifyExpired(t *testing.T) {
	t.Parallel()

	for name, engine := range engines(t, -time.Minute, -time.Minute) {
		t.Run(name, func(t *testing.T) {
			access, _, err := engine.IssuePair(1, "customer")
			if err != nil {
				t.Fatalf("issue pair: %v", err)
			}
			if _, err := engine.Verify(access.Raw, TokenAccess); err != ErrExpired {
				t.Fatalf("expected ErrExpired, got %v", err)
			}
		})
	}
}

func TestVerifyMalformed(t *testing.T) {
	t.Parallel()

	for name, engine := range engines(t, time.Minute, time.Hour) {
		t.Run(name, func(t *testing.T) {
			if _, err := engine.Verify("not-a-token", TokenAccess); err != ErrMalformed {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestVerifyBadSignature(t *testing.T) {
	t.Parallel()

	issuer := newHS256(t, time.Minute, time.Hour)
	other := NewHS256Engine("a-different-secret-0123456789abcdef", "a-different-refresh-0123456789abcdef", "checkoutcore", "checkoutcore-clients", time.Minute, time.Hour)

	access, _, err := issuer.IssuePair(1, "customer")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	if _, err := other.Verify(access.Raw, TokenAccess); err != ErrBadSignature {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	t.Parallel()

	engine := newHS256(t, time.Minute, time.Hour)
	access, _, err := engine.IssuePair(1, "superuser")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	if _, err := engine.Verify(access.Raw, TokenAccess); err != ErrMalformed {
		t.Fatalf("expected ErrMalformed for unknown role, got %v", err)
	}
}

func TestIssuePairMintsFreshTokenIDs(t *testing.T) {
	t.Parallel()

	engine := newHS256(t, time.Minute, time.Hour)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		access, refresh, err := engine.IssuePair(1, "customer")
		if err != nil {
			t.Fatalf("issue pair: %v", err)
		}
		for _, jti := range []string{access.JTI, refresh.JTI} {
			if seen[jti] {
				t.Fatalf("token id %q reused", jti)
			}
			seen[jti] = true
		}
	}
}

func TestTokenEnvelopeShape(t *testing.T) {
	t.Parallel()

	engine := newHS256(t, time.Minute, time.Hour)
	access, _, err := engine.IssuePair(1, "customer")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	if parts := strings.Split(access.Raw, "."); len(parts) != 3 {
		t.Fatalf("expected a three-part envelope, got %d parts", len(parts))
	}
}
