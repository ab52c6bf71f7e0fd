package auth

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// memRevocationList is an in-memory RevocationList for tests.
type memRevocationList struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	err     error
}

func newMemRevocationList() *memRevocationList {
	return &memRevocationList{revoked: make(map[string]time.Time)}
}

func (m *memRevocationList) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = expiresAt
	return nil
}

func (m *memRevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.revoked[jti]
	if !ok {
		return false, nil
	}
	if time.Now().After(exp) {
		delete(m.revoked, jti)
		return false, nil
	}
	return true, nil
}

func TestAuthenticateMissingCredential(t *testing.T) {
	t.Parallel()

	a := NewAuthenticator(newHS256(t, time.Minute, time.Hour), newMemRevocationList())
	if _, err := a.Authenticate(context.Background(), ""); err != ErrNoCredential {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	t.Parallel()

	engine := newHS256(t, time.Minute, time.Hour)
	a := NewAuthenticator(engine, newMemRevocationList())

	access, _, err := engine.IssuePair(7, "admin")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	p, err := a.Authenticate(context.Background(), access.Raw)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if p.UserID != 7 || p.Role != "admin" || p.JTI != access.JTI {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestAuthenticateRejectsRefreshToken(t *testing.T) {
	t.Parallel()

	engine := newRS256(t, time.Minute, time.Hour)
	a := NewAuthenticator(engine, newMemRevocationList())

	_, refresh, err := engine.IssuePair(7, "customer")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	if _, err := a.Authenticate(context.Background(), refresh.Raw); err != ErrWrongType {
		t.Fatalf("expected ErrWrongType, got %v", err)
	}
}

func TestAuthenticateRevoked(t *testing.T) {
	t.Parallel()

	engine := newHS256(t, time.Minute, time.Hour)
	revocation := newMemRevocationList()
	a := NewAuthenticator(engine, revocation)

	access, _, err := engine.IssuePair(7, "customer")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	if _, err := a.Authenticate(context.Background(), access.Raw); err != nil {
		t.Fatalf("authenticate before revocation: %v", err)
	}

	if err := a.Logout(context.Background(), access.Raw); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := a.Authenticate(context.Background(), access.Raw); err != ErrRevoked {
		t.Fatalf("expected ErrRevoked after logout, got %v", err)
	}
}

func TestRevocationExpiresWithToken(t *testing.T) {
	t.Parallel()

	revocation := newMemRevocationList()
	ctx := context.Background()

	if err := revocation.Revoke(ctx, "gone", time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err := revocation.IsRevoked(ctx, "gone")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatal("entry past its expiry must read as not revoked")
	}
}

func TestBearerFromRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{name: "header", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "case insensitive scheme", header: "bearer abc", want: "abc"},
		{name: "wrong scheme", header: "Basic abc", want: ""},
		{name: "no credential", want: ""},
		{name: "cookie fallback", cookie: "from-cookie", want: "from-cookie"},
		{name: "header wins over cookie", header: "Bearer from-header", cookie: "from-cookie", want: "from-header"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				r.Header.Set("Cookie", "access_token="+tc.cookie)
			}
			if got := BearerFromRequest(r); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPrincipalPolicies(t *testing.T) {
	t.Parallel()

	admin := Principal{UserID: 1, Role: string(RoleAdmin)}
	customer := Principal{UserID: 2, Role: string(RoleCustomer)}

	if !admin.IsAdmin() || customer.IsAdmin() {
		t.Fatal("IsAdmin misclassified a principal")
	}
	if !customer.HasRole(RoleCustomer) || customer.HasRole(RoleAdmin) {
		t.Fatal("HasRole misclassified a principal")
	}

	if !admin.OwnsResource(99) {
		t.Fatal("admin must pass any ownership check")
	}
	if !customer.OwnsResource(2) {
		t.Fatal("owner must pass their own ownership check")
	}
	if customer.OwnsResource(3) {
		t.Fatal("non-owner customer must fail the ownership check")
	}
}
