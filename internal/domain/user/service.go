package user

import (
	"context"
	"errors"

	"checkoutcore/internal/apperr"
	"checkoutcore/internal/auth"
)

// TokenPair is what Login hands back to cmd/api. Refresh returns only the
// new access token string and never rotates the refresh token, matching
// the HTTP surface's `POST /users/refresh` returning only a new access token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Patch carries the mutable subset of a User for profile updates.
type Patch struct {
	Name  *string
	Phone *string
}

func (u *User) apply(p Patch) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
}

// Service covers registration, login, token refresh, logout, and profile
// maintenance. Refresh tokens are stateless: the token engine verifies
// them, and the revocation list is the only server-side state a logout
// leaves behind.
type Service struct {
	users      Store
	tokens     auth.TokenEngine
	revocation auth.RevocationList
}

func NewService(users Store, tokens auth.TokenEngine, revocation auth.RevocationList) *Service {
	return &Service{users: users, tokens: tokens, revocation: revocation}
}

// Register creates a new user. Only an admin caller may request a
// non-customer role; anyone else requesting one is rejected.
func (s *Service) Register(ctx context.Context, email, name, phone, password string, requestedRole Role, requestedByAdmin bool) (*User, error) {
	role := RoleCustomer
	if requestedRole != "" && requestedRole != RoleCustomer {
		if !requestedByAdmin {
			return nil, apperr.Forbidden("admin role required to request role %q", requestedRole)
		}
		role = requestedRole
	}

	u := &User{Email: email, Name: name, Phone: phone, Role: role}
	if err := u.Password.Set(password); err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "hash password", err)
	}

	created, err := s.users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, apperr.Conflict("a user with email %q already exists", email)
		}
		return nil, apperr.Repo(err)
	}
	return created, nil
}

// Login verifies email/password and issues a fresh access/refresh pair.
func (s *Service) Login(ctx context.Context, email, password string) (*User, TokenPair, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, TokenPair{}, apperr.New(apperr.KindAuth, "invalid email or password")
		}
		return nil, TokenPair{}, apperr.Repo(err)
	}
	if !u.Password.Matches(password) {
		return nil, TokenPair{}, apperr.New(apperr.KindAuth, "invalid email or password")
	}
	if !u.IsActive {
		return nil, TokenPair{}, apperr.New(apperr.KindAuth, "account is deactivated")
	}

	access, refresh, err := s.tokens.IssuePair(u.ID, string(u.Role))
	if err != nil {
		return nil, TokenPair{}, apperr.Wrap(apperr.KindUnknown, "issue tokens", err)
	}

	return u, TokenPair{AccessToken: access.Raw, RefreshToken: refresh.Raw}, nil
}

// Refresh verifies a refresh token (signature, type, revocation) and
// issues a new access token. The presented refresh token stays valid
// until it expires or is explicitly revoked via Logout.
func (s *Service) Refresh(ctx context.Context, rawRefreshToken string) (string, error) {
	claims, err := s.tokens.Verify(rawRefreshToken, auth.TokenRefresh)
	if err != nil {
		return "", mapTokenError(err)
	}

	revoked, err := s.revocation.IsRevoked(ctx, claims.JTI)
	if err != nil {
		return "", apperr.Repo(err)
	}
	if revoked {
		return "", apperr.New(apperr.KindAuth, "refresh token has been revoked")
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", apperr.New(apperr.KindAuth, "user no longer exists")
		}
		return "", apperr.Repo(err)
	}

	access, _, err := s.tokens.IssuePair(u.ID, string(u.Role))
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnknown, "issue access token", err)
	}
	return access.Raw, nil
}

// Logout revokes a refresh token's jti for the remainder of its lifetime.
func (s *Service) Logout(ctx context.Context, rawRefreshToken string) error {
	claims, err := s.tokens.Verify(rawRefreshToken, auth.TokenRefresh)
	if err != nil {
		return mapTokenError(err)
	}
	if err := s.revocation.Revoke(ctx, claims.JTI, claims.ExpiresAt); err != nil {
		return apperr.Repo(err)
	}
	return nil
}

// LogoutAccess revokes an access token's jti, for clients that want the
// current access token invalidated immediately rather than waiting for
// its short expiry.
func (s *Service) LogoutAccess(ctx context.Context, rawAccessToken string) error {
	claims, err := s.tokens.Verify(rawAccessToken, auth.TokenAccess)
	if err != nil {
		return mapTokenError(err)
	}
	if err := s.revocation.Revoke(ctx, claims.JTI, claims.ExpiresAt); err != nil {
		return apperr.Repo(err)
	}
	return nil
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpired):
		return apperr.New(apperr.KindAuth, "token expired")
	case errors.Is(err, auth.ErrWrongType):
		return apperr.New(apperr.KindAuth, "wrong token type presented")
	case errors.Is(err, auth.ErrMalformed):
		return apperr.New(apperr.KindUnprocessable, "malformed token")
	default:
		return apperr.New(apperr.KindAuth, "invalid token")
	}
}

// GetProfile resolves a user by id, ownership-checked unless the caller
// is an admin.
func (s *Service) GetProfile(ctx context.Context, id, requestingUserID int64, isAdmin bool) (*User, error) {
	if !isAdmin && id != requestingUserID {
		return nil, apperr.Forbidden("user %d does not belong to this caller", id)
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("user %d not found", id)
		}
		return nil, apperr.Repo(err)
	}
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id int64, patch Patch, requestingUserID int64, isAdmin bool) (*User, error) {
	if !isAdmin && id != requestingUserID {
		return nil, apperr.Forbidden("user %d does not belong to this caller", id)
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("user %d not found", id)
		}
		return nil, apperr.Repo(err)
	}
	u.apply(patch)
	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("user %d not found", id)
		}
		return nil, apperr.Repo(err)
	}
	return u, nil
}

func (s *Service) DeleteAccount(ctx context.Context, id, requestingUserID int64, isAdmin bool) error {
	if !isAdmin && id != requestingUserID {
		return apperr.Forbidden("user %d does not belong to this caller", id)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("user %d not found", id)
		}
		return apperr.Repo(err)
	}
	return nil
}

// MakeAdmin promotes a user to the admin role. Callers must already be
// gated to admin-only access (enforced by the HTTP layer's role
// middleware, not re-checked here).
func (s *Service) MakeAdmin(ctx context.Context, id int64) (*User, error) {
	if err := s.users.MakeAdmin(ctx, id); err != nil {
		if errors.Is(err, ErrAlreadyAdminOrMissing) {
			return nil, apperr.New(apperr.KindValidation, "user is already admin or does not exist")
		}
		return nil, apperr.Repo(err)
	}
	return s.users.GetByID(ctx, id)
}
