package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// HS256Engine signs tokens with a shared secret, one secret per token
// type so a leaked refresh secret cannot mint access tokens.
type HS256Engine struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	audience      string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewHS256Engine(accessSecret, refreshSecret, issuer, audience string, accessTTL, refreshTTL time.Duration) *HS256Engine {
	return &HS256Engine{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		issuer:        issuer,
		audience:      audience,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (e *HS256Engine) IssuePair(userID int64, role string) (Token, Token, error) {
	now := time.Now()

	accessJTI := uuid.NewString()
	access, err := e.sign(userID, role, TokenAccess, accessJTI, now, e.accessTTL, e.accessSecret)
	if err != nil {
		return Token{}, Token{}, err
	}

	refreshJTI := uuid.NewString()
	refresh, err := e.sign(userID, role, TokenRefresh, refreshJTI, now, e.refreshTTL, e.refreshSecret)
	if err != nil {
		return Token{}, Token{}, err
	}

	return access, refresh, nil
}

func (e *HS256Engine) sign(userID int64, role string, typ TokenType, jti string, now time.Time, ttl time.Duration, secret []byte) (Token, error) {
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"typ":  string(typ),
		"jti":  jti,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
		"iss":  e.issuer,
		"aud":  e.audience,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := token.SignedString(secret)
	if err != nil {
		return Token{}, err
	}
	return Token{Raw: raw, JTI: jti, ExpiresAt: exp}, nil
}

func (e *HS256Engine) Verify(raw string, want TokenType) (Claims, error) {
	secret := e.accessSecret
	if want == TokenRefresh {
		secret = e.refreshSecret
	}

	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadSignature
		}
		return secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))

	return claimsFromParsed(parsed, err, want)
}
