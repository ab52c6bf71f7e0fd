package auth

import (
	"crypto/rsa"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RS256Engine signs tokens with an RSA keypair; verifiers only ever need
// the public key. Access and refresh tokens share one keypair but carry a
// distinct "typ" claim, so a refresh token can never be replayed as an
// access token even without a second key.
type RS256Engine struct {
	private    *rsa.PrivateKey
	public     *rsa.PublicKey
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewRS256Engine(private *rsa.PrivateKey, issuer, audience string, accessTTL, refreshTTL time.Duration) *RS256Engine {
	return &RS256Engine{
		private:    private,
		public:     &private.PublicKey,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (e *RS256Engine) IssuePair(userID int64, role string) (Token, Token, error) {
	now := time.Now()

	accessJTI := uuid.NewString()
	access, err := e.sign(userID, role, TokenAccess, accessJTI, now, e.accessTTL)
	if err != nil {
		return Token{}, Token{}, err
	}

	refreshJTI := uuid.NewString()
	refresh, err := e.sign(userID, role, TokenRefresh, refreshJTI, now, e.refreshTTL)
	if err != nil {
		return Token{}, Token{}, err
	}

	return access, refresh, nil
}

func (e *RS256Engine) sign(userID int64, role string, typ TokenType, jti string, now time.Time, ttl time.Duration) (Token, error) {
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

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	raw, err := token.SignedString(e.private)
	if err != nil {
		return Token{}, err
	}
	return Token{Raw: raw, JTI: jti, ExpiresAt: exp}, nil
}

func (e *RS256Engine) Verify(raw string, want TokenType) (Claims, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, ErrBadSignature
		}
		return e.public, nil
	}, jwt.WithExpirationRequired(), jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name}))

	return claimsFromParsed(parsed, err, want)
}
