package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// claimsFromParsed turns a parsed *jwt.Token (and its parse error, if any)
// into Claims, normalizing jwt/v5's error wrapping into our own sentinels.
func claimsFromParsed(parsed *jwt.Token, err error, want TokenType) (Claims, error) {
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrBadSignature
		default:
			return Claims{}, ErrMalformed
		}
	}
	if parsed == nil || !parsed.Valid {
		return Claims{}, ErrMalformed
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrMalformed
	}

	sub, ok := mc["sub"]
	if !ok {
		return Claims{}, ErrMalformed
	}
	userID, err := toInt64(sub)
	if err != nil {
		return Claims{}, ErrMalformed
	}

	typRaw, _ := mc["typ"].(string)
	typ := TokenType(typRaw)
	if typ != want {
		return Claims{}, ErrWrongType
	}

	role, _ := mc["role"].(string)
	switch Role(role) {
	case RoleAdmin, RoleCustomer:
	default:
		return Claims{}, ErrMalformed
	}

	jti, _ := mc["jti"].(string)

	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return Claims{}, ErrMalformed
	}
	iat, _ := mc.GetIssuedAt()

	claims := Claims{
		UserID:    userID,
		Role:      role,
		Type:      typ,
		JTI:       jti,
		ExpiresAt: exp.Time,
	}
	if iat != nil {
		claims.IssuedAt = iat.Time
	}
	return claims, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	case string:
		var id int64
		if _, err := fmt.Sscan(n, &id); err != nil {
			return 0, errBadSubject
		}
		return id, nil
	default:
		return 0, errBadSubject
	}
}

var errBadSubject = errors.New("auth: bad subject claim")
