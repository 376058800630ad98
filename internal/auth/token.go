package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bazaar-market/apiserver/types"
)

// Token verification failures. Callers must be able to tell these apart from
// the absence of a credential, which never reaches the issuer at all.
var (
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenInvalidSignature = errors.New("token signature invalid")
	ErrTokenMalformed        = errors.New("token malformed")
)

type tokenClaims struct {
	UserID   int    `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies bearer identity claims with a server-held
// symmetric secret. Tokens are stateless; expiry is the only termination
// mechanism.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue returns a signed token carrying the claims and an expiration.
func (i *TokenIssuer) Issue(claims types.Claims) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		UserID:   claims.UserID,
		Username: claims.Username,
		IsAdmin:  claims.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	})
	return token.SignedString(i.secret)
}

// Verify validates the token and returns the claims it carries. Failures are
// reported as ErrTokenExpired, ErrTokenInvalidSignature or ErrTokenMalformed.
func (i *TokenIssuer) Verify(tokenString string) (types.Claims, error) {
	claims := tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalidSignature
		}
		return i.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return types.Claims{}, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, ErrTokenInvalidSignature):
			return types.Claims{}, ErrTokenInvalidSignature
		default:
			return types.Claims{}, ErrTokenMalformed
		}
	}
	if !token.Valid || claims.UserID < 1 {
		return types.Claims{}, ErrTokenMalformed
	}
	return types.Claims{
		UserID:   claims.UserID,
		Username: claims.Username,
		IsAdmin:  claims.IsAdmin,
	}, nil
}
