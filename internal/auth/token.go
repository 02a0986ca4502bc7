package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/FreeNowOrg/BlogNow/internal/model"
)

const (
	// Issuer is stamped into every token
	Issuer = "blognow"

	sessionIDBytes = 16
)

// Claims binds a token to one account (aud) and one stored session id (jti).
type Claims struct {
	jwt.RegisteredClaims
}

// Account returns the audience account uuid, or "" if absent.
func (c *Claims) Account() string {
	if len(c.Audience) == 0 {
		return ""
	}
	return c.Audience[0]
}

// NewSessionID returns a fresh random session identifier.
func NewSessionID() (string, error) {
	return randomHex(sessionIDBytes)
}

// TokenSigner signs and parses HS256 bearer tokens.
type TokenSigner struct {
	secret []byte
}

func NewTokenSigner(secret string) *TokenSigner {
	return &TokenSigner{secret: []byte(secret)}
}

// Sign returns a token for accountUUID carrying sessionID.
func (s *TokenSigner) Sign(accountUUID, sessionID string, issuedAt, expires time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{accountUUID},
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse checks signature, algorithm, issuer and expiry. Every failure is
// reported as model.ErrInvalidToken.
func (s *TokenSigner) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, model.ErrInvalidToken
	}
	if claims.Account() == "" || claims.ID == "" {
		return nil, model.ErrInvalidToken
	}
	return claims, nil
}
