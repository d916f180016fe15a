package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dohyunkim/moneytree/internal/domain"
)

const (
	// AccessTokenTTL is how long an access token stays valid.
	AccessTokenTTL = 60 * time.Minute
	// RefreshTokenTTL is how long a refresh token stays valid.
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// Tokens issues and decodes HS256 JWTs whose sub claim carries the owner
// id.
type Tokens struct {
	key []byte
}

// NewTokens constructs a token issuer over the signing key.
func NewTokens(key []byte) *Tokens {
	return &Tokens{key: key}
}

func (t *Tokens) issue(ownerID int64, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(ownerID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", domain.E(domain.KindDependency, "sign token", err)
	}
	return signed, nil
}

// IssueAccess issues a short-lived access token.
func (t *Tokens) IssueAccess(ownerID int64) (string, error) {
	return t.issue(ownerID, AccessTokenTTL)
}

// IssueRefresh issues a long-lived refresh token.
func (t *Tokens) IssueRefresh(ownerID int64) (string, error) {
	return t.issue(ownerID, RefreshTokenTTL)
}

// Decode validates a token and returns the owner id from its sub claim.
// Expired, malformed, or mis-signed tokens fail with Unauthorized.
func (t *Tokens) Decode(token string) (int64, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.Unauthorizedf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.key, nil
	})
	if err != nil {
		return 0, domain.Unauthorizedf("invalid token")
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return 0, domain.Unauthorizedf("invalid token")
	}
	ownerID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, domain.Unauthorizedf("invalid token")
	}
	return ownerID, nil
}
