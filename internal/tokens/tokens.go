package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fitrank/fitrank-api/internal/config"
)

// ErrInvalid is returned for tokens that are malformed, carry a bad signature
// or lack the claims this service issues.
var ErrInvalid = errors.New("invalid token")

// Claims is the payload of both access and refresh tokens.
type Claims struct {
	UserID uint `json:"userId"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 access and refresh tokens.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewIssuer(cfg config.JWTConfig) *Issuer {
	return &Issuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		now:           time.Now,
	}
}

// WithClock replaces the time source; used by tests to move past expiry.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// RefreshTTL is the lifetime embedded in refresh tokens.
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// AccessTTL is the lifetime embedded in access tokens.
func (i *Issuer) AccessTTL() time.Duration { return i.accessTTL }

// AccessToken creates a signed short-lived token for the user.
func (i *Issuer) AccessToken(userID uint) (string, error) {
	return i.sign(userID, i.accessTTL, "", i.accessSecret)
}

// RefreshToken creates a signed long-lived token for the user. Each token gets
// a random jti so consecutive sessions never share a token string.
func (i *Issuer) RefreshToken(userID uint) (string, error) {
	return i.sign(userID, i.refreshTTL, uuid.NewString(), i.refreshSecret)
}

func (i *Issuer) sign(userID uint, ttl time.Duration, jti string, secret []byte) (string, error) {
	now := i.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// ParseAccess verifies the signature of an access token without rejecting it
// for being expired; callers decide what expiry means via Expired.
func (i *Issuer) ParseAccess(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, keyFunc(i.accessSecret),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if claims.ExpiresAt == nil || claims.UserID == 0 {
		return nil, fmt.Errorf("%w: missing claims", ErrInvalid)
	}
	return claims, nil
}

// Expired reports whether the token's exp lies in the past.
func (i *Issuer) Expired(c *Claims) bool {
	return !i.now().Before(c.ExpiresAt.Time)
}

// ParseRefresh fully validates a refresh token, expiry included.
func (i *Issuer) ParseRefresh(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, keyFunc(i.refreshSecret),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if claims.UserID == 0 {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalid)
	}
	return claims, nil
}

func keyFunc(secret []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}
}
