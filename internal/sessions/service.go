package sessions

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/fitrank/fitrank-api/internal/tokens"
)

var (
	ErrMissingAccessToken  = errors.New("access token is required")
	ErrInvalidToken        = errors.New("not a valid token")
	ErrMissingRefreshToken = errors.New("token has expired and no refresh token was provided")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// Pair is the result of a successful login.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Validation describes an authenticated request. When Refreshed is true,
// AccessToken is newly issued and should replace the client's cookie.
type Validation struct {
	UserID      uint
	AccessToken string
	Refreshed   bool
}

// Service implements the access/refresh token lifecycle on top of a Store.
type Service struct {
	store  Store
	issuer *tokens.Issuer
}

func NewService(store Store, issuer *tokens.Issuer) *Service {
	return &Service{store: store, issuer: issuer}
}

// IssueAccessToken signs a short-lived token; no side effects.
func (s *Service) IssueAccessToken(userID uint) (string, error) {
	return s.issuer.AccessToken(userID)
}

// IssueSession issues an access/refresh pair and stores the refresh token,
// replacing whatever session the user had before.
func (s *Service) IssueSession(ctx context.Context, userID uint) (*Pair, error) {
	access, err := s.issuer.AccessToken(userID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issuer.RefreshToken(userID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, userID, refresh, s.issuer.RefreshTTL()); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// ValidateAndRefresh authenticates an access token. An expired token is
// renewed when refresh matches the token stored for the embedded user.
func (s *Service) ValidateAndRefresh(ctx context.Context, access, refresh string) (*Validation, error) {
	if access == "" {
		return nil, ErrMissingAccessToken
	}
	claims, err := s.issuer.ParseAccess(access)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !s.issuer.Expired(claims) {
		return &Validation{UserID: claims.UserID, AccessToken: access}, nil
	}
	if refresh == "" {
		return nil, ErrMissingRefreshToken
	}
	if err := s.matchStored(ctx, claims.UserID, refresh); err != nil {
		return nil, err
	}
	next, err := s.issuer.AccessToken(claims.UserID)
	if err != nil {
		return nil, err
	}
	return &Validation{UserID: claims.UserID, AccessToken: next, Refreshed: true}, nil
}

// RefreshAccess exchanges a refresh token for a new access token.
func (s *Service) RefreshAccess(ctx context.Context, refresh string) (*Validation, error) {
	if refresh == "" {
		return nil, ErrMissingRefreshToken
	}
	claims, err := s.issuer.ParseRefresh(refresh)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	if err := s.matchStored(ctx, claims.UserID, refresh); err != nil {
		return nil, err
	}
	next, err := s.issuer.AccessToken(claims.UserID)
	if err != nil {
		return nil, err
	}
	return &Validation{UserID: claims.UserID, AccessToken: next, Refreshed: true}, nil
}

// Revoke deletes the user's stored refresh token. Safe to repeat.
func (s *Service) Revoke(ctx context.Context, userID uint) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

func (s *Service) matchStored(ctx context.Context, userID uint, presented string) error {
	stored, err := s.store.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("load refresh token: %w", err)
	}
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		return ErrInvalidRefreshToken
	}
	return nil
}
