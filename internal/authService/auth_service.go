package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"

	"code.cloudfoundry.org/clock"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// AuthService issues and verifies access tokens and manages accounts
type AuthService struct {
	store    repository.AuctionStore
	clock    clock.Clock
	secret   []byte
	tokenTTL time.Duration
}

// NewAuthService creates a new AuthService instance
func NewAuthService(store repository.AuctionStore, clk clock.Clock, secret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		store:    store,
		clock:    clk,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// Register creates a new account with a bcrypt-hashed password
func (s *AuthService) Register(ctx context.Context, name, email, password string) (models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	switch {
	case name == "":
		return models.User{}, fmt.Errorf("service: %w - name is required", auctionerrors.ErrValidation)
	case email == "" || !strings.Contains(email, "@"):
		return models.User{}, fmt.Errorf("service: %w - a valid email is required", auctionerrors.ErrValidation)
	case len(password) < 8:
		return models.User{}, fmt.Errorf("service: %w - password must be at least 8 characters", auctionerrors.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("service: failed to hash password: %w", err)
	}

	u := models.User{
		UserID:       utils.GenerateID(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now().UTC(),
	}

	if err := s.store.CreateUser(ctx, u); err != nil {
		return models.User{}, fmt.Errorf("service: failed to create user: %w", err)
	}
	return u, nil
}

// Login verifies credentials and returns a signed access token. Banned
// accounts cannot log in.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", models.User{}, fmt.Errorf("service: %w", auctionerrors.ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", models.User{}, fmt.Errorf("service: %w", auctionerrors.ErrInvalidCredentials)
	}
	if u.IsBanned {
		return "", models.User{}, fmt.Errorf("service: %w", auctionerrors.ErrBanned)
	}

	now := s.clock.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  u.UserID,
		"type": "access",
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", models.User{}, fmt.Errorf("service: failed to sign token: %w", err)
	}

	lastLogin := now
	u.LastLogin = &lastLogin
	if err := s.store.UpdateUser(ctx, u); err != nil {
		// Last-login bookkeeping must not block the login itself.
		utils.Warn("failed to record last login", map[string]any{
			"user_id": u.UserID,
			"error":   err.Error(),
		})
	}
	return signed, u, nil
}

// Authenticate resolves a bearer token to its account. The user record is
// loaded fresh so bans take effect immediately, not at token expiry.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (models.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return models.User{}, fmt.Errorf("service: %w - invalid or expired token", auctionerrors.ErrInvalidCredentials)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["type"] != "access" {
		return models.User{}, fmt.Errorf("service: %w - invalid token claims", auctionerrors.ErrInvalidCredentials)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return models.User{}, fmt.Errorf("service: %w - invalid token subject", auctionerrors.ErrInvalidCredentials)
	}

	u, err := s.store.GetUserByID(ctx, sub)
	if err != nil {
		return models.User{}, fmt.Errorf("service: %w - unknown account", auctionerrors.ErrInvalidCredentials)
	}
	if u.IsBanned {
		return models.User{}, fmt.Errorf("service: %w", auctionerrors.ErrBanned)
	}
	return u, nil
}

// SetBanned flips the banned flag on an account. Admin only.
func (s *AuthService) SetBanned(ctx context.Context, actor models.User, userID string, banned bool) (models.User, error) {
	if !actor.IsAdmin {
		return models.User{}, fmt.Errorf("service: %w - only admins may ban accounts", auctionerrors.ErrForbidden)
	}

	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("service: %w", err)
	}
	u.IsBanned = banned
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return models.User{}, fmt.Errorf("service: failed to update user %s: %w", userID, err)
	}
	return u, nil
}
