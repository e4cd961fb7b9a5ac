package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thereayou/lovenest/internal/database"
	"github.com/thereayou/lovenest/internal/models"
	"github.com/thereayou/lovenest/pkg/auth"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	FullName string `json:"full_name" binding:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	User      *models.User    `json:"user"`
	Profile   *models.Profile `json:"profile"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
}

type AuthService struct {
	db         *database.Database
	jwtManager *auth.JWTManager
	blacklist  *TokenBlacklist
}

func NewAuthService(db *database.Database, jwtManager *auth.JWTManager, blacklist *TokenBlacklist) *AuthService {
	return &AuthService{db: db, jwtManager: jwtManager, blacklist: blacklist}
}

// Register creates the account and its profile and signs the user in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.db.UserExists(email, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		fullName = req.Username
	}

	user := &models.User{
		Username:     req.Username,
		Email:        email,
		PasswordHash: string(hash),
		LastSeenAt:   time.Now(),
	}
	var profile *models.Profile
	err = s.db.Transaction(func(tx *database.Database) error {
		if err := tx.SaveUser(user); err != nil {
			return err
		}
		profile, err = tx.UpsertProfile(&models.Profile{UserID: user.ID, FullName: fullName})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issue(user, profile)
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.db.FindUserByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.db.UpdateLastSeen(user.ID); err != nil {
		return nil, fmt.Errorf("update last seen: %w", err)
	}

	profile, err := s.db.GetProfile(user.ID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}
	return s.issue(user, profile)
}

// Logout revokes token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	exp, err := s.jwtManager.Expiry(token)
	if err != nil {
		return auth.ErrInvalidToken
	}
	return s.blacklist.Revoke(ctx, token, exp)
}

func (s *AuthService) issue(user *models.User, profile *models.Profile) (*AuthResponse, error) {
	name := user.Username
	if profile != nil && profile.FullName != "" {
		name = profile.FullName
	}

	token, err := s.jwtManager.Generate(user.ID.String(), name)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	exp, err := s.jwtManager.Expiry(token)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{User: user, Profile: profile, Token: token, ExpiresAt: exp}, nil
}
