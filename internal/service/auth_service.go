package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/Tomlord1122/family-todo/internal/auth"
	"github.com/Tomlord1122/family-todo/internal/domain"
	"github.com/Tomlord1122/family-todo/internal/repository"
)

// SignupRequest accepts both familyName and the older family_name key.
type SignupRequest struct {
	Email            string  `json:"email"`
	Password         string  `json:"password"`
	FamilyName       string  `json:"familyName"`
	LegacyFamilyName string  `json:"family_name"`
	FullName         *string `json:"fullName"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token    string `json:"token"`
	UserID   uint   `json:"userId"`
	FamilyID uint   `json:"familyId,omitempty"`
}

// AuthService registers users, logs them in and authenticates bearer tokens.
type AuthService interface {
	Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Authenticate(token string) (auth.AuthContext, error)
}

type authService struct {
	users  repository.UserRepository
	tokens *auth.TokenIssuer
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenIssuer) AuthService {
	return &authService{users: users, tokens: tokens}
}

func (s *authService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)
	familyName := strings.TrimSpace(req.FamilyName)
	if familyName == "" {
		familyName = strings.TrimSpace(req.LegacyFamilyName)
	}

	if email == "" || req.Password == "" || familyName == "" {
		return nil, invalid("email, password and family name are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("invalid email address")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     trimmedOrNil(req.FullName),
	}
	family, err := s.users.CreateWithFamily(ctx, user, familyName)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, UserID: user.ID, FamilyID: family.ID}, nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, invalid("email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, UserID: user.ID}, nil
}

func (s *authService) Authenticate(token string) (auth.AuthContext, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return auth.AuthContext{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return auth.AuthContext{
		UserID:  claims.UserID,
		Email:   claims.Email,
		TokenID: claims.ID,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
