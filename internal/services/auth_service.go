package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"driftchat/config"
	"driftchat/internal/domain/user"
	"driftchat/internal/repository"
	drift_errors "driftchat/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	users     repository.UserRepository
	jwtSecret []byte
	accessTTL time.Duration
}

func NewAuthService(users repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: []byte(cfg.JWTSecret),
		accessTTL: time.Duration(cfg.JWTExpiryMin) * time.Minute,
	}
}

type RegisterInput struct {
	Email       string
	Username    string
	Password    string
	DisplayName string
}

type LoginInput struct {
	Identity string
	Password string
}

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresIn   int64        `json:"expires_in"`
	User        user.Profile `json:"user"`
}

type AccessClaims struct {
	UserID string `json:"sub"`
	jwt.RegisteredClaims
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResponse, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	if in.Email == "" || in.Username == "" || len(in.Password) < 8 {
		return AuthResponse{}, drift_errors.ErrInvalidInput
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return AuthResponse{}, drift_errors.ErrAlreadyExists
	}
	if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
		return AuthResponse{}, drift_errors.ErrAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResponse{}, err
	}

	displayName := in.DisplayName
	if displayName == "" {
		displayName = in.Username
	}
	u := user.User{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		DisplayName:  displayName,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return AuthResponse{}, err
	}
	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResponse, error) {
	identity := strings.TrimSpace(in.Identity)
	if identity == "" || in.Password == "" {
		return AuthResponse{}, drift_errors.ErrInvalidInput
	}

	u, err := s.users.GetByEmail(ctx, strings.ToLower(identity))
	if errors.Is(err, drift_errors.ErrNotFound) {
		u, err = s.users.GetByUsername(ctx, identity)
	}
	if err != nil {
		return AuthResponse{}, drift_errors.ErrUnauthorized
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return AuthResponse{}, drift_errors.ErrUnauthorized
	}
	return s.issue(u)
}

func (s *AuthService) ParseAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, drift_errors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, drift_errors.ErrUnauthorized
	}
	return claims, nil
}

func (s *AuthService) issue(u user.User) (AuthResponse, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID: u.ID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return AuthResponse{}, err
	}
	return AuthResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.accessTTL.Seconds()),
		User:        u.Sanitized(),
	}, nil
}
