package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tokenrace/tokenrace/internal/dependencies/clock"
	"github.com/tokenrace/tokenrace/internal/model"
	"github.com/tokenrace/tokenrace/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Claims is the JWT payload issued on login and verified on every
// websocket handshake and authenticated API request.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Config holds configuration for the auth service
type Config struct {
	// Secret signs and verifies tokens (HS256)
	Secret string
	// TokenTTL is how long issued tokens stay valid
	TokenTTL time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		TokenTTL: 7 * 24 * time.Hour,
	}
}

// Service handles registration, login and token verification
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	cfg     Config
	logger  *slog.Logger
}

// New creates a new auth service
func New(storage storage.Storage, clock clock.Clock, cfg Config, logger *slog.Logger) *Service {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = DefaultConfig().TokenTTL
	}
	return &Service{
		storage: storage,
		clock:   clock,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "auth")),
	}
}

// Register creates a new user account. Emails are lowercased so the
// by-email lookup has one canonical key.
func (s *Service) Register(ctx context.Context, email, username, password string) (*model.User, error) {
	email = strings.ToLower(email)

	_, err := s.storage.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, model.ErrEmailTaken
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           model.UserID("u_" + uuid.NewString()),
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now(),
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("user_id", string(user.ID)))
	return user, nil
}

// Login verifies credentials and issues a signed token
func (s *Service) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.storage.GetUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// VerifyToken validates a bearer token and yields the identity it carries.
// This is the only credential check the realtime core performs; it runs
// once at handshake time, not per message.
func (s *Service) VerifyToken(tokenString string) (model.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil || !token.Valid {
		return model.Identity{}, ErrInvalidToken
	}

	if claims.UserID == "" {
		return model.Identity{}, ErrInvalidToken
	}

	return model.Identity{
		UserID: model.UserID(claims.UserID),
		Email:  claims.Email,
	}, nil
}

func (s *Service) issueToken(user *model.User) (string, error) {
	now := s.clock.Now()

	claims := Claims{
		UserID: string(user.ID),
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.Secret))
}
