// Package service implements account registration, sign-in and profile lookup.
package service

import (
	"context"
	"strings"
	"time"

	"supaco_backend/internal/auth/password"
	"supaco_backend/internal/auth/repository"
	"supaco_backend/internal/events"
	"supaco_backend/platform/apperr"
	"supaco_backend/platform/config"
	"supaco_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const accessTokenType = "access"

const (
	msgCannotCreateAccount = "unable to create account"
	msgInvalidCredentials  = "invalid email or password"
)

// Result is returned by Register and Login.
type Result struct {
	Token string
	User  repository.User
}

// Service implements the account use cases.
type Service struct {
	repo     repository.Repository
	cfg      config.AuthServiceConfig
	eventBus events.Bus
	log      *logger.Logger
	now      func() time.Time
}

// New creates an auth service.
func New(repo repository.Repository, cfg config.AuthServiceConfig, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, eventBus: eventBus, log: log, now: time.Now}
}

// Register creates an account and returns an access token for it. A taken
// email yields the same generic error as any other refusal.
func (s *Service) Register(ctx context.Context, name, email, plainPassword string) (Result, error) {
	email = strings.TrimSpace(email)
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}

	user, err := s.repo.CreateUser(ctx, strings.TrimSpace(name), email, hash)
	if err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			s.log.AuthEvent("register", email, false, "email taken")
			return Result{}, apperr.BadRequest(msgCannotCreateAccount)
		}
		return Result{}, err
	}

	tokenString, err := s.signAccessToken(user.ID)
	if err != nil {
		return Result{}, err
	}

	s.log.AuthEvent("register", user.Email, true, "")
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.UserSignedUp{
			BaseEvent: events.NewBaseEvent(),
			UserID:    user.ID,
			Email:     user.Email,
		})
	}

	return Result{Token: tokenString, User: user}, nil
}

// Login verifies credentials and returns a fresh access token.
func (s *Service) Login(ctx context.Context, email, plainPassword string) (Result, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			s.log.AuthEvent("login", email, false, "unknown email")
			return Result{}, apperr.Unauthorized(msgInvalidCredentials)
		}
		return Result{}, err
	}

	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		s.log.AuthEvent("login", email, false, "bad password")
		return Result{}, apperr.Unauthorized(msgInvalidCredentials)
	}

	tokenString, err := s.signAccessToken(user.ID)
	if err != nil {
		return Result{}, err
	}

	s.log.AuthEvent("login", user.Email, true, "")
	return Result{Token: tokenString, User: user}, nil
}

// GetMe returns the caller's account.
func (s *Service) GetMe(ctx context.Context, userID uuid.UUID) (repository.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *Service) signAccessToken(userID uuid.UUID) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"type": accessTokenType,
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.GetAccessTokenTTL()).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to sign token", err)
	}
	return signed, nil
}
