package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/hostelkit/maintenance-service/internal/auth"
	"github.com/hostelkit/maintenance-service/internal/config"
	"github.com/hostelkit/maintenance-service/internal/domain"
	"github.com/hostelkit/maintenance-service/internal/repository"
	apperrors "github.com/hostelkit/maintenance-service/pkg/util/errorutil"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users         repository.UserRepository
	tokenMgr      *auth.TokenManager
	bcryptCost    int
	allowedDomain string
	wardenName    string
	wardenEmail   string
	wardenPass    string
	logger        *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:         users,
		tokenMgr:      auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost:    cfg.Auth.BcryptCost,
		allowedDomain: cfg.Auth.AllowedEmailDomain,
		wardenName:    cfg.Auth.WardenName,
		wardenEmail:   cfg.Auth.WardenEmail,
		wardenPass:    cfg.Auth.WardenPassword,
		logger:        logger,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// RegisterStudent creates a new student account. Only emails from the
// configured institutional domain may register.
func (s *AuthService) RegisterStudent(ctx context.Context, name, email, password string) (*domain.User, string, time.Time, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("name, email, password required", nil)
	}
	if s.allowedDomain != "" && !strings.HasSuffix(email, s.allowedDomain) {
		return nil, "", time.Time{}, apperrors.NewValidationError(
			fmt.Sprintf("only emails from the %s domain may register", s.allowedDomain), nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleStudent,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// Login authenticates any account, student or warden.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// EnsureWarden creates the warden account from env credentials when it does
// not exist yet. Called once at startup.
func (s *AuthService) EnsureWarden(ctx context.Context) error {
	if s.wardenEmail == "" || s.wardenPass == "" {
		s.logger.Warn("warden credentials not configured; skipping warden bootstrap")
		return nil
	}

	if _, err := s.users.GetByEmail(ctx, strings.ToLower(s.wardenEmail)); err == nil {
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(s.wardenPass, s.bcryptCost)
	if err != nil {
		return err
	}
	warden := &domain.User{
		Name:         s.wardenName,
		Email:        strings.ToLower(s.wardenEmail),
		PasswordHash: hash,
		Role:         domain.RoleWarden,
	}
	if err := s.users.Create(ctx, warden); err != nil {
		return err
	}
	s.logger.Info("warden account bootstrapped", zap.String("email", warden.Email))
	return nil
}
