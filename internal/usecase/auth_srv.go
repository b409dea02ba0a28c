package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"carpool-api/internal/apperror"
	"carpool-api/internal/data/entity"
	"carpool-api/internal/data/repository"
	"carpool-api/internal/dto/request"
	"carpool-api/internal/dto/response"
	"carpool-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClientInfo describes where a login came from.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest, client ClientInfo) (*response.AuthResponse, error)
	Login(ctx context.Context, req *request.LoginRequest, client ClientInfo) (*response.AuthResponse, error)
	Logout(ctx context.Context, tokenID uuid.UUID) error
	Me(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req *request.ChangePasswordRequest) error
	SeedAdmin(ctx context.Context, email, password string) error
	PurgeSessions(ctx context.Context, now time.Time) (int64, error)
}

// sessionRetention keeps expired sessions around briefly for auditing.
const sessionRetention = 7 * 24 * time.Hour

type authService struct {
	repo   *repository.Repository // user and session stores
	tokens TokenIssuer
	log    *zap.Logger
}

func NewAuthService(repo *repository.Repository, tokens TokenIssuer, log *zap.Logger) AuthService {
	return &authService{
		repo:   repo,
		tokens: tokens,
		log:    log.With(zap.String("service", "auth")),
	}
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest, client ClientInfo) (*response.AuthResponse, error) {
	if err := validate(req); err != nil {
		s.log.Warn("Register validation failed", zap.Error(err))
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, apperror.Duplicate("email already registered")
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to process password: %w", err)
	}

	now := time.Now()
	user := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hashed,
		Department:   strings.TrimSpace(req.Department),
		Role:         entity.UserRole(req.Role),
		Phone:        trimmed(req.Phone),
		CarModel:     trimmed(req.CarModel),
		CarPlate:     trimmed(req.CarPlate),
		CarColor:     trimmed(req.CarColor),
		IsActive:     true,
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrDuplicate) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.log.Info("USER_REGISTERED",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))

	return s.issue(ctx, user, client)
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest, client ClientInfo) (*response.AuthResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	user, err := s.repo.User.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.log.Warn("Login failed", zap.String("email", req.Email))
		return nil, apperror.Unauthenticated("invalid email or password")
	}
	if !user.IsActive {
		s.log.Warn("Inactive user tried to login", zap.String("user_id", user.ID.String()))
		return nil, apperror.Forbidden("account is deactivated")
	}

	resp, err := s.issue(ctx, user, client)
	if err != nil {
		return nil, err
	}

	s.log.Info("USER_LOGGED_IN", zap.String("user_id", user.ID.String()))
	return resp, nil
}

func (s *authService) Logout(ctx context.Context, tokenID uuid.UUID) error {
	if err := s.repo.Session.Revoke(ctx, tokenID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}

	s.log.Info("USER_LOGGED_OUT", zap.String("token_id", tokenID.String()))
	return nil
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error) {
	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("user not found")
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

// ChangePassword replaces the password hash and signs the user out everywhere.
func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, req *request.ChangePasswordRequest) error {
	if err := validate(req); err != nil {
		return err
	}

	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return apperror.NotFound("user not found")
	}
	if !utils.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		return apperror.Validation("current password is incorrect")
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to process password: %w", err)
	}
	user.PasswordHash = hashed
	user.UpdatedAt = time.Now()

	if err := s.repo.User.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if err := s.repo.Session.RevokeAllUserSessions(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	s.log.Info("PASSWORD_CHANGED", zap.String("user_id", userID.String()))
	return nil
}

// SeedAdmin creates the admin account once. An existing user with the same
// email is left alone.
func (s *authService) SeedAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	existing, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check admin: %w", err)
	}
	if existing != nil {
		return nil
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to process password: %w", err)
	}

	now := time.Now()
	admin := &entity.User{
		Base:         entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hashed,
		Department:   "IT",
		Role:         entity.RoleAdmin,
		IsActive:     true,
	}
	if err := s.repo.User.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	s.log.Info("Admin account seeded", zap.String("email", email))
	return nil
}

// ==================== HELPER METHODS ====================

func (s *authService) issue(ctx context.Context, user *entity.User, client ClientInfo) (*response.AuthResponse, error) {
	signed, tokenID, expiresAt, err := s.tokens.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	session := &entity.Session{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
		},
		UserID:    user.ID,
		TokenID:   tokenID,
		UserAgent: utils.StringPtr(client.UserAgent),
		IPAddress: utils.StringPtr(client.IPAddress),
		ExpiresAt: expiresAt,
	}
	if err := s.repo.Session.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	resp := response.AuthToResponse(user, signed, expiresAt)
	return &resp, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	return utils.StringPtr(*s)
}

// PurgeSessions removes sessions that expired more than sessionRetention ago.
func (s *authService) PurgeSessions(ctx context.Context, now time.Time) (int64, error) {
	removed, err := s.repo.Session.CleanExpiredSessions(ctx, now.Add(-sessionRetention))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.log.Info("SESSIONS_PURGED", zap.Int64("count", removed))
	}
	return removed, nil
}
