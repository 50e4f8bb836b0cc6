package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gameshelf/gameshelf-server/internal/auth"
	"github.com/gameshelf/gameshelf-server/internal/domain"
	domainerrors "github.com/gameshelf/gameshelf-server/internal/errors"
	"github.com/gameshelf/gameshelf-server/internal/id"
	"github.com/gameshelf/gameshelf-server/internal/store"
)

// AuthService handles accounts, login and token verification.
// Session bookkeeping is delegated to SessionService.
type AuthService struct {
	users        store.Users
	sessions     *SessionService
	tokenService *auth.TokenService
	passwords    *auth.PasswordHasher
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(users store.Users, sessions *SessionService, tokenService *auth.TokenService, passwords *auth.PasswordHasher, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:        users,
		sessions:     sessions,
		tokenService: tokenService,
		passwords:    passwords,
		logger:       orDefault(logger),
	}
}

// SetupRequest creates the first administrator.
type SetupRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=1024"`
	DisplayName string `json:"display_name" validate:"max=100"`
}

// CreateUserRequest is an administrator adding an account.
type CreateUserRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=1024"`
	DisplayName string `json:"display_name" validate:"max=100"`
	Admin       bool   `json:"admin"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required"`
	Client   ClientInfo `json:"-"`
}

// RefreshRequest contains the refresh token to rotate.
type RefreshRequest struct {
	RefreshToken string     `json:"refresh_token" validate:"required"`
	Client       ClientInfo `json:"-"`
}

// AuthResponse contains authentication tokens and the user.
type AuthResponse struct {
	User *domain.User `json:"user"`
	SessionResponse
}

// IsSetupRequired reports whether no account exists yet.
func (s *AuthService) IsSetupRequired(ctx context.Context) (bool, error) {
	n, err := s.users.CountUsers(ctx)
	if err != nil {
		return false, domainerrors.Storage(err, "failed to count users")
	}
	return n == 0, nil
}

// Setup creates the first administrator and logs them in. It can only run
// while no users exist.
func (s *AuthService) Setup(ctx context.Context, req SetupRequest, client ClientInfo) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	required, err := s.IsSetupRequired(ctx)
	if err != nil {
		return nil, err
	}
	if !required {
		return nil, domainerrors.AlreadyConfigured("server is already configured")
	}

	user, err := s.createUser(ctx, req.Email, req.Password, req.DisplayName, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}

	resp, err := s.sessions.CreateSession(ctx, user, client)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("server setup complete", "user_id", user.ID, "email", user.Email)
	return &AuthResponse{User: user, SessionResponse: *resp}, nil
}

// CreateUser adds an account. Callers must be administrators.
func (s *AuthService) CreateUser(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	role := domain.RoleMember
	if req.Admin {
		role = domain.RoleAdmin
	}
	user, err := s.createUser(ctx, req.Email, req.Password, req.DisplayName, role)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *AuthService) createUser(ctx context.Context, email, password, displayName string, role domain.Role) (*domain.User, error) {
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           userID,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         role,
		DisplayName:  strings.TrimSpace(displayName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if domainerrors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("email already in use")
		}
		return nil, domainerrors.Storage(err, "failed to create user")
	}
	return user, nil
}

// Login authenticates a user and opens a session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			// Don't leak whether the email exists.
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, domainerrors.Storage(err, "failed to look up user")
	}

	valid, stale, err := s.passwords.Verify(user.PasswordHash, req.Password)
	if err != nil {
		s.logger.Error("stored password hash unreadable", "user_id", user.ID, "error", err)
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}
	if !valid {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}
	if stale {
		if hash, err := s.passwords.Hash(req.Password); err == nil {
			user.PasswordHash = hash
			s.logger.Info("password rehashed with current parameters", "user_id", user.ID)
		}
	}

	user.LastLoginAt = time.Now()
	user.UpdatedAt = user.LastLoginAt
	if err := s.users.UpdateUser(ctx, user); err != nil {
		s.logger.Warn("failed to update last login time", "user_id", user.ID, "error", err)
	}

	resp, err := s.sessions.CreateSession(ctx, user, req.Client)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return &AuthResponse{User: user, SessionResponse: *resp}, nil
}

// RefreshTokens rotates a refresh token.
func (s *AuthService) RefreshTokens(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	resp, user, err := s.sessions.RefreshSession(ctx, req.RefreshToken, req.Client)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: user, SessionResponse: *resp}, nil
}

// Logout ends a session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.DeleteSession(ctx, sessionID)
}

// VerifyAccessToken validates a token and confirms its session is still
// open. Logged-out sessions are rejected even while the token is unexpired.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*auth.AccessClaims, error) {
	claims, err := s.tokenService.VerifyAccessToken(token)
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid or expired access token").WithCause(err)
	}
	if _, err := s.sessions.ValidateSession(ctx, claims.SessionID); err != nil {
		return nil, err
	}
	return claims, nil
}
