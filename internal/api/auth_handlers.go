package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gameshelf/gameshelf-server/internal/domain"
	"github.com/gameshelf/gameshelf-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "setup",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/setup",
		Summary:     "Initial server setup",
		Description: "Creates the first admin user. Can only be called once.",
		Tags:        []string{"Authentication"},
		Middlewares: huma.Middlewares{s.rateLimited},
	}, s.handleSetup)

	huma.Register(s.api, huma.Operation{
		OperationID: "setupStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/setup",
		Summary:     "Setup status",
		Description: "Reports whether the first admin still has to be created",
		Tags:        []string{"Authentication"},
	}, s.handleSetupStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "User login",
		Description: "Authenticates a user and returns access and refresh tokens",
		Tags:        []string{"Authentication"},
		Middlewares: huma.Middlewares{s.rateLimited},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "refresh",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/refresh",
		Summary:     "Refresh tokens",
		Description: "Exchanges a refresh token for new tokens",
		Tags:        []string{"Authentication"},
		Middlewares: huma.Middlewares{s.rateLimited},
	}, s.handleRefresh)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Logout",
		Description: "Ends the current session",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "getNonce",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/nonce/{action}",
		Summary:     "Get anti-forgery token",
		Description: "Issues the security token expected by POST /ajax for an action",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetNonce)

	huma.Register(s.api, huma.Operation{
		OperationID: "createUser",
		Method:      http.MethodPost,
		Path:        "/api/v1/users",
		Summary:     "Create user",
		Description: "Creates an account (admin only)",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Current user",
		Description: "Returns the identity carried by the access token",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)
}

// === DTOs ===

// UserResponse is a user without credentials.
type UserResponse struct {
	ID          string    `json:"id" doc:"User ID"`
	Email       string    `json:"email" doc:"Email address"`
	DisplayName string    `json:"display_name" doc:"Display name"`
	Role        string    `json:"role" doc:"admin or member"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation time"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt,
	}
}

// AuthResponse contains tokens and the authenticated user.
type AuthResponse struct {
	AccessToken  string       `json:"access_token" doc:"PASETO access token"`
	RefreshToken string       `json:"refresh_token" doc:"Refresh token"`
	TokenType    string       `json:"token_type" doc:"Always Bearer"`
	ExpiresIn    int          `json:"expires_in" doc:"Seconds until the access token expires"`
	SessionID    string       `json:"session_id" doc:"Session ID"`
	User         UserResponse `json:"user" doc:"Authenticated user"`
}

func toAuthResponse(r *service.AuthResponse) AuthResponse {
	return AuthResponse{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
		ExpiresIn:    r.ExpiresIn,
		SessionID:    r.SessionID,
		User:         toUserResponse(r.User),
	}
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// SetupRequest is the request body for initial server setup.
type SetupRequest struct {
	Email       string `json:"email" format:"email" maxLength:"254" doc:"Admin email address"`
	Password    string `json:"password" minLength:"8" maxLength:"1024" doc:"Admin password"`
	DisplayName string `json:"display_name,omitempty" maxLength:"100" doc:"Admin display name"`
}

// SetupInput wraps the setup request for Huma.
type SetupInput struct {
	UserAgent string `header:"User-Agent"`
	Body      SetupRequest
}

// SetupStatusOutput reports whether setup is pending.
type SetupStatusOutput struct {
	Body struct {
		SetupRequired bool `json:"setup_required" doc:"True until the first admin exists"`
	}
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" format:"email" maxLength:"254" doc:"Email address"`
	Password string `json:"password" minLength:"1" maxLength:"1024" doc:"Password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	UserAgent string `header:"User-Agent"`
	Body      LoginRequest
}

// RefreshRequest is the request body for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" minLength:"1" doc:"Refresh token"`
}

// RefreshInput wraps the refresh request for Huma.
type RefreshInput struct {
	UserAgent string `header:"User-Agent"`
	Body      RefreshRequest
}

// MessageOutput is a plain acknowledgement.
type MessageOutput struct {
	Body struct {
		Message string `json:"message" doc:"Result message"`
	}
}

// NonceInput names the action the token is for.
type NonceInput struct {
	Action string `path:"action" maxLength:"64" doc:"Action name, e.g. toggle_collection"`
}

// NonceResponse carries an anti-forgery token.
type NonceResponse struct {
	Action    string    `json:"action" doc:"Action the token is bound to"`
	Nonce     string    `json:"nonce" doc:"Value for the security form field"`
	ExpiresAt time.Time `json:"expires_at" doc:"Latest time the token is accepted"`
}

// NonceOutput wraps the nonce response for Huma.
type NonceOutput struct {
	Body NonceResponse
}

// CreateUserRequest is the request body for creating an account.
type CreateUserRequest struct {
	Email       string `json:"email" format:"email" maxLength:"254" doc:"Email address"`
	Password    string `json:"password" minLength:"8" maxLength:"1024" doc:"Initial password"`
	DisplayName string `json:"display_name,omitempty" maxLength:"100" doc:"Display name"`
	Admin       bool   `json:"admin,omitempty" doc:"Grant the admin role"`
}

// CreateUserInput wraps the create user request for Huma.
type CreateUserInput struct {
	Body CreateUserRequest
}

// UserOutput wraps a user for Huma.
type UserOutput struct {
	Body UserResponse
}

// CurrentUserOutput describes the caller.
type CurrentUserOutput struct {
	Body struct {
		UserID    string `json:"user_id" doc:"User ID"`
		Email     string `json:"email" doc:"Email address"`
		SessionID string `json:"session_id" doc:"Session ID"`
		IsAdmin   bool   `json:"is_admin" doc:"Whether the caller is an admin"`
	}
}

// === Handlers ===

func (s *Server) handleSetup(ctx context.Context, input *SetupInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Setup(ctx, service.SetupRequest{
		Email:       input.Body.Email,
		Password:    input.Body.Password,
		DisplayName: input.Body.DisplayName,
	}, clientInfo(ctx, input.UserAgent))
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: toAuthResponse(resp)}, nil
}

func (s *Server) handleSetupStatus(ctx context.Context, _ *struct{}) (*SetupStatusOutput, error) {
	required, err := s.services.Auth.IsSetupRequired(ctx)
	if err != nil {
		return nil, err
	}
	out := &SetupStatusOutput{}
	out.Body.SetupRequired = required
	return out, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
		Client:   clientInfo(ctx, input.UserAgent),
	})
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: toAuthResponse(resp)}, nil
}

func (s *Server) handleRefresh(ctx context.Context, input *RefreshInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.RefreshTokens(ctx, service.RefreshRequest{
		RefreshToken: input.Body.RefreshToken,
		Client:       clientInfo(ctx, input.UserAgent),
	})
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: toAuthResponse(resp)}, nil
}

func (s *Server) handleLogout(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	claims, err := RequireClaims(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Auth.Logout(ctx, claims.SessionID); err != nil {
		return nil, err
	}
	out := &MessageOutput{}
	out.Body.Message = "Logged out"
	return out, nil
}

func (s *Server) handleGetNonce(ctx context.Context, input *NonceInput) (*NonceOutput, error) {
	claims, err := RequireClaims(ctx)
	if err != nil {
		return nil, err
	}
	a, ok := s.actions.Lookup(input.Action)
	if !ok {
		return nil, huma.Error404NotFound("Unknown action")
	}

	nonce, expiresAt := s.services.Nonce.Issue(a.Nonce, claims.UserID, claims.SessionID)
	return &NonceOutput{
		Body: NonceResponse{Action: input.Action, Nonce: nonce, ExpiresAt: expiresAt},
	}, nil
}

func (s *Server) handleCreateUser(ctx context.Context, input *CreateUserInput) (*UserOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}

	user, err := s.services.Auth.CreateUser(ctx, service.CreateUserRequest{
		Email:       input.Body.Email,
		Password:    input.Body.Password,
		DisplayName: input.Body.DisplayName,
		Admin:       input.Body.Admin,
	})
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: toUserResponse(user)}, nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *struct{}) (*CurrentUserOutput, error) {
	claims, err := RequireClaims(ctx)
	if err != nil {
		return nil, err
	}
	out := &CurrentUserOutput{}
	out.Body.UserID = claims.UserID
	out.Body.Email = claims.Email
	out.Body.SessionID = claims.SessionID
	out.Body.IsAdmin = claims.IsAdmin
	return out, nil
}
