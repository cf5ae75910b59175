package service

import (
	"context"
	"time"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/internal/ws"
	"erp-backend/pkg/jwt"
	"erp-backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionIdleTimeout ends a session when no heartbeat arrived for this long.
const SessionIdleTimeout = 5 * time.Minute

type LoginResponse struct {
	Token      string             `json:"token"`
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

type TokenValidationResponse struct {
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginHandler issues a token and replaces any previous session of the user.
type LoginHandler struct {
	*Deps
	Tokens *jwt.Manager
}

func (h LoginHandler) Handle(ctx context.Context, cmd Login) (*LoginResponse, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	user, err := h.Users.FindByEmail(ctx, cmd.Email)
	if err != nil {
		h.Metrics.RecordLogin("failed")
		if repository.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, internal(err)
	}
	if !user.IsActive {
		h.Metrics.RecordLogin("inactive")
		return nil, ErrUserInactive
	}
	if !user.CheckPassword(cmd.Password) {
		h.Metrics.RecordLogin("failed")
		return nil, ErrInvalidCredentials
	}

	now := h.now()
	user.TokenVersion = uuid.New().String()
	user.LastSeenAt = &now
	if err := h.Users.Update(ctx, user); err != nil {
		return nil, internal(err)
	}

	token, err := h.Tokens.GenerateToken(claimsFor(user))
	if err != nil {
		return nil, internal(err)
	}
	h.Metrics.RecordLogin("success")
	logger.FromContext(ctx).Info("user logged in", zap.String("user_id", user.ID.String()))
	return &LoginResponse{
		Token:      token,
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.GetPrivilegeCodes(),
	}, nil
}

func claimsFor(user *model.User) jwt.Claims {
	roleCode := ""
	if user.Role != nil {
		roleCode = user.Role.Code
	}
	return jwt.Claims{
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.FullName,
		RoleCode:     roleCode,
		Locale:       user.Locale,
		Privileges:   user.GetPrivilegeCodes(),
		TokenVersion: user.TokenVersion,
	}
}

type ValidateToken struct {
	Token string
}

// ValidateTokenHandler checks the signature, the session version and the idle timeout.
type ValidateTokenHandler struct {
	*Deps
	Tokens *jwt.Manager
}

func (h ValidateTokenHandler) Handle(ctx context.Context, q ValidateToken) (*TokenValidationResponse, error) {
	claims, err := h.Tokens.ValidateToken(q.Token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := h.Users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}
	// A missing last-seen stamp is treated as idle so the rule cannot be skipped.
	if user.LastSeenAt == nil || h.now().Sub(*user.LastSeenAt) > SessionIdleTimeout {
		return nil, ErrSessionTimeout
	}
	return &TokenValidationResponse{
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.GetPrivilegeCodes(),
	}, nil
}

type Heartbeat struct {
	UserID uuid.UUID
}

type HeartbeatHandler struct{ *Deps }

// Handle refreshes last-seen and announces the user as online.
func (h HeartbeatHandler) Handle(ctx context.Context, cmd Heartbeat) (struct{}, error) {
	if err := h.Users.UpdateLastSeen(ctx, cmd.UserID); err != nil {
		return struct{}{}, internal(err)
	}
	h.Events.Publish(ws.Event{
		Type:   ws.EventUserPresence,
		Action: "online",
		User:   cmd.UserID.String(),
		Data:   map[string]any{"user_id": cmd.UserID, "status": "online", "last_seen_at": h.now()},
	})
	return struct{}{}, nil
}

type Logout struct {
	UserID uuid.UUID
}

type LogoutHandler struct{ *Deps }

// Handle rotates the token version so the current token stops validating.
func (h LogoutHandler) Handle(ctx context.Context, cmd Logout) (struct{}, error) {
	if err := h.Users.UpdateTokenVersion(ctx, cmd.UserID, uuid.New().String()); err != nil {
		return struct{}{}, internal(err)
	}
	h.Events.Publish(ws.Event{
		Type:   ws.EventUserPresence,
		Action: "offline",
		User:   cmd.UserID.String(),
		Data:   map[string]any{"user_id": cmd.UserID, "status": "offline"},
	})
	return struct{}{}, nil
}

type ChangePassword struct {
	Email       string `json:"email" validate:"required,email"`
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type ChangePasswordHandler struct{ *Deps }

func (h ChangePasswordHandler) Handle(ctx context.Context, cmd ChangePassword) (struct{}, error) {
	if err := validate(cmd); err != nil {
		return struct{}{}, err
	}
	user, err := h.Users.FindByEmail(ctx, cmd.Email)
	if err != nil {
		return struct{}{}, notFound(err, ErrUserNotFound)
	}
	if !user.CheckPassword(cmd.OldPassword) {
		return struct{}{}, ErrWrongPassword
	}
	return struct{}{}, h.setPassword(ctx, user, cmd.NewPassword)
}

// ResetPassword sets a password without the old one; used by the operator tool.
type ResetPassword struct {
	Email       string `validate:"required,email"`
	NewPassword string `validate:"required,min=6"`
}

type ResetPasswordHandler struct{ *Deps }

func (h ResetPasswordHandler) Handle(ctx context.Context, cmd ResetPassword) (struct{}, error) {
	if err := validate(cmd); err != nil {
		return struct{}{}, err
	}
	user, err := h.Users.FindByEmail(ctx, cmd.Email)
	if err != nil {
		return struct{}{}, notFound(err, ErrUserNotFound)
	}
	return struct{}{}, h.setPassword(ctx, user, cmd.NewPassword)
}

// setPassword stores the new hash and ends every open session.
func (d *Deps) setPassword(ctx context.Context, user *model.User, password string) error {
	if err := user.SetPassword(password); err != nil {
		return internal(err)
	}
	if err := d.Users.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return internal(err)
	}
	if err := d.Users.UpdateTokenVersion(ctx, user.ID, uuid.New().String()); err != nil {
		return internal(err)
	}
	logger.FromContext(ctx).Info("password changed", zap.String("user_id", user.ID.String()))
	return nil
}
