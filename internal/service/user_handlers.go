package service

import (
	"context"
	"time"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/internal/ws"

	"github.com/google/uuid"
)

type CreateUser struct {
	Actor       string  `json:"-"`
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=6"`
	FullName    string  `json:"full_name" validate:"required"`
	PhoneNumber string  `json:"phone_number" validate:"max=20"`
	BirthDate   *string `json:"birth_date"`
	RoleID      uint    `json:"role_id" validate:"required"`
	Locale      string  `json:"locale" validate:"omitempty,oneof=en fr ar"`
}

type CreateUserHandler struct{ *Deps }

// Handle creates the user with the default privileges of its role.
func (h CreateUserHandler) Handle(ctx context.Context, cmd CreateUser) (*model.User, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	if err := h.ensureEmailFree(ctx, cmd.Email, uuid.Nil); err != nil {
		return nil, err
	}
	role, err := h.Roles.FindByID(ctx, cmd.RoleID)
	if err != nil {
		return nil, notFound(err, ErrRoleNotFound)
	}
	birthDate, err := parseBirthDate(cmd.BirthDate)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Email:       cmd.Email,
		FullName:    cmd.FullName,
		PhoneNumber: cmd.PhoneNumber,
		BirthDate:   birthDate,
		RoleID:      &cmd.RoleID,
		IsActive:    true,
		Locale:      cmd.Locale,
		Privileges:  role.Privileges,
	}
	user.Touch(cmd.Actor)
	if err := user.SetPassword(cmd.Password); err != nil {
		return nil, internal(err)
	}
	if err := h.Users.Create(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, ErrEmailExists
		}
		return nil, internal(err)
	}
	return user, nil
}

type UpdateUser struct {
	Actor       string    `json:"-"`
	ID          uuid.UUID `json:"-"`
	Email       string    `json:"email" validate:"required,email"`
	Password    *string   `json:"password,omitempty" validate:"omitempty,min=6"`
	FullName    string    `json:"full_name" validate:"required"`
	PhoneNumber string    `json:"phone_number" validate:"max=20"`
	BirthDate   *string   `json:"birth_date"`
	RoleID      uint      `json:"role_id" validate:"required"`
	IsActive    *bool     `json:"is_active"`
}

type UpdateUserHandler struct{ *Deps }

// Handle replaces the profile; changing the role resets privileges to the role defaults.
func (h UpdateUserHandler) Handle(ctx context.Context, cmd UpdateUser) (*model.User, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}
	user, err := h.Users.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	if cmd.Email != user.Email {
		if err := h.ensureEmailFree(ctx, cmd.Email, user.ID); err != nil {
			return nil, err
		}
	}
	role, err := h.Roles.FindByID(ctx, cmd.RoleID)
	if err != nil {
		return nil, notFound(err, ErrRoleNotFound)
	}
	birthDate, err := parseBirthDate(cmd.BirthDate)
	if err != nil {
		return nil, err
	}

	roleChanged := user.RoleID == nil || *user.RoleID != cmd.RoleID
	user.Email = cmd.Email
	user.FullName = cmd.FullName
	user.PhoneNumber = cmd.PhoneNumber
	user.BirthDate = birthDate
	user.RoleID = &cmd.RoleID
	user.Role = role
	if cmd.IsActive != nil {
		user.IsActive = *cmd.IsActive
	}
	if cmd.Password != nil && *cmd.Password != "" {
		if err := user.SetPassword(*cmd.Password); err != nil {
			return nil, internal(err)
		}
	}
	user.Touch(cmd.Actor)

	err = h.inTx(ctx, func(ctx context.Context, _ *[]ws.Event) error {
		if err := h.Users.Update(ctx, user); err != nil {
			return err
		}
		if roleChanged {
			return h.Users.UpdatePrivileges(ctx, user.ID, role.Privileges)
		}
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	return h.Users.FindByID(ctx, user.ID)
}

type DeleteUser struct {
	Actor string
	ID    uuid.UUID
}

type DeleteUserHandler struct{ *Deps }

func (h DeleteUserHandler) Handle(ctx context.Context, cmd DeleteUser) (struct{}, error) {
	if _, err := h.Users.FindByID(ctx, cmd.ID); err != nil {
		return struct{}{}, notFound(err, ErrUserNotFound)
	}
	return struct{}{}, internal(h.Users.Delete(ctx, cmd.ID))
}

type UpdateUserPrivileges struct {
	Actor      string    `json:"-"`
	ID         uuid.UUID `json:"-"`
	Privileges []string  `json:"privileges"`
}

type UpdateUserPrivilegesHandler struct{ *Deps }

// Handle replaces the user's privileges; unknown codes are ignored.
func (h UpdateUserPrivilegesHandler) Handle(ctx context.Context, cmd UpdateUserPrivileges) (*model.User, error) {
	user, err := h.Users.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	privileges, err := h.Privileges.FindByCodes(ctx, cmd.Privileges)
	if err != nil {
		return nil, internal(err)
	}
	user.Touch(cmd.Actor)
	err = h.inTx(ctx, func(ctx context.Context, _ *[]ws.Event) error {
		if err := h.Users.UpdatePrivileges(ctx, user.ID, privileges); err != nil {
			return err
		}
		return h.Users.Update(ctx, user)
	})
	if err != nil {
		return nil, internal(err)
	}
	return h.Users.FindByID(ctx, user.ID)
}

type UpdateLocale struct {
	UserID uuid.UUID
	Locale string `validate:"required,oneof=en fr ar"`
}

type UpdateLocaleHandler struct{ *Deps }

func (h UpdateLocaleHandler) Handle(ctx context.Context, cmd UpdateLocale) (struct{}, error) {
	if err := validate(cmd); err != nil {
		return struct{}{}, err
	}
	return struct{}{}, internal(h.Users.UpdateLocale(ctx, cmd.UserID, cmd.Locale))
}

type ListUsers struct{}

type ListUsersHandler struct{ *Deps }

func (h ListUsersHandler) Handle(ctx context.Context, _ ListUsers) ([]model.UserResponse, error) {
	users, err := h.Users.FindAll(ctx)
	if err != nil {
		return nil, internal(err)
	}
	out := make([]model.UserResponse, len(users))
	for i := range users {
		out[i] = users[i].ToResponse()
	}
	return out, nil
}

type GetUser struct{ ID uuid.UUID }

type GetUserHandler struct{ *Deps }

func (h GetUserHandler) Handle(ctx context.Context, q GetUser) (*model.User, error) {
	user, err := h.Users.FindByID(ctx, q.ID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return user, nil
}

type ListRoles struct{}

type ListRolesHandler struct{ *Deps }

func (h ListRolesHandler) Handle(ctx context.Context, _ ListRoles) ([]model.Role, error) {
	roles, err := h.Roles.FindAll(ctx)
	return roles, internal(err)
}

type ListPrivileges struct{}

type ListPrivilegesHandler struct{ *Deps }

func (h ListPrivilegesHandler) Handle(ctx context.Context, _ ListPrivileges) ([]model.Privilege, error) {
	privileges, err := h.Privileges.FindAll(ctx)
	return privileges, internal(err)
}

func (d *Deps) ensureEmailFree(ctx context.Context, email string, self uuid.UUID) error {
	existing, err := d.Users.FindByEmail(ctx, email)
	switch {
	case repository.IsNotFound(err):
		return nil
	case err != nil:
		return internal(err)
	case existing.ID != self:
		return ErrEmailExists
	}
	return nil
}

func parseBirthDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, ErrValidation.WithParams(map[string]any{"Field": "birth_date", "Tag": "date"})
	}
	return &parsed, nil
}
