package service

import (
	"context"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/pkg/logger"

	"go.uber.org/zap"
)

// Bootstrap seeds the privilege catalog and default roles, then creates the
// master administrator when no user owns adminEmail yet. It is idempotent.
func (d *Deps) Bootstrap(ctx context.Context, adminEmail, adminPassword string) error {
	if err := d.Privileges.SeedDefaults(ctx); err != nil {
		return internal(err)
	}
	all, err := d.Privileges.FindAll(ctx)
	if err != nil {
		return internal(err)
	}
	if err := d.Roles.SeedDefaults(ctx, all); err != nil {
		return internal(err)
	}

	if _, err := d.Users.FindByEmail(ctx, adminEmail); err == nil {
		return nil
	} else if !repository.IsNotFound(err) {
		return internal(err)
	}

	master, err := d.Roles.FindByCode(ctx, model.RoleMasterAdmin)
	if err != nil {
		return internal(err)
	}
	admin := &model.User{
		Email:      adminEmail,
		FullName:   "Master Administrator",
		RoleID:     &master.ID,
		IsActive:   true,
		Privileges: master.Privileges,
	}
	admin.Touch("system")
	if err := admin.SetPassword(adminPassword); err != nil {
		return internal(err)
	}
	if err := d.Users.Create(ctx, admin); err != nil {
		return internal(err)
	}
	logger.FromContext(ctx).Info("admin user created", zap.String("email", adminEmail), zap.String("role", model.RoleMasterAdmin))
	return nil
}
