package repository

import (
	"context"

	"erp-backend/internal/model"

	"gorm.io/gorm"
)

type RoleRepository interface {
	FindAll(ctx context.Context) ([]model.Role, error)
	FindByID(ctx context.Context, id uint) (*model.Role, error)
	FindByCode(ctx context.Context, code string) (*model.Role, error)
	Create(ctx context.Context, role *model.Role) error
	// SeedDefaults creates the default roles and gives any role without
	// privileges its default set.
	SeedDefaults(ctx context.Context, all []model.Privilege) error
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) FindAll(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	err := txFrom(ctx, r.db).Preload("Privileges").Order("id ASC").Find(&roles).Error
	return roles, err
}

func (r *roleRepo) FindByID(ctx context.Context, id uint) (*model.Role, error) {
	var role model.Role
	err := txFrom(ctx, r.db).Preload("Privileges").First(&role, id).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) FindByCode(ctx context.Context, code string) (*model.Role, error) {
	var role model.Role
	err := txFrom(ctx, r.db).Preload("Privileges").Where("code = ?", code).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) Create(ctx context.Context, role *model.Role) error {
	return txFrom(ctx, r.db).Create(role).Error
}

func (r *roleRepo) SeedDefaults(ctx context.Context, all []model.Privilege) error {
	db := txFrom(ctx, r.db)
	for _, defaultRole := range model.DefaultRoles {
		role := defaultRole
		var existing model.Role
		err := db.Preload("Privileges").Where("code = ?", role.Code).First(&existing).Error
		if IsNotFound(err) {
			if err := db.Create(&role).Error; err != nil {
				return err
			}
			existing = role
		} else if err != nil {
			return err
		}
		if len(existing.Privileges) > 0 {
			continue
		}
		privileges := model.DefaultPrivilegesFor(existing.Code, all)
		if err := db.Model(&existing).Association("Privileges").Replace(privileges); err != nil {
			return err
		}
	}
	return nil
}
