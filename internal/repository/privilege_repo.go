package repository

import (
	"context"

	"erp-backend/internal/model"

	"gorm.io/gorm"
)

type PrivilegeRepository interface {
	FindByCode(ctx context.Context, code string) (*model.Privilege, error)
	FindByCodes(ctx context.Context, codes []string) ([]model.Privilege, error)
	FindAll(ctx context.Context) ([]model.Privilege, error)
	Create(ctx context.Context, privilege *model.Privilege) error
	SeedDefaults(ctx context.Context) error
}

type privilegeRepo struct {
	db *gorm.DB
}

func NewPrivilegeRepo(db *gorm.DB) PrivilegeRepository {
	return &privilegeRepo{db}
}

func (r *privilegeRepo) FindByCode(ctx context.Context, code string) (*model.Privilege, error) {
	var privilege model.Privilege
	if err := txFrom(ctx, r.db).Where("code = ?", code).First(&privilege).Error; err != nil {
		return nil, err
	}
	return &privilege, nil
}

func (r *privilegeRepo) FindByCodes(ctx context.Context, codes []string) ([]model.Privilege, error) {
	var privileges []model.Privilege
	if len(codes) == 0 {
		return privileges, nil
	}
	if err := txFrom(ctx, r.db).Where("code IN ?", codes).Find(&privileges).Error; err != nil {
		return nil, err
	}
	return privileges, nil
}

func (r *privilegeRepo) FindAll(ctx context.Context) ([]model.Privilege, error) {
	var privileges []model.Privilege
	if err := txFrom(ctx, r.db).Order("code ASC").Find(&privileges).Error; err != nil {
		return nil, err
	}
	return privileges, nil
}

func (r *privilegeRepo) Create(ctx context.Context, privilege *model.Privilege) error {
	return txFrom(ctx, r.db).Create(privilege).Error
}

// SeedDefaults creates default privileges if they don't exist
func (r *privilegeRepo) SeedDefaults(ctx context.Context) error {
	db := txFrom(ctx, r.db)
	for _, p := range model.DefaultPrivileges {
		privilege := p
		var existing model.Privilege
		err := db.Where("code = ?", privilege.Code).First(&existing).Error
		if IsNotFound(err) {
			if err := db.Create(&privilege).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}
	return nil
}
