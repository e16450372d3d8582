package tenants

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tmokoena/rentpilot-backend/pkg/db/models"
)

// Repository handles tenant persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	FindByCustomerCode(ctx context.Context, customerCode string) (*models.Tenant, error)
	UpdateCustomerCode(ctx context.Context, id uuid.UUID, customerCode string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a tenant repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&tenant).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *repository) FindByCustomerCode(ctx context.Context, customerCode string) (*models.Tenant, error) {
	if customerCode == "" {
		return nil, nil
	}
	var tenant models.Tenant
	if err := r.db.WithContext(ctx).
		Where("customer_code = ?", customerCode).
		First(&tenant).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *repository) UpdateCustomerCode(ctx context.Context, id uuid.UUID, customerCode string) error {
	return r.db.WithContext(ctx).
		Model(&models.Tenant{}).
		Where("id = ?", id).
		Update("customer_code", customerCode).Error
}
