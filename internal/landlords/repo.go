package landlords

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tmokoena/rentpilot-backend/pkg/db/models"
)

// Repository handles landlord persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Landlord, error)
	FindByEmail(ctx context.Context, email string) (*models.Landlord, error)
	FindBySubscriptionCode(ctx context.Context, subscriptionCode string) (*models.Landlord, error)
	Update(ctx context.Context, landlord *models.Landlord) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a landlord repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Landlord, error) {
	var landlord models.Landlord
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&landlord).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &landlord, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.Landlord, error) {
	if email == "" {
		return nil, nil
	}
	var landlord models.Landlord
	if err := r.db.WithContext(ctx).
		Where("lower(email) = lower(?)", email).
		First(&landlord).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &landlord, nil
}

func (r *repository) FindBySubscriptionCode(ctx context.Context, subscriptionCode string) (*models.Landlord, error) {
	if subscriptionCode == "" {
		return nil, nil
	}
	var landlord models.Landlord
	if err := r.db.WithContext(ctx).
		Where("subscription_code = ?", subscriptionCode).
		First(&landlord).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &landlord, nil
}

func (r *repository) Update(ctx context.Context, landlord *models.Landlord) error {
	return r.db.WithContext(ctx).Save(landlord).Error
}
