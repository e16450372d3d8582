package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is the payer on rent invoices. CustomerCode is the gateway customer
// identifier, created lazily on first billing need and then reused.
type Tenant struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	LandlordID   uuid.UUID  `gorm:"column:landlord_id;type:uuid;not null;index"`
	FirstName    string     `gorm:"column:first_name;not null"`
	LastName     string     `gorm:"column:last_name;not null"`
	Email        string     `gorm:"column:email;not null;index"`
	Phone        *string    `gorm:"column:phone"`
	CustomerCode *string    `gorm:"column:customer_code;uniqueIndex"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
