package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tmokoena/rentpilot-backend/pkg/enums"
)

// RecurringBillable is a lease-scoped obligation to raise an invoice on a
// schedule. Rows are deactivated when the lease ends, never deleted.
type RecurringBillable struct {
	ID          uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	LeaseID     uuid.UUID             `gorm:"column:lease_id;type:uuid;not null;index"`
	TenantID    uuid.UUID             `gorm:"column:tenant_id;type:uuid;not null;index"`
	LandlordID  uuid.UUID             `gorm:"column:landlord_id;type:uuid;not null;index"`
	Amount      decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency    enums.Currency        `gorm:"column:currency;not null;default:'ZAR'"`
	Cycle       enums.BillingCycle    `gorm:"column:cycle;type:billing_cycle;not null;default:'monthly'"`
	StartDate   time.Time             `gorm:"column:start_date;type:date;not null"`
	Active      bool                  `gorm:"column:active;not null;default:true"`
	Category    enums.InvoiceCategory `gorm:"column:category;type:invoice_category;not null;default:'rent'"`
	Description string                `gorm:"column:description"`
	Tenant      *Tenant               `gorm:"foreignKey:TenantID"`
	Landlord    *Landlord             `gorm:"foreignKey:LandlordID"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
