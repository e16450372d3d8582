package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tmokoena/rentpilot-backend/pkg/enums"
)

// Landlord holds the platform subscription state for a landlord account. The
// subscription fields are mutated exclusively by subscription webhook handlers.
type Landlord struct {
	ID                 uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	FirstName          string                   `gorm:"column:first_name;not null"`
	LastName           string                   `gorm:"column:last_name;not null"`
	Email              string                   `gorm:"column:email;not null;uniqueIndex"`
	SubscriptionCode   *string                  `gorm:"column:subscription_code;uniqueIndex"`
	SubscriptionStatus enums.SubscriptionStatus `gorm:"column:subscription_status;type:subscription_status;not null;default:'disabled'"`
	PlanCode           *string                  `gorm:"column:plan_code"`
	SubscriptionAmount decimal.Decimal          `gorm:"column:subscription_amount;type:numeric(12,2);not null;default:0"`
	NextPaymentDate    *time.Time               `gorm:"column:next_payment_date"`
	LastPaymentError   *string                  `gorm:"column:last_payment_error"`
	PaymentRetryCount  int                      `gorm:"column:payment_retry_count;not null;default:0"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
