package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is an immutable record of one payment applied to an invoice.
// The gateway reference is unique so replayed webhooks cannot double-record.
type Transaction struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceID uuid.UUID       `gorm:"column:invoice_id;type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Reference string          `gorm:"column:reference;not null;unique"`
	PaidAt    time.Time       `gorm:"column:paid_at;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
