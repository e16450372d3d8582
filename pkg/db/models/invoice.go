package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tmokoena/rentpilot-backend/pkg/enums"
)

// Invoice is one concrete billing instance with its own payment lifecycle.
// Created by the recurring invoice job or ad hoc; mutated only by the payment
// event reconciler afterwards; never deleted.
type Invoice struct {
	ID                  uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RecurringBillableID *uuid.UUID            `gorm:"column:recurring_billable_id;type:uuid;index"`
	LeaseID             *uuid.UUID            `gorm:"column:lease_id;type:uuid;index"`
	TenantID            uuid.UUID             `gorm:"column:tenant_id;type:uuid;not null;index"`
	LandlordID          uuid.UUID             `gorm:"column:landlord_id;type:uuid;not null;index"`
	DueAmount           decimal.Decimal       `gorm:"column:due_amount;type:numeric(12,2);not null"`
	AmountPaid          decimal.Decimal       `gorm:"column:amount_paid;type:numeric(12,2);not null;default:0"`
	Currency            enums.Currency        `gorm:"column:currency;not null;default:'ZAR'"`
	DueDate             time.Time             `gorm:"column:due_date;type:date;not null;index"`
	Status              enums.InvoiceStatus   `gorm:"column:status;type:invoice_status;not null;default:'pending'"`
	Category            enums.InvoiceCategory `gorm:"column:category;type:invoice_category;not null;default:'rent'"`
	Description         string                `gorm:"column:description"`
	LineItems           json.RawMessage       `gorm:"column:line_items;type:jsonb"`
	PaymentRequestCode  *string               `gorm:"column:payment_request_code;uniqueIndex"`
	CreatedAt           time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
