package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tmokoena/rentpilot-backend/pkg/db/models"
	"github.com/tmokoena/rentpilot-backend/pkg/enums"
	"github.com/tmokoena/rentpilot-backend/pkg/pagination"
)

// Repository handles billing persistence: recurring billables, invoices and
// payment transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListActiveBillables(ctx context.Context, cycle enums.BillingCycle) ([]models.RecurringBillable, error)
	SetBillableActive(ctx context.Context, id uuid.UUID, active bool) error
	CreateInvoice(ctx context.Context, invoice *models.Invoice) error
	UpdateInvoice(ctx context.Context, invoice *models.Invoice) error
	FindInvoiceByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	FindOpenInvoice(ctx context.Context, billableID uuid.UUID, dueDate time.Time) (*models.Invoice, error)
	FindInvoiceByRequestCode(ctx context.Context, requestCode string) (*models.Invoice, error)
	ListInvoices(ctx context.Context, params ListInvoicesQuery) ([]models.Invoice, *pagination.Cursor, error)
	MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error)
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	FindTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error)
	ListTransactionsByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.Transaction, error)
}

type repository struct {
	db *gorm.DB
}

// ListInvoicesQuery configures invoice list queries.
type ListInvoicesQuery struct {
	LandlordID uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
	Status     *enums.InvoiceStatus
	Category   *enums.InvoiceCategory
}

// NewRepository returns a billing repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListActiveBillables(ctx context.Context, cycle enums.BillingCycle) ([]models.RecurringBillable, error) {
	var billables []models.RecurringBillable
	if err := r.db.WithContext(ctx).
		Preload("Tenant").
		Where("active = ?", true).
		Where("cycle = ?", cycle).
		Order("created_at ASC").
		Find(&billables).Error; err != nil {
		return nil, err
	}
	return billables, nil
}

func (r *repository) SetBillableActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.RecurringBillable{}).
		Where("id = ?", id).
		Update("active", active).Error
}

func (r *repository) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *repository) UpdateInvoice(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Save(invoice).Error
}

func (r *repository) FindInvoiceByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&invoice).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// FindOpenInvoice locates a non-terminal invoice for the billable and due
// date. The scheduler uses it to avoid issuing the same occurrence twice.
func (r *repository) FindOpenInvoice(ctx context.Context, billableID uuid.UUID, dueDate time.Time) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).
		Where("recurring_billable_id = ?", billableID).
		Where("due_date = ?", dueDate).
		Where("status IN (?)", enums.OpenInvoiceStatuses).
		First(&invoice).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) FindInvoiceByRequestCode(ctx context.Context, requestCode string) (*models.Invoice, error) {
	if requestCode == "" {
		return nil, nil
	}
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).
		Where("payment_request_code = ?", requestCode).
		First(&invoice).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) ListInvoices(ctx context.Context, params ListInvoicesQuery) ([]models.Invoice, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Invoice{}).Where("landlord_id = ?", params.LandlordID)
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Category != nil {
		query = query.Where("category = ?", *params.Category)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var invoices []models.Invoice
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(limit)).Find(&invoices).Error; err != nil {
		return nil, nil, err
	}

	if len(invoices) > limit {
		next := invoices[limit]
		invoices = invoices[:limit]
		return invoices, &pagination.Cursor{
			CreatedAt: next.CreatedAt,
			ID:        next.ID,
		}, nil
	}

	return invoices, nil, nil
}

func (r *repository) MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("status = ?", enums.InvoiceStatusPending).
		Where("due_date < ?", asOf).
		Update("status", enums.InvoiceStatusOverdue)
	return result.RowsAffected, result.Error
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) FindTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	if reference == "" {
		return nil, nil
	}
	var txn models.Transaction
	if err := r.db.WithContext(ctx).
		Where("reference = ?", reference).
		First(&txn).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

func (r *repository) ListTransactionsByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("paid_at DESC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}
