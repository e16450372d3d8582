package billing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tmokoena/rentpilot-backend/pkg/db/models"
	"github.com/tmokoena/rentpilot-backend/pkg/enums"
)

func setupBillingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	tenants := `
CREATE TABLE IF NOT EXISTS tenants (
  id TEXT PRIMARY KEY,
  landlord_id TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT,
  customer_code TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	billables := `
CREATE TABLE IF NOT EXISTS recurring_billables (
  id TEXT PRIMARY KEY,
  lease_id TEXT NOT NULL,
  tenant_id TEXT NOT NULL,
  landlord_id TEXT NOT NULL,
  amount TEXT NOT NULL,
  currency TEXT NOT NULL DEFAULT 'ZAR',
  cycle TEXT NOT NULL DEFAULT 'monthly',
  start_date DATETIME NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  category TEXT NOT NULL DEFAULT 'rent',
  description TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	invoices := `
CREATE TABLE IF NOT EXISTS invoices (
  id TEXT PRIMARY KEY,
  recurring_billable_id TEXT,
  lease_id TEXT,
  tenant_id TEXT NOT NULL,
  landlord_id TEXT NOT NULL,
  due_amount TEXT NOT NULL,
  amount_paid TEXT NOT NULL DEFAULT '0',
  currency TEXT NOT NULL DEFAULT 'ZAR',
  due_date DATETIME NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  category TEXT NOT NULL DEFAULT 'rent',
  description TEXT,
  line_items TEXT,
  payment_request_code TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	transactions := `
CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  invoice_id TEXT NOT NULL,
  amount TEXT NOT NULL,
  reference TEXT NOT NULL UNIQUE,
  paid_at DATETIME NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(tenants).Error)
	require.NoError(t, db.Exec(billables).Error)
	require.NoError(t, db.Exec(invoices).Error)
	require.NoError(t, db.Exec(transactions).Error)
	return db
}

func newTenant(t *testing.T, db *gorm.DB, landlordID uuid.UUID, email string) *models.Tenant {
	t.Helper()

	tenant := &models.Tenant{
		ID:         uuid.New(),
		LandlordID: landlordID,
		FirstName:  "Thandi",
		LastName:   "Mkhize",
		Email:      email,
	}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

func newBillable(t *testing.T, db *gorm.DB, tenant *models.Tenant, cycle enums.BillingCycle, active bool) *models.RecurringBillable {
	t.Helper()

	billable := &models.RecurringBillable{
		ID:         uuid.New(),
		LeaseID:    uuid.New(),
		TenantID:   tenant.ID,
		LandlordID: tenant.LandlordID,
		Amount:     decimal.RequireFromString("8500.00"),
		Currency:   enums.CurrencyZAR,
		Cycle:      cycle,
		StartDate:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Active:     active,
		Category:   enums.InvoiceCategoryRent,
	}
	require.NoError(t, db.Create(billable).Error)
	return billable
}

func newInvoice(t *testing.T, db *gorm.DB, billable *models.RecurringBillable, dueDate time.Time, status enums.InvoiceStatus, created time.Time) *models.Invoice {
	t.Helper()

	invoice := &models.Invoice{
		ID:                  uuid.New(),
		RecurringBillableID: &billable.ID,
		LeaseID:             &billable.LeaseID,
		TenantID:            billable.TenantID,
		LandlordID:          billable.LandlordID,
		DueAmount:           billable.Amount,
		AmountPaid:          decimal.Zero,
		Currency:            billable.Currency,
		DueDate:             dueDate,
		Status:              status,
		Category:            billable.Category,
		CreatedAt:           created,
		UpdatedAt:           created,
	}
	require.NoError(t, db.Create(invoice).Error)
	return invoice
}

func TestRepositoryListActiveBillables(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	tenant := newTenant(t, db, uuid.New(), "thandi@example.com")
	monthly := newBillable(t, db, tenant, enums.BillingCycleMonthly, true)
	newBillable(t, db, tenant, enums.BillingCycleMonthly, false)
	newBillable(t, db, tenant, enums.BillingCycleWeekly, true)

	billables, err := repo.ListActiveBillables(ctx, enums.BillingCycleMonthly)
	require.NoError(t, err)
	require.Len(t, billables, 1)
	assert.Equal(t, monthly.ID, billables[0].ID)
	require.NotNil(t, billables[0].Tenant)
	assert.Equal(t, "thandi@example.com", billables[0].Tenant.Email)
}

func TestRepositorySetBillableActive(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	tenant := newTenant(t, db, uuid.New(), "sam@example.com")
	billable := newBillable(t, db, tenant, enums.BillingCycleMonthly, true)

	require.NoError(t, repo.SetBillableActive(ctx, billable.ID, false))

	billables, err := repo.ListActiveBillables(ctx, enums.BillingCycleMonthly)
	require.NoError(t, err)
	assert.Empty(t, billables)
}

func TestRepositoryFindOpenInvoice(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	tenant := newTenant(t, db, uuid.New(), "lebo@example.com")
	billable := newBillable(t, db, tenant, enums.BillingCycleMonthly, true)
	dueDate := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	found, err := repo.FindOpenInvoice(ctx, billable.ID, dueDate)
	require.NoError(t, err)
	assert.Nil(t, found)

	invoice := newInvoice(t, db, billable, dueDate, enums.InvoiceStatusPending, time.Now().UTC())

	found, err = repo.FindOpenInvoice(ctx, billable.ID, dueDate)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, invoice.ID, found.ID)

	// Terminal invoices do not block a new occurrence.
	require.NoError(t, db.Model(&models.Invoice{}).Where("id = ?", invoice.ID).Update("status", enums.InvoiceStatusPaid).Error)

	found, err = repo.FindOpenInvoice(ctx, billable.ID, dueDate)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRepositoryFindInvoiceByRequestCode(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	tenant := newTenant(t, db, uuid.New(), "zinhle@example.com")
	billable := newBillable(t, db, tenant, enums.BillingCycleMonthly, true)
	invoice := newInvoice(t, db, billable, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), enums.InvoiceStatusPending, time.Now().UTC())

	code := "PRQ_test_123"
	invoice.PaymentRequestCode = &code
	require.NoError(t, repo.UpdateInvoice(ctx, invoice))

	found, err := repo.FindInvoiceByRequestCode(ctx, code)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, invoice.ID, found.ID)

	found, err = repo.FindInvoiceByRequestCode(ctx, "PRQ_missing")
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = repo.FindInvoiceByRequestCode(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRepositoryListInvoices_pagination(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	landlordID := uuid.New()
	tenant := newTenant(t, db, landlordID, "pager@example.com")
	billable := newBillable(t, db, tenant, enums.BillingCycleMonthly, true)

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		newInvoice(t, db, billable,
			time.Date(2026, time.Month(4+i), 1, 0, 0, 0, 0, time.UTC),
			enums.InvoiceStatusPending,
			base.Add(time.Duration(i)*time.Hour))
	}

	first, cursor, err := repo.ListInvoices(ctx, ListInvoicesQuery{LandlordID: landlordID, Limit: 3})
	require.NoError(t, err)
	require.Len(t, first, 3)
	require.NotNil(t, cursor)

	second, cursor, err := repo.ListInvoices(ctx, ListInvoicesQuery{LandlordID: landlordID, Limit: 3, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Nil(t, cursor)

	// Newest first, no overlap between pages.
	seen := map[uuid.UUID]bool{}
	for _, inv := range append(first, second...) {
		assert.False(t, seen[inv.ID])
		seen[inv.ID] = true
	}
	assert.True(t, first[0].CreatedAt.After(first[1].CreatedAt))
}

func TestRepositoryListInvoices_statusFilter(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	landlordID := uuid.New()
	tenant := newTenant(t, db, landlordID, "filter@example.com")
	billable := newBillable(t, db, tenant, enums.BillingCycleMonthly, true)

	now := time.Now().UTC()
	newInvoice(t, db, billable, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), enums.InvoiceStatusPending, now)
	paid := newInvoice(t, db, billable, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), enums.InvoiceStatusPaid, now.Add(time.Minute))

	status := enums.InvoiceStatusPaid
	rows, _, err := repo.ListInvoices(ctx, ListInvoicesQuery{LandlordID: landlordID, Status: &status})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, paid.ID, rows[0].ID)
}

func TestRepositoryMarkOverdueInvoices(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	tenant := newTenant(t, db, uuid.New(), "overdue@example.com")
	billable := newBillable(t, db, tenant, enums.BillingCycleMonthly, true)

	now := time.Now().UTC()
	past := newInvoice(t, db, billable, now.AddDate(0, 0, -3), enums.InvoiceStatusPending, now)
	future := newInvoice(t, db, billable, now.AddDate(0, 0, 3), enums.InvoiceStatusPending, now)
	paid := newInvoice(t, db, billable, now.AddDate(0, 0, -10), enums.InvoiceStatusPaid, now)

	count, err := repo.MarkOverdueInvoices(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	var got models.Invoice
	require.NoError(t, db.First(&got, "id = ?", past.ID).Error)
	assert.Equal(t, enums.InvoiceStatusOverdue, got.Status)

	require.NoError(t, db.First(&got, "id = ?", future.ID).Error)
	assert.Equal(t, enums.InvoiceStatusPending, got.Status)

	require.NoError(t, db.First(&got, "id = ?", paid.ID).Error)
	assert.Equal(t, enums.InvoiceStatusPaid, got.Status)
}

func TestRepositoryTransactions(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	tenant := newTenant(t, db, uuid.New(), "txn@example.com")
	billable := newBillable(t, db, tenant, enums.BillingCycleMonthly, true)
	invoice := newInvoice(t, db, billable, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), enums.InvoiceStatusPending, time.Now().UTC())

	paidAt := time.Date(2026, 6, 2, 10, 30, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		txn := &models.Transaction{
			ID:        uuid.New(),
			InvoiceID: invoice.ID,
			Amount:    decimal.RequireFromString("4250.00"),
			Reference: fmt.Sprintf("ref-%d", i),
			PaidAt:    paidAt.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, repo.CreateTransaction(ctx, txn))
	}

	found, err := repo.FindTransactionByReference(ctx, "ref-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, invoice.ID, found.InvoiceID)

	found, err = repo.FindTransactionByReference(ctx, "ref-missing")
	require.NoError(t, err)
	assert.Nil(t, found)

	txns, err := repo.ListTransactionsByInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "ref-1", txns[0].Reference)
}
