package cron

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tmokoena/rentpilot-backend/pkg/db/models"
	"github.com/tmokoena/rentpilot-backend/pkg/enums"
	"github.com/tmokoena/rentpilot-backend/pkg/logger"
	"github.com/tmokoena/rentpilot-backend/pkg/paystack"
)

type fakeBillingRepo struct {
	mu        sync.Mutex
	billables []models.RecurringBillable
	open      map[string]*models.Invoice
	created   []*models.Invoice
	listErr   error
	createErr error
}

func openKey(billableID uuid.UUID, dueDate time.Time) string {
	return billableID.String() + "|" + dueDate.Format("2006-01-02")
}

func (f *fakeBillingRepo) ListActiveBillables(ctx context.Context, cycle enums.BillingCycle) ([]models.RecurringBillable, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	// Returns every active row regardless of cycle so the job's own
	// unsupported-cycle handling is exercised.
	out := []models.RecurringBillable{}
	for _, b := range f.billables {
		if b.Active {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBillingRepo) FindOpenInvoice(ctx context.Context, billableID uuid.UUID, dueDate time.Time) (*models.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open[openKey(billableID, dueDate)], nil
}

func (f *fakeBillingRepo) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, invoice)
	return nil
}

func (f *fakeBillingRepo) MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error) {
	return 0, nil
}

type fakeCustomers struct {
	code string
	err  error
}

func (f *fakeCustomers) EnsureCustomer(ctx context.Context, tenant *models.Tenant) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.code != "" {
		return f.code, nil
	}
	return "CUS_" + tenant.ID.String()[:8], nil
}

type fakeGateway struct {
	mu       sync.Mutex
	calls    int
	failures int
	failWith error
}

func (f *fakeGateway) CreatePaymentRequest(ctx context.Context, params paystack.PaymentRequestParams) (*paystack.PaymentRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, f.failWith
	}
	return &paystack.PaymentRequest{
		ID:          int64(f.calls),
		RequestCode: fmt.Sprintf("PRQ_%d", f.calls),
		Status:      "pending",
		Amount:      paystack.ToSubunits(params.Amount),
		Currency:    string(params.Currency),
	}, nil
}

func testBillable(start time.Time) models.RecurringBillable {
	tenantID := uuid.New()
	return models.RecurringBillable{
		ID:         uuid.New(),
		LeaseID:    uuid.New(),
		TenantID:   tenantID,
		LandlordID: uuid.New(),
		Amount:     decimal.RequireFromString("8500.00"),
		Currency:   enums.CurrencyZAR,
		Cycle:      enums.BillingCycleMonthly,
		StartDate:  start,
		Active:     true,
		Category:   enums.InvoiceCategoryRent,
		Tenant: &models.Tenant{
			ID:        tenantID,
			FirstName: "Thandi",
			LastName:  "Mkhize",
			Email:     "thandi@example.com",
		},
	}
}

func newInvoiceJob(t *testing.T, repo *fakeBillingRepo, gateway *fakeGateway) *recurringInvoiceJob {
	t.Helper()
	jobIface, err := NewRecurringInvoiceJob(RecurringInvoiceJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		BillingRepo: repo,
		Customers:   &fakeCustomers{},
		Gateway:     gateway,
		CallDelay:   time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewRecurringInvoiceJob: %v", err)
	}
	job, ok := jobIface.(*recurringInvoiceJob)
	if !ok {
		t.Fatalf("expected recurringInvoiceJob, got %T", jobIface)
	}
	return job
}

func TestRecurringInvoiceJobCreatesInvoices(t *testing.T) {
	now := time.Date(2026, 9, 20, 9, 0, 0, 0, time.UTC)
	repo := &fakeBillingRepo{
		billables: []models.RecurringBillable{
			testBillable(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
			testBillable(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)),
		},
	}
	gateway := &fakeGateway{}
	job := newInvoiceJob(t, repo, gateway)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(repo.created) != 2 {
		t.Fatalf("expected 2 invoices, got %d", len(repo.created))
	}
	for _, inv := range repo.created {
		if inv.PaymentRequestCode == nil || *inv.PaymentRequestCode == "" {
			t.Fatal("invoice missing payment request code")
		}
		if inv.Status != enums.InvoiceStatusPending {
			t.Fatalf("expected pending status, got %s", inv.Status)
		}
		if !inv.DueDate.After(now) {
			t.Fatalf("due date %s not in the future", inv.DueDate)
		}
	}
}

func TestRecurringInvoiceJobSkipsOpenInvoices(t *testing.T) {
	now := time.Date(2026, 9, 20, 9, 0, 0, 0, time.UTC)
	billable := testBillable(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	dueDate := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeBillingRepo{
		billables: []models.RecurringBillable{billable},
		open: map[string]*models.Invoice{
			openKey(billable.ID, dueDate): {ID: uuid.New(), Status: enums.InvoiceStatusPending},
		},
	}
	gateway := &fakeGateway{}
	job := newInvoiceJob(t, repo, gateway)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(repo.created) != 0 {
		t.Fatalf("expected no invoices, got %d", len(repo.created))
	}
	if gateway.calls != 0 {
		t.Fatalf("expected no gateway calls, got %d", gateway.calls)
	}
}

func TestRecurringInvoiceJobSkipsBeyondLookahead(t *testing.T) {
	now := time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC)
	// Next occurrence lands on Nov 15, outside a 30-day window from Sep 2.
	billable := testBillable(time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC))
	repo := &fakeBillingRepo{billables: []models.RecurringBillable{billable}}
	gateway := &fakeGateway{}
	job := newInvoiceJob(t, repo, gateway)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("expected no invoices, got %d", len(repo.created))
	}
}

func TestRecurringInvoiceJobRetriesRateLimits(t *testing.T) {
	now := time.Date(2026, 9, 20, 9, 0, 0, 0, time.UTC)
	repo := &fakeBillingRepo{
		billables: []models.RecurringBillable{
			testBillable(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		},
	}
	gateway := &fakeGateway{
		failures: 2,
		failWith: &paystack.APIError{Kind: paystack.ErrorKindRateLimited, StatusCode: 429, Message: "slow down"},
	}
	job := newInvoiceJob(t, repo, gateway)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected 1 invoice, got %d", len(repo.created))
	}
	if gateway.calls != 3 {
		t.Fatalf("expected 3 gateway calls, got %d", gateway.calls)
	}
}

func TestRecurringInvoiceJobDoesNotRetryClientErrors(t *testing.T) {
	now := time.Date(2026, 9, 20, 9, 0, 0, 0, time.UTC)
	repo := &fakeBillingRepo{
		billables: []models.RecurringBillable{
			testBillable(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		},
	}
	gateway := &fakeGateway{
		failures: 1,
		failWith: &paystack.APIError{Kind: paystack.ErrorKindClient, StatusCode: 400, Message: "invalid customer"},
	}
	job := newInvoiceJob(t, repo, gateway)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected partial failure to surface")
	}

	if len(repo.created) != 0 {
		t.Fatalf("expected no invoices, got %d", len(repo.created))
	}
	if gateway.calls != 1 {
		t.Fatalf("expected exactly 1 gateway call, got %d", gateway.calls)
	}
}

func TestRecurringInvoiceJobContinuesPastFailures(t *testing.T) {
	now := time.Date(2026, 9, 20, 9, 0, 0, 0, time.UTC)
	repo := &fakeBillingRepo{
		billables: []models.RecurringBillable{
			testBillable(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
			testBillable(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)),
		},
	}
	gateway := &fakeGateway{
		failures: 1,
		failWith: &paystack.APIError{Kind: paystack.ErrorKindClient, StatusCode: 400, Message: "invalid customer"},
	}
	job := newInvoiceJob(t, repo, gateway)
	job.now = func() time.Time { return now }

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected aggregated error for the failed candidate")
	}

	// First candidate fails, second still gets created.
	if len(repo.created) != 1 {
		t.Fatalf("expected 1 invoice, got %d", len(repo.created))
	}
}

func TestRecurringInvoiceJobSkipsUnsupportedCycles(t *testing.T) {
	now := time.Date(2026, 9, 20, 9, 0, 0, 0, time.UTC)
	weekly := testBillable(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	weekly.Cycle = enums.BillingCycleWeekly
	repo := &fakeBillingRepo{billables: []models.RecurringBillable{weekly}}
	gateway := &fakeGateway{}
	job := newInvoiceJob(t, repo, gateway)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gateway.calls != 0 {
		t.Fatalf("expected no gateway calls, got %d", gateway.calls)
	}
}
