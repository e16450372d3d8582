package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/tmokoena/rentpilot-backend/internal/billing"
	"github.com/tmokoena/rentpilot-backend/pkg/db/models"
	"github.com/tmokoena/rentpilot-backend/pkg/enums"
	"github.com/tmokoena/rentpilot-backend/pkg/logger"
	"github.com/tmokoena/rentpilot-backend/pkg/metrics"
	"github.com/tmokoena/rentpilot-backend/pkg/paystack"
	"github.com/tmokoena/rentpilot-backend/pkg/types"
)

const (
	defaultLookaheadDays   = 30
	defaultBatchSize       = 5
	defaultCallDelay       = 250 * time.Millisecond
	defaultMaxAttempts     = 5
	defaultEvalConcurrency = 8
	defaultCurrency        = "ZAR"
	initialRetryBackoff    = 500 * time.Millisecond
)

type billingRepository interface {
	ListActiveBillables(ctx context.Context, cycle enums.BillingCycle) ([]models.RecurringBillable, error)
	FindOpenInvoice(ctx context.Context, billableID uuid.UUID, dueDate time.Time) (*models.Invoice, error)
	CreateInvoice(ctx context.Context, invoice *models.Invoice) error
	MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error)
}

type customerEnsurer interface {
	EnsureCustomer(ctx context.Context, tenant *models.Tenant) (string, error)
}

type paymentRequester interface {
	CreatePaymentRequest(ctx context.Context, params paystack.PaymentRequestParams) (*paystack.PaymentRequest, error)
}

// RecurringInvoiceJobParams configures the scheduled invoice run.
type RecurringInvoiceJobParams struct {
	Logger          *logger.Logger
	BillingRepo     billingRepository
	Customers       customerEnsurer
	Gateway         paymentRequester
	Metrics         *metrics.BillingMetrics
	LookaheadDays   int
	BatchSize       int
	CallDelay       time.Duration
	MaxAttempts     int
	EvalConcurrency int
	DefaultCurrency string
}

// NewRecurringInvoiceJob constructs the recurring invoice cron job.
func NewRecurringInvoiceJob(params RecurringInvoiceJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.BillingRepo == nil {
		return nil, fmt.Errorf("billing repository required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer service required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	if params.LookaheadDays <= 0 {
		params.LookaheadDays = defaultLookaheadDays
	}
	if params.BatchSize <= 0 {
		params.BatchSize = defaultBatchSize
	}
	if params.CallDelay <= 0 {
		params.CallDelay = defaultCallDelay
	}
	if params.MaxAttempts <= 0 {
		params.MaxAttempts = defaultMaxAttempts
	}
	if params.EvalConcurrency <= 0 {
		params.EvalConcurrency = defaultEvalConcurrency
	}
	if params.DefaultCurrency == "" {
		params.DefaultCurrency = defaultCurrency
	}
	return &recurringInvoiceJob{
		logg:            params.Logger,
		repo:            params.BillingRepo,
		customers:       params.Customers,
		gateway:         params.Gateway,
		metrics:         params.Metrics,
		lookaheadDays:   params.LookaheadDays,
		batchSize:       params.BatchSize,
		callDelay:       params.CallDelay,
		maxAttempts:     params.MaxAttempts,
		evalConcurrency: params.EvalConcurrency,
		currency:        params.DefaultCurrency,
		now:             time.Now,
	}, nil
}

type recurringInvoiceJob struct {
	logg            *logger.Logger
	repo            billingRepository
	customers       customerEnsurer
	gateway         paymentRequester
	metrics         *metrics.BillingMetrics
	lookaheadDays   int
	batchSize       int
	callDelay       time.Duration
	maxAttempts     int
	evalConcurrency int
	currency        string
	now             func() time.Time
}

// candidate is one billable due for an invoice this run.
type candidate struct {
	billable models.RecurringBillable
	dueDate  time.Time
}

func (j *recurringInvoiceJob) Name() string { return "recurring-invoices" }

func (j *recurringInvoiceJob) Run(ctx context.Context) error {
	today := billing.StartOfDay(j.now().UTC())

	if count, err := j.repo.MarkOverdueInvoices(ctx, today); err != nil {
		j.logg.Error(ctx, "mark overdue invoices", err)
	} else if count > 0 {
		j.logg.Info(j.logg.WithField(ctx, "count", count), "invoices marked overdue")
	}

	billables, err := j.repo.ListActiveBillables(ctx, enums.BillingCycleMonthly)
	if err != nil {
		return fmt.Errorf("list active billables: %w", err)
	}

	candidates, err := j.evaluate(ctx, billables, today)
	if err != nil {
		return fmt.Errorf("evaluate billables: %w", err)
	}
	j.metrics.AddCandidates(len(candidates))

	created, errs := j.submit(ctx, candidates)

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"billables":  len(billables),
		"candidates": len(candidates),
		"created":    created,
		"failed":     len(errs),
	})
	j.logg.Info(logCtx, "recurring invoice run complete")
	return multierr.Combine(errs...)
}

// evaluate computes due dates and filters out billables that already have an
// open invoice. Read-only against independent rows, so it runs concurrently;
// results land in per-index slots to keep ordering deterministic.
func (j *recurringInvoiceJob) evaluate(ctx context.Context, billables []models.RecurringBillable, today time.Time) ([]candidate, error) {
	horizon := today.AddDate(0, 0, j.lookaheadDays)
	slots := make([]*candidate, len(billables))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(j.evalConcurrency)
	for i := range billables {
		group.Go(func() error {
			b := billables[i]
			dueDate, err := billing.NextDueDate(b.StartDate, b.Cycle, today)
			if err != nil {
				logCtx := j.logg.WithField(groupCtx, "billable_id", b.ID.String())
				j.logg.Warn(logCtx, "skipping billable with unsupported cycle")
				return nil
			}
			if dueDate.After(horizon) {
				return nil
			}

			existing, err := j.repo.FindOpenInvoice(groupCtx, b.ID, dueDate)
			if err != nil {
				return fmt.Errorf("find open invoice for %s: %w", b.ID, err)
			}
			if existing != nil {
				j.metrics.IncSkipped()
				return nil
			}
			slots[i] = &candidate{billable: b, dueDate: dueDate}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	candidates := make([]candidate, 0, len(slots))
	for _, slot := range slots {
		if slot != nil {
			candidates = append(candidates, *slot)
		}
	}
	return candidates, nil
}

// submit issues payment requests in fixed-size batches, sequentially within a
// batch with a delay between calls. The gateway enforces a request-rate quota.
func (j *recurringInvoiceJob) submit(ctx context.Context, candidates []candidate) (int, []error) {
	created := 0
	var errs []error
	for start := 0; start < len(candidates); start += j.batchSize {
		end := start + j.batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		for i, cand := range candidates[start:end] {
			if err := ctx.Err(); err != nil {
				errs = append(errs, err)
				return created, errs
			}
			if start+i > 0 {
				if err := j.sleep(ctx, j.callDelay); err != nil {
					errs = append(errs, err)
					return created, errs
				}
			}
			if err := j.createInvoice(ctx, cand); err != nil {
				j.metrics.IncFailed()
				logCtx := j.logg.WithField(ctx, "billable_id", cand.billable.ID.String())
				j.logg.Error(logCtx, "invoice creation failed", err)
				errs = append(errs, err)
				continue
			}
			j.metrics.IncCreated()
			created++
		}
	}
	return created, errs
}

func (j *recurringInvoiceJob) createInvoice(ctx context.Context, cand candidate) error {
	b := cand.billable
	if b.Tenant == nil {
		return fmt.Errorf("billable %s has no tenant loaded", b.ID)
	}

	customerCode, err := j.customers.EnsureCustomer(ctx, b.Tenant)
	if err != nil {
		return fmt.Errorf("ensure customer for tenant %s: %w", b.TenantID, err)
	}

	description := b.Description
	if description == "" {
		description = fmt.Sprintf("%s due %s", b.Category, cand.dueDate.Format("2006-01-02"))
	}

	currency := b.Currency
	if currency == "" {
		currency = enums.Currency(j.currency)
	}

	request, err := j.requestWithRetry(ctx, paystack.PaymentRequestParams{
		CustomerCode: customerCode,
		Amount:       b.Amount,
		Currency:     currency,
		Description:  description,
		DueDate:      cand.dueDate,
		LineItems: []paystack.RequestLineItem{
			{Name: description, Amount: paystack.ToSubunits(b.Amount)},
		},
	})
	if err != nil {
		return err
	}

	lineItems, err := types.MarshalLineItems([]types.LineItem{
		{Name: description, Amount: b.Amount},
	})
	if err != nil {
		return fmt.Errorf("encode line items: %w", err)
	}

	invoice := &models.Invoice{
		RecurringBillableID: &b.ID,
		LeaseID:             &b.LeaseID,
		TenantID:            b.TenantID,
		LandlordID:          b.LandlordID,
		DueAmount:           b.Amount,
		AmountPaid:          decimal.Zero,
		Currency:            currency,
		DueDate:             cand.dueDate,
		Status:              enums.InvoiceStatusPending,
		Category:            b.Category,
		Description:         description,
		LineItems:           lineItems,
		PaymentRequestCode:  &request.RequestCode,
	}
	if err := j.repo.CreateInvoice(ctx, invoice); err != nil {
		return fmt.Errorf("persist invoice for billable %s: %w", b.ID, err)
	}
	return nil
}

// requestWithRetry retries rate-limited and transient gateway failures with
// exponential backoff. Domain rejections surface immediately.
func (j *recurringInvoiceJob) requestWithRetry(ctx context.Context, params paystack.PaymentRequestParams) (*paystack.PaymentRequest, error) {
	attempts := 0
	backoff := initialRetryBackoff

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		request, err := j.gateway.CreatePaymentRequest(ctx, params)
		if err == nil {
			return request, nil
		}

		attempts++
		if attempts >= j.maxAttempts || !paystack.IsRetryable(err) {
			return nil, fmt.Errorf("create payment request: %w", err)
		}

		if err := j.sleep(ctx, backoff); err != nil {
			return nil, err
		}
		backoff *= 2
	}
}

func (j *recurringInvoiceJob) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
