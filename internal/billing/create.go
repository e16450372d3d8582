package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tmokoena/rentpilot-backend/pkg/db/models"
	"github.com/tmokoena/rentpilot-backend/pkg/enums"
	pkgerrors "github.com/tmokoena/rentpilot-backend/pkg/errors"
	"github.com/tmokoena/rentpilot-backend/pkg/paystack"
	"github.com/tmokoena/rentpilot-backend/pkg/types"
)

type tenantFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

type customerEnsurer interface {
	EnsureCustomer(ctx context.Context, tenant *models.Tenant) (string, error)
}

type paymentRequester interface {
	CreatePaymentRequest(ctx context.Context, params paystack.PaymentRequestParams) (*paystack.PaymentRequest, error)
}

// CreateInvoiceParams describes a one-off invoice raised outside the recurring
// schedule.
type CreateInvoiceParams struct {
	LandlordID  uuid.UUID
	TenantID    uuid.UUID
	LeaseID     *uuid.UUID
	Amount      decimal.Decimal
	Currency    enums.Currency
	DueDate     time.Time
	Category    enums.InvoiceCategory
	Description string
}

// CreateInvoice raises an ad hoc invoice: it provisions the tenant's gateway
// customer if needed, opens a payment request at the gateway, and persists the
// invoice carrying the returned request code.
func (s *Service) CreateInvoice(ctx context.Context, params CreateInvoiceParams) (*models.Invoice, error) {
	if s.tenants == nil || s.customers == nil || s.gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "invoice creation not configured")
	}
	if params.LandlordID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "landlord id required")
	}
	if params.TenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if !params.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	dueDate := StartOfDay(params.DueDate.UTC())
	if dueDate.Before(StartOfDay(time.Now().UTC())) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "due date must not be in the past")
	}

	category := params.Category
	if category == "" {
		category = enums.InvoiceCategoryRent
	} else if !category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown invoice category")
	}
	currency := params.Currency
	if currency == "" {
		currency = enums.CurrencyZAR
	}

	tenant, err := s.tenants.FindByID(ctx, params.TenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find tenant")
	}
	if tenant == nil || tenant.LandlordID != params.LandlordID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
	}

	customerCode, err := s.customers.EnsureCustomer(ctx, tenant)
	if err != nil {
		return nil, err
	}

	description := params.Description
	if description == "" {
		description = fmt.Sprintf("%s due %s", category, dueDate.Format("2006-01-02"))
	}

	request, err := s.gateway.CreatePaymentRequest(ctx, paystack.PaymentRequestParams{
		CustomerCode: customerCode,
		Amount:       params.Amount,
		Currency:     currency,
		Description:  description,
		DueDate:      dueDate,
		LineItems: []paystack.RequestLineItem{
			{Name: description, Amount: paystack.ToSubunits(params.Amount)},
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment request")
	}

	lineItems, err := types.MarshalLineItems([]types.LineItem{
		{Name: description, Amount: params.Amount},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode line items")
	}

	invoice := &models.Invoice{
		LeaseID:            params.LeaseID,
		TenantID:           tenant.ID,
		LandlordID:         params.LandlordID,
		DueAmount:          params.Amount,
		AmountPaid:         decimal.Zero,
		Currency:           currency,
		DueDate:            dueDate,
		Status:             enums.InvoiceStatusPending,
		Category:           category,
		Description:        description,
		LineItems:          lineItems,
		PaymentRequestCode: &request.RequestCode,
	}
	if err := s.repo.CreateInvoice(ctx, invoice); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist invoice")
	}
	return invoice, nil
}
