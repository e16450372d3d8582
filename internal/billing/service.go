package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/tmokoena/rentpilot-backend/pkg/db/models"
	"github.com/tmokoena/rentpilot-backend/pkg/enums"
	pkgerrors "github.com/tmokoena/rentpilot-backend/pkg/errors"
	"github.com/tmokoena/rentpilot-backend/pkg/pagination"
)

// Service exposes the landlord-facing invoice surface.
type Service struct {
	repo      Repository
	tenants   tenantFinder
	customers customerEnsurer
	gateway   paymentRequester
}

// ServiceParams groups dependencies for the billing service. Tenants,
// Customers and Gateway are only needed for invoice creation.
type ServiceParams struct {
	Repo      Repository
	Tenants   tenantFinder
	Customers customerEnsurer
	Gateway   paymentRequester
}

// NewService builds a billing service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "billing repository required")
	}
	return &Service{
		repo:      params.Repo,
		tenants:   params.Tenants,
		customers: params.Customers,
		gateway:   params.Gateway,
	}, nil
}

// ListInvoicesParams configures pagination and filters for invoice listings.
type ListInvoicesParams struct {
	LandlordID uuid.UUID
	Limit      int
	Cursor     string
	Status     *enums.InvoiceStatus
	Category   *enums.InvoiceCategory
}

// ListInvoicesResult wraps returned invoices and the cursor for the next page.
type ListInvoicesResult struct {
	Items  []models.Invoice `json:"items"`
	Cursor string           `json:"cursor"`
}

func (s *Service) ListInvoices(ctx context.Context, params ListInvoicesParams) (*ListInvoicesResult, error) {
	if params.LandlordID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "landlord id required")
	}

	query := ListInvoicesQuery{
		LandlordID: params.LandlordID,
		Limit:      params.Limit,
		Status:     params.Status,
		Category:   params.Category,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListInvoices(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}

	return &ListInvoicesResult{
		Items:  rows,
		Cursor: cursor,
	}, nil
}

// InvoiceDetail bundles an invoice with its recorded payments.
type InvoiceDetail struct {
	Invoice      models.Invoice       `json:"invoice"`
	Transactions []models.Transaction `json:"transactions"`
}

// GetInvoice returns a landlord's invoice with its payment history.
func (s *Service) GetInvoice(ctx context.Context, landlordID, invoiceID uuid.UUID) (*InvoiceDetail, error) {
	if landlordID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "landlord id required")
	}
	if invoiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id required")
	}

	invoice, err := s.repo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find invoice")
	}
	if invoice == nil || invoice.LandlordID != landlordID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}

	txns, err := s.repo.ListTransactionsByInvoice(ctx, invoice.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoice transactions")
	}

	return &InvoiceDetail{
		Invoice:      *invoice,
		Transactions: txns,
	}, nil
}
