package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tmokoena/rentpilot-backend/api/responses"
	"github.com/tmokoena/rentpilot-backend/api/validators"
	"github.com/tmokoena/rentpilot-backend/internal/billing"
	"github.com/tmokoena/rentpilot-backend/pkg/db/models"
	"github.com/tmokoena/rentpilot-backend/pkg/enums"
	pkgerrors "github.com/tmokoena/rentpilot-backend/pkg/errors"
	"github.com/tmokoena/rentpilot-backend/pkg/logger"
)

// billingService is the slice of billing.Service the invoice handlers need.
type billingService interface {
	ListInvoices(ctx context.Context, params billing.ListInvoicesParams) (*billing.ListInvoicesResult, error)
	GetInvoice(ctx context.Context, landlordID, invoiceID uuid.UUID) (*billing.InvoiceDetail, error)
	CreateInvoice(ctx context.Context, params billing.CreateInvoiceParams) (*models.Invoice, error)
}

// ListInvoices returns paginated invoices for the active landlord, optionally
// filtered by status and category.
func ListInvoices(svc billingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		lid, ok := landlordFromRequest(w, r, logg)
		if !ok {
			return
		}

		params := billing.ListInvoicesParams{LandlordID: lid}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Limit = limit

		if cursor := strings.TrimSpace(r.URL.Query().Get("cursor")); cursor != "" {
			params.Cursor = cursor
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseInvoiceStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			params.Status = &status
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
			category, err := enums.ParseInvoiceCategory(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category filter"))
				return
			}
			params.Category = &category
		}

		resp, err := svc.ListInvoices(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

type createInvoiceRequest struct {
	TenantID    string `json:"tenant_id" validate:"required,uuid"`
	LeaseID     string `json:"lease_id" validate:"omitempty,uuid"`
	Amount      string `json:"amount" validate:"required"`
	Currency    string `json:"currency" validate:"omitempty,oneof=ZAR NGN USD"`
	DueDate     string `json:"due_date" validate:"required"`
	Category    string `json:"category" validate:"omitempty,oneof=rent utilities deposit other"`
	Description string `json:"description" validate:"omitempty,max=280"`
}

// CreateInvoice raises a one-off invoice for a tenant and opens a payment
// request at the gateway.
func CreateInvoice(svc billingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		lid, ok := landlordFromRequest(w, r, logg)
		if !ok {
			return
		}

		var body createInvoiceRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tenantID, err := uuid.Parse(body.TenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tenant id"))
			return
		}

		var leaseID *uuid.UUID
		if body.LeaseID != "" {
			parsed, err := uuid.Parse(body.LeaseID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid lease id"))
				return
			}
			leaseID = &parsed
		}

		amount, err := decimal.NewFromString(body.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount"))
			return
		}

		dueDate, err := parseDueDate(body.DueDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid due date"))
			return
		}

		invoice, err := svc.CreateInvoice(r.Context(), billing.CreateInvoiceParams{
			LandlordID:  lid,
			TenantID:    tenantID,
			LeaseID:     leaseID,
			Amount:      amount,
			Currency:    enums.Currency(body.Currency),
			DueDate:     dueDate,
			Category:    enums.InvoiceCategory(body.Category),
			Description: validators.SanitizeString(body.Description, 280),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, invoice)
	}
}

// parseDueDate accepts a plain date or an RFC 3339 timestamp.
func parseDueDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// GetInvoice returns a single invoice with its payment transactions.
func GetInvoice(svc billingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		lid, ok := landlordFromRequest(w, r, logg)
		if !ok {
			return
		}

		invoiceID, err := uuid.Parse(chi.URLParam(r, "invoiceId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid invoice id"))
			return
		}

		detail, err := svc.GetInvoice(r.Context(), lid, invoiceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}
