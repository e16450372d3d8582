package gatewaycustomers

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/tmokoena/rentpilot-backend/pkg/db/models"
	"github.com/tmokoena/rentpilot-backend/pkg/errors"
	"github.com/tmokoena/rentpilot-backend/pkg/paystack"
)

// customerCreator is the slice of the gateway client this service needs.
type customerCreator interface {
	CreateCustomer(ctx context.Context, params paystack.CustomerParams) (*paystack.Customer, error)
}

// codeWriter persists a tenant's gateway customer code.
type codeWriter interface {
	UpdateCustomerCode(ctx context.Context, id uuid.UUID, customerCode string) error
}

// Service ensures gateway customer records exist and exposes the customer code.
type Service interface {
	EnsureCustomer(ctx context.Context, tenant *models.Tenant) (string, error)
}

type service struct {
	gateway customerCreator
	tenants codeWriter
}

// NewService wires the gateway customer service.
func NewService(gateway customerCreator, tenants codeWriter) (Service, error) {
	if gateway == nil {
		return nil, errors.New(errors.CodeDependency, "gateway client required")
	}
	if tenants == nil {
		return nil, errors.New(errors.CodeDependency, "tenant repository required")
	}
	return &service{gateway: gateway, tenants: tenants}, nil
}

// EnsureCustomer returns the tenant's gateway customer code, creating the
// gateway record on first use and persisting the code for reuse.
func (s *service) EnsureCustomer(ctx context.Context, tenant *models.Tenant) (string, error) {
	if tenant == nil {
		return "", errors.New(errors.CodeValidation, "tenant required")
	}
	if tenant.CustomerCode != nil && strings.TrimSpace(*tenant.CustomerCode) != "" {
		return *tenant.CustomerCode, nil
	}
	if strings.TrimSpace(tenant.Email) == "" {
		return "", errors.New(errors.CodeValidation, "tenant email required")
	}

	customer, err := s.gateway.CreateCustomer(ctx, paystack.CustomerParams{
		Email:     strings.TrimSpace(tenant.Email),
		FirstName: strings.TrimSpace(tenant.FirstName),
		LastName:  strings.TrimSpace(tenant.LastName),
		Phone:     safeString(tenant.Phone),
	})
	if err != nil {
		return "", errors.Wrap(errors.CodeDependency, err, "create gateway customer")
	}
	if customer == nil || strings.TrimSpace(customer.CustomerCode) == "" {
		return "", errors.New(errors.CodeDependency, "gateway customer code missing")
	}

	if err := s.tenants.UpdateCustomerCode(ctx, tenant.ID, customer.CustomerCode); err != nil {
		return "", errors.Wrap(errors.CodeDependency, err, "store customer code")
	}
	code := customer.CustomerCode
	tenant.CustomerCode = &code
	return code, nil
}

func safeString(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
