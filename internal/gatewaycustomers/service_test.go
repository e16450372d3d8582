package gatewaycustomers

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/tmokoena/rentpilot-backend/pkg/db/models"
	pkgerrors "github.com/tmokoena/rentpilot-backend/pkg/errors"
	"github.com/tmokoena/rentpilot-backend/pkg/paystack"
)

type fakeGateway struct {
	created  []paystack.CustomerParams
	customer *paystack.Customer
	err      error
}

func (f *fakeGateway) CreateCustomer(ctx context.Context, params paystack.CustomerParams) (*paystack.Customer, error) {
	f.created = append(f.created, params)
	return f.customer, f.err
}

type fakeTenants struct {
	updates map[uuid.UUID]string
	err     error
}

func (f *fakeTenants) UpdateCustomerCode(ctx context.Context, id uuid.UUID, code string) error {
	if f.updates == nil {
		f.updates = map[uuid.UUID]string{}
	}
	f.updates[id] = code
	return f.err
}

func TestEnsureCustomerReturnsStoredCode(t *testing.T) {
	gateway := &fakeGateway{}
	tenants := &fakeTenants{}
	svc, err := NewService(gateway, tenants)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	code := "CUS_existing"
	tenant := &models.Tenant{ID: uuid.New(), Email: "t@example.com", CustomerCode: &code}

	got, err := svc.EnsureCustomer(context.Background(), tenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != code {
		t.Fatalf("expected stored code %q, got %q", code, got)
	}
	if len(gateway.created) != 0 {
		t.Fatal("gateway should not be called when a code is stored")
	}
}

func TestEnsureCustomerCreatesAndPersists(t *testing.T) {
	gateway := &fakeGateway{customer: &paystack.Customer{CustomerCode: "CUS_new"}}
	tenants := &fakeTenants{}
	svc, _ := NewService(gateway, tenants)

	phone := "+27821234567"
	tenant := &models.Tenant{
		ID:        uuid.New(),
		FirstName: "Thandi",
		LastName:  "Mkhize",
		Email:     "thandi@example.com",
		Phone:     &phone,
	}

	got, err := svc.EnsureCustomer(context.Background(), tenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "CUS_new" {
		t.Fatalf("expected CUS_new, got %q", got)
	}
	if len(gateway.created) != 1 {
		t.Fatalf("expected 1 gateway call, got %d", len(gateway.created))
	}
	if gateway.created[0].Email != "thandi@example.com" {
		t.Fatalf("unexpected email forwarded: %q", gateway.created[0].Email)
	}
	if tenants.updates[tenant.ID] != "CUS_new" {
		t.Fatal("customer code not persisted")
	}
	if tenant.CustomerCode == nil || *tenant.CustomerCode != "CUS_new" {
		t.Fatal("tenant struct not updated with new code")
	}
}

func TestEnsureCustomerRequiresEmail(t *testing.T) {
	svc, _ := NewService(&fakeGateway{}, &fakeTenants{})

	_, err := svc.EnsureCustomer(context.Background(), &models.Tenant{ID: uuid.New()})
	if err == nil {
		t.Fatal("expected error for missing email")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEnsureCustomerGatewayFailure(t *testing.T) {
	gateway := &fakeGateway{err: &paystack.APIError{Kind: paystack.ErrorKindServer, StatusCode: 502, Message: "bad gateway"}}
	svc, _ := NewService(gateway, &fakeTenants{})

	_, err := svc.EnsureCustomer(context.Background(), &models.Tenant{ID: uuid.New(), Email: "x@example.com"})
	if err == nil {
		t.Fatal("expected error when gateway fails")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
