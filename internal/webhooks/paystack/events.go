package paystackwebhook

import (
	"encoding/json"
	"time"
)

// Event names delivered by the gateway.
const (
	EventChargeSuccess          = "charge.success"
	EventPaymentRequestSuccess  = "paymentrequest.success"
	EventInvoicePaymentFailed   = "invoice.payment_failed"
	EventSubscriptionCreate     = "subscription.create"
	EventSubscriptionDisable    = "subscription.disable"
	EventSubscriptionNotRenew   = "subscription.not_renew"
	EventSubscriptionCardExpiry = "subscription.expiring_cards"
)

// Envelope is the outer webhook payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Customer identifies the gateway customer on an event.
type Customer struct {
	Email        string `json:"email"`
	CustomerCode string `json:"customer_code"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
}

// Plan identifies the subscription plan on an event.
type Plan struct {
	Name     string `json:"name"`
	PlanCode string `json:"plan_code"`
	Amount   int64  `json:"amount"`
}

// SubscriptionRef is the nested subscription block carried on charge and
// invoice events.
type SubscriptionRef struct {
	SubscriptionCode string `json:"subscription_code"`
	Status           string `json:"status"`
}

// PaymentRequestData is delivered when a payment request is settled. Amounts
// are in the smallest currency unit.
type PaymentRequestData struct {
	ID          int64      `json:"id"`
	RequestCode string     `json:"request_code"`
	Amount      int64      `json:"amount"`
	AmountPaid  int64      `json:"amount_paid"`
	Currency    string     `json:"currency"`
	Reference   string     `json:"offline_reference"`
	PaidAt      *time.Time `json:"paid_at"`
	Customer    Customer   `json:"customer"`
}

// ChargeData is delivered on a successful charge, including subscription
// renewals. Amount is in the smallest currency unit.
type ChargeData struct {
	Reference string     `json:"reference"`
	Amount    int64      `json:"amount"`
	Currency  string     `json:"currency"`
	PaidAt    *time.Time `json:"paid_at"`
	Customer  Customer   `json:"customer"`
	Plan      *Plan      `json:"plan"`
}

// InvoiceFailedData is delivered when a subscription charge attempt fails.
type InvoiceFailedData struct {
	Subscription *SubscriptionRef `json:"subscription"`
	Customer     Customer         `json:"customer"`
	Description  string           `json:"description"`
}

// SubscriptionData carries subscription lifecycle state.
type SubscriptionData struct {
	SubscriptionCode string     `json:"subscription_code"`
	Status           string     `json:"status"`
	Amount           int64      `json:"amount"`
	NextPaymentDate  *time.Time `json:"next_payment_date"`
	Plan             *Plan      `json:"plan"`
	Customer         Customer   `json:"customer"`
}

// ExpiringCard is one entry of a subscription.expiring_cards batch.
type ExpiringCard struct {
	ExpiryDate   string           `json:"expiry_date"`
	Description  string           `json:"description"`
	Subscription *SubscriptionRef `json:"subscription"`
	Customer     Customer         `json:"customer"`
}
