package paystack

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tmokoena/rentpilot-backend/pkg/enums"
)

var subunitFactor = decimal.NewFromInt(100)

// ToSubunits converts a major-unit amount to the gateway's smallest currency
// unit. This is the single conversion point; callers pass decimals everywhere
// else.
func ToSubunits(amount decimal.Decimal) int64 {
	return amount.Mul(subunitFactor).Round(0).IntPart()
}

// FromSubunits converts a gateway amount back to a major-unit decimal.
func FromSubunits(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(subunitFactor)
}

// RequestLineItem is one billed line on a payment request.
type RequestLineItem struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
}

// PaymentRequestParams creates an invoice-style payment request against an
// existing gateway customer.
type PaymentRequestParams struct {
	CustomerCode string
	Amount       decimal.Decimal
	Currency     enums.Currency
	Description  string
	DueDate      time.Time
	LineItems    []RequestLineItem
}

// PaymentRequest is the persisted gateway identity of a payment request.
type PaymentRequest struct {
	ID          int64  `json:"id"`
	RequestCode string `json:"request_code"`
	Status      string `json:"status"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
}

// CustomerParams creates a gateway customer.
type CustomerParams struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

// Customer is the gateway's customer record.
type Customer struct {
	ID           int64  `json:"id"`
	CustomerCode string `json:"customer_code"`
	Email        string `json:"email"`
}

// SubaccountParams creates a settlement subaccount for a landlord.
type SubaccountParams struct {
	BusinessName     string
	BankCode         string
	AccountNumber    string
	PercentageCharge decimal.Decimal
}

// Subaccount is the gateway's subaccount record.
type Subaccount struct {
	ID             int64  `json:"id"`
	SubaccountCode string `json:"subaccount_code"`
}

// SplitShare assigns a share of a split to a subaccount.
type SplitShare struct {
	Subaccount string `json:"subaccount"`
	Share      int64  `json:"share"`
}

// SplitParams creates a split-payment group.
type SplitParams struct {
	Name     string
	Type     string
	Currency enums.Currency
	Shares   []SplitShare
}

// Split is the gateway's split group record.
type Split struct {
	ID        int64  `json:"id"`
	SplitCode string `json:"split_code"`
}

// SubscriptionParams subscribes a customer to a plan.
type SubscriptionParams struct {
	CustomerCode  string
	PlanCode      string
	Authorization string
}

// Subscription is the gateway's subscription record.
type Subscription struct {
	ID               int64      `json:"id"`
	SubscriptionCode string     `json:"subscription_code"`
	Status           string     `json:"status"`
	NextPaymentDate  *time.Time `json:"next_payment_date"`
}

// TransactionParams initializes a hosted checkout transaction.
type TransactionParams struct {
	Email       string
	Amount      decimal.Decimal
	Currency    enums.Currency
	CallbackURL string
	Reference   string
}

// TransactionInit carries the hosted checkout handle.
type TransactionInit struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}
