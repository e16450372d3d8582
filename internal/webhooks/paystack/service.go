package paystackwebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tmokoena/rentpilot-backend/internal/billing"
	"github.com/tmokoena/rentpilot-backend/internal/landlords"
	"github.com/tmokoena/rentpilot-backend/internal/notifications"
	"github.com/tmokoena/rentpilot-backend/pkg/db/models"
	"github.com/tmokoena/rentpilot-backend/pkg/enums"
	pkgerrors "github.com/tmokoena/rentpilot-backend/pkg/errors"
	"github.com/tmokoena/rentpilot-backend/pkg/logger"
	"github.com/tmokoena/rentpilot-backend/pkg/paystack"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notifier interface {
	Notify(ctx context.Context, msg notifications.Message) error
}

// ServiceParams configures the webhook event service.
type ServiceParams struct {
	Logger            *logger.Logger
	BillingRepo       billing.Repository
	LandlordRepo      landlords.Repository
	Notifier          notifier
	TransactionRunner txRunner
	BillingPortalURL  string
}

// Service applies gateway webhook events to billing state. Every handler is
// idempotent: re-applying an already-applied event is a no-op detected by a
// precondition check.
type Service struct {
	logg         *logger.Logger
	billingRepo  billing.Repository
	landlordRepo landlords.Repository
	notifier     notifier
	txRunner     txRunner
	portalURL    string
}

// NewService builds the webhook service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	if params.BillingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing repo required")
	}
	if params.LandlordRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "landlord repo required")
	}
	if params.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifier required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{
		logg:         params.Logger,
		billingRepo:  params.BillingRepo,
		landlordRepo: params.LandlordRepo,
		notifier:     params.Notifier,
		txRunner:     params.TransactionRunner,
		portalURL:    params.BillingPortalURL,
	}, nil
}

// HandleEvent dispatches one decoded webhook envelope. Unknown events are
// acknowledged without action.
func (s *Service) HandleEvent(ctx context.Context, envelope *Envelope) error {
	if envelope == nil || len(envelope.Data) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "event data required")
	}

	switch envelope.Event {
	case EventPaymentRequestSuccess:
		var data PaymentRequestData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment request event")
		}
		return s.handlePaymentRequestSuccess(ctx, data)
	case EventChargeSuccess:
		var data ChargeData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode charge event")
		}
		return s.handleChargeSuccess(ctx, data)
	case EventInvoicePaymentFailed:
		var data InvoiceFailedData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode invoice failed event")
		}
		return s.handleInvoicePaymentFailed(ctx, data)
	case EventSubscriptionCreate:
		var data SubscriptionData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode subscription event")
		}
		return s.handleSubscriptionCreate(ctx, data)
	case EventSubscriptionDisable:
		var data SubscriptionData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode subscription event")
		}
		return s.handleSubscriptionDisable(ctx, data)
	case EventSubscriptionNotRenew:
		var data SubscriptionData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode subscription event")
		}
		return s.handleSubscriptionNotRenew(ctx, data)
	case EventSubscriptionCardExpiry:
		var cards []ExpiringCard
		if err := json.Unmarshal(envelope.Data, &cards); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode expiring cards event")
		}
		return s.handleExpiringCards(ctx, cards)
	default:
		s.logg.Info(s.logg.WithField(ctx, "event", envelope.Event), "ignoring unhandled webhook event")
		return nil
	}
}

func (s *Service) handlePaymentRequestSuccess(ctx context.Context, data PaymentRequestData) error {
	if strings.TrimSpace(data.RequestCode) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "request code required")
	}

	var updated *models.Invoice
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.billingRepo.WithTx(tx)

		invoice, err := repo.FindInvoiceByRequestCode(ctx, data.RequestCode)
		if err != nil {
			return err
		}
		if invoice == nil {
			s.logg.Warn(s.logg.WithField(ctx, "request_code", data.RequestCode), "payment for unknown invoice")
			return nil
		}
		if invoice.Status == enums.InvoiceStatusPaid {
			return nil
		}

		reference := strings.TrimSpace(data.Reference)
		if reference == "" {
			reference = data.RequestCode
		}
		if existing, err := repo.FindTransactionByReference(ctx, reference); err != nil {
			return err
		} else if existing != nil {
			return nil
		}

		paidSubunits := data.AmountPaid
		if paidSubunits <= 0 {
			paidSubunits = data.Amount
		}
		paid := paystack.FromSubunits(paidSubunits)

		paidAt := time.Now().UTC()
		if data.PaidAt != nil {
			paidAt = data.PaidAt.UTC()
		}
		if err := repo.CreateTransaction(ctx, &models.Transaction{
			InvoiceID: invoice.ID,
			Amount:    paid,
			Reference: reference,
			PaidAt:    paidAt,
		}); err != nil {
			return err
		}

		invoice.AmountPaid = invoice.AmountPaid.Add(paid)
		if invoice.AmountPaid.GreaterThanOrEqual(invoice.DueAmount) {
			invoice.Status = enums.InvoiceStatusPaid
		} else {
			invoice.Status = enums.InvoiceStatusPartiallyPaid
		}
		if err := repo.UpdateInvoice(ctx, invoice); err != nil {
			return err
		}
		updated = invoice
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply payment request event")
	}
	if updated == nil {
		return nil
	}

	notifType := enums.NotificationInvoicePartiallyPaid
	title := "Invoice partially paid"
	body := fmt.Sprintf("An invoice received a partial payment of %s %s.", updated.Currency, updated.AmountPaid.StringFixed(2))
	if updated.Status == enums.InvoiceStatusPaid {
		notifType = enums.NotificationInvoicePaid
		title = "Invoice paid"
		body = fmt.Sprintf("An invoice of %s %s was paid in full.", updated.Currency, updated.DueAmount.StringFixed(2))
	}
	s.notify(ctx, notifications.Message{
		LandlordID: updated.LandlordID,
		Type:       notifType,
		Title:      title,
		Body:       body,
	})
	return nil
}

func (s *Service) handleChargeSuccess(ctx context.Context, data ChargeData) error {
	if data.Plan == nil || strings.TrimSpace(data.Plan.PlanCode) == "" {
		// One-off charges are settled through payment requests.
		return nil
	}

	landlord, err := s.landlordRepo.FindByEmail(ctx, data.Customer.Email)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve landlord")
	}
	if landlord == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "no landlord for subscription charge")
	}
	if landlord.PlanCode == nil || *landlord.PlanCode != data.Plan.PlanCode {
		logCtx := s.logg.WithField(ctx, "landlord_id", landlord.ID.String())
		s.logg.Warn(logCtx, "charge plan does not match stored plan")
		return nil
	}

	paidAt := time.Now().UTC()
	if data.PaidAt != nil {
		paidAt = data.PaidAt.UTC()
	}
	next := billing.AddMonths(billing.StartOfDay(paidAt), 1)

	landlord.SubscriptionStatus = enums.SubscriptionStatusActive
	landlord.NextPaymentDate = &next
	landlord.LastPaymentError = nil
	landlord.PaymentRetryCount = 0
	if err := s.landlordRepo.Update(ctx, landlord); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update landlord subscription")
	}
	return nil
}

func (s *Service) handleInvoicePaymentFailed(ctx context.Context, data InvoiceFailedData) error {
	code := ""
	if data.Subscription != nil {
		code = data.Subscription.SubscriptionCode
	}
	landlord, err := s.resolveLandlord(ctx, code, data.Customer.Email)
	if err != nil {
		return err
	}
	if landlord == nil {
		s.logg.Warn(ctx, "payment failure for unknown landlord")
		return nil
	}

	reason := strings.TrimSpace(data.Description)
	if reason == "" {
		reason = "subscription charge failed"
	}
	landlord.SubscriptionStatus = enums.SubscriptionStatusAttention
	landlord.LastPaymentError = &reason
	landlord.PaymentRetryCount++
	if err := s.landlordRepo.Update(ctx, landlord); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment failure")
	}

	msg := notifications.Message{
		LandlordID: landlord.ID,
		Type:       enums.NotificationSubscriptionAttention,
		Title:      "Subscription payment failed",
		Body:       "Your last subscription payment failed. Update your payment details to keep your account active.",
	}
	if s.portalURL != "" {
		link := s.portalURL
		msg.Link = &link
	}
	s.notify(ctx, msg)
	return nil
}

func (s *Service) handleSubscriptionCreate(ctx context.Context, data SubscriptionData) error {
	if strings.TrimSpace(data.SubscriptionCode) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription code required")
	}

	landlord, err := s.landlordRepo.FindByEmail(ctx, data.Customer.Email)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve landlord")
	}
	if landlord == nil {
		s.logg.Warn(s.logg.WithField(ctx, "email", data.Customer.Email), "subscription for unknown landlord")
		return nil
	}
	if landlord.SubscriptionCode != nil && *landlord.SubscriptionCode == data.SubscriptionCode {
		return nil
	}

	code := data.SubscriptionCode
	landlord.SubscriptionCode = &code
	landlord.SubscriptionStatus = mapSubscriptionStatus(data.Status, enums.SubscriptionStatusActive)
	if data.Plan != nil && data.Plan.PlanCode != "" {
		planCode := data.Plan.PlanCode
		landlord.PlanCode = &planCode
	}
	landlord.SubscriptionAmount = paystack.FromSubunits(data.Amount)
	landlord.NextPaymentDate = data.NextPaymentDate
	landlord.LastPaymentError = nil
	landlord.PaymentRetryCount = 0
	if err := s.landlordRepo.Update(ctx, landlord); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store subscription")
	}

	s.notify(ctx, notifications.Message{
		LandlordID: landlord.ID,
		Type:       enums.NotificationSubscriptionWelcome,
		Title:      "Subscription active",
		Body:       "Your subscription is set up. Welcome aboard.",
	})
	return nil
}

func (s *Service) handleSubscriptionDisable(ctx context.Context, data SubscriptionData) error {
	landlord, err := s.resolveLandlord(ctx, data.SubscriptionCode, data.Customer.Email)
	if err != nil {
		return err
	}
	if landlord == nil {
		s.logg.Warn(ctx, "subscription disable for unknown landlord")
		return nil
	}

	status := enums.SubscriptionStatusCancelled
	if strings.EqualFold(data.Status, "complete") || strings.EqualFold(data.Status, "completed") {
		status = enums.SubscriptionStatusCompleted
	}
	if landlord.SubscriptionCode == nil && landlord.SubscriptionStatus == status {
		return nil
	}

	landlord.SubscriptionCode = nil
	landlord.PlanCode = nil
	landlord.SubscriptionStatus = status
	landlord.NextPaymentDate = nil
	if err := s.landlordRepo.Update(ctx, landlord); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear subscription")
	}

	body := "Your subscription was cancelled."
	if status == enums.SubscriptionStatusCompleted {
		body = "Your subscription has run its course and is now complete."
	}
	s.notify(ctx, notifications.Message{
		LandlordID: landlord.ID,
		Type:       enums.NotificationSubscriptionEnded,
		Title:      "Subscription ended",
		Body:       body,
	})
	return nil
}

func (s *Service) handleSubscriptionNotRenew(ctx context.Context, data SubscriptionData) error {
	landlord, err := s.resolveLandlord(ctx, data.SubscriptionCode, data.Customer.Email)
	if err != nil {
		return err
	}
	if landlord == nil {
		s.logg.Warn(ctx, "subscription cancellation for unknown landlord")
		return nil
	}
	if landlord.SubscriptionStatus == enums.SubscriptionStatusNonRenewing {
		return nil
	}

	landlord.SubscriptionStatus = enums.SubscriptionStatusNonRenewing
	landlord.NextPaymentDate = data.NextPaymentDate
	if err := s.landlordRepo.Update(ctx, landlord); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark subscription non-renewing")
	}

	s.notify(ctx, notifications.Message{
		LandlordID: landlord.ID,
		Type:       enums.NotificationSubscriptionEnded,
		Title:      "Subscription will not renew",
		Body:       "Your subscription is set to end after the current period.",
	})
	return nil
}

func (s *Service) handleExpiringCards(ctx context.Context, cards []ExpiringCard) error {
	for _, card := range cards {
		code := ""
		if card.Subscription != nil {
			code = card.Subscription.SubscriptionCode
		}
		landlord, err := s.resolveLandlord(ctx, code, card.Customer.Email)
		if err != nil {
			return err
		}
		if landlord == nil {
			continue
		}

		body := "The card paying your subscription is about to expire. Update it to avoid an interruption."
		if card.ExpiryDate != "" {
			body = fmt.Sprintf("The card paying your subscription expires on %s. Update it to avoid an interruption.", card.ExpiryDate)
		}
		msg := notifications.Message{
			LandlordID: landlord.ID,
			Type:       enums.NotificationCardExpiring,
			Title:      "Card expiring soon",
			Body:       body,
		}
		if s.portalURL != "" {
			link := s.portalURL
			msg.Link = &link
		}
		s.notify(ctx, msg)
	}
	return nil
}

// resolveLandlord prefers the subscription code and falls back to the
// customer email. A miss returns nil, not an error.
func (s *Service) resolveLandlord(ctx context.Context, subscriptionCode, email string) (*models.Landlord, error) {
	if strings.TrimSpace(subscriptionCode) != "" {
		landlord, err := s.landlordRepo.FindBySubscriptionCode(ctx, subscriptionCode)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve landlord by subscription")
		}
		if landlord != nil {
			return landlord, nil
		}
	}
	if strings.TrimSpace(email) == "" {
		return nil, nil
	}
	landlord, err := s.landlordRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve landlord by email")
	}
	return landlord, nil
}

// notify dispatches best effort: a failed notification is logged, never
// propagated, because the state change it follows is already committed.
func (s *Service) notify(ctx context.Context, msg notifications.Message) {
	if err := s.notifier.Notify(ctx, msg); err != nil {
		logCtx := s.logg.WithField(ctx, "landlord_id", msg.LandlordID.String())
		s.logg.Error(logCtx, "notification dispatch failed", err)
	}
}

func mapSubscriptionStatus(raw string, fallback enums.SubscriptionStatus) enums.SubscriptionStatus {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
	if status, err := enums.ParseSubscriptionStatus(normalized); err == nil {
		return status
	}
	return fallback
}
