package webhooks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tmokoena/rentpilot-backend/api/responses"
	paystackwebhook "github.com/tmokoena/rentpilot-backend/internal/webhooks/paystack"
	pkgerrors "github.com/tmokoena/rentpilot-backend/pkg/errors"
	"github.com/tmokoena/rentpilot-backend/pkg/logger"
	"github.com/tmokoena/rentpilot-backend/pkg/paystack"
)

const signatureHeader = "X-Paystack-Signature"

type PaystackWebhookService interface {
	HandleEvent(ctx context.Context, envelope *paystackwebhook.Envelope) error
}

type paystackWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type paystackClient interface {
	WebhookSecret() string
}

// PaystackWebhook handles payment and subscription lifecycle events from the
// gateway. The gateway retries deliveries until it sees a 200, so replays are
// absorbed with the idempotency guard before the service runs.
func PaystackWebhook(svc PaystackWebhookService, client paystackClient, guard paystackWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "paystack client unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get(signatureHeader)
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "paystack signature missing"))
			return
		}
		if !paystack.ValidSignature(payload, client.WebhookSecret(), sigHeader) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "invalid paystack signature"))
			return
		}

		var envelope paystackwebhook.Envelope
		if err := json.Unmarshal(payload, &envelope); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook payload"))
			return
		}
		if envelope.Event == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "webhook event type missing"))
			return
		}

		// Paystack deliveries carry no event id, so the body digest stands in
		// for one. Identical retries hash identically.
		eventID := eventDigest(payload)

		alreadyProcessed, err := guard.CheckAndMark(ctx, eventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			responses.WriteSuccess(w, nil)
			return
		}

		if err := svc.HandleEvent(ctx, &envelope); err != nil {
			_ = guard.Delete(ctx, eventID)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("paystack event %s processed", envelope.Event))
		}
		responses.WriteSuccess(w, nil)
	}
}

func eventDigest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
