package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	paystackwebhook "github.com/tmokoena/rentpilot-backend/internal/webhooks/paystack"
)

func TestPaystackWebhook_SuccessAndIdempotent(t *testing.T) {
	payload := []byte(`{"event":"paymentrequest.success","data":{"request_code":"PRQ_abc","amount":450000}}`)
	header := signPayload(payload, "sk_test_secret")
	service := &fakePaystackWebhookService{}
	guard, err := paystackwebhook.NewIdempotencyGuard(newInMemoryStore(), time.Minute, "paystack-webhook")
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	handler := PaystackWebhook(service, &fakeSecretClient{secret: "sk_test_secret"}, guard, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", bytes.NewReader(payload))
	req.Header.Set("X-Paystack-Signature", header)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if service.calls != 1 {
		t.Fatalf("expected service called once, got %d", service.calls)
	}
	if service.lastEvent != "paymentrequest.success" {
		t.Fatalf("unexpected event %q", service.lastEvent)
	}

	// Replay the same delivery
	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", bytes.NewReader(payload))
	req2.Header.Set("X-Paystack-Signature", header)
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 on duplicate, got %d (%s)", rec2.Code, rec2.Body.String())
	}
	if service.calls != 1 {
		t.Fatalf("expected duplicate not processed, call count %d", service.calls)
	}
}

func TestPaystackWebhook_InvalidSignature(t *testing.T) {
	payload := []byte(`{"event":"charge.success","data":{}}`)
	service := &fakePaystackWebhookService{}
	guard, err := paystackwebhook.NewIdempotencyGuard(newInMemoryStore(), time.Minute, "paystack-webhook")
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	handler := PaystackWebhook(service, &fakeSecretClient{secret: "sk_test_secret"}, guard, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", bytes.NewReader(payload))
	req.Header.Set("X-Paystack-Signature", "deadbeef")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for invalid signature, got %d", rec.Code)
	}
	if service.calls != 0 {
		t.Fatalf("service should not be invoked on invalid signature")
	}
}

func TestPaystackWebhook_MissingSignature(t *testing.T) {
	service := &fakePaystackWebhookService{}
	guard, err := paystackwebhook.NewIdempotencyGuard(newInMemoryStore(), time.Minute, "paystack-webhook")
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	handler := PaystackWebhook(service, &fakeSecretClient{secret: "sk_test_secret"}, guard, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing signature, got %d", rec.Code)
	}
}

func TestPaystackWebhook_GuardReleasedOnFailure(t *testing.T) {
	payload := []byte(`{"event":"charge.success","data":{"reference":"ref-1"}}`)
	header := signPayload(payload, "sk_test_secret")
	service := &fakePaystackWebhookService{err: fmt.Errorf("boom")}
	guard, err := paystackwebhook.NewIdempotencyGuard(newInMemoryStore(), time.Minute, "paystack-webhook")
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	handler := PaystackWebhook(service, &fakeSecretClient{secret: "sk_test_secret"}, guard, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", bytes.NewReader(payload))
	req.Header.Set("X-Paystack-Signature", header)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code == http.StatusOK {
		t.Fatalf("expected failure status, got 200")
	}

	// The guard must have been released so the gateway's retry reaches the service.
	service.err = nil
	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", bytes.NewReader(payload))
	req2.Header.Set("X-Paystack-Signature", header)
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected retry to succeed, got %d (%s)", rec2.Code, rec2.Body.String())
	}
	if service.calls != 2 {
		t.Fatalf("expected retry to reach service, call count %d", service.calls)
	}
}

func signPayload(payload []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

type fakePaystackWebhookService struct {
	calls     int
	lastEvent string
	err       error
}

func (f *fakePaystackWebhookService) HandleEvent(ctx context.Context, envelope *paystackwebhook.Envelope) error {
	f.calls++
	f.lastEvent = envelope.Event
	return f.err
}

type fakeSecretClient struct {
	secret string
}

func (c *fakeSecretClient) WebhookSecret() string {
	return c.secret
}

type inMemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{
		data: make(map[string]string),
	}
}

func (s *inMemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *inMemoryStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = fmt.Sprintf("%v", value)
	return true, nil
}

func (s *inMemoryStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("rp:idempotency:%s:%s", scope, id)
}

func (s *inMemoryStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}
