package notifications

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"

	"github.com/tmokoena/rentpilot-backend/pkg/db/models"
	"github.com/tmokoena/rentpilot-backend/pkg/enums"
	pkgerrors "github.com/tmokoena/rentpilot-backend/pkg/errors"
	"github.com/tmokoena/rentpilot-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestNotifierCreatesRow(t *testing.T) {
	var created *models.Notification
	repo := &fakeRepository{
		createFn: func(ctx context.Context, n *models.Notification) error {
			created = n
			return nil
		},
	}

	notifier, err := NewNotifier(NotifierParams{Repo: repo, Logger: testLogger()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	landlordID := uuid.New()
	err = notifier.Notify(context.Background(), Message{
		LandlordID: landlordID,
		Type:       enums.NotificationInvoicePaid,
		Title:      "Invoice paid",
		Body:       "Rent invoice settled in full.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("expected a notification row")
	}
	if created.LandlordID != landlordID {
		t.Fatalf("unexpected landlord id %s", created.LandlordID)
	}
	if created.Type != enums.NotificationInvoicePaid {
		t.Fatalf("unexpected type %s", created.Type)
	}
}

func TestNotifierRejectsInvalidType(t *testing.T) {
	notifier, _ := NewNotifier(NotifierParams{Repo: &fakeRepository{}, Logger: testLogger()})

	err := notifier.Notify(context.Background(), Message{
		LandlordID: uuid.New(),
		Type:       enums.NotificationType("bogus"),
	})
	if err == nil {
		t.Fatal("expected error for invalid type")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNotifierRequiresLandlord(t *testing.T) {
	notifier, _ := NewNotifier(NotifierParams{Repo: &fakeRepository{}, Logger: testLogger()})

	err := notifier.Notify(context.Background(), Message{Type: enums.NotificationInvoicePaid})
	if err == nil {
		t.Fatal("expected error for missing landlord")
	}
}
