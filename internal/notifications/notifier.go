package notifications

import (
	"context"
	"encoding/json"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/tmokoena/rentpilot-backend/pkg/db/models"
	"github.com/tmokoena/rentpilot-backend/pkg/enums"
	pkgerrors "github.com/tmokoena/rentpilot-backend/pkg/errors"
	"github.com/tmokoena/rentpilot-backend/pkg/logger"
)

// publisher is the slice of the Pub/Sub client the notifier needs.
type publisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) *pubsub.PublishResult
}

// Notifier persists notifications and fans them out to the notification topic.
// The topic fan-out is best effort: delivery channels (email, push) consume it,
// but the DB row is the source of truth.
type Notifier struct {
	repo      Repository
	publisher publisher
	logg      *logger.Logger
}

// NotifierParams groups notifier dependencies. Publisher may be nil when
// fan-out is disabled.
type NotifierParams struct {
	Repo      Repository
	Publisher publisher
	Logger    *logger.Logger
}

// NewNotifier builds a notifier.
func NewNotifier(params NotifierParams) (*Notifier, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &Notifier{
		repo:      params.Repo,
		publisher: params.Publisher,
		logg:      params.Logger,
	}, nil
}

// Message describes one notification to deliver.
type Message struct {
	LandlordID uuid.UUID
	Type       enums.NotificationType
	Title      string
	Body       string
	Link       *string
}

type notificationEvent struct {
	NotificationID string `json:"notification_id"`
	LandlordID     string `json:"landlord_id"`
	Type           string `json:"type"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	CreatedAt      string `json:"created_at"`
}

// Notify stores the notification and publishes it to the notification topic.
// Publish failures are logged, never propagated.
func (n *Notifier) Notify(ctx context.Context, msg Message) error {
	if msg.LandlordID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "landlord id required")
	}
	if !msg.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid notification type")
	}

	row := &models.Notification{
		LandlordID: msg.LandlordID,
		Type:       msg.Type,
		Title:      msg.Title,
		Message:    msg.Body,
		Link:       msg.Link,
	}
	if err := n.repo.Create(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}

	n.publish(ctx, row)
	return nil
}

func (n *Notifier) publish(ctx context.Context, row *models.Notification) {
	if n.publisher == nil {
		return
	}

	created := row.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	payload, err := json.Marshal(notificationEvent{
		NotificationID: row.ID.String(),
		LandlordID:     row.LandlordID.String(),
		Type:           string(row.Type),
		Title:          row.Title,
		Message:        row.Message,
		CreatedAt:      created.UTC().Format(time.RFC3339),
	})
	if err != nil {
		n.logg.Error(ctx, "encode notification event", err)
		return
	}

	result := n.publisher.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_type":  string(row.Type),
			"landlord_id": row.LandlordID.String(),
		},
	})
	if _, err := result.Get(ctx); err != nil {
		n.logg.Error(n.logg.WithField(ctx, "notification_id", row.ID.String()), "publish notification event", err)
	}
}
