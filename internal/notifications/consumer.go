package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/enums"
	"github.com/grocerly/grocerly-backend/pkg/logger"
	"github.com/grocerly/grocerly-backend/pkg/outbox"
	"github.com/grocerly/grocerly-backend/pkg/outbox/idempotency"
	"github.com/grocerly/grocerly-backend/pkg/outbox/payloads"
)

const notificationConsumer = "user-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer turns published domain events into in-app user notifications.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds the user notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	})

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, notificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	notification, err := c.buildNotification(eventType, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, notificationConsumer, eventID)
		return processResult{nack: true}
	}
	if notification == nil {
		c.logg.Info(logCtx, "event type not handled")
		return processResult{ack: true}
	}

	notification.ID = uuid.New()
	if err := c.repo.Create(ctx, notification); err != nil {
		c.logg.Error(logCtx, "failed to store notification", err)
		_ = c.idempotency.Delete(ctx, notificationConsumer, eventID)
		return processResult{nack: true}
	}
	c.logg.Info(c.logg.WithField(logCtx, "user_id", notification.UserID.String()), "notification stored")
	return processResult{ack: true}
}

// buildNotification maps one domain event to a user notification. A nil
// notification with nil error means the event type carries nothing for the
// user inbox.
func (c *Consumer) buildNotification(eventType enums.OutboxEventType, data json.RawMessage) (*models.Notification, error) {
	switch eventType {
	case enums.EventNotificationRequested:
		var payload payloads.NotificationRequestedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		var link *string
		if payload.Ref != nil {
			link = stringPtr(fmt.Sprintf("/orders/%s", payload.Ref))
		}
		return &models.Notification{
			UserID:  payload.UserID,
			Type:    payload.Type,
			Title:   payload.Title,
			Message: payload.Message,
			Link:    link,
		}, nil

	case enums.EventOrderStateChanged:
		var payload payloads.OrderStateChangedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return &models.Notification{
			UserID:  payload.UserID,
			Type:    enums.NotificationTypeOrderStatus,
			Title:   "Order update",
			Message: fmt.Sprintf("Order %s is now %s.", payload.OrderNumber, payload.To),
			Link:    stringPtr(fmt.Sprintf("/orders/%s", payload.OrderID)),
		}, nil

	case enums.EventOrderCancelled:
		var payload payloads.OrderCancelledEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		message := fmt.Sprintf("Order %s was cancelled.", payload.OrderNumber)
		if payload.WalletRefunded {
			message = fmt.Sprintf("Order %s was cancelled and %s was returned to your wallet.",
				payload.OrderNumber, payload.RefundAmount.StringFixed(2))
		}
		return &models.Notification{
			UserID:  payload.UserID,
			Type:    enums.NotificationTypeOrderStatus,
			Title:   "Order cancelled",
			Message: message,
			Link:    stringPtr(fmt.Sprintf("/orders/%s", payload.OrderID)),
		}, nil

	case enums.EventSubscriptionCreated:
		var payload payloads.SubscriptionCreatedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return &models.Notification{
			UserID: payload.UserID,
			Type:   enums.NotificationTypeSubscriptionPlaced,
			Title:  "Subscription placed",
			Message: fmt.Sprintf("Subscription %s starts on %s.",
				payload.OrderNumber, payload.StartDate.Format("2 Jan 2006")),
			Link: stringPtr(fmt.Sprintf("/subscriptions/%s", payload.SubscriptionOrderID)),
		}, nil

	case enums.EventSubscriptionItemPaused, enums.EventSubscriptionItemResumed, enums.EventSubscriptionItemCancelled:
		var payload payloads.SubscriptionItemEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return &models.Notification{
			UserID:  payload.UserID,
			Type:    enums.NotificationTypeSubscriptionUpdate,
			Title:   "Subscription update",
			Message: itemEventMessage(eventType, payload),
			Link:    stringPtr(fmt.Sprintf("/subscriptions/%s", payload.SubscriptionOrderID)),
		}, nil

	case enums.EventWalletRefunded:
		var payload payloads.WalletRefundedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return &models.Notification{
			UserID:  payload.UserID,
			Type:    enums.NotificationTypeRefundIssued,
			Title:   "Refund issued",
			Message: fmt.Sprintf("%s was credited to your wallet.", payload.Amount.StringFixed(2)),
			Link:    stringPtr("/wallet"),
		}, nil

	default:
		return nil, nil
	}
}

func itemEventMessage(eventType enums.OutboxEventType, payload payloads.SubscriptionItemEvent) string {
	switch eventType {
	case enums.EventSubscriptionItemPaused:
		if payload.PauseStart != nil && payload.PauseEnd != nil {
			return fmt.Sprintf("A subscription item is paused from %s to %s.",
				payload.PauseStart.Format("2 Jan"), payload.PauseEnd.Format("2 Jan 2006"))
		}
		return "A subscription item was paused."
	case enums.EventSubscriptionItemResumed:
		return "A subscription item was resumed."
	default:
		if payload.RefundAmount != nil && payload.RefundAmount.IsPositive() {
			return fmt.Sprintf("A subscription item was cancelled. %s will be refunded.",
				payload.RefundAmount.StringFixed(2))
		}
		return "A subscription item was cancelled."
	}
}

func stringPtr(value string) *string {
	return &value
}
