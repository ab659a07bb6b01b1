package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrder             OutboxAggregateType = "order"
	AggregateSubscriptionOrder OutboxAggregateType = "subscription_order"
	AggregateWalletAccount     OutboxAggregateType = "wallet_account"
	AggregateNotification      OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateSubscriptionOrder,
	AggregateWalletAccount,
	AggregateNotification,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderCreated              OutboxEventType = "order_created"
	EventOrderStateChanged         OutboxEventType = "order_state_changed"
	EventOrderCancelled            OutboxEventType = "order_cancelled"
	EventSubscriptionCreated       OutboxEventType = "subscription_created"
	EventSubscriptionItemPaused    OutboxEventType = "subscription_item_paused"
	EventSubscriptionItemResumed   OutboxEventType = "subscription_item_resumed"
	EventSubscriptionItemCancelled OutboxEventType = "subscription_item_cancelled"
	EventSubscriptionCancelled     OutboxEventType = "subscription_cancelled"
	EventWalletRefunded            OutboxEventType = "wallet_refunded"
	EventNotificationRequested     OutboxEventType = "notification_requested"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderStateChanged,
	EventOrderCancelled,
	EventSubscriptionCreated,
	EventSubscriptionItemPaused,
	EventSubscriptionItemResumed,
	EventSubscriptionItemCancelled,
	EventSubscriptionCancelled,
	EventWalletRefunded,
	EventNotificationRequested,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
