package enums

import "fmt"

// SubscriptionOrderStatus is the derived roll-up persisted on the subscription
// order. It is recomputed from line item statuses on every transition and is
// not independently authoritative.
type SubscriptionOrderStatus string

const (
	SubscriptionOrderStatusPending    SubscriptionOrderStatus = "pending"
	SubscriptionOrderStatusActive     SubscriptionOrderStatus = "active"
	SubscriptionOrderStatusPaused     SubscriptionOrderStatus = "paused"
	SubscriptionOrderStatusProcessing SubscriptionOrderStatus = "processing"
	SubscriptionOrderStatusCompleted  SubscriptionOrderStatus = "completed"
	SubscriptionOrderStatusCancelled  SubscriptionOrderStatus = "cancelled"
)

var validSubscriptionOrderStatuses = []SubscriptionOrderStatus{
	SubscriptionOrderStatusPending,
	SubscriptionOrderStatusActive,
	SubscriptionOrderStatusPaused,
	SubscriptionOrderStatusProcessing,
	SubscriptionOrderStatusCompleted,
	SubscriptionOrderStatusCancelled,
}

// IsValid reports whether the value is a known SubscriptionOrderStatus.
func (s SubscriptionOrderStatus) IsValid() bool {
	for _, candidate := range validSubscriptionOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSubscriptionOrderStatus converts raw input into a SubscriptionOrderStatus.
func ParseSubscriptionOrderStatus(value string) (SubscriptionOrderStatus, error) {
	for _, candidate := range validSubscriptionOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subscription order status %q", value)
}

// SubscriptionItemStatus tracks one subscription line item.
type SubscriptionItemStatus string

const (
	SubscriptionItemStatusPending   SubscriptionItemStatus = "pending"
	SubscriptionItemStatusActive    SubscriptionItemStatus = "active"
	SubscriptionItemStatusPaused    SubscriptionItemStatus = "paused"
	SubscriptionItemStatusCompleted SubscriptionItemStatus = "completed"
	SubscriptionItemStatusCancelled SubscriptionItemStatus = "cancelled"
)

var validSubscriptionItemStatuses = []SubscriptionItemStatus{
	SubscriptionItemStatusPending,
	SubscriptionItemStatusActive,
	SubscriptionItemStatusPaused,
	SubscriptionItemStatusCompleted,
	SubscriptionItemStatusCancelled,
}

// IsValid reports whether the value is a known SubscriptionItemStatus.
func (s SubscriptionItemStatus) IsValid() bool {
	for _, candidate := range validSubscriptionItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the line item can no longer transition.
func (s SubscriptionItemStatus) IsTerminal() bool {
	return s == SubscriptionItemStatusCompleted || s == SubscriptionItemStatusCancelled
}

// ParseSubscriptionItemStatus converts raw input into a SubscriptionItemStatus.
func ParseSubscriptionItemStatus(value string) (SubscriptionItemStatus, error) {
	for _, candidate := range validSubscriptionItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subscription item status %q", value)
}
