package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/grocerly/grocerly-backend/pkg/enums"
)

// OrderCreatedEvent signals a freshly placed instant order.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID         `json:"orderId"`
	OrderNumber string            `json:"orderNumber"`
	UserID      uuid.UUID         `json:"userId"`
	StoreID     uuid.UUID         `json:"storeId"`
	Type        enums.OrderType   `json:"type"`
	Total       decimal.Decimal   `json:"total"`
	ItemCount   int               `json:"itemCount"`
	Status      enums.OrderStatus `json:"status"`
}

// OrderStateChangedEvent is emitted on every order status transition.
type OrderStateChangedEvent struct {
	OrderID     uuid.UUID         `json:"orderId"`
	OrderNumber string            `json:"orderNumber"`
	UserID      uuid.UUID         `json:"userId"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
	ChangedAt   time.Time         `json:"changedAt"`
}

// OrderCancelledEvent reports a cancelled order, including the
// compensation that was applied.
type OrderCancelledEvent struct {
	OrderID        uuid.UUID       `json:"orderId"`
	OrderNumber    string          `json:"orderNumber"`
	UserID         uuid.UUID       `json:"userId"`
	RefundAmount   decimal.Decimal `json:"refundAmount"`
	StockReleased  bool            `json:"stockReleased"`
	WalletRefunded bool            `json:"walletRefunded"`
	CancelledAt    time.Time       `json:"cancelledAt"`
}

// SubscriptionCreatedEvent signals a new subscription order.
type SubscriptionCreatedEvent struct {
	SubscriptionOrderID uuid.UUID       `json:"subscriptionOrderId"`
	OrderNumber         string          `json:"orderNumber"`
	UserID              uuid.UUID       `json:"userId"`
	StoreID             uuid.UUID       `json:"storeId"`
	Total               decimal.Decimal `json:"total"`
	ItemCount           int             `json:"itemCount"`
	StartDate           time.Time       `json:"startDate"`
	EndDate             time.Time       `json:"endDate"`
}

// SubscriptionItemEvent carries a single line item lifecycle change
// (pause, resume, cancel).
type SubscriptionItemEvent struct {
	SubscriptionOrderID uuid.UUID                    `json:"subscriptionOrderId"`
	LineItemID          uuid.UUID                    `json:"lineItemId"`
	UserID              uuid.UUID                    `json:"userId"`
	Status              enums.SubscriptionItemStatus `json:"status"`
	PauseStart          *time.Time                   `json:"pauseStart,omitempty"`
	PauseEnd            *time.Time                   `json:"pauseEnd,omitempty"`
	RefundAmount        *decimal.Decimal             `json:"refundAmount,omitempty"`
}

// SubscriptionCancelledEvent reports cancellation of a whole
// subscription order.
type SubscriptionCancelledEvent struct {
	SubscriptionOrderID uuid.UUID       `json:"subscriptionOrderId"`
	UserID              uuid.UUID       `json:"userId"`
	RefundAmount        decimal.Decimal `json:"refundAmount"`
	CancelledAt         time.Time       `json:"cancelledAt"`
}

// WalletRefundedEvent reports a credit posted back to a wallet.
type WalletRefundedEvent struct {
	AccountID uuid.UUID       `json:"accountId"`
	UserID    uuid.UUID       `json:"userId"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
	Balance   decimal.Decimal `json:"balance"`
}

// NotificationRequestedEvent asks the notification dispatcher to fan a
// message out to the user.
type NotificationRequestedEvent struct {
	UserID  uuid.UUID              `json:"userId"`
	Type    enums.NotificationType `json:"type"`
	Title   string                 `json:"title"`
	Message string                 `json:"message"`
	Ref     *uuid.UUID             `json:"ref,omitempty"`
}
