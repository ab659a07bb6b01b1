package orders

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/internal/address"
	"github.com/grocerly/grocerly-backend/internal/cart"
	"github.com/grocerly/grocerly-backend/internal/coupons"
	"github.com/grocerly/grocerly-backend/internal/inventory"
	"github.com/grocerly/grocerly-backend/internal/pricing"
	"github.com/grocerly/grocerly-backend/internal/stores"
	"github.com/grocerly/grocerly-backend/internal/wallet"

	"github.com/grocerly/grocerly-backend/internal/products"
	"github.com/grocerly/grocerly-backend/pkg/config"
	dbpkg "github.com/grocerly/grocerly-backend/pkg/db"
	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/enums"
	pkgerrors "github.com/grocerly/grocerly-backend/pkg/errors"
	"github.com/grocerly/grocerly-backend/pkg/logger"
	"github.com/grocerly/grocerly-backend/pkg/outbox"
	"github.com/grocerly/grocerly-backend/pkg/outbox/payloads"
)

// Service owns the instant-order lifecycle: creation with its stock and
// wallet effects, status transitions, and symmetric cancellation.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Order, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
}

// CreateLine is one requested order line.
type CreateLine struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
	Quantity  int
}

// CreateInput describes a new instant order. A non-nil PaymentReference
// means the order was settled externally and the wallet is not touched.
type CreateInput struct {
	StoreID          uuid.UUID
	AddressID        *uuid.UUID
	TimeslotID       uuid.UUID
	Type             enums.OrderType
	ReceiverName     *string
	ReceiverPhone    *string
	CouponCode       *string
	PaymentReference *string
	ClientTotal      *decimal.Decimal
	Lines            []CreateLine
}

type service struct {
	coordinator *dbpkg.Coordinator
	repo        Repository
	stores      stores.Repository
	products    products.Repository
	addresses   address.Repository
	cart        cart.Repository
	coupons     coupons.Service
	pricing     pricing.Service
	inventory   inventory.Service
	wallet      wallet.Service
	outbox      *outbox.Service
	cfg         config.OrdersConfig
	logg        *logger.Logger
}

type ServiceParams struct {
	Coordinator *dbpkg.Coordinator
	Repo        Repository
	Stores      stores.Repository
	Products    products.Repository
	Addresses   address.Repository
	Cart        cart.Repository
	Coupons     coupons.Service
	Pricing     pricing.Service
	Inventory   inventory.Service
	Wallet      wallet.Service
	Outbox      *outbox.Service
	Cfg         config.OrdersConfig
	Logg        *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Coordinator == nil:
		return nil, fmt.Errorf("transaction coordinator required")
	case params.Repo == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Stores == nil:
		return nil, fmt.Errorf("stores repository required")
	case params.Products == nil:
		return nil, fmt.Errorf("products repository required")
	case params.Addresses == nil:
		return nil, fmt.Errorf("address repository required")
	case params.Cart == nil:
		return nil, fmt.Errorf("cart repository required")
	case params.Coupons == nil:
		return nil, fmt.Errorf("coupons service required")
	case params.Pricing == nil:
		return nil, fmt.Errorf("pricing service required")
	case params.Inventory == nil:
		return nil, fmt.Errorf("inventory service required")
	case params.Wallet == nil:
		return nil, fmt.Errorf("wallet service required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox service required")
	case params.Logg == nil:
		return nil, fmt.Errorf("logger required")
	}
	if params.Cfg.NumberAttempts <= 0 {
		params.Cfg.NumberAttempts = 10
	}
	return &service{
		coordinator: params.Coordinator,
		repo:        params.Repo,
		stores:      params.Stores,
		products:    params.Products,
		addresses:   params.Addresses,
		cart:        params.Cart,
		coupons:     params.Coupons,
		pricing:     params.Pricing,
		inventory:   params.Inventory,
		wallet:      params.Wallet,
		outbox:      params.Outbox,
		cfg:         params.Cfg,
		logg:        params.Logg,
	}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Order, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	var created *models.Order
	err := s.coordinator.RunWithRetry(ctx, "orders.create", func(tx *gorm.DB) error {
		order, err := s.createInTx(ctx, tx, userID, input)
		if err != nil {
			return err
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":     created.ID.String(),
		"order_number": created.OrderNumber,
		"user_id":      userID.String(),
		"total":        created.Total.String(),
	})
	s.logg.Info(logCtx, "order created")
	return created, nil
}

// createInTx is the retried closure body. Every read happens inside the
// transaction so a retry observes fresh state.
func (s *service) createInTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, input CreateInput) (*models.Order, error) {
	storesRepo := s.stores.WithTx(tx)
	productsRepo := s.products.WithTx(tx)

	store, err := storesRepo.GetActive(ctx, input.StoreID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}

	slot, err := storesRepo.GetTimeslot(ctx, input.StoreID, input.TimeslotID)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "timeslot not found")
	}

	if input.Type == enums.OrderTypeDelivery {
		addr, err := s.addresses.WithTx(tx).GetOwned(ctx, userID, *input.AddressID)
		if err != nil {
			return nil, err
		}
		if addr == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery address not found")
		}
	}

	items := make([]models.OrderLineItem, 0, len(input.Lines))
	priceLines := make([]pricing.LineInput, 0, len(input.Lines))
	reservations := make([]inventory.ReservationRequest, 0, len(input.Lines))
	cartKeys := make([]cart.LineKey, 0, len(input.Lines))

	for _, line := range input.Lines {
		product, err := productsRepo.GetActive(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]string{"product_id": line.ProductID.String()})
		}
		variant, err := productsRepo.GetVariant(ctx, line.ProductID, line.VariantID)
		if err != nil {
			return nil, err
		}
		if variant == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found").
				WithDetails(map[string]string{"variant_id": line.VariantID.String()})
		}

		items = append(items, models.OrderLineItem{
			ID:        uuid.New(),
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Title:     product.Title,
			UnitPrice: variant.Price,
			Quantity:  line.Quantity,
			LineTotal: variant.Price.Mul(decimal.NewFromInt(int64(line.Quantity))),
		})
		priceLines = append(priceLines, pricing.LineInput{UnitPrice: variant.Price, Quantity: line.Quantity})
		reservations = append(reservations, inventory.ReservationRequest{
			StoreID:   input.StoreID,
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
		})
		cartKeys = append(cartKeys, cart.LineKey{ProductID: line.ProductID, VariantID: line.VariantID})
	}

	charges := s.pricing.ChargesForStore(store, input.Type)

	// Price once without the coupon to learn the subtotal the coupon
	// minimum is checked against.
	base, err := s.pricing.QuoteInstant(priceLines, charges, nil)
	if err != nil {
		return nil, err
	}

	var coupon *models.Coupon
	if input.CouponCode != nil && *input.CouponCode != "" {
		coupon, err = s.coupons.ApplyInTx(ctx, tx, *input.CouponCode, time.Now(), base.Subtotal)
		if err != nil {
			return nil, err
		}
	}

	breakdown, err := s.pricing.QuoteInstant(priceLines, charges, coupon)
	if err != nil {
		return nil, err
	}
	if err := s.pricing.ValidateClientTotal(breakdown.Total, input.ClientTotal); err != nil {
		return nil, err
	}

	if _, err := s.inventory.Reserve(ctx, tx, reservations); err != nil {
		return nil, err
	}

	number, err := s.allocateOrderNumber(ctx, tx)
	if err != nil {
		return nil, err
	}

	if input.PaymentReference == nil && breakdown.Total.IsPositive() {
		_, err := s.wallet.Debit(ctx, tx, wallet.MovementInput{
			UserID:    userID,
			Amount:    breakdown.Total,
			Reference: "order:" + number,
		})
		if err != nil {
			return nil, err
		}
	}

	order := &models.Order{
		ID:               uuid.New(),
		OrderNumber:      number,
		StoreID:          input.StoreID,
		UserID:           userID,
		AddressID:        input.AddressID,
		ReceiverName:     input.ReceiverName,
		ReceiverPhone:    input.ReceiverPhone,
		TimeslotID:       input.TimeslotID,
		Type:             input.Type,
		Status:           enums.OrderStatusPending,
		Subtotal:         breakdown.Subtotal,
		DeliveryCharge:   breakdown.DeliveryCharge,
		StoreCharge:      breakdown.StoreCharge,
		Tax:              breakdown.Tax,
		CouponValue:      breakdown.CouponValue,
		Total:            breakdown.Total,
		PaymentReference: input.PaymentReference,
	}
	if coupon != nil {
		order.CouponID = &coupon.ID
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	order.Items = items

	if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to persist order")
	}

	if err := s.cart.WithTx(tx).ClearLines(ctx, userID, input.StoreID, cartKeys); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to clear cart lines")
	}

	if err := s.emitCreated(ctx, tx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.GetOwned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	var updated *models.Order
	err := s.coordinator.RunWithRetry(ctx, "orders.update_status", func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		from := order.Status
		if !from.CanTransitionTo(target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "illegal order status transition").
				WithDetails(map[string]string{"from": from.String(), "to": target.String()})
		}
		order.Status = target
		if err := repo.Save(ctx, order); err != nil {
			return err
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStateChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderStateChangedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				From:        from,
				To:          target,
				ChangedAt:   time.Now().UTC(),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Cancel compensates symmetrically: the stock reserved at creation is
// released and the wallet debit is refunded once, keyed by the order number.
func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	var cancelled *models.Order
	err := s.coordinator.RunWithRetry(ctx, "orders.cancel", func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.GetOwnedForUpdate(ctx, userID, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if !order.Status.CanTransitionTo(enums.OrderStatusCancelled) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled").
				WithDetails(map[string]string{"status": order.Status.String()})
		}

		releases := make([]inventory.ReservationRequest, 0, len(order.Items))
		for _, item := range order.Items {
			releases = append(releases, inventory.ReservationRequest{
				StoreID:   order.StoreID,
				ProductID: item.ProductID,
				VariantID: item.VariantID,
				Quantity:  item.Quantity,
			})
		}
		if err := s.inventory.Release(ctx, tx, releases); err != nil {
			return err
		}

		walletRefunded := false
		if order.PaymentReference == nil && order.Total.IsPositive() {
			_, err := s.wallet.Credit(ctx, tx, wallet.MovementInput{
				UserID:    userID,
				Amount:    order.Total,
				Reference: "order_cancel:" + order.OrderNumber,
			})
			if err != nil {
				return err
			}
			walletRefunded = true
		}

		if order.CouponID != nil {
			if err := s.coupons.ReleaseInTx(ctx, tx, *order.CouponID); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		order.Status = enums.OrderStatusCancelled
		order.CancelledAt = &now
		if err := repo.Save(ctx, order); err != nil {
			return err
		}

		refund := decimal.Zero
		if walletRefunded {
			refund = order.Total
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: string(enums.UserRoleCustomer)},
			Version:       1,
			Data: payloads.OrderCancelledEvent{
				OrderID:        order.ID,
				OrderNumber:    order.OrderNumber,
				UserID:         order.UserID,
				RefundAmount:   refund,
				StockReleased:  true,
				WalletRefunded: walletRefunded,
				CancelledAt:    now,
			},
		}
		if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
			return err
		}
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":     cancelled.ID.String(),
		"order_number": cancelled.OrderNumber,
	})
	s.logg.Info(logCtx, "order cancelled")
	return cancelled, nil
}

// allocateOrderNumber draws 6-digit numbers until one is free, giving up
// after a fixed number of attempts. The unique index still catches a
// concurrent winner.
func (s *service) allocateOrderNumber(ctx context.Context, tx *gorm.DB) (string, error) {
	repo := s.repo.WithTx(tx)
	for attempt := 0; attempt < s.cfg.NumberAttempts; attempt++ {
		number := fmt.Sprintf("%06d", rand.Intn(900000)+100000)
		exists, err := repo.NumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a free order number")
}

func (s *service) emitCreated(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	created := outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: order.UserID, Role: string(enums.UserRoleCustomer)},
		Version:       1,
		Data: payloads.OrderCreatedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			UserID:      order.UserID,
			StoreID:     order.StoreID,
			Type:        order.Type,
			Total:       order.Total,
			ItemCount:   len(order.Items),
			Status:      order.Status,
		},
	}
	if err := s.outbox.EmitIfNotExists(ctx, tx, created); err != nil {
		return err
	}

	notify := outbox.DomainEvent{
		EventType:     enums.EventNotificationRequested,
		AggregateType: enums.AggregateNotification,
		AggregateID:   order.ID,
		Version:       1,
		Data: payloads.NotificationRequestedEvent{
			UserID:  order.UserID,
			Type:    enums.NotificationTypeOrderPlaced,
			Title:   "Order placed",
			Message: fmt.Sprintf("Your order #%s has been placed.", order.OrderNumber),
			Ref:     &order.ID,
		},
	}
	return s.outbox.Emit(ctx, tx, notify)
}

func validateCreateInput(input CreateInput) error {
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown order type")
	}
	if input.Type == enums.OrderTypeDelivery && input.AddressID == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery orders require an address")
	}
	if len(input.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one line")
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
	}
	return nil
}
