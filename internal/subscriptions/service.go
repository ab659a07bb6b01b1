package subscriptions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/internal/address"
	"github.com/grocerly/grocerly-backend/internal/coupons"
	"github.com/grocerly/grocerly-backend/internal/inventory"
	"github.com/grocerly/grocerly-backend/internal/pricing"
	"github.com/grocerly/grocerly-backend/internal/products"
	"github.com/grocerly/grocerly-backend/internal/stores"
	"github.com/grocerly/grocerly-backend/internal/wallet"
	"github.com/grocerly/grocerly-backend/pkg/config"
	dbpkg "github.com/grocerly/grocerly-backend/pkg/db"
	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/enums"
	pkgerrors "github.com/grocerly/grocerly-backend/pkg/errors"
	"github.com/grocerly/grocerly-backend/pkg/logger"
	"github.com/grocerly/grocerly-backend/pkg/outbox"
	"github.com/grocerly/grocerly-backend/pkg/outbox/payloads"
	"github.com/grocerly/grocerly-backend/pkg/schedule"
	"github.com/grocerly/grocerly-backend/pkg/types"
)

// Service owns the subscription lifecycle: creation with up-front stock and
// wallet effects, the pause/resume/cancel line item machine, and the daily
// reconcile sweep that realizes deferred refunds.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.SubscriptionOrder, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*models.SubscriptionOrder, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.SubscriptionOrder, error)
	PauseItem(ctx context.Context, userID, itemID uuid.UUID, pauseStart, pauseEnd time.Time) (*models.SubscriptionLineItem, error)
	ResumeItem(ctx context.Context, userID, itemID uuid.UUID) (*models.SubscriptionLineItem, error)
	CancelItem(ctx context.Context, userID, itemID uuid.UUID) (*models.SubscriptionLineItem, error)
	CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.SubscriptionOrder, error)
	Reconcile(ctx context.Context, today time.Time) (*ReconcileStats, error)
}

// CreateLine is one requested subscription line with its weekly schedule.
type CreateLine struct {
	ProductID  uuid.UUID
	VariantID  uuid.UUID
	TimeslotID uuid.UUID
	Quantities types.WeekdayQuantities
}

// CreateInput describes a new subscription order. A nil EndDate gets the
// configured default horizon.
type CreateInput struct {
	StoreID     uuid.UUID
	AddressID   *uuid.UUID
	StartDate   time.Time
	EndDate     *time.Time
	CouponCode  *string
	ClientTotal *decimal.Decimal
	Lines       []CreateLine
}

// ReconcileStats summarizes one sweep run.
type ReconcileStats struct {
	Activated     int
	EnteredPause  int
	LeftPause     int
	RefundsIssued int
	Completed     int
}

type service struct {
	coordinator *dbpkg.Coordinator
	repo        Repository
	stores      stores.Repository
	products    products.Repository
	addresses   address.Repository
	coupons     coupons.Service
	pricing     pricing.Service
	inventory   inventory.Service
	wallet      wallet.Service
	outbox      *outbox.Service
	cfg         config.SubscriptionsConfig
	orderCfg    config.OrdersConfig
	logg        *logger.Logger
}

type ServiceParams struct {
	Coordinator *dbpkg.Coordinator
	Repo        Repository
	Stores      stores.Repository
	Products    products.Repository
	Addresses   address.Repository
	Coupons     coupons.Service
	Pricing     pricing.Service
	Inventory   inventory.Service
	Wallet      wallet.Service
	Outbox      *outbox.Service
	Cfg         config.SubscriptionsConfig
	OrderCfg    config.OrdersConfig
	Logg        *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Coordinator == nil:
		return nil, fmt.Errorf("transaction coordinator required")
	case params.Repo == nil:
		return nil, fmt.Errorf("subscriptions repository required")
	case params.Stores == nil:
		return nil, fmt.Errorf("stores repository required")
	case params.Products == nil:
		return nil, fmt.Errorf("products repository required")
	case params.Addresses == nil:
		return nil, fmt.Errorf("address repository required")
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
	if params.Cfg.MinDurationDays <= 0 {
		params.Cfg.MinDurationDays = 7
	}
	if params.Cfg.DefaultHorizonDays <= 0 {
		params.Cfg.DefaultHorizonDays = 30
	}
	if params.OrderCfg.NumberAttempts <= 0 {
		params.OrderCfg.NumberAttempts = 10
	}
	return &service{
		coordinator: params.Coordinator,
		repo:        params.Repo,
		stores:      params.Stores,
		products:    params.Products,
		addresses:   params.Addresses,
		coupons:     params.Coupons,
		pricing:     params.Pricing,
		inventory:   params.Inventory,
		wallet:      params.Wallet,
		outbox:      params.Outbox,
		cfg:         params.Cfg,
		orderCfg:    params.OrderCfg,
		logg:        params.Logg,
	}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.SubscriptionOrder, error) {
	start, end, err := s.resolveWindow(input)
	if err != nil {
		return nil, err
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription requires at least one line")
	}
	for _, line := range input.Lines {
		if line.Quantities.HasNegativeQuantity() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "weekday quantities must not be negative")
		}
		if !line.Quantities.HasAnyQuantity() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "each line needs at least one scheduled weekday")
		}
	}

	var created *models.SubscriptionOrder
	err = s.coordinator.RunWithRetry(ctx, "subscriptions.create", func(tx *gorm.DB) error {
		order, err := s.createInTx(ctx, tx, userID, input, start, end)
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
		"subscription_order_id": created.ID.String(),
		"order_number":          created.OrderNumber,
		"user_id":               userID.String(),
		"total":                 created.Total.String(),
	})
	s.logg.Info(logCtx, "subscription order created")
	return created, nil
}

func (s *service) createInTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, input CreateInput, start, end time.Time) (*models.SubscriptionOrder, error) {
	storesRepo := s.stores.WithTx(tx)
	productsRepo := s.products.WithTx(tx)

	store, err := storesRepo.GetActive(ctx, input.StoreID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	if input.AddressID != nil {
		addr, err := s.addresses.WithTx(tx).GetOwned(ctx, userID, *input.AddressID)
		if err != nil {
			return nil, err
		}
		if addr == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery address not found")
		}
	}

	items := make([]models.SubscriptionLineItem, 0, len(input.Lines))
	priceLines := make([]pricing.SubscriptionLineInput, 0, len(input.Lines))
	reservations := make([]inventory.ReservationRequest, 0, len(input.Lines))

	for _, line := range input.Lines {
		product, err := productsRepo.GetActive(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]string{"product_id": line.ProductID.String()})
		}
		if !product.SubscriptionEligible {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not subscription eligible").
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
		slot, err := storesRepo.GetTimeslot(ctx, input.StoreID, line.TimeslotID)
		if err != nil {
			return nil, err
		}
		if slot == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "timeslot not found")
		}

		days := weekdaySetOf(line.Quantities)
		dayCount := schedule.DeliveryDayCount(start, end, days, nil)
		if dayCount == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line schedules no deliveries in the subscription window")
		}
		totalUnits := pricing.SubscriptionLineUnits(line.Quantities, start, end, nil)
		linePrice := variant.SubscriptionPrice.Mul(decimal.NewFromInt(int64(totalUnits))).Round(2)

		items = append(items, models.SubscriptionLineItem{
			ID:         uuid.New(),
			ProductID:  line.ProductID,
			VariantID:  line.VariantID,
			TimeslotID: line.TimeslotID,
			Title:      product.Title,
			Schedule:   line.Quantities,
			StartDate:  start,
			EndDate:    end,
			UnitPrice:  variant.SubscriptionPrice,
			Price:      linePrice,
			DayCount:   dayCount,
			TotalUnits: totalUnits,
			Status:     enums.SubscriptionItemStatusPending,
		})
		priceLines = append(priceLines, pricing.SubscriptionLineInput{
			UnitPrice:  variant.SubscriptionPrice,
			Quantities: line.Quantities,
			Start:      start,
			End:        end,
		})
		// The whole projected demand is reserved up front from the
		// subscription pool, not per delivery.
		reservations = append(reservations, inventory.ReservationRequest{
			StoreID:      input.StoreID,
			ProductID:    line.ProductID,
			VariantID:    line.VariantID,
			Quantity:     totalUnits,
			Subscription: true,
		})
	}

	charges := s.pricing.ChargesForStore(store, enums.OrderTypeDelivery)

	base, err := s.pricing.QuoteSubscription(priceLines, charges, nil)
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

	breakdown, err := s.pricing.QuoteSubscription(priceLines, charges, coupon)
	if err != nil {
		return nil, err
	}
	if err := s.pricing.ValidateClientTotal(breakdown.Total, input.ClientTotal); err != nil {
		return nil, err
	}

	if _, err := s.inventory.Reserve(ctx, tx, reservations); err != nil {
		return nil, err
	}

	repo := s.repo.WithTx(tx)
	number, err := s.allocateOrderNumber(ctx, repo)
	if err != nil {
		return nil, err
	}

	if breakdown.Total.IsPositive() {
		_, err := s.wallet.Debit(ctx, tx, wallet.MovementInput{
			UserID:    userID,
			Amount:    breakdown.Total,
			Reference: "subscription:" + number,
		})
		if err != nil {
			return nil, err
		}
	}

	order := &models.SubscriptionOrder{
		ID:             uuid.New(),
		OrderNumber:    number,
		StoreID:        input.StoreID,
		UserID:         userID,
		AddressID:      input.AddressID,
		StartDate:      start,
		EndDate:        end,
		Status:         enums.SubscriptionOrderStatusPending,
		Subtotal:       breakdown.Subtotal,
		DeliveryCharge: breakdown.DeliveryCharge,
		StoreCharge:    breakdown.StoreCharge,
		Tax:            breakdown.Tax,
		CouponValue:    breakdown.CouponValue,
		Total:          breakdown.Total,
	}
	if coupon != nil {
		order.CouponID = &coupon.ID
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	order.Items = items

	if err := repo.CreateOrder(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to persist subscription order")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventSubscriptionCreated,
		AggregateType: enums.AggregateSubscriptionOrder,
		AggregateID:   order.ID,
		Version:       1,
		Data: payloads.SubscriptionCreatedEvent{
			SubscriptionOrderID: order.ID,
			OrderNumber:         order.OrderNumber,
			UserID:              userID,
			StoreID:             order.StoreID,
			Total:               order.Total,
			ItemCount:           len(order.Items),
			StartDate:           start,
			EndDate:             end,
		},
	}
	if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
		return nil, err
	}
	return order, nil
}
