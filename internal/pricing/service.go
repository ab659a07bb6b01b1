package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/grocerly/grocerly-backend/pkg/config"
	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/enums"
	pkgerrors "github.com/grocerly/grocerly-backend/pkg/errors"
	"github.com/grocerly/grocerly-backend/pkg/schedule"
	"github.com/grocerly/grocerly-backend/pkg/types"
)

// LineInput is one priced order line for an instant order.
type LineInput struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// SubscriptionLineInput is one subscription line: a per-delivery price and a
// weekly quantity schedule projected over the order window.
type SubscriptionLineInput struct {
	UnitPrice  decimal.Decimal
	Quantities types.WeekdayQuantities
	Start      time.Time
	End        time.Time
}

// Charges are the order-level charges applied once per order.
type Charges struct {
	DeliveryCharge decimal.Decimal
	StoreCharge    decimal.Decimal
}

// Breakdown is the computed totals of an order. Column-for-column it matches
// what gets persisted on the order row.
type Breakdown struct {
	Subtotal       decimal.Decimal
	DeliveryCharge decimal.Decimal
	StoreCharge    decimal.Decimal
	Tax            decimal.Decimal
	CouponValue    decimal.Decimal
	Total          decimal.Decimal
}

// Service prices orders. All methods are pure: no clock reads, no I/O.
type Service interface {
	// ChargesForStore resolves the per-order charges from the store row,
	// falling back to configured defaults when the store carries none.
	// Self-pickup orders never pay the delivery charge.
	ChargesForStore(store *models.Store, orderType enums.OrderType) Charges

	// QuoteInstant prices an instant order:
	// subtotal + charges + tax - coupon, floored at zero.
	QuoteInstant(lines []LineInput, charges Charges, coupon *models.Coupon) (*Breakdown, error)

	// QuoteSubscription prices a subscription order. Each line contributes
	// unit price times the projected delivery-unit count of its schedule;
	// charges and coupon apply once at the order level.
	QuoteSubscription(lines []SubscriptionLineInput, charges Charges, coupon *models.Coupon) (*Breakdown, error)

	// ValidateClientTotal compares a client-supplied total against the
	// computed one. A nil client total skips the check; a mismatch beyond
	// the configured epsilon is a hard validation failure.
	ValidateClientTotal(computed decimal.Decimal, clientTotal *decimal.Decimal) error
}

type service struct {
	cfg config.PricingConfig
}

type ServiceParams struct {
	Cfg config.PricingConfig
}

func NewService(params ServiceParams) (Service, error) {
	if params.Cfg.TotalEpsilon <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "pricing: total epsilon must be positive")
	}
	if params.Cfg.TaxRatePercent < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "pricing: tax rate must not be negative")
	}
	return &service{cfg: params.Cfg}, nil
}

func (s *service) ChargesForStore(store *models.Store, orderType enums.OrderType) Charges {
	charges := Charges{
		DeliveryCharge: decimal.NewFromFloat(s.cfg.DeliveryCharge),
		StoreCharge:    decimal.NewFromFloat(s.cfg.StoreCharge),
	}
	if store != nil {
		if store.DeliveryCharge.IsPositive() {
			charges.DeliveryCharge = store.DeliveryCharge
		}
		if store.StoreCharge.IsPositive() {
			charges.StoreCharge = store.StoreCharge
		}
	}
	if orderType != enums.OrderTypeDelivery {
		charges.DeliveryCharge = decimal.Zero
	}
	return charges
}

func (s *service) QuoteInstant(lines []LineInput, charges Charges, coupon *models.Coupon) (*Breakdown, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no lines to price")
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
		if line.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line price must not be negative")
		}
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	return s.assemble(subtotal, charges, coupon), nil
}

func (s *service) QuoteSubscription(lines []SubscriptionLineInput, charges Charges, coupon *models.Coupon) (*Breakdown, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription has no lines to price")
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		if line.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line price must not be negative")
		}
		if line.Quantities.HasNegativeQuantity() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "weekday quantities must not be negative")
		}
		units := SubscriptionLineUnits(line.Quantities, line.Start, line.End, nil)
		if units == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription line schedules no deliveries in the order window")
		}
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(units))))
	}

	return s.assemble(subtotal, charges, coupon), nil
}

func (s *service) ValidateClientTotal(computed decimal.Decimal, clientTotal *decimal.Decimal) error {
	if clientTotal == nil {
		return nil
	}
	epsilon := decimal.NewFromFloat(s.cfg.TotalEpsilon)
	if computed.Sub(*clientTotal).Abs().GreaterThan(epsilon) {
		return pkgerrors.New(pkgerrors.CodeValidation, "client total does not match computed total").
			WithDetails(map[string]string{
				"computed_total": computed.StringFixed(2),
				"client_total":   clientTotal.StringFixed(2),
			})
	}
	return nil
}

// assemble rolls a subtotal up into a full breakdown. Tax applies to the
// subtotal only, not to charges. The coupon comes off last and can never
// push the total below zero.
func (s *service) assemble(subtotal decimal.Decimal, charges Charges, coupon *models.Coupon) *Breakdown {
	tax := subtotal.
		Mul(decimal.NewFromFloat(s.cfg.TaxRatePercent)).
		Div(decimal.NewFromInt(100)).
		Round(2)

	couponValue := decimal.Zero
	if coupon != nil {
		couponValue = coupon.Value
	}

	total := subtotal.
		Add(charges.DeliveryCharge).
		Add(charges.StoreCharge).
		Add(tax).
		Sub(couponValue)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return &Breakdown{
		Subtotal:       subtotal.Round(2),
		DeliveryCharge: charges.DeliveryCharge.Round(2),
		StoreCharge:    charges.StoreCharge.Round(2),
		Tax:            tax,
		CouponValue:    couponValue.Round(2),
		Total:          total.Round(2),
	}
}

// SubscriptionLineUnits counts the delivery units a weekly schedule yields
// over [start, end]: the sum over weekdays of quantity times the number of
// deliveries that weekday sees in the window, pauses excluded.
func SubscriptionLineUnits(quantities types.WeekdayQuantities, start, end time.Time, pauses []schedule.Interval) int {
	units := 0
	for _, day := range quantities.SelectedWeekdays() {
		units += quantities.QuantityFor(day) * schedule.CountForWeekday(start, end, day, pauses)
	}
	return units
}
