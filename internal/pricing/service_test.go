package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocerly/grocerly-backend/pkg/config"
	"github.com/grocerly/grocerly-backend/pkg/db/models"
	"github.com/grocerly/grocerly-backend/pkg/enums"
	pkgerrors "github.com/grocerly/grocerly-backend/pkg/errors"
	"github.com/grocerly/grocerly-backend/pkg/types"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Cfg: config.PricingConfig{
		TaxRatePercent: 5,
		DeliveryCharge: 30,
		StoreCharge:    10,
		TotalEpsilon:   0.01,
	}})
	require.NoError(t, err)
	return svc
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestQuoteInstant_FullBreakdown(t *testing.T) {
	svc := newTestService(t)

	lines := []LineInput{
		{UnitPrice: dec("50.00"), Quantity: 2},
		{UnitPrice: dec("30.00"), Quantity: 1},
	}
	charges := Charges{DeliveryCharge: dec("30"), StoreCharge: dec("10")}
	coupon := &models.Coupon{Value: dec("50.00")}

	breakdown, err := svc.QuoteInstant(lines, charges, coupon)
	require.NoError(t, err)

	assert.True(t, breakdown.Subtotal.Equal(dec("130.00")), "subtotal %s", breakdown.Subtotal)
	assert.True(t, breakdown.Tax.Equal(dec("6.50")), "tax %s", breakdown.Tax)
	assert.True(t, breakdown.DeliveryCharge.Equal(dec("30")))
	assert.True(t, breakdown.StoreCharge.Equal(dec("10")))
	assert.True(t, breakdown.CouponValue.Equal(dec("50.00")))
	// 130 + 30 + 10 + 6.50 - 50
	assert.True(t, breakdown.Total.Equal(dec("126.50")), "total %s", breakdown.Total)
}

func TestQuoteInstant_NoCoupon(t *testing.T) {
	svc := newTestService(t)

	breakdown, err := svc.QuoteInstant(
		[]LineInput{{UnitPrice: dec("20.00"), Quantity: 3}},
		Charges{DeliveryCharge: dec("30"), StoreCharge: dec("10")},
		nil,
	)
	require.NoError(t, err)

	assert.True(t, breakdown.CouponValue.IsZero())
	// 60 + 30 + 10 + 3
	assert.True(t, breakdown.Total.Equal(dec("103.00")), "total %s", breakdown.Total)
}

func TestQuoteInstant_CouponFloorsAtZero(t *testing.T) {
	svc := newTestService(t)

	breakdown, err := svc.QuoteInstant(
		[]LineInput{{UnitPrice: dec("10.00"), Quantity: 1}},
		Charges{},
		&models.Coupon{Value: dec("500.00")},
	)
	require.NoError(t, err)
	assert.True(t, breakdown.Total.IsZero(), "total %s", breakdown.Total)
}

func TestQuoteInstant_RejectsBadLines(t *testing.T) {
	svc := newTestService(t)

	cases := []struct {
		name  string
		lines []LineInput
	}{
		{name: "empty", lines: nil},
		{name: "zero quantity", lines: []LineInput{{UnitPrice: dec("10"), Quantity: 0}}},
		{name: "negative price", lines: []LineInput{{UnitPrice: dec("-1"), Quantity: 1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.QuoteInstant(tc.lines, Charges{}, nil)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}

func TestQuoteSubscription_ProjectsSchedule(t *testing.T) {
	svc := newTestService(t)

	// 2026-06-01 is a Monday. Two weeks hold two Mondays and two Wednesdays.
	start := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 13)

	lines := []SubscriptionLineInput{{
		UnitPrice:  dec("40.00"),
		Quantities: types.WeekdayQuantities{Monday: 2, Wednesday: 1},
		Start:      start,
		End:        end,
	}}

	breakdown, err := svc.QuoteSubscription(lines, Charges{DeliveryCharge: dec("30"), StoreCharge: dec("10")}, nil)
	require.NoError(t, err)

	// (2x2 + 1x2) units at 40 each.
	assert.True(t, breakdown.Subtotal.Equal(dec("240.00")), "subtotal %s", breakdown.Subtotal)
	assert.True(t, breakdown.Tax.Equal(dec("12.00")), "tax %s", breakdown.Tax)
	assert.True(t, breakdown.Total.Equal(dec("292.00")), "total %s", breakdown.Total)
}

func TestQuoteSubscription_ChargesApplyOncePerOrder(t *testing.T) {
	svc := newTestService(t)

	start := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 6)

	lines := []SubscriptionLineInput{
		{UnitPrice: dec("10.00"), Quantities: types.WeekdayQuantities{Monday: 1}, Start: start, End: end},
		{UnitPrice: dec("20.00"), Quantities: types.WeekdayQuantities{Friday: 1}, Start: start, End: end},
	}

	breakdown, err := svc.QuoteSubscription(lines, Charges{DeliveryCharge: dec("30"), StoreCharge: dec("10")}, nil)
	require.NoError(t, err)

	assert.True(t, breakdown.Subtotal.Equal(dec("30.00")))
	assert.True(t, breakdown.DeliveryCharge.Equal(dec("30")))
	assert.True(t, breakdown.StoreCharge.Equal(dec("10")))
	// 30 + 30 + 10 + 1.50
	assert.True(t, breakdown.Total.Equal(dec("71.50")), "total %s", breakdown.Total)
}

func TestQuoteSubscription_EmptyScheduleRejected(t *testing.T) {
	svc := newTestService(t)

	start := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	lines := []SubscriptionLineInput{{
		UnitPrice:  dec("10.00"),
		Quantities: types.WeekdayQuantities{},
		Start:      start,
		End:        start.AddDate(0, 0, 13),
	}}

	_, err := svc.QuoteSubscription(lines, Charges{}, nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestChargesForStore(t *testing.T) {
	svc := newTestService(t)

	store := &models.Store{DeliveryCharge: dec("45"), StoreCharge: dec("15")}

	charges := svc.ChargesForStore(store, enums.OrderTypeDelivery)
	assert.True(t, charges.DeliveryCharge.Equal(dec("45")))
	assert.True(t, charges.StoreCharge.Equal(dec("15")))

	// Store without charges falls back to the configured defaults.
	charges = svc.ChargesForStore(&models.Store{}, enums.OrderTypeDelivery)
	assert.True(t, charges.DeliveryCharge.Equal(dec("30")))
	assert.True(t, charges.StoreCharge.Equal(dec("10")))

	// Self-pickup never pays delivery.
	charges = svc.ChargesForStore(store, enums.OrderTypeSelfPickup)
	assert.True(t, charges.DeliveryCharge.IsZero())
	assert.True(t, charges.StoreCharge.Equal(dec("15")))
}

func TestValidateClientTotal(t *testing.T) {
	svc := newTestService(t)
	computed := dec("126.50")

	assert.NoError(t, svc.ValidateClientTotal(computed, nil))

	exact := dec("126.50")
	assert.NoError(t, svc.ValidateClientTotal(computed, &exact))

	withinEpsilon := dec("126.51")
	assert.NoError(t, svc.ValidateClientTotal(computed, &withinEpsilon))

	off := dec("126.52")
	err := svc.ValidateClientTotal(computed, &off)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.NotNil(t, pkgerrors.As(err).Details())
}

func TestSubscriptionLineUnits_Deterministic(t *testing.T) {
	start := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 13)
	quantities := types.WeekdayQuantities{Monday: 2, Wednesday: 1}

	for i := 0; i < 5; i++ {
		assert.Equal(t, 6, SubscriptionLineUnits(quantities, start, end, nil))
	}
}
