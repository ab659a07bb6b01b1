package enums

import "fmt"

// CouponStatus tracks coupon applicability.
type CouponStatus string

const (
	CouponStatusDraft   CouponStatus = "draft"
	CouponStatusActive  CouponStatus = "active"
	CouponStatusExpired CouponStatus = "expired"
)

var validCouponStatuses = []CouponStatus{
	CouponStatusDraft,
	CouponStatusActive,
	CouponStatusExpired,
}

// IsValid reports whether the value is a known CouponStatus.
func (s CouponStatus) IsValid() bool {
	for _, candidate := range validCouponStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCouponStatus converts raw input into a CouponStatus.
func ParseCouponStatus(value string) (CouponStatus, error) {
	for _, candidate := range validCouponStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid coupon status %q", value)
}
