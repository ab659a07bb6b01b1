package enums

import "fmt"

// OrderType distinguishes delivery orders from self pickup.
type OrderType string

const (
	OrderTypeDelivery   OrderType = "delivery"
	OrderTypeSelfPickup OrderType = "self_pickup"
)

var validOrderTypes = []OrderType{
	OrderTypeDelivery,
	OrderTypeSelfPickup,
}

// IsValid reports whether the value is a known OrderType.
func (t OrderType) IsValid() bool {
	for _, candidate := range validOrderTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseOrderType converts raw input into an OrderType.
func ParseOrderType(value string) (OrderType, error) {
	for _, candidate := range validOrderTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order type %q", value)
}
