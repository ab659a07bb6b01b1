package enums

import "fmt"

// WalletDirection is the accounting side of a wallet ledger entry.
type WalletDirection string

const (
	WalletDirectionDebit  WalletDirection = "debit"
	WalletDirectionCredit WalletDirection = "credit"
)

var validWalletDirections = []WalletDirection{
	WalletDirectionDebit,
	WalletDirectionCredit,
}

// IsValid reports whether the value is a known WalletDirection.
func (d WalletDirection) IsValid() bool {
	for _, candidate := range validWalletDirections {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseWalletDirection converts raw input into a WalletDirection.
func ParseWalletDirection(value string) (WalletDirection, error) {
	for _, candidate := range validWalletDirections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet direction %q", value)
}
