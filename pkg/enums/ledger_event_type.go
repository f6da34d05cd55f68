package enums

import "fmt"

// LedgerEventType labels the append-only audit records the ledger engine
// writes alongside every balance or inventory mutation.
type LedgerEventType string

const (
	LedgerEventTypePurchaseRecorded LedgerEventType = "purchase_recorded"
	LedgerEventTypePurchaseReturned LedgerEventType = "purchase_returned"
)

var validLedgerEventTypes = []LedgerEventType{
	LedgerEventTypePurchaseRecorded,
	LedgerEventTypePurchaseReturned,
}

// IsValid reports whether the value matches the canonical ledger event enum.
func (t LedgerEventType) IsValid() bool {
	for _, candidate := range validLedgerEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLedgerEventType converts raw input into LedgerEventType.
func ParseLedgerEventType(value string) (LedgerEventType, error) {
	for _, candidate := range validLedgerEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger event type %q", value)
}
