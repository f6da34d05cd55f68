package enums

import "fmt"

// TransactionStatus tracks the lifecycle of a purchase. It is persisted as a
// bare integer (0..3) to keep the wire format stable.
type TransactionStatus int

const (
	TransactionStatusReceived TransactionStatus = 0
	TransactionStatusShipped  TransactionStatus = 1
	TransactionStatusArrived  TransactionStatus = 2
	TransactionStatusReturned TransactionStatus = 3
)

var validTransactionStatuses = []TransactionStatus{
	TransactionStatusReceived,
	TransactionStatusShipped,
	TransactionStatusArrived,
	TransactionStatusReturned,
}

var transactionStatusNames = map[TransactionStatus]string{
	TransactionStatusReceived: "received",
	TransactionStatusShipped:  "shipped",
	TransactionStatusArrived:  "arrived",
	TransactionStatusReturned: "returned",
}

// String implements fmt.Stringer.
func (s TransactionStatus) String() string {
	if name, ok := transactionStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// IsValid reports whether the value is a known TransactionStatus.
func (s TransactionStatus) IsValid() bool {
	for _, candidate := range validTransactionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseTransactionStatus converts a raw integer into a TransactionStatus.
func ParseTransactionStatus(value int) (TransactionStatus, error) {
	status := TransactionStatus(value)
	if !status.IsValid() {
		return 0, fmt.Errorf("invalid transaction status %d", value)
	}
	return status, nil
}
