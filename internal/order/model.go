package order

import (
	"encoding/json"
	"time"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusPaid     Status = "PAID"
	StatusFailed   Status = "FAILED"
	StatusCanceled Status = "CANCELED"
)

// Terminal reports whether s can no longer change from callback
// processing.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusFailed
}

type Order struct {
	ID               uint
	TxnRef           string
	Total            float64
	Status           Status
	PaymentMethod    string
	Metadata         json.RawMessage
	LastStatusChange time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// StatusHistoryEntry is an append-only audit row; it is write-only
// from the payment adapter's perspective.
type StatusHistoryEntry struct {
	OrderID   uint
	Status    Status
	Note      string
	ChangedBy string
	CreatedAt time.Time
}
