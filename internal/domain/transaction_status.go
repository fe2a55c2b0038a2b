package domain

// TransactionStatus is the lifecycle state of an order as reported by the
// payment gateway. "settlement" from Midtrans maps to StatusPaid before it
// reaches this type.
type TransactionStatus string

const (
	StatusCreated   TransactionStatus = "created"
	StatusPending   TransactionStatus = "pending"
	StatusPaid      TransactionStatus = "paid"
	StatusFailed    TransactionStatus = "failed"
	StatusCancelled TransactionStatus = "cancelled"
	StatusExpired   TransactionStatus = "expired"
)

func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case StatusPaid, StatusFailed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// String representation (for logging)
func (s TransactionStatus) String() string {
	return string(s)
}

var transitions = map[TransactionStatus][]TransactionStatus{
	StatusCreated: {StatusPending, StatusPaid, StatusFailed, StatusCancelled, StatusExpired},
	StatusPending: {StatusPaid, StatusFailed, StatusCancelled, StatusExpired},
}

// CanTransitionTo reports whether an order may move from one status to
// another. Terminal statuses admit no further transitions.
func CanTransitionTo(from, to TransactionStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
