package domain

import "time"

// Wallet holds a rider's balance. The balance is non-negative and is only
// mutated through atomic debit/credit operations that append a transaction.
type Wallet struct {
	RiderID   string
	Balance   float64
	UpdatedAt time.Time
}

// TransactionType represents the kind of wallet movement.
type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "DEPOSIT"
	TransactionTypeRidePayment TransactionType = "RIDE_PAYMENT"
	TransactionTypeRefund      TransactionType = "REFUND"
	TransactionTypeWithdrawal  TransactionType = "WITHDRAWAL"
)

// Debits reports whether the transaction type reduces the balance.
func (t TransactionType) Debits() bool {
	return t == TransactionTypeRidePayment || t == TransactionTypeWithdrawal
}

// TransactionStatus represents the outcome of a wallet transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// Transaction is one entry in the append-only wallet ledger. The transaction
// log is the source of truth for balance reconciliation.
type Transaction struct {
	ID        string
	RiderID   string
	Type      TransactionType
	Amount    float64
	Fee       float64
	Status    TransactionStatus
	Metadata  map[string]string // Free-form, e.g. ride_id, duration, distance
	CreatedAt time.Time
}

// SignedAmount returns the amount with the sign implied by the type.
func (t *Transaction) SignedAmount() float64 {
	if t.Type.Debits() {
		return -t.Amount
	}
	return t.Amount
}
