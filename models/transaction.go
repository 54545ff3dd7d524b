package models

import (
	"time"

	"yogastore-backend/store"

	"github.com/shopspring/decimal"
)

// BalanceUpdateMethod marks a transaction that credits the balance. Every
// other payment method is a debit.
const BalanceUpdateMethod = "Balance Update"

type Transaction struct {
	ID            int64           `json:"id"`
	CustomerID    int64           `json:"customerId"`
	CourseID      int64           `json:"courseId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	DateTime      time.Time       `json:"dateTime"`
	PaymentMethod string          `json:"paymentMethod"`
	Status        bool            `json:"status"`
}

func TransactionFromDocument(doc store.Document) Transaction {
	r := NewRecord(doc)
	return Transaction{
		ID:            r.Int("Id"),
		CustomerID:    r.Int("CustomerId"),
		CourseID:      r.Int("CourseId"),
		Amount:        r.Decimal("Amount"),
		DateTime:      r.Time("DateTime"),
		PaymentMethod: r.String("PaymentMethod"),
		Status:        r.Bool("Status"),
	}
}

func (t Transaction) Fields() map[string]any {
	fields := map[string]any{
		"Id":            t.ID,
		"CustomerId":    t.CustomerID,
		"Amount":        t.Amount.String(),
		"DateTime":      t.DateTime.UTC().Format(time.RFC3339),
		"PaymentMethod": t.PaymentMethod,
		"Status":        t.Status,
	}
	if t.CourseID != 0 {
		fields["CourseId"] = t.CourseID
	}
	return fields
}

func (t Transaction) IsCredit() bool {
	return t.PaymentMethod == BalanceUpdateMethod
}

// Signed returns the amount as it affects the balance.
func (t Transaction) Signed() decimal.Decimal {
	if t.IsCredit() {
		return t.Amount
	}
	return t.Amount.Neg()
}
