package models

// PaymentMethod is the id a client sends; Label is what gets recorded.
type PaymentMethod string

const (
	CreditCard   PaymentMethod = "credit_card"
	DebitCard    PaymentMethod = "debit_card"
	ApplePay     PaymentMethod = "apple_pay"
	PayPal       PaymentMethod = "paypal"
	BankTransfer PaymentMethod = "bank_transfer"
)

var paymentLabels = map[PaymentMethod]string{
	CreditCard:   "Credit Card",
	DebitCard:    "Debit Card",
	ApplePay:     "Apple Pay",
	PayPal:       "PayPal",
	BankTransfer: "Bank Transfer",
}

// Label falls back to "Credit Card" for unknown ids.
func (m PaymentMethod) Label() string {
	if label, ok := paymentLabels[m]; ok {
		return label
	}
	return paymentLabels[CreditCard]
}

func (m PaymentMethod) Valid() bool {
	_, ok := paymentLabels[m]
	return ok
}
