package models

import (
	"testing"
	"time"

	"yogastore-backend/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	cases := map[string]string{
		"$39.99":    "39.99",
		" $ 12":     "12",
		"€1,250.50": "1250.5",
		"29.99":     "29.99",
		"N/A":       "0",
		"":          "0",
	}
	for in, want := range cases {
		assert.True(t, decimal.RequireFromString(want).Equal(ParsePrice(in)), "ParsePrice(%q)", in)
	}
	assert.Equal(t, "$39.99", FormatPrice(decimal.RequireFromString("39.99")))
}

func TestRecordFoldsFieldCase(t *testing.T) {
	doc := store.Document{Key: "abc", Version: 2, Data: map[string]any{
		"customerId": float64(7),
		"courseID":   "3",
		"Status":     true,
	}}
	g := GrantFromDocument(doc)
	assert.Equal(t, int64(7), g.CustomerID)
	assert.Equal(t, int64(3), g.CourseID)

	r := NewRecord(doc)
	assert.True(t, r.Has("STATUS"))
	assert.False(t, r.Has("missing"))
	assert.Equal(t, int64(2), r.Version)
}

func TestRecordPrefersCanonicalNames(t *testing.T) {
	doc := store.Document{Data: map[string]any{
		"email": "old@example.com",
		"Email": "new@example.com",
	}}
	assert.Equal(t, "new@example.com", CustomerFromDocument(doc).Email)
}

func TestCourseFromDocument(t *testing.T) {
	c := CourseFromDocument(store.Document{Data: map[string]any{
		"Id":        float64(4),
		"Name":      "Private Vinyasa",
		"Duration":  "45 min",
		"Price":     "$29.99",
		"TeacherId": float64(2),
	}})
	assert.Equal(t, int64(4), c.ID)
	assert.Equal(t, int64(45), c.Duration)
	assert.True(t, decimal.RequireFromString("29.99").Equal(c.Price))
	assert.Equal(t, "$29.99", c.Fields()["Price"])
	assert.Equal(t, "Teacher 9", PlaceholderTeacherName(9))
}

func TestCustomerBalanceFromNumberOrString(t *testing.T) {
	num := CustomerFromDocument(store.Document{Data: map[string]any{"Balance": 20.01}})
	assert.Equal(t, "20.01", num.Balance.String())

	str := CustomerFromDocument(store.Document{Data: map[string]any{"balance": "50"}})
	assert.Equal(t, "50", str.Balance.String())

	assert.Nil(t, num.Fields()["ImageUrl"])
	assert.Equal(t, 20.01, num.Fields()["Balance"])
}

func TestTransactionFields(t *testing.T) {
	when := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	txn := Transaction{
		ID:            12,
		CustomerID:    7,
		CourseID:      3,
		Amount:        decimal.RequireFromString("29.99"),
		DateTime:      when,
		PaymentMethod: CreditCard.Label(),
		Status:        true,
	}
	f := txn.Fields()
	assert.Equal(t, "29.99", f["Amount"])
	assert.Equal(t, "2025-01-02T03:04:05Z", f["DateTime"])
	assert.Equal(t, "Credit Card", f["PaymentMethod"])
	assert.False(t, txn.IsCredit())
	assert.Equal(t, "-29.99", txn.Signed().String())

	topUp := Transaction{Amount: decimal.NewFromInt(10), PaymentMethod: BalanceUpdateMethod}
	assert.True(t, topUp.IsCredit())
	assert.NotContains(t, topUp.Fields(), "CourseId")
}

func TestTransactionReadsLegacyDate(t *testing.T) {
	txn := TransactionFromDocument(store.Document{Data: map[string]any{
		"Amount":   "10",
		"DateTime": "2024-06-01",
	}})
	require.False(t, txn.DateTime.IsZero())
	assert.Equal(t, 2024, txn.DateTime.Year())
}

func TestPaymentMethodLabels(t *testing.T) {
	assert.Equal(t, "Apple Pay", ApplePay.Label())
	assert.Equal(t, "Bank Transfer", BankTransfer.Label())
	assert.Equal(t, "Credit Card", PaymentMethod("bitcoin").Label())
	assert.False(t, PaymentMethod("bitcoin").Valid())
	assert.True(t, PayPal.Valid())
	assert.Equal(t, "7_3", GrantKey(7, 3))
}
