package services

import (
	"context"
	"testing"

	"yogastore-backend/models"
	"yogastore-backend/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUpdateProfile_Validation(t *testing.T) {
	svc := NewProfileService(seedStore(t, "0"))
	ctx := context.Background()

	cases := []struct {
		name  string
		input ProfileUpdate
		field string
	}{
		{"missing name", ProfileUpdate{Email: "ana@example.com"}, "name"},
		{"missing email", ProfileUpdate{Name: "Ana"}, "email"},
		{"bad phone", ProfileUpdate{Name: "Ana", Email: "ana@example.com", PhoneNumber: strPtr("abc")}, "phoneNumber"},
		{"short password", ProfileUpdate{Name: "Ana", Email: "ana@example.com", CurrentPassword: testPassword, NewPassword: "123", ConfirmPassword: "123"}, "newPassword"},
		{"unconfirmed password", ProfileUpdate{Name: "Ana", Email: "ana@example.com", CurrentPassword: testPassword, NewPassword: "123456", ConfirmPassword: "654321"}, "confirmPassword"},
		{"wrong current password", ProfileUpdate{Name: "Ana", Email: "ana@example.com", CurrentPassword: "nope", NewPassword: "123456", ConfirmPassword: "123456"}, "currentPassword"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpdateProfile(ctx, 1, tc.input)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	c, err := svc.Profile(ctx, 1)
	require.NoError(t, err)
	assert.True(t, utils.CheckPassword(testPassword, c.Password), "rejected updates leave the password alone")
}

func TestUpdateProfile_ChangesFieldsAndPassword(t *testing.T) {
	ctx := context.Background()
	st := seedStore(t, "12.50")
	svc := NewProfileService(st)

	updated, err := svc.UpdateProfile(ctx, 1, ProfileUpdate{
		Name:            "Ana Lima",
		Email:           "ana.lima@example.com",
		DateOfBirth:     strPtr("1990-04-02"),
		CurrentPassword: testPassword,
		NewPassword:     "n3wpass",
		ConfirmPassword: "n3wpass",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Lima", updated.Name)
	assert.Equal(t, "+15551234567", updated.PhoneNumber, "nil fields are kept")

	fresh, err := svc.Profile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "ana.lima@example.com", fresh.Email)
	assert.Equal(t, "1990-04-02", fresh.DateOfBirth)
	assert.Equal(t, "12.5", fresh.Balance.String(), "profile edits never touch the balance")
	assert.True(t, utils.IsPasswordHash(fresh.Password))
	assert.True(t, utils.CheckPassword("n3wpass", fresh.Password))
}

func TestUpdateProfile_EmailTaken(t *testing.T) {
	ctx := context.Background()
	st := seedStore(t, "0")
	require.NoError(t, st.AddDocumentWithID(ctx, models.CustomersCollection, "2", models.Customer{ID: 2, Email: "leo@example.com", Name: "Leo"}.Fields()))

	_, err := NewProfileService(st).UpdateProfile(ctx, 1, ProfileUpdate{Name: "Ana", Email: "LEO@example.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestTopUp(t *testing.T) {
	ctx := context.Background()
	st := seedStore(t, "5")
	svc := NewProfileService(st)

	for _, bad := range []string{"0", "-3", "0.001"} {
		_, err := svc.TopUp(ctx, 1, decimal.RequireFromString(bad))
		assert.True(t, IsValidation(err), "amount %s", bad)
	}
	assert.Equal(t, 0, count(t, st, models.TransactionsCollection))

	res, err := svc.TopUp(ctx, 1, decimal.RequireFromString("25.50"))
	require.NoError(t, err)
	assert.Equal(t, "30.5", res.Balance.String())
	assert.Equal(t, models.BalanceUpdateMethod, res.Transaction.PaymentMethod)
	assert.True(t, res.Transaction.Status)

	_, err = svc.TopUp(ctx, 404, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTopUpLimits(t *testing.T) {
	ctx := context.Background()
	st := seedStore(t, "995000")
	svc := NewProfileService(st)

	_, err := svc.TopUp(ctx, 1, decimal.RequireFromString("10000.01"))
	assert.True(t, IsValidation(err), "single top-up above the cap")

	_, err = svc.TopUp(ctx, 1, decimal.NewFromInt(10000))
	assert.True(t, IsValidation(err), "resulting balance above the cap")
	assert.Equal(t, 0, count(t, st, models.TransactionsCollection))

	res, err := svc.TopUp(ctx, 1, decimal.RequireFromString("4999.99"))
	require.NoError(t, err)
	assert.Equal(t, "999999.99", res.Balance.StringFixed(2))

	// the stored number reads back to the exact cents
	c, err := svc.Profile(ctx, 1)
	require.NoError(t, err)
	assert.True(t, c.Balance.Equal(decimal.RequireFromString("999999.99")), "got %s", c.Balance)
}

func TestTransactionsAndLedgerStayBalanced(t *testing.T) {
	ctx := context.Background()
	st := seedStore(t, "0")
	profiles := NewProfileService(st)
	purchases := NewPurchaseService(st, nil)

	_, err := profiles.TopUp(ctx, 1, decimal.NewFromInt(40))
	require.NoError(t, err)
	_, err = purchases.Purchase(ctx, sessionFor(1), 1, models.CreditCard)
	require.NoError(t, err)
	_, err = purchases.Purchase(ctx, sessionFor(1), 2, models.CreditCard)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	_, err = profiles.TopUp(ctx, 1, decimal.RequireFromString("30"))
	require.NoError(t, err)
	_, err = purchases.Purchase(ctx, sessionFor(1), 2, models.BankTransfer)
	require.NoError(t, err)
	_, err = purchases.Purchase(ctx, sessionFor(1), 2, models.BankTransfer)
	require.NoError(t, err)

	ledger, err := profiles.Ledger(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ledger.Balanced)
	assert.Equal(t, "70", ledger.Credits.String())
	assert.Equal(t, "69.98", ledger.Debits.String())
	assert.Equal(t, "0.02", ledger.Stored.String())
	assert.Equal(t, 4, ledger.Count)

	history, err := profiles.Transactions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "debit", history[0].Direction)
	assert.Equal(t, "-39.99", history[0].Signed.String())
	assert.Equal(t, "credit", history[1].Direction)
}
