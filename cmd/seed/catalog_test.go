package main

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"yogastore-backend/models"
	"yogastore-backend/services"
	"yogastore-backend/session"
	"yogastore-backend/store"
	"yogastore-backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var seedTime = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func loadExample(t *testing.T) *catalogFile {
	t.Helper()
	f, err := os.Open("catalog.example.yaml")
	require.NoError(t, err)
	defer f.Close()

	cat, err := loadCatalog(f)
	require.NoError(t, err)
	return cat
}

func storedCustomer(t *testing.T, st store.Store, key string) models.Customer {
	t.Helper()
	doc, err := st.GetDocument(context.Background(), models.CustomersCollection, key)
	require.NoError(t, err)
	return models.CustomerFromDocument(doc)
}

func TestSeedExampleCatalog(t *testing.T) {
	utils.BcryptCost = bcrypt.MinCost
	ctx := context.Background()
	cat := loadExample(t)
	st := store.NewMemoryStore()

	n, err := apply(ctx, st, cat, seedTime)
	require.NoError(t, err)
	assert.Equal(t, seedCounts{Teachers: 2, Courses: 3, Customers: 1}, n)

	doc, err := st.GetDocument(ctx, models.CoursesCollection, "1")
	require.NoError(t, err)
	assert.Equal(t, "$29.99", doc.Data["Price"])

	c := storedCustomer(t, st, "1")
	assert.Equal(t, "50", c.Balance.String())
	assert.True(t, utils.CheckPassword("demo123", c.Password))

	// the opening balance is backed by a credit
	mismatched, err := services.NewReconcileService(st).Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, mismatched)
}

func TestSeedRerunKeepsCustomerHistory(t *testing.T) {
	utils.BcryptCost = bcrypt.MinCost
	ctx := context.Background()
	cat := loadExample(t)
	st := store.NewMemoryStore()

	_, err := apply(ctx, st, cat, seedTime)
	require.NoError(t, err)

	purchases := services.NewPurchaseService(st, services.LogNotifier{})
	receipt, err := purchases.Purchase(ctx, &session.Session{ID: "s1", CustomerID: 1}, 1, models.CreditCard)
	require.NoError(t, err)
	assert.Equal(t, "20.01", receipt.Balance.StringFixed(2))

	n, err := apply(ctx, st, cat, seedTime)
	require.NoError(t, err)
	assert.Equal(t, seedCounts{Teachers: 2, Courses: 3, SkippedCustomers: 1}, n)

	courses, err := st.GetCollection(ctx, models.CoursesCollection)
	require.NoError(t, err)
	assert.Len(t, courses, 3, "re-running overwrites instead of duplicating")

	assert.Equal(t, "20.01", storedCustomer(t, st, "1").Balance.StringFixed(2))
	txns, err := st.GetCollection(ctx, models.TransactionsCollection)
	require.NoError(t, err)
	assert.Len(t, txns, 2, "no second opening credit")

	mismatched, err := services.NewReconcileService(st).Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, mismatched)
}

func TestSeedKeepsSignUpIDsClear(t *testing.T) {
	utils.BcryptCost = bcrypt.MinCost
	ctx := context.Background()
	st := store.NewMemoryStore()
	auth := services.NewAuthService(st, session.NewMemoryStore(), "secret", time.Hour)

	signUp := func(email string) models.Customer {
		c, err := auth.SignUp(ctx, services.SignUpInput{
			Email: email, Password: "secret1", ConfirmPassword: "secret1", Name: "New Customer",
		})
		require.NoError(t, err)
		return c
	}

	first := signUp("first@example.com")
	assert.Equal(t, int64(1), first.ID)

	cat := &catalogFile{Customers: []seedCustomer{{ID: 3, Email: "demo@example.com", Password: "demo123", Name: "Demo"}}}
	_, err := apply(ctx, st, cat, seedTime)
	require.NoError(t, err)

	next := signUp("second@example.com")
	assert.Equal(t, int64(4), next.ID)
	assert.Equal(t, "demo@example.com", storedCustomer(t, st, "3").Email)
}

func TestLoadCatalogRejectsBadInput(t *testing.T) {
	_, err := loadCatalog(strings.NewReader("courses:\n  - name: No Id\n"))
	assert.Error(t, err)

	_, err = loadCatalog(strings.NewReader("coursez: []\n"))
	assert.Error(t, err, "unknown keys are rejected")

	cat, err := loadCatalog(strings.NewReader("customers:\n  - id: 1\n    email: a@example.com\n    password: x\n    balance: \"-5\"\n"))
	require.NoError(t, err)
	_, err = apply(context.Background(), store.NewMemoryStore(), cat, seedTime)
	assert.Error(t, err, "negative opening balances are rejected")
}
