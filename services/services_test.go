package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"yogastore-backend/models"
	"yogastore-backend/session"
	"yogastore-backend/store"
	"yogastore-backend/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	utils.BcryptCost = bcrypt.MinCost
}

const testPassword = "secret1"

// seedStore holds one customer (Id 1, balance 50) and three courses: a
// $29.99 class, a $39.99 private class and one with an unparseable price
// whose teacher does not exist.
func seedStore(t *testing.T, balance string) *store.MemoryStore {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()

	hash, err := utils.HashPassword(testPassword)
	require.NoError(t, err)
	customer := models.Customer{
		ID:          1,
		Email:       "ana@example.com",
		Password:    hash,
		Name:        "Ana",
		PhoneNumber: "+15551234567",
		DateCreated: "2024-01-01",
		Balance:     decimal.RequireFromString(balance),
	}
	require.NoError(t, st.AddDocumentWithID(ctx, models.CustomersCollection, "1", customer.Fields()))

	for _, teacher := range []models.Teacher{
		{ID: 1, Name: "Mira Patel", Experience: "10 years", Bio: "Hatha and Vinyasa"},
		{ID: 2, Name: "Leo Park", Experience: "4 years"},
	} {
		require.NoError(t, st.AddDocumentWithID(ctx, models.TeachersCollection, models.CustomerKey(teacher.ID), teacher.Fields()))
	}

	for _, course := range []map[string]any{
		{"Id": 1, "Name": "Morning Flow", "Description": "Gentle vinyasa", "Duration": 45, "Category": "Beginner", "Price": "$29.99", "TeacherId": 1},
		{"Id": 2, "Name": "Private Yin", "Description": "One to one", "Duration": 60, "Category": "Intermediate", "Price": "$39.99", "TeacherId": 2},
		{"Id": 3, "Name": "Power Hour", "Description": "Strength", "Duration": "60 min", "Category": "Advanced", "Price": "N/A", "TeacherId": 99},
	} {
		_, err := st.AddDocument(ctx, models.CoursesCollection, course)
		require.NoError(t, err)
	}
	return st
}

func count(t *testing.T, st store.Store, collection string) int {
	t.Helper()
	docs, err := st.GetCollection(context.Background(), collection)
	require.NoError(t, err)
	return len(docs)
}

func balanceOf(t *testing.T, st store.Store, customerID int64) decimal.Decimal {
	t.Helper()
	c, err := NewProfileService(st).Profile(context.Background(), customerID)
	require.NoError(t, err)
	return c.Balance
}

func sessionFor(customerID int64) *session.Session {
	return &session.Session{ID: "test-session", CustomerID: customerID}
}

type recordingNotifier struct {
	mu       sync.Mutex
	receipts []*Receipt
}

func (n *recordingNotifier) PurchaseCompleted(ctx context.Context, customer models.Customer, receipt *Receipt) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.receipts = append(n.receipts, receipt)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.receipts)
}

// failingStore fails every write to one collection, inside transactions too.
type failingStore struct {
	store.Store
	collection string
}

var errBoom = errors.New("connection reset")

func (f *failingStore) UpdateDocument(ctx context.Context, collection, key string, fields map[string]any, opts ...store.WriteOption) error {
	if collection == f.collection {
		return errBoom
	}
	return f.Store.UpdateDocument(ctx, collection, key, fields, opts...)
}

func (f *failingStore) CreateDocument(ctx context.Context, collection, key string, data map[string]any) error {
	if collection == f.collection {
		return errBoom
	}
	return f.Store.CreateDocument(ctx, collection, key, data)
}

func (f *failingStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return f.Store.RunTransaction(ctx, func(ctx context.Context, tx store.Store) error {
		return fn(ctx, &failingStore{Store: tx, collection: f.collection})
	})
}
