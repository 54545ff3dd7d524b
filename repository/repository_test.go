package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"yogastore-backend/models"
	"yogastore-backend/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerFindByIDFallsBackToQuery(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	// legacy record under a generated key with a string Id
	_, err := st.AddDocument(ctx, models.CustomersCollection, map[string]any{"id": "12", "email": "Ana@Example.com", "balance": 50})
	require.NoError(t, err)

	repo := NewCustomerRepository(st)
	c, err := repo.FindByID(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, int64(12), c.ID)
	assert.NotEqual(t, "12", c.Key)

	byEmail, err := repo.FindByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, c.Key, byEmail.Key)

	_, err = repo.FindByID(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCustomerMutateIsVersionChecked(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	require.NoError(t, st.AddDocumentWithID(ctx, models.CustomersCollection, "1", map[string]any{"Id": 1, "Name": "Ana", "Balance": 50}))
	repo := NewCustomerRepository(st)

	updated, err := repo.Mutate(ctx, 1, func(c *models.Customer) error {
		c.Balance = c.Balance.Sub(decimal.RequireFromString("29.99"))
		// a concurrent writer moves the version underneath us
		return st.UpdateDocument(ctx, models.CustomersCollection, "1", map[string]any{"Name": "Ana B"})
	})
	assert.ErrorIs(t, err, store.ErrVersionConflict)
	assert.Empty(t, updated.Key)

	updated, err = repo.Mutate(ctx, 1, func(c *models.Customer) error {
		c.Balance = c.Balance.Sub(decimal.RequireFromString("29.99"))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "20.01", updated.Balance.String())

	fresh, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "20.01", fresh.Balance.String())
	assert.Equal(t, "Ana B", fresh.Name)

	boom := errors.New("boom")
	_, err = repo.Mutate(ctx, 1, func(c *models.Customer) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestCustomerCreateAllocatesIDsAndRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	require.NoError(t, st.AddDocumentWithID(ctx, models.CustomersCollection, "5", map[string]any{"Id": 5, "Email": "old@example.com"}))
	repo := NewCustomerRepository(st)

	c, err := repo.Create(ctx, models.Customer{Email: "new@example.com", Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, int64(6), c.ID, "ids continue after existing records")
	assert.Equal(t, "6", c.Key)

	_, err = repo.Create(ctx, models.Customer{Email: "OLD@example.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestGrantCreateIsAGate(t *testing.T) {
	ctx := context.Background()
	repo := NewGrantRepository(store.NewMemoryStore())

	g, err := repo.Create(ctx, models.Grant{CustomerID: 7, CourseID: 3, PurchasedAt: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, "7_3", g.Key)

	_, err = repo.Create(ctx, models.Grant{CustomerID: 7, CourseID: 3})
	assert.ErrorIs(t, err, ErrAlreadyGranted)

	found, err := repo.Find(ctx, 7, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), found.CourseID)

	_, err = repo.Find(ctx, 7, 4)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGrantListMergesLegacyFieldNames(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	require.NoError(t, st.AddDocumentWithID(ctx, models.GrantsCollection, "7_1", map[string]any{"CustomerId": 7, "CourseId": 1}))
	require.NoError(t, st.AddDocumentWithID(ctx, models.GrantsCollection, "legacy", map[string]any{"customerId": 7, "courseId": 2}))
	require.NoError(t, st.AddDocumentWithID(ctx, models.GrantsCollection, "8_1", map[string]any{"CustomerId": 8, "CourseId": 1}))

	owned, err := NewGrantRepository(st).OwnedCourseIDs(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{1: true, 2: true}, owned)
}

func TestTransactionsNewestFirstAndFindPurchase(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(store.NewMemoryStore())
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, method := range []string{models.BalanceUpdateMethod, "Credit Card", "PayPal"} {
		_, err := repo.Create(ctx, models.Transaction{
			CustomerID:    7,
			CourseID:      int64(i),
			Amount:        decimal.NewFromInt(10),
			DateTime:      base.Add(time.Duration(i) * time.Hour),
			PaymentMethod: method,
			Status:        true,
		})
		require.NoError(t, err)
	}

	list, err := repo.ListForCustomer(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{list[0].ID, list[1].ID, list[2].ID})

	p, err := repo.FindPurchase(ctx, 7, 2)
	require.NoError(t, err)
	assert.Equal(t, "PayPal", p.PaymentMethod)

	_, err = repo.FindPurchase(ctx, 7, 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCountersSeedFromExistingIDs(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	for _, id := range []int64{3, 41, 7} {
		_, err := st.AddDocument(ctx, models.TransactionsCollection, map[string]any{"Id": id})
		require.NoError(t, err)
	}

	c := NewCounters(st)
	next, err := c.Next(ctx, models.TransactionsCollection)
	require.NoError(t, err)
	assert.Equal(t, int64(42), next)

	next, err = c.Next(ctx, models.TransactionsCollection)
	require.NoError(t, err)
	assert.Equal(t, int64(43), next)
}

func TestCountersEnsureStaysAheadOfExplicitIDs(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	c := NewCounters(st)

	next, err := c.Next(ctx, models.CustomersCollection)
	require.NoError(t, err)
	assert.Equal(t, int64(1), next)

	// a record written under its own id after the counter exists
	require.NoError(t, st.AddDocumentWithID(ctx, models.CustomersCollection, "3", map[string]any{"Id": 3}))
	require.NoError(t, c.Ensure(ctx, models.CustomersCollection, 3))
	require.NoError(t, c.Ensure(ctx, models.CustomersCollection, 2), "lower bounds leave the counter alone")

	next, err = c.Next(ctx, models.CustomersCollection)
	require.NoError(t, err)
	assert.Equal(t, int64(4), next)

	// no counter yet: Ensure seeds it first
	fresh := NewCounters(store.NewMemoryStore())
	require.NoError(t, fresh.Ensure(ctx, models.CustomersCollection, 10))
	next, err = fresh.Next(ctx, models.CustomersCollection)
	require.NoError(t, err)
	assert.Equal(t, int64(11), next)
}

func TestCatalogRepository(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	require.NoError(t, st.AddDocumentWithID(ctx, models.CoursesCollection, "1", models.Course{ID: 1, Name: "Hatha", Price: decimal.NewFromInt(20), TeacherID: 2}.Fields()))
	require.NoError(t, st.AddDocumentWithID(ctx, models.TeachersCollection, "2", models.Teacher{ID: 2, Name: "Mira"}.Fields()))
	repo := NewCatalogRepository(st)

	courses, err := repo.ListCourses(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "20", courses[0].Price.String())

	teacher, err := repo.FindTeacher(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Mira", teacher.Name)

	_, err = repo.FindCourse(ctx, 5)
	assert.ErrorIs(t, err, ErrNotFound)
}
