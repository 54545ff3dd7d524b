package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"yogastore-backend/models"
	"yogastore-backend/store"
)

type TransactionRepository struct {
	st       store.Store
	counters *Counters
}

func NewTransactionRepository(st store.Store) *TransactionRepository {
	return &TransactionRepository{st: st, counters: NewCounters(st)}
}

func (r *TransactionRepository) With(tx store.Store) *TransactionRepository {
	return NewTransactionRepository(tx)
}

// Create allocates an id and stores the transaction under it.
func (r *TransactionRepository) Create(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	id, err := r.counters.Next(ctx, models.TransactionsCollection)
	if err != nil {
		return models.Transaction{}, err
	}
	t.ID = id
	if err := r.st.CreateDocument(ctx, models.TransactionsCollection, strconv.FormatInt(id, 10), t.Fields()); err != nil {
		return models.Transaction{}, fmt.Errorf("create transaction %d: %w", id, err)
	}
	return t, nil
}

// ListForCustomer returns the customer's transactions, newest first.
func (r *TransactionRepository) ListForCustomer(ctx context.Context, customerID int64) ([]models.Transaction, error) {
	docs, err := queryAliased(ctx, r.st, models.TransactionsCollection, []string{"CustomerId", "customerId"}, customerID, 0)
	if err != nil {
		return nil, err
	}
	out := make([]models.Transaction, 0, len(docs))
	for _, doc := range docs {
		out = append(out, models.TransactionFromDocument(doc))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DateTime.Equal(out[j].DateTime) {
			return out[i].DateTime.After(out[j].DateTime)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// FindPurchase returns the debit recorded for a course purchase.
func (r *TransactionRepository) FindPurchase(ctx context.Context, customerID, courseID int64) (models.Transaction, error) {
	docs, err := r.st.QueryDocuments(ctx, models.TransactionsCollection, []store.Filter{
		store.Where("CustomerId", store.OpEqual, customerID),
		store.Where("CourseId", store.OpEqual, courseID),
	}, "-Id", 1)
	if err != nil {
		return models.Transaction{}, err
	}
	if len(docs) == 0 {
		return models.Transaction{}, fmt.Errorf("purchase %d/%d: %w", customerID, courseID, ErrNotFound)
	}
	return models.TransactionFromDocument(docs[0]), nil
}
