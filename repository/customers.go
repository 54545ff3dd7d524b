package repository

import (
	"context"
	"errors"
	"fmt"

	"yogastore-backend/models"
	"yogastore-backend/store"
	"yogastore-backend/utils"
)

var ErrEmailTaken = errors.New("email already registered")

type CustomerRepository struct {
	st       store.Store
	counters *Counters
}

func NewCustomerRepository(st store.Store) *CustomerRepository {
	return &CustomerRepository{st: st, counters: NewCounters(st)}
}

func (r *CustomerRepository) With(tx store.Store) *CustomerRepository {
	return NewCustomerRepository(tx)
}

func (r *CustomerRepository) FindByID(ctx context.Context, id int64) (models.Customer, error) {
	doc, err := findOneByID(ctx, r.st, models.CustomersCollection, id)
	if err != nil {
		return models.Customer{}, err
	}
	return models.CustomerFromDocument(doc), nil
}

// FindByEmail matches case-insensitively. Stored emails are not guaranteed
// to be normalized, so this scans the collection.
func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (models.Customer, error) {
	want := utils.NormalizeEmail(email)
	docs, err := r.st.GetCollection(ctx, models.CustomersCollection)
	if err != nil {
		return models.Customer{}, err
	}
	for _, doc := range docs {
		c := models.CustomerFromDocument(doc)
		if utils.NormalizeEmail(c.Email) == want {
			return c, nil
		}
	}
	return models.Customer{}, fmt.Errorf("customer %s: %w", email, ErrNotFound)
}

// Resolve maps a logical customer id to the key its document lives under.
func (r *CustomerRepository) Resolve(ctx context.Context, id int64) (string, error) {
	c, err := r.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return c.Key, nil
}

// Mutate is the only path that writes an existing customer. It resolves the
// document, applies fn to a fresh copy and writes it back conditioned on the
// version that was read. fn returning an error aborts without writing.
func (r *CustomerRepository) Mutate(ctx context.Context, id int64, fn func(*models.Customer) error) (models.Customer, error) {
	c, err := r.FindByID(ctx, id)
	if err != nil {
		return models.Customer{}, err
	}
	if err := fn(&c); err != nil {
		return models.Customer{}, err
	}
	c.ID = id
	if err := r.st.UpdateDocument(ctx, models.CustomersCollection, c.Key, c.Fields(), store.IfVersion(c.Version)); err != nil {
		return models.Customer{}, fmt.Errorf("write customer %d: %w", id, err)
	}
	c.Version++
	return c, nil
}

// Create stores a new customer under an allocated id. Emails must be unique.
func (r *CustomerRepository) Create(ctx context.Context, c models.Customer) (models.Customer, error) {
	err := r.st.RunTransaction(ctx, func(ctx context.Context, tx store.Store) error {
		repo := r.With(tx)
		if _, err := repo.FindByEmail(ctx, c.Email); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		id, err := repo.counters.Next(ctx, models.CustomersCollection)
		if err != nil {
			return err
		}
		c.ID = id
		c.Key = models.CustomerKey(id)
		if err := tx.CreateDocument(ctx, models.CustomersCollection, c.Key, c.Fields()); err != nil {
			return fmt.Errorf("create customer %d: %w", id, err)
		}
		c.Version = 1
		return nil
	})
	if err != nil {
		return models.Customer{}, err
	}
	return c, nil
}

func (r *CustomerRepository) List(ctx context.Context) ([]models.Customer, error) {
	docs, err := r.st.GetCollection(ctx, models.CustomersCollection)
	if err != nil {
		return nil, err
	}
	out := make([]models.Customer, 0, len(docs))
	for _, doc := range docs {
		out = append(out, models.CustomerFromDocument(doc))
	}
	return out, nil
}
