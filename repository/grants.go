package repository

import (
	"context"
	"errors"
	"fmt"

	"yogastore-backend/models"
	"yogastore-backend/store"
)

var ErrAlreadyGranted = errors.New("course already granted")

type GrantRepository struct {
	st store.Store
}

func NewGrantRepository(st store.Store) *GrantRepository {
	return &GrantRepository{st: st}
}

func (r *GrantRepository) With(tx store.Store) *GrantRepository {
	return &GrantRepository{st: tx}
}

func (r *GrantRepository) Find(ctx context.Context, customerID, courseID int64) (models.Grant, error) {
	doc, err := r.st.GetDocument(ctx, models.GrantsCollection, models.GrantKey(customerID, courseID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Grant{}, fmt.Errorf("grant %d/%d: %w", customerID, courseID, ErrNotFound)
		}
		return models.Grant{}, err
	}
	return models.GrantFromDocument(doc), nil
}

// Create writes the grant under its composite key. It fails with
// ErrAlreadyGranted when the customer already owns the course, which makes
// it the gate for duplicate purchases.
func (r *GrantRepository) Create(ctx context.Context, g models.Grant) (models.Grant, error) {
	g.Key = models.GrantKey(g.CustomerID, g.CourseID)
	if err := r.st.CreateDocument(ctx, models.GrantsCollection, g.Key, g.Fields()); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return models.Grant{}, ErrAlreadyGranted
		}
		return models.Grant{}, err
	}
	return g, nil
}

// ListForCustomer merges grants stored under the canonical CustomerId field
// with older ones written as customerId.
func (r *GrantRepository) ListForCustomer(ctx context.Context, customerID int64) ([]models.Grant, error) {
	docs, err := queryAliased(ctx, r.st, models.GrantsCollection, []string{"CustomerId", "customerId"}, customerID, 0)
	if err != nil {
		return nil, err
	}
	out := make([]models.Grant, 0, len(docs))
	for _, doc := range docs {
		out = append(out, models.GrantFromDocument(doc))
	}
	return out, nil
}

// OwnedCourseIDs returns the set of course ids granted to the customer.
func (r *GrantRepository) OwnedCourseIDs(ctx context.Context, customerID int64) (map[int64]bool, error) {
	grants, err := r.ListForCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	owned := make(map[int64]bool, len(grants))
	for _, g := range grants {
		owned[g.CourseID] = true
	}
	return owned, nil
}
