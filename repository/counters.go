package repository

import (
	"context"
	"errors"
	"fmt"

	"yogastore-backend/models"
	"yogastore-backend/store"
)

const counterField = "Value"

// Counters allocates sequential integer ids per collection.
type Counters struct {
	st store.Store
}

func NewCounters(st store.Store) *Counters {
	return &Counters{st: st}
}

func (c *Counters) With(tx store.Store) *Counters {
	return &Counters{st: tx}
}

// Next returns the next id for collection. The first call seeds the counter
// from the highest Id already present so ids stay ahead of existing records.
func (c *Counters) Next(ctx context.Context, collection string) (int64, error) {
	if _, err := c.st.GetDocument(ctx, models.CountersCollection, collection); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return 0, fmt.Errorf("read %s counter: %w", collection, err)
		}
		if err := c.seed(ctx, collection); err != nil {
			return 0, err
		}
	}

	id, err := c.st.Increment(ctx, models.CountersCollection, collection, counterField, 1)
	if err != nil {
		return 0, fmt.Errorf("allocate %s id: %w", collection, err)
	}
	return id, nil
}

func (c *Counters) seed(ctx context.Context, collection string) error {
	highest, err := maxID(ctx, c.st, collection)
	if err != nil {
		return fmt.Errorf("scan %s ids: %w", collection, err)
	}
	err = c.st.CreateDocument(ctx, models.CountersCollection, collection, map[string]any{counterField: highest})
	if err != nil && !errors.Is(err, store.ErrAlreadyExists) {
		return fmt.Errorf("seed %s counter: %w", collection, err)
	}
	return nil
}

// Ensure moves the counter forward so that ids handed out by Next are
// greater than atLeast. Records written under explicit ids call this to keep
// later allocations from landing on their keys.
func (c *Counters) Ensure(ctx context.Context, collection string, atLeast int64) error {
	doc, err := c.st.GetDocument(ctx, models.CountersCollection, collection)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("read %s counter: %w", collection, err)
		}
		if err := c.seed(ctx, collection); err != nil {
			return err
		}
		if doc, err = c.st.GetDocument(ctx, models.CountersCollection, collection); err != nil {
			return fmt.Errorf("read %s counter: %w", collection, err)
		}
	}

	current := models.NewRecord(doc).Int(counterField)
	if current >= atLeast {
		return nil
	}
	// A concurrent Next only adds to the counter, so raising by the gap can
	// overshoot but never leaves it below atLeast.
	if _, err := c.st.Increment(ctx, models.CountersCollection, collection, counterField, atLeast-current); err != nil {
		return fmt.Errorf("raise %s counter: %w", collection, err)
	}
	return nil
}
