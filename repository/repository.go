// Package repository maps store documents to models. Every repository is
// bound to a store.Store, and With rebinds it to a transaction.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"yogastore-backend/models"
	"yogastore-backend/store"
)

var ErrNotFound = errors.New("not found")

// findOneByID looks a document up by its logical Id. Documents are usually
// keyed by that Id, but older records may carry generated keys, a lower-case
// field name or a string Id, so every form is tried.
func findOneByID(ctx context.Context, st store.Store, collection string, id int64) (store.Document, error) {
	doc, err := st.GetDocument(ctx, collection, strconv.FormatInt(id, 10))
	if err == nil && models.NewRecord(doc).Int("Id") == id {
		return doc, nil
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return store.Document{}, err
	}

	docs, err := queryAliased(ctx, st, collection, []string{"Id", "id"}, id, 1)
	if err != nil {
		return store.Document{}, err
	}
	if len(docs) == 0 {
		return store.Document{}, fmt.Errorf("%s %d: %w", collection, id, ErrNotFound)
	}
	return docs[0], nil
}

// queryAliased runs an equality query for id under each field alias, as a
// number and as a string, and merges the results in query order.
func queryAliased(ctx context.Context, st store.Store, collection string, fields []string, id int64, limit int) ([]store.Document, error) {
	seen := map[string]bool{}
	var out []store.Document
	for _, field := range fields {
		for _, value := range []any{id, strconv.FormatInt(id, 10)} {
			docs, err := st.QueryDocuments(ctx, collection, []store.Filter{store.Where(field, store.OpEqual, value)}, "", 0)
			if err != nil {
				return nil, err
			}
			for _, doc := range docs {
				if seen[doc.Key] {
					continue
				}
				seen[doc.Key] = true
				out = append(out, doc)
				if limit > 0 && len(out) == limit {
					return out, nil
				}
			}
		}
	}
	return out, nil
}

// maxID scans a collection for the highest logical Id.
func maxID(ctx context.Context, st store.Store, collection string) (int64, error) {
	docs, err := st.GetCollection(ctx, collection)
	if err != nil {
		return 0, err
	}
	var highest int64
	for _, doc := range docs {
		if id := models.NewRecord(doc).Int("Id"); id > highest {
			highest = id
		}
	}
	return highest, nil
}
