// Package store is the document store boundary the rest of the backend talks to.
// Records are schemaless maps grouped in named collections; each record has a
// store key and a version that moves on every write.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrAlreadyExists   = errors.New("document already exists")
	ErrVersionConflict = errors.New("document version conflict")
	ErrInvalidFilter   = errors.New("invalid filter")
)

// Document is one record together with its store key.
type Document struct {
	Key       string
	Data      map[string]any
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Operator is a comparison used by QueryDocuments.
type Operator string

const (
	OpEqual          Operator = "=="
	OpNotEqual       Operator = "!="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
)

// Filter is a single {field, operator, value} predicate. Filters passed
// together are combined with AND.
type Filter struct {
	Field string
	Op    Operator
	Value any
}

// Where is shorthand for building a Filter.
func Where(field string, op Operator, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

func (f Filter) validate() error {
	if f.Field == "" {
		return ErrInvalidFilter
	}
	switch f.Op {
	case OpEqual, OpNotEqual, OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual:
		return nil
	}
	return ErrInvalidFilter
}

// WriteOption tunes UpdateDocument.
type WriteOption func(*writeOptions)

type writeOptions struct {
	ifVersion *int64
}

// IfVersion makes an update conditional on the stored version.
func IfVersion(version int64) WriteOption {
	return func(o *writeOptions) {
		o.ifVersion = &version
	}
}

func applyWriteOptions(opts []WriteOption) writeOptions {
	var o writeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Store is the collection based CRUD surface. Implementations must be safe
// for concurrent use.
type Store interface {
	GetCollection(ctx context.Context, collection string) ([]Document, error)
	GetDocument(ctx context.Context, collection, key string) (Document, error)

	// AddDocument stores data under a generated key and returns that key.
	AddDocument(ctx context.Context, collection string, data map[string]any) (string, error)
	// AddDocumentWithID stores data under key, replacing whatever was there.
	AddDocumentWithID(ctx context.Context, collection, key string, data map[string]any) error
	// CreateDocument stores data under key and fails with ErrAlreadyExists
	// when the key is taken.
	CreateDocument(ctx context.Context, collection, key string, data map[string]any) error
	// UpdateDocument merges fields into an existing document.
	UpdateDocument(ctx context.Context, collection, key string, fields map[string]any, opts ...WriteOption) error
	DeleteDocument(ctx context.Context, collection, key string) error

	// QueryDocuments returns documents matching every filter. orderBy names a
	// data field, prefixed with "-" for descending order. limit <= 0 means no limit.
	QueryDocuments(ctx context.Context, collection string, filters []Filter, orderBy string, limit int) ([]Document, error)

	// Increment atomically adds delta to an integer field and returns the new
	// value, creating the document when it does not exist.
	Increment(ctx context.Context, collection, key, field string, delta int64) (int64, error)

	// RunTransaction runs fn against a transactional view of the store. Writes
	// made through that view are committed only if fn returns nil.
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
