package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentRecord is the row backing every document: one jsonb payload per
// (collection, key) pair.
type DocumentRecord struct {
	Collection string            `gorm:"primaryKey;type:varchar(100)"`
	Key        string            `gorm:"column:doc_key;primaryKey;type:varchar(200)"`
	Data       datatypes.JSONMap `gorm:"type:jsonb;not null"`
	Version    int64             `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (DocumentRecord) TableName() string {
	return "documents"
}

func (r DocumentRecord) document() Document {
	data := map[string]any(r.Data)
	if data == nil {
		data = map[string]any{}
	}
	return Document{
		Key:       r.Key,
		Data:      data,
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// GormStore keeps documents in a single Postgres table with a jsonb column.
type GormStore struct {
	db   *gorm.DB
	inTx bool
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the documents table.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&DocumentRecord{})
}

func (s *GormStore) scope(ctx context.Context, collection string) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&DocumentRecord{}).Where("collection = ?", collection)
	if s.inTx {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func (s *GormStore) GetCollection(ctx context.Context, collection string) ([]Document, error) {
	var records []DocumentRecord
	if err := s.db.WithContext(ctx).Where("collection = ?", collection).
		Order("created_at, doc_key").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("get collection %s: %w", collection, err)
	}
	return toDocuments(records), nil
}

func (s *GormStore) GetDocument(ctx context.Context, collection, key string) (Document, error) {
	var record DocumentRecord
	if err := s.scope(ctx, collection).Where("doc_key = ?", key).Take(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Document{}, fmt.Errorf("%s/%s: %w", collection, key, ErrNotFound)
		}
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, key, err)
	}
	return record.document(), nil
}

func (s *GormStore) AddDocument(ctx context.Context, collection string, data map[string]any) (string, error) {
	key := uuid.NewString()
	if err := s.CreateDocument(ctx, collection, key, data); err != nil {
		return "", err
	}
	return key, nil
}

func (s *GormStore) AddDocumentWithID(ctx context.Context, collection, key string, data map[string]any) error {
	record := newRecord(collection, key, data)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "collection"}, {Name: "doc_key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"data":       record.Data,
			"version":    gorm.Expr("documents.version + 1"),
			"updated_at": record.UpdatedAt,
		}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *GormStore) CreateDocument(ctx context.Context, collection, key string, data map[string]any) error {
	record := newRecord(collection, key, data)
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&record)
	if result.Error != nil {
		return fmt.Errorf("create %s/%s: %w", collection, key, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s/%s: %w", collection, key, ErrAlreadyExists)
	}
	return nil
}

func (s *GormStore) UpdateDocument(ctx context.Context, collection, key string, fields map[string]any, opts ...WriteOption) error {
	o := applyWriteOptions(opts)

	q := s.db.WithContext(ctx).Model(&DocumentRecord{}).
		Where("collection = ? AND doc_key = ?", collection, key)
	if o.ifVersion != nil {
		q = q.Where("version = ?", *o.ifVersion)
	}
	result := q.Updates(map[string]any{
		"data":       gorm.Expr("data || ?::jsonb", datatypes.JSONMap(fields)),
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now().UTC(),
	})
	if result.Error != nil {
		return fmt.Errorf("update %s/%s: %w", collection, key, result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// Nothing matched: either the document is gone or its version moved.
	if _, err := s.GetDocument(ctx, collection, key); err != nil {
		return err
	}
	if o.ifVersion != nil {
		return fmt.Errorf("%s/%s expected version %d: %w", collection, key, *o.ifVersion, ErrVersionConflict)
	}
	return nil
}

func (s *GormStore) DeleteDocument(ctx context.Context, collection, key string) error {
	result := s.db.WithContext(ctx).
		Where("collection = ? AND doc_key = ?", collection, key).
		Delete(&DocumentRecord{})
	if result.Error != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, key, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s/%s: %w", collection, key, ErrNotFound)
	}
	return nil
}

// QueryDocuments compares jsonb values directly, so a filter only matches
// documents whose field holds the same JSON type as the filter value.
func (s *GormStore) QueryDocuments(ctx context.Context, collection string, filters []Filter, orderBy string, limit int) ([]Document, error) {
	q := s.scope(ctx, collection)
	for _, f := range filters {
		if err := f.validate(); err != nil {
			return nil, fmt.Errorf("filter on %q: %w", f.Field, err)
		}
		raw, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("encode filter value: %w", err)
		}
		q = q.Where(fmt.Sprintf("data -> ? %s ?::jsonb", sqlOperator(f.Op)), f.Field, string(raw))
	}

	if orderBy != "" {
		field, dir := strings.TrimPrefix(orderBy, "-"), "ASC"
		if strings.HasPrefix(orderBy, "-") {
			dir = "DESC"
		}
		q = q.Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "data -> ? " + dir + ", created_at, doc_key",
			Vars:               []any{field},
			WithoutParentheses: true,
		}})
	} else {
		q = q.Order("created_at, doc_key")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var records []DocumentRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	return toDocuments(records), nil
}

func (s *GormStore) Increment(ctx context.Context, collection, key, field string, delta int64) (int64, error) {
	now := time.Now().UTC()
	var value int64
	err := s.db.WithContext(ctx).Raw(`
		INSERT INTO documents (collection, doc_key, data, version, created_at, updated_at)
		VALUES (?, ?, jsonb_build_object(?::text, ?::bigint), 1, ?, ?)
		ON CONFLICT (collection, doc_key) DO UPDATE SET
			data = jsonb_set(documents.data, ARRAY[?::text],
				to_jsonb(COALESCE((documents.data ->> ?)::bigint, 0) + ?::bigint)),
			version = documents.version + 1,
			updated_at = ?
		RETURNING (data ->> ?)::bigint
	`, collection, key, field, delta, now, now, field, field, delta, now, field).Scan(&value).Error
	if err != nil {
		return 0, fmt.Errorf("increment %s/%s.%s: %w", collection, key, field, err)
	}
	return value, nil
}

// RunTransaction runs fn inside a database transaction. Reads made through
// the transactional store take row locks until commit. Nested calls join the
// outer transaction.
func (s *GormStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &GormStore{db: tx, inTx: true})
	})
}

func newRecord(collection, key string, data map[string]any) DocumentRecord {
	if data == nil {
		data = map[string]any{}
	}
	now := time.Now().UTC()
	return DocumentRecord{
		Collection: collection,
		Key:        key,
		Data:       datatypes.JSONMap(data),
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func toDocuments(records []DocumentRecord) []Document {
	out := make([]Document, 0, len(records))
	for _, r := range records {
		out = append(out, r.document())
	}
	return out
}

func sqlOperator(op Operator) string {
	switch op {
	case OpEqual:
		return "="
	case OpNotEqual:
		return "<>"
	}
	return string(op)
}
