package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a thread-safe in-memory Store. Values are normalized through
// JSON on write so they compare the same way they would after a round trip
// through a real document database.
type MemoryStore struct {
	mu   sync.Mutex
	data *memData
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newMemData()}
}

type memCollection struct {
	order []string
	docs  map[string]*Document
}

type memData struct {
	collections map[string]*memCollection
}

func newMemData() *memData {
	return &memData{collections: make(map[string]*memCollection)}
}

func (d *memData) clone() *memData {
	out := newMemData()
	for name, c := range d.collections {
		cc := &memCollection{
			order: append([]string(nil), c.order...),
			docs:  make(map[string]*Document, len(c.docs)),
		}
		for k, doc := range c.docs {
			copied := *doc
			copied.Data = copyMap(doc.Data)
			cc.docs[k] = &copied
		}
		out.collections[name] = cc
	}
	return out
}

func (d *memData) collection(name string) *memCollection {
	c, ok := d.collections[name]
	if !ok {
		c = &memCollection{docs: make(map[string]*Document)}
		d.collections[name] = c
	}
	return c
}

func (s *MemoryStore) view() *memTx {
	return &memTx{data: s.data}
}

func (s *MemoryStore) GetCollection(ctx context.Context, collection string) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetCollection(ctx, collection)
}

func (s *MemoryStore) GetDocument(ctx context.Context, collection, key string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetDocument(ctx, collection, key)
}

func (s *MemoryStore) AddDocument(ctx context.Context, collection string, data map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().AddDocument(ctx, collection, data)
}

func (s *MemoryStore) AddDocumentWithID(ctx context.Context, collection, key string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().AddDocumentWithID(ctx, collection, key, data)
}

func (s *MemoryStore) CreateDocument(ctx context.Context, collection, key string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().CreateDocument(ctx, collection, key, data)
}

func (s *MemoryStore) UpdateDocument(ctx context.Context, collection, key string, fields map[string]any, opts ...WriteOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().UpdateDocument(ctx, collection, key, fields, opts...)
}

func (s *MemoryStore) DeleteDocument(ctx context.Context, collection, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().DeleteDocument(ctx, collection, key)
}

func (s *MemoryStore) QueryDocuments(ctx context.Context, collection string, filters []Filter, orderBy string, limit int) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().QueryDocuments(ctx, collection, filters, orderBy, limit)
}

func (s *MemoryStore) Increment(ctx context.Context, collection, key, field string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().Increment(ctx, collection, key, field, delta)
}

// RunTransaction holds the store lock for the whole of fn, so transactions
// are fully serialized. fn works on a copy that replaces the live data only
// when fn succeeds.
func (s *MemoryStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.data.clone()
	if err := fn(ctx, &memTx{data: working}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = working
	return nil
}

// memTx operates on memData without locking; the caller owns the lock.
type memTx struct {
	data *memData
}

func (t *memTx) GetCollection(ctx context.Context, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := t.data.collection(collection)
	out := make([]Document, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, snapshot(c.docs[key]))
	}
	return out, nil
}

func (t *memTx) GetDocument(ctx context.Context, collection, key string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	doc, ok := t.data.collection(collection).docs[key]
	if !ok {
		return Document{}, fmt.Errorf("%s/%s: %w", collection, key, ErrNotFound)
	}
	return snapshot(doc), nil
}

func (t *memTx) AddDocument(ctx context.Context, collection string, data map[string]any) (string, error) {
	key := uuid.NewString()
	if err := t.CreateDocument(ctx, collection, key, data); err != nil {
		return "", err
	}
	return key, nil
}

func (t *memTx) AddDocumentWithID(ctx context.Context, collection, key string, data map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	normalized, err := normalizeMap(data)
	if err != nil {
		return err
	}
	c := t.data.collection(collection)
	now := time.Now().UTC()
	if existing, ok := c.docs[key]; ok {
		existing.Data = normalized
		existing.Version++
		existing.UpdatedAt = now
		return nil
	}
	c.put(&Document{Key: key, Data: normalized, Version: 1, CreatedAt: now, UpdatedAt: now})
	return nil
}

func (t *memTx) CreateDocument(ctx context.Context, collection, key string, data map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c := t.data.collection(collection)
	if _, ok := c.docs[key]; ok {
		return fmt.Errorf("%s/%s: %w", collection, key, ErrAlreadyExists)
	}
	normalized, err := normalizeMap(data)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	c.put(&Document{Key: key, Data: normalized, Version: 1, CreatedAt: now, UpdatedAt: now})
	return nil
}

func (t *memTx) UpdateDocument(ctx context.Context, collection, key string, fields map[string]any, opts ...WriteOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o := applyWriteOptions(opts)
	doc, ok := t.data.collection(collection).docs[key]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, key, ErrNotFound)
	}
	if o.ifVersion != nil && *o.ifVersion != doc.Version {
		return fmt.Errorf("%s/%s at version %d, expected %d: %w", collection, key, doc.Version, *o.ifVersion, ErrVersionConflict)
	}
	normalized, err := normalizeMap(fields)
	if err != nil {
		return err
	}
	for k, v := range normalized {
		doc.Data[k] = v
	}
	doc.Version++
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

func (t *memTx) DeleteDocument(ctx context.Context, collection, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c := t.data.collection(collection)
	if _, ok := c.docs[key]; !ok {
		return fmt.Errorf("%s/%s: %w", collection, key, ErrNotFound)
	}
	delete(c.docs, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (t *memTx) QueryDocuments(ctx context.Context, collection string, filters []Filter, orderBy string, limit int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	normalized := make([]Filter, len(filters))
	for i, f := range filters {
		if err := f.validate(); err != nil {
			return nil, fmt.Errorf("filter on %q: %w", f.Field, err)
		}
		v, err := normalizeValue(f.Value)
		if err != nil {
			return nil, err
		}
		normalized[i] = Filter{Field: f.Field, Op: f.Op, Value: v}
	}

	c := t.data.collection(collection)
	var out []Document
	for _, key := range c.order {
		doc := c.docs[key]
		if matchesAll(doc.Data, normalized) {
			out = append(out, snapshot(doc))
		}
	}

	if orderBy != "" {
		field, desc := strings.TrimPrefix(orderBy, "-"), strings.HasPrefix(orderBy, "-")
		sort.SliceStable(out, func(i, j int) bool {
			a, aok := out[i].Data[field]
			b, bok := out[j].Data[field]
			if !aok || !bok {
				// documents without the field sort first
				return !aok && bok
			}
			cmp, ok := compareValues(a, b)
			if !ok {
				return false
			}
			if desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *memTx) Increment(ctx context.Context, collection, key, field string, delta int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c := t.data.collection(collection)
	doc, ok := c.docs[key]
	if !ok {
		now := time.Now().UTC()
		c.put(&Document{Key: key, Data: map[string]any{field: float64(delta)}, Version: 1, CreatedAt: now, UpdatedAt: now})
		return delta, nil
	}
	current, _ := toFloat(doc.Data[field])
	next := int64(current) + delta
	doc.Data[field] = float64(next)
	doc.Version++
	doc.UpdatedAt = time.Now().UTC()
	return next, nil
}

func (t *memTx) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return fn(ctx, t)
}

func (c *memCollection) put(doc *Document) {
	c.docs[doc.Key] = doc
	c.order = append(c.order, doc.Key)
}

func snapshot(doc *Document) Document {
	out := *doc
	out.Data = copyMap(doc.Data)
	return out
}

func matchesAll(data map[string]any, filters []Filter) bool {
	for _, f := range filters {
		v, ok := data[f.Field]
		if !ok || v == nil {
			return false
		}
		cmp, comparable := compareValues(v, f.Value)
		switch f.Op {
		case OpEqual:
			if !comparable || cmp != 0 {
				return false
			}
		case OpNotEqual:
			if comparable && cmp == 0 {
				return false
			}
		case OpLess:
			if !comparable || cmp >= 0 {
				return false
			}
		case OpLessOrEqual:
			if !comparable || cmp > 0 {
				return false
			}
		case OpGreater:
			if !comparable || cmp <= 0 {
				return false
			}
		case OpGreaterOrEqual:
			if !comparable || cmp < 0 {
				return false
			}
		}
	}
	return true
}

// compareValues orders two normalized values of the same kind. The second
// result is false when the values cannot be compared.
func compareValues(a, b any) (int, bool) {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func normalizeMap(data map[string]any) (map[string]any, error) {
	if data == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

func normalizeValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode filter value: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode filter value: %w", err)
	}
	return out, nil
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = copyValue(t[i])
		}
		return out
	}
	return v
}
