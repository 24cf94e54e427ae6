package store

import (
	"context"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// MemoryStore is an in-process Store used by tests. Documents go through the
// same bson round-trip as the Mongo implementation so tag handling matches.
// Intercept, when set, can inject a failure for a given (op, collection).
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]*memCollection

	Intercept func(op, collection string) error
}

type memCollection struct {
	docs  map[string]bson.M
	order []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memCollection)}
}

func (s *MemoryStore) coll(name string) *memCollection {
	c, ok := s.collections[name]
	if !ok {
		c = &memCollection{docs: make(map[string]bson.M)}
		s.collections[name] = c
	}
	return c
}

func (s *MemoryStore) intercept(op, collection string) error {
	if s.Intercept != nil {
		return s.Intercept(op, collection)
	}
	return nil
}

func (s *MemoryStore) ListWhere(ctx context.Context, collection string, filter Filter, out any) error {
	if err := s.intercept("list", collection); err != nil {
		return &Error{Op: "list", Collection: collection, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coll(collection)
	var matches []bson.M
	for _, id := range c.order {
		doc := c.docs[id]
		if matchesFilter(doc, filter) {
			matches = append(matches, doc)
		}
	}
	return decodeSlice(matches, out)
}

func (s *MemoryStore) GetByID(ctx context.Context, collection, id string, out any) error {
	if err := s.intercept("get", collection); err != nil {
		return &Error{Op: "get", Collection: collection, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.coll(collection).docs[id]
	if !ok {
		return ErrNotFound
	}
	return decodeDocument(doc, out)
}

func (s *MemoryStore) Insert(ctx context.Context, collection string, record any) (string, error) {
	if err := s.intercept("insert", collection); err != nil {
		return "", &Error{Op: "insert", Collection: collection, Err: err}
	}

	doc, err := toDocument(record)
	if err != nil {
		return "", &Error{Op: "insert", Collection: collection, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	doc["_id"] = id

	c := s.coll(collection)
	c.docs[id] = doc
	c.order = append(c.order, id)
	return id, nil
}

func (s *MemoryStore) UpdateFields(ctx context.Context, collection, id string, fields Fields) error {
	if err := s.intercept("update", collection); err != nil {
		return &Error{Op: "update", Collection: collection, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.coll(collection).docs[id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range fields {
		doc[k] = v
	}
	return nil
}

func (s *MemoryStore) UpdateFieldsWhere(ctx context.Context, collection, id string, cond Filter, fields Fields) (bool, error) {
	if err := s.intercept("conditional update", collection); err != nil {
		return false, &Error{Op: "conditional update", Collection: collection, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.coll(collection).docs[id]
	if !ok || !matchesFilter(doc, cond) {
		return false, nil
	}
	for k, v := range fields {
		doc[k] = v
	}
	return true, nil
}

// Count reports how many documents in collection match filter. Test helper.
func (s *MemoryStore) Count(collection string, filter Filter) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, doc := range s.coll(collection).docs {
		if matchesFilter(doc, filter) {
			n++
		}
	}
	return n
}

// Delete removes a document outright. Test helper for orphaned-slot cases.
func (s *MemoryStore) Delete(collection, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coll(collection)
	delete(c.docs, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func matchesFilter(doc bson.M, filter Filter) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func decodeDocument(doc bson.M, out any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, out)
}

func decodeSlice(docs []bson.M, out any) error {
	slice := reflect.ValueOf(out).Elem()
	slice.Set(slice.Slice(0, 0))
	elemType := slice.Type().Elem()

	for _, doc := range docs {
		elem := reflect.New(elemType)
		if err := decodeDocument(doc, elem.Interface()); err != nil {
			return err
		}
		slice.Set(reflect.Append(slice, elem.Elem()))
	}
	return nil
}
