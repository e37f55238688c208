package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

// StoreTestSuite is a conformance suite that can be run against any Store
// implementation.
type StoreTestSuite struct {
	NewStore func(t *testing.T) Store
}

// RunAllTests runs every conformance test.
func (s *StoreTestSuite) RunAllTests(t *testing.T) {
	t.Run("PutGet", s.TestPutGet)
	t.Run("Overwrite", s.TestOverwrite)
	t.Run("NotFound", s.TestNotFound)
	t.Run("Delete", s.TestDelete)
	t.Run("ValueIsolation", s.TestValueIsolation)
	t.Run("JSONHelpers", s.TestJSONHelpers)
	t.Run("ConcurrentAccess", s.TestConcurrentAccess)
	t.Run("Ping", s.TestPing)
}

// TestPutGet checks a basic round trip.
func (s *StoreTestSuite) TestPutGet(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	if err := store.Put(ctx, "ns:profile", []byte(`{"stats":{}}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := store.Get(ctx, "ns:profile")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != `{"stats":{}}` {
		t.Errorf("Get = %q", got)
	}
}

// TestOverwrite checks that Put replaces existing values.
func (s *StoreTestSuite) TestOverwrite(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	_ = store.Put(ctx, "k", []byte("first"))
	if err := store.Put(ctx, "k", []byte("second")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("Get = %q, want second", got)
	}
}

// TestNotFound checks the error returned for missing keys.
func (s *StoreTestSuite) TestNotFound(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()

	_, err := store.Get(context.Background(), "missing")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Key != "missing" {
		t.Errorf("NotFoundError.Key = %q", nf.Key)
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound returned false")
	}
}

// TestDelete checks removal and idempotent deletes.
func (s *StoreTestSuite) TestDelete(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	_ = store.Put(ctx, "k", []byte("v"))
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "k"); !IsNotFound(err) {
		t.Errorf("expected NotFoundError after delete, got %v", err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Errorf("deleting a missing key must succeed, got %v", err)
	}
}

// TestValueIsolation checks that callers cannot mutate stored values.
func (s *StoreTestSuite) TestValueIsolation(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	value := []byte("abc")
	_ = store.Put(ctx, "k", value)
	value[0] = 'X'

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	got[1] = 'Y'

	again, _ := store.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value was mutated: %q", again)
	}
}

// TestJSONHelpers checks GetJSON and PutJSON.
func (s *StoreTestSuite) TestJSONHelpers(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	type doc struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	if err := PutJSON(ctx, store, "doc", doc{Name: "pasta", Count: 3}); err != nil {
		t.Fatalf("PutJSON failed: %v", err)
	}
	var got doc
	if err := GetJSON(ctx, store, "doc", &got); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if got.Name != "pasta" || got.Count != 3 {
		t.Errorf("GetJSON = %+v", got)
	}

	_ = store.Put(ctx, "broken", []byte("{not json"))
	var se *SerializationError
	if err := GetJSON(ctx, store, "broken", &got); !errors.As(err, &se) {
		t.Errorf("expected SerializationError, got %v", err)
	}
}

// TestConcurrentAccess runs parallel writers and readers.
func (s *StoreTestSuite) TestConcurrentAccess(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		key := fmt.Sprintf("key-%d", i)
		go func() {
			defer wg.Done()
			if err := store.Put(ctx, key, []byte(key)); err != nil {
				errs <- err
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := store.Get(ctx, key); err != nil && !IsNotFound(err) {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent operation failed: %v", err)
	}
	for i := 0; i < 20; i++ {
		key := fmt.Sprintf("key-%d", i)
		got, err := store.Get(ctx, key)
		if err != nil || string(got) != key {
			t.Errorf("Get(%s) = %q, %v", key, got, err)
		}
	}
}

// TestPing checks that an open store is reachable.
func (s *StoreTestSuite) TestPing(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
