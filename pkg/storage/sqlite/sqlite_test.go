package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/pantryplay/pantryplay/pkg/storage"
)

func TestSQLiteStoreSuite(t *testing.T) {
	suite := &storage.StoreTestSuite{
		NewStore: func(t *testing.T) storage.Store {
			s, err := Open(filepath.Join(t.TempDir(), "test.db"))
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			return s
		},
	}
	suite.RunAllTests(t)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pantry.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Put(ctx, "default:entries:recipe_history", []byte(`[]`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "default:entries:recipe_history")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "[]" {
		t.Errorf("Get = %q", got)
	}
}

func TestStore_ClosedIsUnavailable(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "closed.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	_ = s.Close()

	var unavailable *storage.StorageUnavailableError
	if _, err := s.Get(context.Background(), "k"); !errors.As(err, &unavailable) {
		t.Errorf("Get on closed store = %v, want StorageUnavailableError", err)
	}
}
