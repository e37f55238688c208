package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/pantryplay/pantryplay/pkg/logger"
	"github.com/pantryplay/pantryplay/pkg/storage"
)

func newTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := New(&Config{
		Path:              dir,
		SyncWrites:        false,
		ValueLogFileSize:  1 << 20,
		NumVersionsToKeep: 1,
		Logger:            logger.Nop(),
	})
	if err != nil {
		t.Fatalf("failed to open badger store: %v", err)
	}
	return s
}

// TestBadgerStoreSuite runs the conformance suite against Store.
func TestBadgerStoreSuite(t *testing.T) {
	suite := &storage.StoreTestSuite{
		NewStore: func(t *testing.T) storage.Store {
			return newTestStore(t, t.TempDir())
		},
	}
	suite.RunAllTests(t)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := newTestStore(t, dir)
	if err := s.Put(ctx, "default:profile", []byte(`{"recipes_cooked":3}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := newTestStore(t, dir)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "default:profile")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if string(got) != `{"recipes_cooked":3}` {
		t.Errorf("Get = %q", got)
	}
}

func TestStore_ClosedIsUnavailable(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close must be a no-op, got %v", err)
	}

	var unavailable *storage.StorageUnavailableError
	if err := s.Ping(context.Background()); !errors.As(err, &unavailable) {
		t.Errorf("Ping on closed store = %v, want StorageUnavailableError", err)
	}
	if err := s.Put(context.Background(), "k", []byte("v")); !errors.As(err, &unavailable) {
		t.Errorf("Put on closed store = %v, want StorageUnavailableError", err)
	}
}

func TestNew_RequiresPath(t *testing.T) {
	var unavailable *storage.StorageUnavailableError
	if _, err := New(&Config{}); !errors.As(err, &unavailable) {
		t.Errorf("New without path = %v, want StorageUnavailableError", err)
	}
}
