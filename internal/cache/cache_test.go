package cache

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Failed to open cache store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore(t *testing.T) {
	store := openTestStore(t)

	t.Run("ReadMissing", func(t *testing.T) {
		_, ok, err := store.Read(KeyDishes)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if ok {
			t.Error("Expected no snapshot for fresh store")
		}
	})

	t.Run("WriteThenRead", func(t *testing.T) {
		if err := store.Write(KeyDishes, []byte(`[{"id":1}]`)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		data, ok, err := store.Read(KeyDishes)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if !ok {
			t.Fatal("Expected snapshot to exist after write")
		}
		if string(data) != `[{"id":1}]` {
			t.Errorf("Expected snapshot '[{\"id\":1}]', got '%s'", data)
		}
	})

	t.Run("WriteReplaces", func(t *testing.T) {
		if err := store.Write(KeyDishes, []byte(`[]`)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		data, _, err := store.Read(KeyDishes)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if string(data) != `[]` {
			t.Errorf("Expected overwrite to replace snapshot, got '%s'", data)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		if err := store.Clear(KeyDishes); err != nil {
			t.Fatalf("Clear failed: %v", err)
		}
		_, ok, err := store.Read(KeyDishes)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if ok {
			t.Error("Expected snapshot to be gone after clear")
		}
	})

	t.Run("ClearMissingIsNoop", func(t *testing.T) {
		if err := store.Clear("never_written"); err != nil {
			t.Errorf("Expected clearing a missing key to succeed, got %v", err)
		}
	})
}

func TestStoreJSON(t *testing.T) {
	store := openTestStore(t)

	type snapshot struct {
		Names []string `json:"names"`
	}

	ok, err := store.ReadJSON(KeyWeeklyPlan, &snapshot{})
	if err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if ok {
		t.Fatal("Expected no snapshot before write")
	}

	if err := store.WriteJSON(KeyWeeklyPlan, snapshot{Names: []string{"Pasta", "Salad"}}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var got snapshot
	ok, err = store.ReadJSON(KeyWeeklyPlan, &got)
	if err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected snapshot to exist")
	}
	if len(got.Names) != 2 || got.Names[0] != "Pasta" {
		t.Errorf("Unexpected snapshot round-trip: %+v", got)
	}
}
