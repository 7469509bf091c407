package plan

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/legendary216/DishDeck/internal/cache"
	"github.com/legendary216/DishDeck/internal/store"
)

// fakeStore is an in-memory remote store honoring the (user, day, meal_type)
// uniqueness key.
type fakeStore struct {
	dishes map[int64]store.Dish
	slots  map[string]int64 // "day|mealType" -> dish id (single test user)

	failUpsert     bool
	failDelete     bool
	failQueryDish  bool
	failQuerySlots bool

	writeCount int
}

func newFakeStore(dishes ...store.Dish) *fakeStore {
	f := &fakeStore{dishes: make(map[int64]store.Dish), slots: make(map[string]int64)}
	for _, d := range dishes {
		f.dishes[d.ID] = d
	}
	return f
}

func slotKey(day, mealType string) string { return day + "|" + mealType }

func (f *fakeStore) QueryDishes(_ context.Context, _, mealType string) ([]store.Dish, error) {
	if f.failQueryDish {
		return nil, fmt.Errorf("query dishes: injected failure")
	}
	var out []store.Dish
	for _, d := range f.dishes {
		if mealType == "" || strings.Contains(strings.ToLower(d.Type), strings.ToLower(mealType)) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStore) QueryPlanSlots(_ context.Context, _, day string) ([]store.PlanSlot, error) {
	if f.failQuerySlots {
		return nil, fmt.Errorf("query slots: injected failure")
	}
	var out []store.PlanSlot
	for key, dishID := range f.slots {
		parts := strings.SplitN(key, "|", 2)
		if day != "" && parts[0] != day {
			continue
		}
		slot := store.PlanSlot{Day: parts[0], MealType: parts[1]}
		if d, ok := f.dishes[dishID]; ok {
			dish := d
			slot.Dish = &dish
		}
		out = append(out, slot)
	}
	return out, nil
}

func (f *fakeStore) UpsertPlanSlots(_ context.Context, rows []store.SlotWrite) error {
	f.writeCount++
	if f.failUpsert {
		return fmt.Errorf("upsert: injected failure")
	}
	for _, r := range rows {
		f.slots[slotKey(r.Day, r.MealType)] = r.DishID
	}
	return nil
}

func (f *fakeStore) DeletePlanSlot(_ context.Context, _, day, mealType string) error {
	f.writeCount++
	if f.failDelete {
		return fmt.Errorf("delete: injected failure")
	}
	delete(f.slots, slotKey(day, mealType))
	return nil
}

func newTestSync(t *testing.T, fake *fakeStore) *Synchronizer {
	t.Helper()
	cacheStore, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}
	t.Cleanup(func() { cacheStore.Close() })

	s := NewSynchronizer(fake, cacheStore)
	s.rand = rand.New(rand.NewSource(1))
	return s
}

const user = "user-1"

func TestRefetchAll(t *testing.T) {
	fake := newFakeStore(
		store.Dish{ID: 1, Name: "Pasta", Type: "Lunch"},
		store.Dish{ID: 2, Name: "Eggs", Type: "Breakfast"},
	)
	fake.slots[slotKey("Monday", "Lunch")] = 1
	fake.slots[slotKey("Monday", "Breakfast")] = 2

	s := newTestSync(t, fake)

	m, err := s.RefetchAll(context.Background(), user)
	if err != nil {
		t.Fatalf("RefetchAll failed: %v", err)
	}
	if got, ok := m.Dish(Lunch, Monday); !ok || got.Name != "Pasta" {
		t.Errorf("Expected Pasta at Monday/Lunch, got %+v (ok=%v)", got, ok)
	}

	t.Run("FailureKeepsPriorModel", func(t *testing.T) {
		fake.failQuerySlots = true
		defer func() { fake.failQuerySlots = false }()

		before := s.Model().Clone()
		if _, err := s.RefetchAll(context.Background(), user); err == nil {
			t.Fatal("Expected refetch error")
		}
		if !reflect.DeepEqual(s.Model(), before) {
			t.Error("A failed refetch must keep the previous model")
		}
	})

	t.Run("CacheRoundTrip", func(t *testing.T) {
		s2 := NewSynchronizer(fake, s.cache)
		if !s2.LoadCached() {
			t.Fatal("Expected cached snapshot to load")
		}
		if got, ok := s2.Model().Dish(Lunch, Monday); !ok || got.Name != "Pasta" {
			t.Errorf("Expected cached Pasta at Monday/Lunch, got %+v (ok=%v)", got, ok)
		}
	})
}

func TestShuffle(t *testing.T) {
	t.Run("NoCandidates", func(t *testing.T) {
		fake := newFakeStore(store.Dish{ID: 1, Name: "Pasta", Type: "Lunch"})
		s := newTestSync(t, fake)

		_, err := s.Shuffle(context.Background(), Breakfast, user)
		if !errors.Is(err, ErrNoCandidates) {
			t.Fatalf("Expected ErrNoCandidates, got %v", err)
		}
		if fake.writeCount != 0 {
			t.Errorf("Expected zero remote writes, got %d", fake.writeCount)
		}
	})

	t.Run("FillsAllSevenDays", func(t *testing.T) {
		dishA := store.Dish{ID: 1, Name: "A", Type: "Lunch"}
		dishB := store.Dish{ID: 2, Name: "B", Type: "Lunch, Dinner"}
		fake := newFakeStore(dishA, dishB)
		s := newTestSync(t, fake)

		m, err := s.Shuffle(context.Background(), Lunch, user)
		if err != nil {
			t.Fatalf("Shuffle failed: %v", err)
		}
		for _, day := range Days {
			got, ok := m.Dish(Lunch, day)
			if !ok {
				t.Fatalf("Expected %s/Lunch to be assigned", day)
			}
			if got.Name != "A" && got.Name != "B" {
				t.Errorf("Expected A or B at %s/Lunch, got %s", day, got.Name)
			}
		}
		// One slot per (day, meal type) key remains in the remote store.
		if len(fake.slots) != len(Days) {
			t.Errorf("Expected %d remote rows, got %d", len(Days), len(fake.slots))
		}
	})

	t.Run("LeavesOtherMealTypesUntouched", func(t *testing.T) {
		eggs := store.Dish{ID: 1, Name: "Eggs", Type: "Breakfast"}
		pasta := store.Dish{ID: 2, Name: "Pasta", Type: "Lunch"}
		stew := store.Dish{ID: 3, Name: "Stew", Type: "Dinner"}
		fake := newFakeStore(eggs, pasta, stew)
		fake.slots[slotKey("Monday", "Breakfast")] = 1
		fake.slots[slotKey("Friday", "Dinner")] = 3

		s := newTestSync(t, fake)
		if _, err := s.RefetchAll(context.Background(), user); err != nil {
			t.Fatalf("RefetchAll failed: %v", err)
		}

		for i := 0; i < 2; i++ {
			if _, err := s.Shuffle(context.Background(), Lunch, user); err != nil {
				t.Fatalf("Shuffle %d failed: %v", i+1, err)
			}
		}

		m := s.Model()
		if got, ok := m.Dish(Breakfast, Monday); !ok || got.Name != "Eggs" {
			t.Errorf("Shuffling Lunch disturbed Monday/Breakfast: %+v (ok=%v)", got, ok)
		}
		if got, ok := m.Dish(Dinner, Friday); !ok || got.Name != "Stew" {
			t.Errorf("Shuffling Lunch disturbed Friday/Dinner: %+v (ok=%v)", got, ok)
		}
	})

	t.Run("RollbackOnWriteFailure", func(t *testing.T) {
		pasta := store.Dish{ID: 1, Name: "Pasta", Type: "Lunch"}
		fake := newFakeStore(pasta)
		fake.slots[slotKey("Monday", "Lunch")] = 1

		s := newTestSync(t, fake)
		if _, err := s.RefetchAll(context.Background(), user); err != nil {
			t.Fatalf("RefetchAll failed: %v", err)
		}
		before := s.Model().Clone()

		fake.failUpsert = true
		if _, err := s.Shuffle(context.Background(), Lunch, user); err == nil {
			t.Fatal("Expected shuffle to fail")
		}

		if !reflect.DeepEqual(s.Model(), before) {
			t.Error("Model must equal the pre-shuffle snapshot after a failed write")
		}

		var cached Model
		ok, err := s.cache.ReadJSON(cache.KeyWeeklyPlan, &cached)
		if err != nil || !ok {
			t.Fatalf("Failed to read cached plan: ok=%v err=%v", ok, err)
		}
		if !reflect.DeepEqual(cached, before) {
			t.Error("Cache must be restored to the pre-shuffle snapshot after a failed write")
		}
	})

	t.Run("RejectsWhileBusy", func(t *testing.T) {
		fake := newFakeStore(store.Dish{ID: 1, Name: "Pasta", Type: "Lunch"})
		s := newTestSync(t, fake)

		s.opMu.Lock()
		defer s.opMu.Unlock()

		if _, err := s.Shuffle(context.Background(), Lunch, user); !errors.Is(err, ErrSyncBusy) {
			t.Fatalf("Expected ErrSyncBusy, got %v", err)
		}
	})
}

func TestAssignSlot(t *testing.T) {
	dishA := store.Dish{ID: 1, Name: "A", Type: "Lunch"}
	dishB := store.Dish{ID: 2, Name: "B", Type: "Lunch, Dinner"}
	fake := newFakeStore(dishA, dishB)
	s := newTestSync(t, fake)

	// Shuffle first; assign must overwrite whatever the shuffle placed.
	if _, err := s.Shuffle(context.Background(), Lunch, user); err != nil {
		t.Fatalf("Shuffle failed: %v", err)
	}
	if err := s.AssignSlot(context.Background(), Monday, Lunch, dishB.ID, user); err != nil {
		t.Fatalf("AssignSlot failed: %v", err)
	}

	if got, ok := s.Model().Dish(Lunch, Monday); !ok || got.ID != dishB.ID {
		t.Errorf("Expected dish B at Monday/Lunch after assign, got %+v (ok=%v)", got, ok)
	}
}

func TestMoveSlot(t *testing.T) {
	dishA := store.Dish{ID: 1, Name: "A", Type: "Lunch"}
	dishB := store.Dish{ID: 2, Name: "B", Type: "Lunch"}

	setup := func(t *testing.T, assign map[string]int64) (*Synchronizer, *fakeStore) {
		fake := newFakeStore(dishA, dishB)
		for key, id := range assign {
			fake.slots[key] = id
		}
		s := newTestSync(t, fake)
		if _, err := s.RefetchAll(context.Background(), user); err != nil {
			t.Fatalf("RefetchAll failed: %v", err)
		}
		return s, fake
	}

	t.Run("SameDayIsNoop", func(t *testing.T) {
		s, fake := setup(t, map[string]int64{slotKey("Monday", "Lunch"): 1})
		if err := s.MoveSlot(context.Background(), Monday, Monday, Lunch, user); err != nil {
			t.Fatalf("MoveSlot failed: %v", err)
		}
		if fake.writeCount != 0 {
			t.Errorf("Expected zero writes for same-day move, got %d", fake.writeCount)
		}
	})

	t.Run("SwapSymmetry", func(t *testing.T) {
		s, _ := setup(t, map[string]int64{
			slotKey("Monday", "Lunch"):  1,
			slotKey("Tuesday", "Lunch"): 2,
		})
		before := s.Model().Clone()

		if err := s.MoveSlot(context.Background(), Monday, Tuesday, Lunch, user); err != nil {
			t.Fatalf("First move failed: %v", err)
		}
		if got, _ := s.Model().Dish(Lunch, Monday); got.ID != 2 {
			t.Errorf("Expected B at Monday after swap, got %+v", got)
		}
		if err := s.MoveSlot(context.Background(), Tuesday, Monday, Lunch, user); err != nil {
			t.Fatalf("Second move failed: %v", err)
		}

		if !reflect.DeepEqual(s.Model(), before) {
			t.Error("Swapping back must restore the original assignments")
		}
	})

	t.Run("OccupiedSourceVacatesSource", func(t *testing.T) {
		s, fake := setup(t, map[string]int64{slotKey("Monday", "Lunch"): 1})

		if err := s.MoveSlot(context.Background(), Monday, Wednesday, Lunch, user); err != nil {
			t.Fatalf("MoveSlot failed: %v", err)
		}

		m := s.Model()
		if _, ok := m.Dish(Lunch, Monday); ok {
			t.Error("Expected source slot to be unassigned after move")
		}
		if got, ok := m.Dish(Lunch, Wednesday); !ok || got.ID != 1 {
			t.Errorf("Expected dish A at target, got %+v (ok=%v)", got, ok)
		}
		// Emptiness is a deleted row, not a null upsert.
		if _, exists := fake.slots[slotKey("Monday", "Lunch")]; exists {
			t.Error("Expected the source row to be deleted remotely")
		}
	})

	t.Run("EmptySourceClearsTarget", func(t *testing.T) {
		s, fake := setup(t, map[string]int64{slotKey("Friday", "Lunch"): 2})

		if err := s.MoveSlot(context.Background(), Monday, Friday, Lunch, user); err != nil {
			t.Fatalf("MoveSlot failed: %v", err)
		}

		m := s.Model()
		if _, ok := m.Dish(Lunch, Monday); ok {
			t.Error("Expected source to remain unassigned")
		}
		if _, ok := m.Dish(Lunch, Friday); ok {
			t.Error("Expected target to receive the source's emptiness")
		}
		if _, exists := fake.slots[slotKey("Friday", "Lunch")]; exists {
			t.Error("Expected the target row to be deleted remotely")
		}
	})

	t.Run("BothEmptyIsNoop", func(t *testing.T) {
		s, fake := setup(t, nil)
		if err := s.MoveSlot(context.Background(), Monday, Friday, Lunch, user); err != nil {
			t.Fatalf("MoveSlot failed: %v", err)
		}
		if fake.writeCount != 0 {
			t.Errorf("Expected zero writes, got %d", fake.writeCount)
		}
	})

	t.Run("FailureLeavesModelUnchanged", func(t *testing.T) {
		s, fake := setup(t, map[string]int64{
			slotKey("Monday", "Lunch"):  1,
			slotKey("Tuesday", "Lunch"): 2,
		})
		before := s.Model().Clone()

		fake.failUpsert = true
		if err := s.MoveSlot(context.Background(), Monday, Tuesday, Lunch, user); err == nil {
			t.Fatal("Expected move to fail")
		}
		fake.failUpsert = false

		if !reflect.DeepEqual(s.Model(), before) {
			t.Error("Model after a failed move must equal the model before it")
		}
	})
}

// The dashboard scenario: shuffle fills the week from the tagged candidates,
// assign pins one slot, and the views reflect it.
func TestShuffleAssignScenario(t *testing.T) {
	dishA := store.Dish{ID: 1, Name: "A", Type: "Lunch"}
	dishB := store.Dish{ID: 2, Name: "B", Type: "Lunch, Dinner"}
	fake := newFakeStore(dishA, dishB)
	s := newTestSync(t, fake)

	m, err := s.Shuffle(context.Background(), Lunch, user)
	if err != nil {
		t.Fatalf("Shuffle failed: %v", err)
	}
	for _, day := range Days {
		if got, _ := m.Dish(Lunch, day); got.ID != 1 && got.ID != 2 {
			t.Fatalf("Day %s holds a non-candidate dish: %+v", day, got)
		}
	}

	if err := s.AssignSlot(context.Background(), Monday, Lunch, dishB.ID, user); err != nil {
		t.Fatalf("AssignSlot failed: %v", err)
	}
	if got, _ := s.Model().Dish(Lunch, Monday); got.ID != dishB.ID {
		t.Fatalf("Expected Monday/Lunch pinned to B, got %+v", got)
	}
}
