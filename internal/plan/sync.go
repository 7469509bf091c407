package plan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/legendary216/DishDeck/internal/cache"
	"github.com/legendary216/DishDeck/internal/store"
)

var (
	// ErrNoCandidates is returned by Shuffle when the user has no dishes
	// tagged with the requested meal type. The model is left unchanged.
	ErrNoCandidates = errors.New("no candidate dishes for meal type")

	// ErrSyncBusy is returned when a mutating operation is requested while
	// another one is still in flight. Callers should surface it and let the
	// user retry; requests are rejected, not queued.
	ErrSyncBusy = errors.New("another plan operation is in flight")
)

// Store is the slice of the remote client the synchronizer needs.
type Store interface {
	QueryDishes(ctx context.Context, userID, mealType string) ([]store.Dish, error)
	QueryPlanSlots(ctx context.Context, userID, day string) ([]store.PlanSlot, error)
	UpsertPlanSlots(ctx context.Context, rows []store.SlotWrite) error
	DeletePlanSlot(ctx context.Context, userID, day, mealType string) error
}

// Synchronizer owns the weekly-plan model and is its only writer. Shuffle
// stages its picks optimistically and rolls back to the pre-operation
// snapshot when the remote write fails, so the in-memory model never
// diverges permanently from confirmed remote state.
type Synchronizer struct {
	store Store
	cache *cache.Store
	rand  *rand.Rand
	now   func() time.Time

	// opMu is the in-flight guard: one mutating operation per plan at a time.
	opMu sync.Mutex

	stateMu sync.RWMutex
	model   Model
}

// NewSynchronizer creates a synchronizer with an empty model.
func NewSynchronizer(st Store, cacheStore *cache.Store) *Synchronizer {
	return &Synchronizer{
		store: st,
		cache: cacheStore,
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
		now:   time.Now,
		model: NewModel(),
	}
}

// Model returns the current in-memory model.
func (s *Synchronizer) Model() Model {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.model
}

// Today returns the dashboard view for the current calendar day.
func (s *Synchronizer) Today() DayView {
	return s.Model().Today(s.now())
}

// Tomorrow returns the dashboard view for the next calendar day.
func (s *Synchronizer) Tomorrow() DayView {
	return s.Model().Tomorrow(s.now())
}

// LoadCached paints the model from the last cached snapshot, if one exists.
// The snapshot may be stale; the next successful refetch replaces it.
func (s *Synchronizer) LoadCached() bool {
	var m Model
	ok, err := s.cache.ReadJSON(cache.KeyWeeklyPlan, &m)
	if err != nil {
		log.Printf("Warning: failed to read weekly plan cache: %v", err)
		return false
	}
	if !ok {
		return false
	}
	s.setModel(m)
	return true
}

// RefetchAll issues one joined read of all plan slots and replaces the whole
// model and its cache entry. On error the previous model and cache are kept;
// a failed read is never treated as an empty plan.
func (s *Synchronizer) RefetchAll(ctx context.Context, userID string) (Model, error) {
	slots, err := s.store.QueryPlanSlots(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weekly plan: %w", err)
	}

	m := BuildModel(slots)
	s.setModel(m)
	if err := s.cache.WriteJSON(cache.KeyWeeklyPlan, m); err != nil {
		log.Printf("Warning: failed to cache weekly plan: %v", err)
	}
	return m, nil
}

// Shuffle bulk-randomizes all seven days of one meal type: each day gets an
// independent uniform draw from the user's dishes tagged with mealType
// (repeats allowed). The staged week is merged into the model before the
// remote write so dependent views update immediately, and rolled back if the
// write fails.
func (s *Synchronizer) Shuffle(ctx context.Context, mealType MealType, userID string) (Model, error) {
	if !s.opMu.TryLock() {
		return nil, ErrSyncBusy
	}
	defer s.opMu.Unlock()

	candidates, err := s.store.QueryDishes(ctx, userID, string(mealType))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shuffle candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	rows := make([]store.SlotWrite, 0, len(Days))
	picks := make(map[Day]store.Dish, len(Days))
	for _, day := range Days {
		pick := candidates[s.rand.Intn(len(candidates))]
		picks[day] = pick
		rows = append(rows, store.SlotWrite{
			UserID:   userID,
			Day:      string(day),
			MealType: string(mealType),
			DishID:   pick.ID,
		})
	}

	snapshot := s.Model().Clone()

	staged := snapshot.Clone()
	for day, dish := range picks {
		staged.set(mealType, day, dish)
	}
	s.setModel(staged)
	if err := s.cache.WriteJSON(cache.KeyWeeklyPlan, staged); err != nil {
		log.Printf("Warning: failed to cache staged plan: %v", err)
	}

	if err := s.store.UpsertPlanSlots(ctx, rows); err != nil {
		s.restore(snapshot)
		return nil, fmt.Errorf("failed to save shuffled plan: %w", err)
	}

	return s.RefetchAll(ctx, userID)
}

// AssignSlot replaces the assignment at one slot with the given dish. No
// optimistic staging; the model is resynchronized after the write lands.
func (s *Synchronizer) AssignSlot(ctx context.Context, day Day, mealType MealType, dishID int64, userID string) error {
	if !s.opMu.TryLock() {
		return ErrSyncBusy
	}
	defer s.opMu.Unlock()

	row := store.SlotWrite{UserID: userID, Day: string(day), MealType: string(mealType), DishID: dishID}
	if err := s.store.UpsertPlanSlots(ctx, []store.SlotWrite{row}); err != nil {
		return fmt.Errorf("failed to assign slot: %w", err)
	}

	if _, err := s.RefetchAll(ctx, userID); err != nil {
		return err
	}
	return nil
}

// MoveSlot relocates or swaps the assignment between two days of the same
// meal type. Both occupied: one batch swap upsert. One side occupied: upsert
// the destination, then delete the vacated row (emptiness is "no row", never
// a null dish). The delete-vs-upsert branching is error-prone to predict
// locally, so the model is refetched after the remote operation whether it
// succeeded or not.
func (s *Synchronizer) MoveSlot(ctx context.Context, sourceDay, targetDay Day, mealType MealType, userID string) error {
	if !s.opMu.TryLock() {
		return ErrSyncBusy
	}
	defer s.opMu.Unlock()

	if sourceDay == targetDay {
		return nil
	}

	model := s.Model()
	sourceDish, sourceOK := model.Dish(mealType, sourceDay)
	targetDish, targetOK := model.Dish(mealType, targetDay)
	if !sourceOK && !targetOK {
		return nil
	}

	writeErr := s.executeMove(ctx, sourceDay, targetDay, mealType, userID, sourceDish, sourceOK, targetDish, targetOK)

	if _, err := s.RefetchAll(ctx, userID); err != nil {
		if writeErr != nil {
			return writeErr
		}
		return err
	}
	if writeErr != nil {
		return writeErr
	}
	return nil
}

func (s *Synchronizer) executeMove(ctx context.Context, sourceDay, targetDay Day, mealType MealType, userID string,
	sourceDish store.Dish, sourceOK bool, targetDish store.Dish, targetOK bool) error {

	switch {
	case sourceOK && targetOK:
		// True swap in a single batch so the two writes cannot race.
		rows := []store.SlotWrite{
			{UserID: userID, Day: string(targetDay), MealType: string(mealType), DishID: sourceDish.ID},
			{UserID: userID, Day: string(sourceDay), MealType: string(mealType), DishID: targetDish.ID},
		}
		if err := s.store.UpsertPlanSlots(ctx, rows); err != nil {
			return fmt.Errorf("failed to swap slots: %w", err)
		}

	case sourceOK:
		row := store.SlotWrite{UserID: userID, Day: string(targetDay), MealType: string(mealType), DishID: sourceDish.ID}
		if err := s.store.UpsertPlanSlots(ctx, []store.SlotWrite{row}); err != nil {
			return fmt.Errorf("failed to move slot: %w", err)
		}
		if err := s.store.DeletePlanSlot(ctx, userID, string(sourceDay), string(mealType)); err != nil {
			return fmt.Errorf("failed to vacate source slot: %w", err)
		}

	default:
		// Source empty, target occupied: the move carries the source's
		// emptiness, so the target row is deleted and nothing is written.
		if err := s.store.DeletePlanSlot(ctx, userID, string(targetDay), string(mealType)); err != nil {
			return fmt.Errorf("failed to vacate target slot: %w", err)
		}
	}
	return nil
}

func (s *Synchronizer) setModel(m Model) {
	s.stateMu.Lock()
	s.model = m
	s.stateMu.Unlock()
}

// restore puts a snapshot back into memory and cache after a failed
// optimistic write.
func (s *Synchronizer) restore(snapshot Model) {
	s.setModel(snapshot)
	if err := s.cache.WriteJSON(cache.KeyWeeklyPlan, snapshot); err != nil {
		log.Printf("Warning: failed to restore cached plan: %v", err)
	}
}
