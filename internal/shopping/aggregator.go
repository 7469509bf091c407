// Package shopping derives the dish-grouped shopping checklist from the
// weekly plan and keeps it in sync with the remote store.
package shopping

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/legendary216/DishDeck/internal/cache"
	"github.com/legendary216/DishDeck/internal/store"
)

var (
	// ErrNothingToImport is returned when the requested scope has no planned
	// dishes, or none of them list any ingredients. No writes are performed.
	ErrNothingToImport = errors.New("nothing to import for that scope")

	// ErrBusy is returned when an import or clear is requested while another
	// one is still running.
	ErrBusy = errors.New("another shopping operation is in flight")

	// ErrSyncFailed marks a toggle whose local flip could not be saved
	// remotely. The local state has been rolled back; the caller should tell
	// the user their tap did not stick.
	ErrSyncFailed = errors.New("item update did not sync")
)

// generalItems is the section title for items with no originating dish.
const generalItems = "General Items"

// Section is one display group of the checklist: all items contributed by a
// single dish.
type Section struct {
	Title string               `json:"title"`
	Items []store.ShoppingItem `json:"data"`
}

// Store is the slice of the remote client the aggregator needs.
type Store interface {
	QueryPlanSlots(ctx context.Context, userID, day string) ([]store.PlanSlot, error)
	QueryShoppingItems(ctx context.Context, userID string) ([]store.ShoppingItem, error)
	InsertShoppingItems(ctx context.Context, items []store.ShoppingItem) error
	UpdateShoppingItem(ctx context.Context, id int64, isBought bool) error
	DeleteAllShoppingItems(ctx context.Context, userID string) error
}

// Aggregator owns the grouped shopping-list view.
type Aggregator struct {
	store Store
	cache *cache.Store

	opMu sync.Mutex

	stateMu  sync.RWMutex
	sections []Section
}

// NewAggregator creates an aggregator with an empty list.
func NewAggregator(st Store, cacheStore *cache.Store) *Aggregator {
	return &Aggregator{store: st, cache: cacheStore}
}

// Sections returns the current grouped view.
func (a *Aggregator) Sections() []Section {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.sections
}

// Item returns the checklist entry with the given id, if present in the
// current view.
func (a *Aggregator) Item(id int64) (store.ShoppingItem, bool) {
	for _, section := range a.Sections() {
		for _, item := range section.Items {
			if item.ID == id {
				return item, true
			}
		}
	}
	return store.ShoppingItem{}, false
}

// LoadCached paints the list from the last cached snapshot, if one exists.
func (a *Aggregator) LoadCached() bool {
	var sections []Section
	ok, err := a.cache.ReadJSON(cache.KeyShoppingList, &sections)
	if err != nil {
		log.Printf("Warning: failed to read shopping list cache: %v", err)
		return false
	}
	if !ok {
		return false
	}
	a.setSections(sections)
	return true
}

// Refresh refetches the full list and regroups it by dish name, unbought
// items first. On error the previous sections and cache are kept.
func (a *Aggregator) Refresh(ctx context.Context, userID string) ([]Section, error) {
	items, err := a.store.QueryShoppingItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shopping list: %w", err)
	}

	sections := regroup(items)
	a.setSections(sections)
	if err := a.cache.WriteJSON(cache.KeyShoppingList, sections); err != nil {
		log.Printf("Warning: failed to cache shopping list: %v", err)
	}
	return sections, nil
}

// Import reads the planned dishes in scope (one day, or the whole week when
// day is empty), tokenizes their ingredient text and appends one unbought
// item per token. Tokens are deduplicated within a single dish only;
// re-importing the same scope appends again by design. Returns the number of
// items inserted.
func (a *Aggregator) Import(ctx context.Context, userID, day string) (int, error) {
	if !a.opMu.TryLock() {
		return 0, ErrBusy
	}
	defer a.opMu.Unlock()

	slots, err := a.store.QueryPlanSlots(ctx, userID, day)
	if err != nil {
		return 0, fmt.Errorf("failed to read plan for import: %w", err)
	}
	if len(slots) == 0 {
		return 0, ErrNothingToImport
	}

	var rows []store.ShoppingItem
	for _, slot := range slots {
		if slot.Dish == nil {
			continue
		}
		// A nameless dish leaves dish_name empty; regroup then files its
		// items under the General Items section.
		for _, token := range tokenize(slot.Dish.Ingredients) {
			rows = append(rows, store.ShoppingItem{
				UserID:   userID,
				Item:     token,
				DishName: slot.Dish.Name,
				IsBought: false,
			})
		}
	}
	if len(rows) == 0 {
		return 0, ErrNothingToImport
	}

	if err := a.store.InsertShoppingItems(ctx, rows); err != nil {
		return 0, fmt.Errorf("failed to insert shopping items: %w", err)
	}

	if _, err := a.Refresh(ctx, userID); err != nil {
		return len(rows), err
	}
	return len(rows), nil
}

// ToggleBought optimistically flips an item's bought flag in memory and
// cache, then saves it remotely. A failed save restores the pre-toggle
// snapshot and reports ErrSyncFailed.
func (a *Aggregator) ToggleBought(ctx context.Context, userID string, itemID int64, current bool) error {
	snapshot := cloneSections(a.Sections())

	flipped := cloneSections(snapshot)
	for si := range flipped {
		for ii := range flipped[si].Items {
			if flipped[si].Items[ii].ID == itemID {
				flipped[si].Items[ii].IsBought = !current
			}
		}
	}
	a.setSections(flipped)
	if err := a.cache.WriteJSON(cache.KeyShoppingList, flipped); err != nil {
		log.Printf("Warning: failed to cache toggled list: %v", err)
	}

	if err := a.store.UpdateShoppingItem(ctx, itemID, !current); err != nil {
		a.setSections(snapshot)
		if cerr := a.cache.WriteJSON(cache.KeyShoppingList, snapshot); cerr != nil {
			log.Printf("Warning: failed to restore cached list: %v", cerr)
		}
		return fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}
	return nil
}

// ClearAll deletes every shopping row remotely, then wipes the local view
// and cache. On remote failure the local state is left as it was.
func (a *Aggregator) ClearAll(ctx context.Context, userID string) error {
	if !a.opMu.TryLock() {
		return ErrBusy
	}
	defer a.opMu.Unlock()

	if err := a.store.DeleteAllShoppingItems(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear shopping list: %w", err)
	}

	a.setSections(nil)
	if err := a.cache.Clear(cache.KeyShoppingList); err != nil {
		log.Printf("Warning: failed to clear shopping list cache: %v", err)
	}
	return nil
}

func (a *Aggregator) setSections(sections []Section) {
	a.stateMu.Lock()
	a.sections = sections
	a.stateMu.Unlock()
}

// tokenize splits ingredient text on newlines and commas, trims whitespace,
// drops empties and deduplicates within the one dish, preserving order.
func tokenize(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ','
	})

	seen := make(map[string]struct{}, len(parts))
	var tokens []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		tokens = append(tokens, p)
	}
	return tokens
}

// regroup buckets items under their originating dish name in first-seen
// order. Items arrive unbought-first from the store, so sections inherit
// that ordering.
func regroup(items []store.ShoppingItem) []Section {
	index := make(map[string]int)
	var sections []Section
	for _, item := range items {
		title := item.DishName
		if title == "" {
			title = generalItems
		}
		i, ok := index[title]
		if !ok {
			i = len(sections)
			index[title] = i
			sections = append(sections, Section{Title: title})
		}
		sections[i].Items = append(sections[i].Items, item)
	}
	return sections
}

func cloneSections(sections []Section) []Section {
	c := make([]Section, len(sections))
	for i, s := range sections {
		c[i] = Section{Title: s.Title, Items: append([]store.ShoppingItem(nil), s.Items...)}
	}
	return c
}
