// Package dish manages the user's dish library: CRUD against the remote
// store, cache-first listing, meal-type tag handling and the image lifecycle.
package dish

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
	// ErrInvalidDish is returned when a dish is missing its name or has no
	// meal-type tag.
	ErrInvalidDish = errors.New("dish needs a name and at least one meal type")

	// ErrNotFound is returned when the requested dish is not in the library.
	ErrNotFound = errors.New("dish not found")
)

// Store is the slice of the remote client the service needs.
type Store interface {
	QueryDishes(ctx context.Context, userID, mealType string) ([]store.Dish, error)
	InsertDish(ctx context.Context, d store.Dish) (int64, error)
	UpdateDish(ctx context.Context, id int64, fields store.DishFields) error
	DeleteDish(ctx context.Context, id int64) error
	UploadImage(ctx context.Context, data []byte, contentType string) (string, error)
	DeleteImage(ctx context.Context, publicURL string) error
}

// Service owns the dish library view.
type Service struct {
	store Store
	cache *cache.Store

	mu     sync.RWMutex
	dishes []store.Dish
}

// NewService creates a service with an empty library.
func NewService(st Store, cacheStore *cache.Store) *Service {
	return &Service{store: st, cache: cacheStore}
}

// Dishes returns the current in-memory library.
func (s *Service) Dishes() []store.Dish {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dishes
}

// LoadCached paints the library from the last cached snapshot, if one exists.
func (s *Service) LoadCached() bool {
	var dishes []store.Dish
	ok, err := s.cache.ReadJSON(cache.KeyDishes, &dishes)
	if err != nil {
		log.Printf("Warning: failed to read dish cache: %v", err)
		return false
	}
	if !ok {
		return false
	}
	s.setDishes(dishes)
	return true
}

// Refresh refetches the full library, newest first, and overwrites the cache.
// On error the previous library and cache are kept.
func (s *Service) Refresh(ctx context.Context, userID string) ([]store.Dish, error) {
	dishes, err := s.store.QueryDishes(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dishes: %w", err)
	}

	s.setDishes(dishes)
	if err := s.cache.WriteJSON(cache.KeyDishes, dishes); err != nil {
		log.Printf("Warning: failed to cache dishes: %v", err)
	}
	return dishes, nil
}

// Find returns the dish with the given id from the in-memory library.
func (s *Service) Find(id int64) (store.Dish, error) {
	for _, d := range s.Dishes() {
		if d.ID == id {
			return d, nil
		}
	}
	return store.Dish{}, ErrNotFound
}

// Add validates and inserts a new dish. When image data is provided it is
// uploaded first and the returned public URL stored on the dish; a dish
// insert that fails after a successful upload releases the orphaned object.
func (s *Service) Add(ctx context.Context, userID string, d store.Dish, image []byte, contentType string) (int64, error) {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" || strings.TrimSpace(d.Type) == "" {
		return 0, ErrInvalidDish
	}
	d.UserID = userID

	if len(image) > 0 {
		url, err := s.store.UploadImage(ctx, image, contentType)
		if err != nil {
			return 0, fmt.Errorf("failed to upload dish image: %w", err)
		}
		d.ImagePath = url
	}

	id, err := s.store.InsertDish(ctx, d)
	if err != nil {
		if d.ImagePath != "" {
			if derr := s.store.DeleteImage(ctx, d.ImagePath); derr != nil {
				log.Printf("Warning: failed to release orphaned image %s: %v", d.ImagePath, derr)
			}
		}
		return 0, fmt.Errorf("failed to insert dish: %w", err)
	}

	if _, err := s.Refresh(ctx, userID); err != nil {
		return id, err
	}
	return id, nil
}

// Update replaces the editable fields of an existing dish.
func (s *Service) Update(ctx context.Context, userID string, id int64, fields store.DishFields) error {
	fields.Name = strings.TrimSpace(fields.Name)
	if fields.Name == "" || strings.TrimSpace(fields.Type) == "" {
		return ErrInvalidDish
	}

	if err := s.store.UpdateDish(ctx, id, fields); err != nil {
		return fmt.Errorf("failed to update dish: %w", err)
	}

	if _, err := s.Refresh(ctx, userID); err != nil {
		return err
	}
	return nil
}

// Delete removes a dish, releasing its image object first so the bucket does
// not accumulate orphans. A failed image delete only logs; the row delete
// proceeds.
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	d, err := s.Find(id)
	if err == nil && d.ImagePath != "" {
		if err := s.store.DeleteImage(ctx, d.ImagePath); err != nil {
			log.Printf("Warning: failed to delete image for dish %d: %v", id, err)
		}
	}

	if err := s.store.DeleteDish(ctx, id); err != nil {
		return fmt.Errorf("failed to delete dish: %w", err)
	}

	if _, err := s.Refresh(ctx, userID); err != nil {
		return err
	}
	return nil
}

func (s *Service) setDishes(dishes []store.Dish) {
	s.mu.Lock()
	s.dishes = dishes
	s.mu.Unlock()
}

// JoinTypes joins meal-type tags into the stored comma form, e.g.
// "Lunch, Dinner".
func JoinTypes(types []string) string {
	return strings.Join(types, ", ")
}

// ParseTypes splits a stored tag string back into individual tags.
func ParseTypes(stored string) []string {
	var out []string
	for _, part := range strings.Split(stored, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// HasType reports whether the stored tag string includes the given meal
// type, matching the case-insensitive contains semantics of the remote
// query.
func HasType(stored, mealType string) bool {
	return strings.Contains(strings.ToLower(stored), strings.ToLower(mealType))
}
