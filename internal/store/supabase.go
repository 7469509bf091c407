package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/legendary216/DishDeck/internal/cache"
	"github.com/legendary216/DishDeck/internal/config"
)

// Supabase is the concrete Client backed by the hosted Supabase APIs:
// PostgREST for tables, GoTrue for auth and Storage for image objects.
type Supabase struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	cache      *cache.Store

	mu      sync.Mutex
	session *Session
	userID  string
}

var _ Client = (*Supabase)(nil)

// NewSupabase creates a Supabase client. A session persisted by a previous
// run is restored from the cache store.
func NewSupabase(cfg *config.Config, cacheStore *cache.Store) *Supabase {
	s := &Supabase{
		baseURL:    strings.TrimRight(cfg.SupabaseURL, "/"),
		anonKey:    cfg.SupabaseAnonKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      cacheStore,
	}
	s.restoreSession()
	return s
}

// rest performs a PostgREST request against table, decoding the response into
// out when out is non-nil. prefer is passed through as the Prefer header.
func (s *Supabase) rest(ctx context.Context, method, table string, query url.Values, body, out any, prefer string) error {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", s.baseURL, table)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}
	if err := s.authorize(ctx, req); err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, table, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// QueryDishes lists the user's dishes, newest first. A non-empty mealType
// narrows the result to dishes whose tag set includes it (the tag column is a
// comma-joined string, so this is a case-insensitive contains match).
func (s *Supabase) QueryDishes(ctx context.Context, userID, mealType string) ([]Dish, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+userID)
	q.Set("order", "created_at.desc")
	if mealType != "" {
		q.Set("type", "ilike.*"+mealType+"*")
	}

	var dishes []Dish
	if err := s.rest(ctx, http.MethodGet, "dishes", q, nil, &dishes, ""); err != nil {
		return nil, err
	}
	return dishes, nil
}

// InsertDish creates a dish and returns its server-assigned id.
func (s *Supabase) InsertDish(ctx context.Context, d Dish) (int64, error) {
	var created []Dish
	if err := s.rest(ctx, http.MethodPost, "dishes", nil, []Dish{d}, &created, "return=representation"); err != nil {
		return 0, err
	}
	if len(created) == 0 {
		return 0, fmt.Errorf("insert returned no dish row")
	}
	return created[0].ID, nil
}

// UpdateDish replaces the editable fields of a dish.
func (s *Supabase) UpdateDish(ctx context.Context, id int64, fields DishFields) error {
	q := url.Values{}
	q.Set("id", fmt.Sprintf("eq.%d", id))
	return s.rest(ctx, http.MethodPatch, "dishes", q, fields, nil, "")
}

// DeleteDish removes a dish row. Releasing the image object is the caller's
// responsibility; the row carries the URL.
func (s *Supabase) DeleteDish(ctx context.Context, id int64) error {
	q := url.Values{}
	q.Set("id", fmt.Sprintf("eq.%d", id))
	return s.rest(ctx, http.MethodDelete, "dishes", q, nil, nil, "")
}

// QueryPlanSlots reads plan rows joined with their dish data. An empty day
// returns all of the user's rows.
func (s *Supabase) QueryPlanSlots(ctx context.Context, userID, day string) ([]PlanSlot, error) {
	q := url.Values{}
	q.Set("select", "day,meal_type,dishes(*)")
	q.Set("user_id", "eq."+userID)
	if day != "" {
		q.Set("day", "eq."+day)
	}

	var slots []PlanSlot
	if err := s.rest(ctx, http.MethodGet, "weekly_plan", q, nil, &slots, ""); err != nil {
		return nil, err
	}
	return slots, nil
}

// UpsertPlanSlots writes plan rows in one batch, keyed by
// (user_id, day, meal_type).
func (s *Supabase) UpsertPlanSlots(ctx context.Context, rows []SlotWrite) error {
	if len(rows) == 0 {
		return nil
	}
	q := url.Values{}
	q.Set("on_conflict", "user_id,day,meal_type")
	return s.rest(ctx, http.MethodPost, "weekly_plan", q, rows, nil, "resolution=merge-duplicates")
}

// DeletePlanSlot removes the row at (user_id, day, meal_type). Emptiness is
// modeled as "no row", so vacating a slot is a delete, never a null upsert.
func (s *Supabase) DeletePlanSlot(ctx context.Context, userID, day, mealType string) error {
	q := url.Values{}
	q.Set("user_id", "eq."+userID)
	q.Set("day", "eq."+day)
	q.Set("meal_type", "eq."+mealType)
	return s.rest(ctx, http.MethodDelete, "weekly_plan", q, nil, nil, "")
}

// QueryShoppingItems lists the user's shopping items, unbought first.
func (s *Supabase) QueryShoppingItems(ctx context.Context, userID string) ([]ShoppingItem, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+userID)
	q.Set("order", "is_bought.asc,id.asc")

	var items []ShoppingItem
	if err := s.rest(ctx, http.MethodGet, "shopping_list", q, nil, &items, ""); err != nil {
		return nil, err
	}
	return items, nil
}

// InsertShoppingItems appends items to the list. There is deliberately no
// duplicate check against existing rows.
func (s *Supabase) InsertShoppingItems(ctx context.Context, items []ShoppingItem) error {
	if len(items) == 0 {
		return nil
	}
	return s.rest(ctx, http.MethodPost, "shopping_list", nil, items, nil, "")
}

// UpdateShoppingItem sets the bought flag of a single item.
func (s *Supabase) UpdateShoppingItem(ctx context.Context, id int64, isBought bool) error {
	q := url.Values{}
	q.Set("id", fmt.Sprintf("eq.%d", id))
	body := map[string]bool{"is_bought": isBought}
	return s.rest(ctx, http.MethodPatch, "shopping_list", q, body, nil, "")
}

// DeleteAllShoppingItems removes every shopping row for the user.
func (s *Supabase) DeleteAllShoppingItems(ctx context.Context, userID string) error {
	q := url.Values{}
	q.Set("user_id", "eq."+userID)
	return s.rest(ctx, http.MethodDelete, "shopping_list", q, nil, nil, "")
}
