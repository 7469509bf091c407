package store

import "time"

// Dish represents a single dish record owned by a user.
type Dish struct {
	ID          int64     `json:"id,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	Name        string    `json:"name"`
	Type        string    `json:"type"` // comma-joined meal-type tags, e.g. "Lunch, Dinner"
	Ingredients string    `json:"ingredients"`
	Recipe      string    `json:"recipe"`
	YoutubeLink string    `json:"youtube_link"`
	ImagePath   string    `json:"image_path"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
}

// DishFields holds the editable fields of a dish for updates.
type DishFields struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Ingredients string `json:"ingredients"`
	Recipe      string `json:"recipe"`
	YoutubeLink string `json:"youtube_link"`
}

// PlanSlot is a weekly-plan row joined with its dish. A slot with no
// assignment has no row at all; Dish is nil when the join produced nothing
// (e.g. the dish was deleted out from under the plan).
type PlanSlot struct {
	Day      string `json:"day"`
	MealType string `json:"meal_type"`
	Dish     *Dish  `json:"dishes"`
}

// SlotWrite is one upsert row for the weekly plan, keyed by
// (user_id, day, meal_type).
type SlotWrite struct {
	UserID   string `json:"user_id"`
	Day      string `json:"day"`
	MealType string `json:"meal_type"`
	DishID   int64  `json:"dish_id"`
}

// ShoppingItem is a single checklist entry.
type ShoppingItem struct {
	ID       int64  `json:"id,omitempty"`
	UserID   string `json:"user_id"`
	Item     string `json:"item"`
	DishName string `json:"dish_name"`
	IsBought bool   `json:"is_bought"`
}

// Session holds the tokens returned by the auth endpoint.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
