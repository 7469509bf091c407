package store

import "context"

// Client is the remote store collaborator: dish records, weekly-plan
// assignments, shopping-list items, authentication and object storage.
// Writes are not guaranteed visible to the next read instantaneously and
// may fail transiently; callers own their recovery.
type Client interface {
	// CurrentUser returns the id of the signed-in user, or ErrNoUser.
	CurrentUser() (string, error)

	QueryDishes(ctx context.Context, userID, mealType string) ([]Dish, error)
	InsertDish(ctx context.Context, d Dish) (int64, error)
	UpdateDish(ctx context.Context, id int64, fields DishFields) error
	DeleteDish(ctx context.Context, id int64) error

	UploadImage(ctx context.Context, data []byte, contentType string) (string, error)
	DeleteImage(ctx context.Context, publicURL string) error

	// QueryPlanSlots returns plan rows joined with dish data. An empty day
	// returns the whole week.
	QueryPlanSlots(ctx context.Context, userID, day string) ([]PlanSlot, error)
	// UpsertPlanSlots writes rows keyed by (user_id, day, meal_type); an
	// existing row at the same key is replaced, never duplicated.
	UpsertPlanSlots(ctx context.Context, rows []SlotWrite) error
	DeletePlanSlot(ctx context.Context, userID, day, mealType string) error

	QueryShoppingItems(ctx context.Context, userID string) ([]ShoppingItem, error)
	InsertShoppingItems(ctx context.Context, items []ShoppingItem) error
	UpdateShoppingItem(ctx context.Context, id int64, isBought bool) error
	DeleteAllShoppingItems(ctx context.Context, userID string) error
}
