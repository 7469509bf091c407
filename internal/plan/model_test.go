package plan

import (
	"testing"
	"time"

	"github.com/legendary216/DishDeck/internal/store"
)

func TestBuildModel(t *testing.T) {
	pasta := store.Dish{ID: 1, Name: "Pasta", Type: "Lunch, Dinner"}
	eggs := store.Dish{ID: 2, Name: "Eggs", Type: "Breakfast"}

	slots := []store.PlanSlot{
		{Day: "Monday", MealType: "Lunch", Dish: &pasta},
		{Day: "Monday", MealType: "Breakfast", Dish: &eggs},
		{Day: "Tuesday", MealType: "Dinner", Dish: nil}, // dangling join
		{Day: "Someday", MealType: "Lunch", Dish: &pasta},
		{Day: "Friday", MealType: "Brunch", Dish: &pasta},
	}

	m := BuildModel(slots)

	if got, ok := m.Dish(Lunch, Monday); !ok || got.Name != "Pasta" {
		t.Errorf("Expected Pasta at Monday/Lunch, got %+v (ok=%v)", got, ok)
	}
	if got, ok := m.Dish(Breakfast, Monday); !ok || got.Name != "Eggs" {
		t.Errorf("Expected Eggs at Monday/Breakfast, got %+v (ok=%v)", got, ok)
	}
	if _, ok := m.Dish(Dinner, Tuesday); ok {
		t.Error("Expected dangling slot to stay unassigned")
	}

	total := 0
	for _, days := range m {
		total += len(days)
	}
	if total != 2 {
		t.Errorf("Expected 2 assignments after skipping bad rows, got %d", total)
	}
}

func TestDayOf(t *testing.T) {
	// 2024-01-07 was a Sunday.
	sunday := time.Date(2024, 1, 7, 12, 0, 0, 0, time.UTC)

	if got := DayOf(sunday); got != Sunday {
		t.Errorf("Expected Sunday, got %s", got)
	}
	if got := DayAfter(sunday); got != Monday {
		t.Errorf("Expected Monday after Sunday, got %s", got)
	}
	if got := DayOf(sunday.AddDate(0, 0, 3)); got != Wednesday {
		t.Errorf("Expected Wednesday, got %s", got)
	}
	// The week wraps: Saturday's tomorrow is Sunday.
	if got := DayAfter(sunday.AddDate(0, 0, 6)); got != Sunday {
		t.Errorf("Expected Sunday after Saturday, got %s", got)
	}
}

func TestTodayTomorrowViews(t *testing.T) {
	pasta := store.Dish{ID: 1, Name: "Pasta"}
	soup := store.Dish{ID: 2, Name: "Soup"}

	m := NewModel()
	m.set(Lunch, Wednesday, pasta)
	m.set(Dinner, Thursday, soup)

	// 2024-01-10 was a Wednesday.
	now := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

	today := m.Today(now)
	if got, ok := today[Lunch]; !ok || got.Name != "Pasta" {
		t.Errorf("Expected Pasta for today's lunch, got %+v (ok=%v)", got, ok)
	}
	if _, ok := today[Dinner]; ok {
		t.Error("Expected no dinner today")
	}

	tomorrow := m.Tomorrow(now)
	if got, ok := tomorrow[Dinner]; !ok || got.Name != "Soup" {
		t.Errorf("Expected Soup for tomorrow's dinner, got %+v (ok=%v)", got, ok)
	}
}

func TestCloneIsDeep(t *testing.T) {
	m := NewModel()
	m.set(Lunch, Monday, store.Dish{ID: 1, Name: "Pasta"})

	c := m.Clone()
	c.set(Lunch, Monday, store.Dish{ID: 2, Name: "Soup"})
	c.set(Dinner, Friday, store.Dish{ID: 3, Name: "Stew"})

	if got, _ := m.Dish(Lunch, Monday); got.Name != "Pasta" {
		t.Errorf("Clone mutation leaked into original: %+v", got)
	}
	if _, ok := m.Dish(Dinner, Friday); ok {
		t.Error("Clone insertion leaked into original")
	}
}

func TestParsers(t *testing.T) {
	if mt, err := ParseMealType("lunch"); err != nil || mt != Lunch {
		t.Errorf("Expected Lunch, got %v (%v)", mt, err)
	}
	if _, err := ParseMealType("brunch"); err == nil {
		t.Error("Expected error for unknown meal type")
	}
	if d, err := ParseDay("SUNDAY"); err != nil || d != Sunday {
		t.Errorf("Expected Sunday, got %v (%v)", d, err)
	}
	if _, err := ParseDay("Humpday"); err == nil {
		t.Error("Expected error for unknown day")
	}
}
