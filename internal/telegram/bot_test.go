package telegram

import (
	"strings"
	"testing"

	"github.com/legendary216/DishDeck/internal/plan"
	"github.com/legendary216/DishDeck/internal/shopping"
	"github.com/legendary216/DishDeck/internal/store"
)

func TestFormatDayView(t *testing.T) {
	view := plan.DayView{
		plan.Breakfast: store.Dish{Name: "Eggs"},
		plan.Dinner:    store.Dish{Name: "Stew"},
	}

	out := formatDayView("Today", view)

	if !strings.Contains(out, "📅 *Today*") {
		t.Error("Missing day header")
	}
	if !strings.Contains(out, "*Breakfast*: Eggs") {
		t.Error("Missing breakfast line")
	}
	if !strings.Contains(out, "*Lunch*: —") {
		t.Error("Expected unassigned lunch to show a dash")
	}
	if !strings.Contains(out, "*Dinner*: Stew") {
		t.Error("Missing dinner line")
	}
}

func TestFormatWeek(t *testing.T) {
	m := plan.BuildModel([]store.PlanSlot{
		{Day: "Monday", MealType: "Lunch", Dish: &store.Dish{Name: "Tacos"}},
		{Day: "Friday", MealType: "Dinner", Dish: &store.Dish{Name: "Pizza"}},
	})

	out := formatWeek(m)

	if !strings.Contains(out, "📅 *Weekly Plan*") {
		t.Error("Missing plan header")
	}
	if !strings.Contains(out, "Lunch: Tacos") {
		t.Error("Missing Monday lunch")
	}
	if !strings.Contains(out, "Dinner: Pizza") {
		t.Error("Missing Friday dinner")
	}
	// Every day appears, assigned or not.
	for _, day := range plan.Days {
		if !strings.Contains(out, "*"+string(day)+"*") {
			t.Errorf("Missing day header for %s", day)
		}
	}
}

func TestFormatSections(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		if out := formatSections(nil); !strings.Contains(out, "empty") {
			t.Errorf("Expected empty-list message, got %q", out)
		}
	})

	t.Run("GroupedWithMarks", func(t *testing.T) {
		sections := []shopping.Section{
			{Title: "Curry", Items: []store.ShoppingItem{
				{ID: 1, Item: "Rice", IsBought: false},
				{ID: 2, Item: "Beans", IsBought: true},
			}},
			{Title: "General Items", Items: []store.ShoppingItem{
				{ID: 3, Item: "Salt"},
			}},
		}

		out := formatSections(sections)

		if !strings.Contains(out, "*Curry*") || !strings.Contains(out, "*General Items*") {
			t.Error("Missing section headers")
		}
		if !strings.Contains(out, "⬜ Rice (#1)") {
			t.Error("Missing unbought mark for Rice")
		}
		if !strings.Contains(out, "✅ Beans (#2)") {
			t.Error("Missing bought mark for Beans")
		}
	})
}
