package plan

import (
	"time"

	"github.com/legendary216/DishDeck/internal/store"
)

// Model is the in-memory projection of the weekly plan: meal type → day →
// dish, sparse. Absence means the slot is unassigned. Its JSON form is the
// cache snapshot for the weekly-plan collection.
type Model map[MealType]map[Day]store.Dish

// NewModel returns an empty model with all three meal columns present.
func NewModel() Model {
	m := make(Model, len(MealTypes))
	for _, mt := range MealTypes {
		m[mt] = make(map[Day]store.Dish)
	}
	return m
}

// BuildModel groups fetched plan rows into a model. Rows whose dish join came
// back empty (the dish was deleted out from under the plan) are skipped.
func BuildModel(slots []store.PlanSlot) Model {
	m := NewModel()
	for _, s := range slots {
		if s.Dish == nil {
			continue
		}
		mt, err := ParseMealType(s.MealType)
		if err != nil {
			continue
		}
		d, err := ParseDay(s.Day)
		if err != nil {
			continue
		}
		m[mt][d] = *s.Dish
	}
	return m
}

// Dish returns the assignment at (mealType, day), if any.
func (m Model) Dish(mt MealType, d Day) (store.Dish, bool) {
	dish, ok := m[mt][d]
	return dish, ok
}

func (m Model) set(mt MealType, d Day, dish store.Dish) {
	if m[mt] == nil {
		m[mt] = make(map[Day]store.Dish)
	}
	m[mt][d] = dish
}

// Clone returns a deep copy, used for optimistic-update snapshots.
func (m Model) Clone() Model {
	c := make(Model, len(m))
	for mt, days := range m {
		c[mt] = make(map[Day]store.Dish, len(days))
		for d, dish := range days {
			c[mt][d] = dish
		}
	}
	return c
}

// DayView is a single day's assignments across meal types.
type DayView map[MealType]store.Dish

// View projects one day out of the model.
func (m Model) View(d Day) DayView {
	v := make(DayView, len(MealTypes))
	for _, mt := range MealTypes {
		if dish, ok := m[mt][d]; ok {
			v[mt] = dish
		}
	}
	return v
}

// Today returns the view for the calendar day of now.
func (m Model) Today(now time.Time) DayView {
	return m.View(DayOf(now))
}

// Tomorrow returns the view for the day after now.
func (m Model) Tomorrow(now time.Time) DayView {
	return m.View(DayAfter(now))
}
