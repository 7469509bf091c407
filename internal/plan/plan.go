// Package plan holds the weekly meal-plan model and the synchronizer that
// keeps it consistent with the remote store.
package plan

import (
	"fmt"
	"strings"
	"time"
)

// MealType is one of the three meal columns of the weekly grid.
type MealType string

const (
	Breakfast MealType = "Breakfast"
	Lunch     MealType = "Lunch"
	Dinner    MealType = "Dinner"
)

// MealTypes lists the meal columns in display order.
var MealTypes = []MealType{Breakfast, Lunch, Dinner}

// Day is a day-of-week coordinate in the weekly grid.
type Day string

const (
	Monday    Day = "Monday"
	Tuesday   Day = "Tuesday"
	Wednesday Day = "Wednesday"
	Thursday  Day = "Thursday"
	Friday    Day = "Friday"
	Saturday  Day = "Saturday"
	Sunday    Day = "Sunday"
)

// Days lists the week in plan order (Monday first).
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// calendarDays is indexed by time.Weekday (0 = Sunday).
var calendarDays = [7]Day{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// DayOf returns the plan day for a point in time.
func DayOf(t time.Time) Day {
	return calendarDays[int(t.Weekday())]
}

// DayAfter returns the plan day following a point in time.
func DayAfter(t time.Time) Day {
	return calendarDays[(int(t.Weekday())+1)%7]
}

// ParseMealType normalizes a user-supplied meal type.
func ParseMealType(s string) (MealType, error) {
	for _, mt := range MealTypes {
		if strings.EqualFold(s, string(mt)) {
			return mt, nil
		}
	}
	return "", fmt.Errorf("unknown meal type %q (expected Breakfast, Lunch or Dinner)", s)
}

// ParseDay normalizes a user-supplied day of week.
func ParseDay(s string) (Day, error) {
	for _, d := range Days {
		if strings.EqualFold(s, string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown day %q", s)
}
