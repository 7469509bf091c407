package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/legendary216/DishDeck/internal/store"
)

type mockTextGenerator struct {
	response string
	err      error
	calls    int
}

func (m *mockTextGenerator) GenerateContent(_ context.Context, _ string) (string, error) {
	m.calls++
	return m.response, m.err
}

func TestAutofillDish(t *testing.T) {
	t.Run("FillsEmptyFields", func(t *testing.T) {
		gen := &mockTextGenerator{response: `{"ingredients":["Eggs"],"recipe":"Fry."}`}
		a := &App{textGen: gen}

		d := a.AutofillDish(context.Background(), store.Dish{Name: "Eggs"})
		if d.Ingredients != "Eggs" || d.Recipe != "Fry." {
			t.Errorf("Expected filled fields, got %+v", d)
		}
	})

	t.Run("KeepsFilledFields", func(t *testing.T) {
		gen := &mockTextGenerator{response: `{"ingredients":["X"],"recipe":"Y"}`}
		a := &App{textGen: gen}

		in := store.Dish{Name: "Eggs", Ingredients: "My eggs", Recipe: "My way"}
		d := a.AutofillDish(context.Background(), in)
		if d != in {
			t.Errorf("Expected dish unchanged, got %+v", d)
		}
		if gen.calls != 0 {
			t.Error("Expected no model call when both fields are filled")
		}
	})

	t.Run("ErrorLeavesDishUnchanged", func(t *testing.T) {
		gen := &mockTextGenerator{err: fmt.Errorf("quota exceeded")}
		a := &App{textGen: gen}

		in := store.Dish{Name: "Eggs"}
		if d := a.AutofillDish(context.Background(), in); d != in {
			t.Errorf("Expected dish unchanged on error, got %+v", d)
		}
	})

	t.Run("NoGenerator", func(t *testing.T) {
		a := &App{}
		in := store.Dish{Name: "Eggs"}
		if d := a.AutofillDish(context.Background(), in); d != in {
			t.Errorf("Expected dish unchanged without a generator, got %+v", d)
		}
	})
}

func TestClipDishRequiresKey(t *testing.T) {
	a := &App{}
	if _, err := a.ClipDish(context.Background(), "https://example.com/pie"); err == nil {
		t.Error("Expected an error without a configured clipper")
	}
}
