package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// RecipeDraft is the autofill payload for a named dish.
type RecipeDraft struct {
	Ingredients []string `json:"ingredients"`
	Recipe      string   `json:"recipe"`
}

// GenerateRecipeText asks the model for ingredients and preparation steps
// for a dish name. Best effort: callers leave their fields unchanged on
// error.
func GenerateRecipeText(ctx context.Context, gen TextGenerator, dishName string) (RecipeDraft, error) {
	prompt := fmt.Sprintf(`
You are a home-cooking assistant. Write a simple recipe for "%s".
Return the result strictly as a JSON object with this structure:
{
  "ingredients": ["item 1", "item 2", ...],
  "recipe": "Numbered preparation steps as plain text."
}
`, dishName)

	out, err := gen.GenerateContent(ctx, prompt)
	if err != nil {
		return RecipeDraft{}, fmt.Errorf("autofill failed: %w", err)
	}

	var draft RecipeDraft
	if err := json.Unmarshal([]byte(stripFences(out)), &draft); err != nil {
		return RecipeDraft{}, fmt.Errorf("failed to parse autofill response: %w. Response: %s", err, out)
	}
	return draft, nil
}

// IngredientsText renders the draft's ingredients in the one-per-line form
// the dish field stores.
func (d RecipeDraft) IngredientsText() string {
	return strings.Join(d.Ingredients, "\n")
}

// stripFences removes a markdown code fence the model sometimes wraps JSON
// in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
