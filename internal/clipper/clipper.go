// Package clipper turns a recipe URL into a dish prefill ready for review.
package clipper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/legendary216/DishDeck/internal/llm"
	"github.com/legendary216/DishDeck/internal/store"
)

// Clipper handles fetching and extracting recipes from URLs.
type Clipper struct {
	textGen    llm.TextGenerator
	httpClient *http.Client
}

// ExtractedRecipe represents the data structured by the AI.
type ExtractedRecipe struct {
	Title       string   `json:"title"`
	MealTypes   []string `json:"meal_types"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
}

// NewClipper creates a new Clipper instance.
func NewClipper(textGen llm.TextGenerator) *Clipper {
	return &Clipper{
		textGen:    textGen,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// ClipURL fetches the URL, extracts the recipe using AI, and returns a dish
// prefill. The dish is not saved; the caller reviews and adds it.
func (c *Clipper) ClipURL(ctx context.Context, url string) (store.Dish, error) {
	content, err := c.fetchAndCleanHTML(url)
	if err != nil {
		return store.Dish{}, fmt.Errorf("failed to fetch content: %w", err)
	}

	prompt := fmt.Sprintf(`
You are a recipe extraction expert. Extract the recipe details from the following page content.
Return the result strictly as a JSON object with this structure:
{
  "title": "Recipe Title",
  "meal_types": ["Breakfast" and/or "Lunch" and/or "Dinner"],
  "ingredients": ["item 1", "item 2", ...],
  "steps": ["Step 1 description", "Step 2 description", ...]
}

Page Content:
%s
`, content)

	llmResponse, err := c.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return store.Dish{}, fmt.Errorf("ai extraction failed: %w", err)
	}

	var extracted ExtractedRecipe
	if err := json.Unmarshal([]byte(llmResponse), &extracted); err != nil {
		return store.Dish{}, fmt.Errorf("failed to parse AI response: %w. Response: %s", err, llmResponse)
	}
	if extracted.Title == "" {
		return store.Dish{}, fmt.Errorf("no recipe found at %s", url)
	}

	return toDish(extracted, url), nil
}

func (c *Clipper) fetchAndCleanHTML(url string) (string, error) {
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	return doc.Find("body").Text(), nil
}

// toDish maps the extraction onto the dish fields: one ingredient per line,
// numbered steps, tags defaulting to Dinner when the model offered none.
func toDish(r ExtractedRecipe, sourceURL string) store.Dish {
	types := r.MealTypes
	if len(types) == 0 {
		types = []string{"Dinner"}
	}

	var sb strings.Builder
	for i, step := range r.Steps {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, step)
	}
	sb.WriteString(fmt.Sprintf("\nSource: %s", sourceURL))

	return store.Dish{
		Name:        r.Title,
		Type:        strings.Join(types, ", "),
		Ingredients: strings.Join(r.Ingredients, "\n"),
		Recipe:      sb.String(),
	}
}
