// Package app wires the remote store, local cache and the domain services
// into one application instance.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/legendary216/DishDeck/internal/cache"
	"github.com/legendary216/DishDeck/internal/clipper"
	"github.com/legendary216/DishDeck/internal/config"
	"github.com/legendary216/DishDeck/internal/dish"
	"github.com/legendary216/DishDeck/internal/llm"
	"github.com/legendary216/DishDeck/internal/plan"
	"github.com/legendary216/DishDeck/internal/shopping"
	"github.com/legendary216/DishDeck/internal/store"
)

// App holds the application's dependencies. There is exactly one weekly-plan
// model per App, owned by the Synchronizer.
type App struct {
	cfg   *config.Config
	cache *cache.Store
	store *store.Supabase

	Dishes   *dish.Service
	Plan     *plan.Synchronizer
	Shopping *shopping.Aggregator
	Clipper  *clipper.Clipper

	textGen llm.TextGenerator
	closers []llm.Closer
}

// New builds the full dependency graph. A Gemini key is optional: without
// one the clipper is nil and autofill is unavailable.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	cacheStore, err := cache.Open(cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	supabase := store.NewSupabase(cfg, cacheStore)

	a := &App{
		cfg:      cfg,
		cache:    cacheStore,
		store:    supabase,
		Dishes:   dish.NewService(supabase, cacheStore),
		Plan:     plan.NewSynchronizer(supabase, cacheStore),
		Shopping: shopping.NewAggregator(supabase, cacheStore),
	}

	if cfg.GeminiAPIKey != "" {
		textGen, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to init Gemini: %w", err)
		}
		a.textGen = textGen
		if closer, ok := textGen.(llm.Closer); ok {
			a.closers = append(a.closers, closer)
		}
		a.Clipper = clipper.NewClipper(textGen)
	}

	return a, nil
}

// Close releases held resources.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			log.Printf("Warning: failed to close resource: %v", err)
		}
	}
	if err := a.cache.Close(); err != nil {
		log.Printf("Warning: failed to close cache: %v", err)
	}
}

// SignIn ensures an authenticated user, running the password flow when no
// restored session is usable, and returns the user id.
func (a *App) SignIn(ctx context.Context) (string, error) {
	if userID, err := a.store.CurrentUser(); err == nil {
		return userID, nil
	}

	if a.cfg.SupabaseEmail == "" || a.cfg.SupabasePassword == "" {
		return "", fmt.Errorf("no stored session and no credentials: %w", store.ErrNoUser)
	}
	if err := a.store.SignIn(ctx, a.cfg.SupabaseEmail, a.cfg.SupabasePassword); err != nil {
		return "", fmt.Errorf("sign-in failed: %w", err)
	}
	return a.store.CurrentUser()
}

// Bootstrap paints every view from cache, then refreshes them remotely.
// Cache hits make the refresh failures non-fatal; the stale views stand
// until the next successful sync.
func (a *App) Bootstrap(ctx context.Context, userID string) {
	a.Dishes.LoadCached()
	a.Plan.LoadCached()
	a.Shopping.LoadCached()

	if _, err := a.Dishes.Refresh(ctx, userID); err != nil {
		log.Printf("Warning: dish refresh failed, using cached library: %v", err)
	}
	if _, err := a.Plan.RefetchAll(ctx, userID); err != nil {
		log.Printf("Warning: plan refetch failed, using cached plan: %v", err)
	}
	if _, err := a.Shopping.Refresh(ctx, userID); err != nil {
		log.Printf("Warning: shopping refresh failed, using cached list: %v", err)
	}
}

// AutofillDish fills empty ingredient and recipe fields from the model.
// Best effort: on error or without a Gemini key the dish is returned
// unchanged.
func (a *App) AutofillDish(ctx context.Context, d store.Dish) store.Dish {
	if a.textGen == nil {
		return d
	}
	if d.Ingredients != "" && d.Recipe != "" {
		return d
	}

	draft, err := llm.GenerateRecipeText(ctx, a.textGen, d.Name)
	if err != nil {
		log.Printf("Warning: autofill for '%s' failed: %v", d.Name, err)
		return d
	}
	if d.Ingredients == "" {
		d.Ingredients = draft.IngredientsText()
	}
	if d.Recipe == "" {
		d.Recipe = draft.Recipe
	}
	return d
}

// ClipDish turns a recipe URL into a dish prefill. Requires a Gemini key.
func (a *App) ClipDish(ctx context.Context, url string) (store.Dish, error) {
	if a.Clipper == nil {
		return store.Dish{}, fmt.Errorf("clipping requires GEMINI_API_KEY")
	}
	return a.Clipper.ClipURL(ctx, url)
}
