package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/legendary216/DishDeck/internal/app"
	"github.com/legendary216/DishDeck/internal/config"
	"github.com/legendary216/DishDeck/internal/plan"
	"github.com/legendary216/DishDeck/internal/shopping"
	"github.com/legendary216/DishDeck/internal/store"
)

func main() {
	// Missing .env is fine; real env vars take over.
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer application.Close()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	userID, err := application.SignIn(ctx)
	if err != nil {
		log.Fatalf("Sign-in failed: %v", err)
	}
	application.Bootstrap(ctx, userID)

	command, args := os.Args[1], os.Args[2:]
	if err := run(ctx, application, userID, command, args); err != nil {
		if errors.Is(err, plan.ErrSyncBusy) || errors.Is(err, shopping.ErrBusy) {
			log.Fatalf("Another operation is still in flight; try again.")
		}
		log.Fatalf("%s failed: %v", command, err)
	}
}

func run(ctx context.Context, a *app.App, userID, command string, args []string) error {
	switch command {
	case "plan":
		printWeek(a.Plan.Model())
	case "today":
		printDay("Today", a.Plan.Today())
		printDay("Tomorrow", a.Plan.Tomorrow())
	case "shuffle":
		return shuffle(ctx, a, userID, args)
	case "assign":
		return assign(ctx, a, userID, args)
	case "move":
		return move(ctx, a, userID, args)
	case "shop":
		printSections(a.Shopping.Sections())
	case "import":
		return importIngredients(ctx, a, userID, args)
	case "toggle":
		return toggle(ctx, a, userID, args)
	case "clear":
		if err := a.Shopping.ClearAll(ctx, userID); err != nil {
			return err
		}
		fmt.Println("Shopping list cleared.")
	case "dishes":
		printDishes(a.Dishes.Dishes())
	case "add":
		return add(ctx, a, userID, args)
	case "rm":
		return remove(ctx, a, userID, args)
	case "clip":
		return clip(ctx, a, userID, args)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	return nil
}

func shuffle(ctx context.Context, a *app.App, userID string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: dishdeck shuffle <Breakfast|Lunch|Dinner>")
	}
	mealType, err := plan.ParseMealType(args[0])
	if err != nil {
		return err
	}

	model, err := a.Plan.Shuffle(ctx, mealType, userID)
	if err != nil {
		if errors.Is(err, plan.ErrNoCandidates) {
			return fmt.Errorf("no dishes tagged %s; add some first", mealType)
		}
		return err
	}
	printWeek(model)
	return nil
}

func assign(ctx context.Context, a *app.App, userID string, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: dishdeck assign <day> <meal> <dish id>")
	}
	day, err := plan.ParseDay(args[0])
	if err != nil {
		return err
	}
	mealType, err := plan.ParseMealType(args[1])
	if err != nil {
		return err
	}
	dishID, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid dish id %q", args[2])
	}
	if _, err := a.Dishes.Find(dishID); err != nil {
		return err
	}

	if err := a.Plan.AssignSlot(ctx, day, mealType, dishID, userID); err != nil {
		return err
	}
	fmt.Printf("Assigned dish %d to %s %s.\n", dishID, day, mealType)
	return nil
}

func move(ctx context.Context, a *app.App, userID string, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: dishdeck move <source day> <target day> <meal>")
	}
	sourceDay, err := plan.ParseDay(args[0])
	if err != nil {
		return err
	}
	targetDay, err := plan.ParseDay(args[1])
	if err != nil {
		return err
	}
	mealType, err := plan.ParseMealType(args[2])
	if err != nil {
		return err
	}

	if err := a.Plan.MoveSlot(ctx, sourceDay, targetDay, mealType, userID); err != nil {
		return err
	}
	printWeek(a.Plan.Model())
	return nil
}

func importIngredients(ctx context.Context, a *app.App, userID string, args []string) error {
	var day string
	if len(args) > 0 {
		d, err := plan.ParseDay(args[0])
		if err != nil {
			return err
		}
		day = string(d)
	}

	n, err := a.Shopping.Import(ctx, userID, day)
	if err != nil {
		if errors.Is(err, shopping.ErrNothingToImport) {
			return fmt.Errorf("nothing to import: no planned dishes with ingredients in that scope")
		}
		return err
	}
	fmt.Printf("Imported %d items.\n", n)
	printSections(a.Shopping.Sections())
	return nil
}

func toggle(ctx context.Context, a *app.App, userID string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: dishdeck toggle <item id>")
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid item id %q", args[0])
	}

	item, ok := a.Shopping.Item(id)
	if !ok {
		return fmt.Errorf("item %d is not on the shopping list", id)
	}

	if err := a.Shopping.ToggleBought(ctx, userID, id, item.IsBought); err != nil {
		if errors.Is(err, shopping.ErrSyncFailed) {
			return fmt.Errorf("the change did not sync; the item was left as it was")
		}
		return err
	}
	fmt.Printf("Item %d updated.\n", id)
	return nil
}

func add(ctx context.Context, a *app.App, userID string, args []string) error {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	name := addCmd.String("name", "", "Dish name (required)")
	types := addCmd.String("types", "", "Comma-separated meal types, e.g. 'Lunch, Dinner' (required)")
	ingredients := addCmd.String("ingredients", "", "Ingredient list, one per line or comma-separated")
	recipe := addCmd.String("recipe", "", "Preparation steps")
	youtube := addCmd.String("youtube", "", "YouTube link")
	imagePath := addCmd.String("image", "", "Path of a JPEG to upload")
	autofill := addCmd.Bool("autofill", false, "Fill missing ingredients/recipe with AI")
	addCmd.Parse(args)

	d := store.Dish{
		Name:        *name,
		Type:        *types,
		Ingredients: *ingredients,
		Recipe:      *recipe,
		YoutubeLink: *youtube,
	}
	if *autofill {
		d = a.AutofillDish(ctx, d)
	}

	var image []byte
	contentType := ""
	if *imagePath != "" {
		data, err := os.ReadFile(*imagePath)
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
		image, contentType = data, "image/jpeg"
	}

	id, err := a.Dishes.Add(ctx, userID, d, image, contentType)
	if err != nil {
		return err
	}
	fmt.Printf("Added dish %d: %s\n", id, d.Name)
	return nil
}

func remove(ctx context.Context, a *app.App, userID string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: dishdeck rm <dish id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid dish id %q", args[0])
	}

	if err := a.Dishes.Delete(ctx, userID, id); err != nil {
		return err
	}
	fmt.Printf("Removed dish %d.\n", id)
	return nil
}

func clip(ctx context.Context, a *app.App, userID string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: dishdeck clip <recipe url>")
	}

	d, err := a.ClipDish(ctx, args[0])
	if err != nil {
		return err
	}

	id, err := a.Dishes.Add(ctx, userID, d, nil, "")
	if err != nil {
		return err
	}
	fmt.Printf("Clipped '%s' as dish %d.\n", d.Name, id)
	return nil
}

func printWeek(model plan.Model) {
	fmt.Println("=== WEEKLY PLAN ===")
	for _, day := range plan.Days {
		fmt.Printf("%s\n", day)
		for _, mt := range plan.MealTypes {
			if d, ok := model.Dish(mt, day); ok {
				fmt.Printf("  % -10s %s\n", mt+":", d.Name)
			} else {
				fmt.Printf("  % -10s -\n", mt+":")
			}
		}
	}
}

func printDay(title string, view plan.DayView) {
	fmt.Printf("=== %s ===\n", strings.ToUpper(title))
	for _, mt := range plan.MealTypes {
		if d, ok := view[mt]; ok {
			fmt.Printf("% -10s %s\n", mt+":", d.Name)
		} else {
			fmt.Printf("% -10s -\n", mt+":")
		}
	}
}

func printSections(sections []shopping.Section) {
	if len(sections) == 0 {
		fmt.Println("Shopping list is empty.")
		return
	}
	fmt.Println("=== SHOPPING LIST ===")
	for _, section := range sections {
		fmt.Printf("%s\n", section.Title)
		for _, item := range section.Items {
			mark := "[ ]"
			if item.IsBought {
				mark = "[x]"
			}
			fmt.Printf("  %s %s (#%d)\n", mark, item.Item, item.ID)
		}
	}
}

func printDishes(dishes []store.Dish) {
	if len(dishes) == 0 {
		fmt.Println("No dishes yet. Add one with 'dishdeck add'.")
		return
	}
	fmt.Println("=== DISHES ===")
	for _, d := range dishes {
		fmt.Printf("%4d  % -30s %s\n", d.ID, d.Name, d.Type)
	}
}

func printUsage() {
	fmt.Println("Usage: dishdeck <command> [arguments]")
	fmt.Println("\nPlan:")
	fmt.Println("  plan                         Show the weekly plan")
	fmt.Println("  today                        Show today's and tomorrow's meals")
	fmt.Println("  shuffle <meal>               Re-roll a meal row for the whole week")
	fmt.Println("  assign <day> <meal> <dish>   Pin a dish to one slot")
	fmt.Println("  move <src> <tgt> <meal>      Move or swap between two days")
	fmt.Println("\nShopping:")
	fmt.Println("  shop                         Show the shopping list")
	fmt.Println("  import [day]                 Import planned ingredients (whole week without a day)")
	fmt.Println("  toggle <item id>             Mark an item bought or unbought")
	fmt.Println("  clear                        Empty the shopping list")
	fmt.Println("\nDishes:")
	fmt.Println("  dishes                       List the dish library")
	fmt.Println("  add [flags]                  Add a dish (see 'add -h')")
	fmt.Println("  rm <dish id>                 Remove a dish")
	fmt.Println("  clip <url>                   Create a dish from a recipe URL")
}
