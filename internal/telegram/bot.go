// Package telegram is the companion bot: read-only plan views plus the
// shuffle, import, toggle and clear operations over chat commands.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/legendary216/DishDeck/internal/app"
	"github.com/legendary216/DishDeck/internal/config"
	"github.com/legendary216/DishDeck/internal/plan"
	"github.com/legendary216/DishDeck/internal/shopping"
)

// Bot wraps the Telegram API and the DishDeck application.
type Bot struct {
	api    *tgbotapi.BotAPI
	app    *app.App
	userID string
}

// NewBot initializes the Telegram Bot and sets the Webhook. userID is the
// signed-in Supabase user all commands act for.
func NewBot(cfg *config.Config, application *app.App, userID string) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{api: bot, app: application, userID: userID}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}
	if update.Message == nil {
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx := context.Background()

	fields := strings.Fields(msg.Text)
	if len(fields) == 0 {
		return
	}
	command, args := fields[0], fields[1:]

	var reply string
	switch command {
	case "/start", "/help":
		reply = helpText
	case "/today":
		reply = b.dayReport(ctx, "Today")
	case "/tomorrow":
		reply = b.dayReport(ctx, "Tomorrow")
	case "/week":
		reply = b.weekReport(ctx)
	case "/shuffle":
		reply = b.shuffle(ctx, args)
	case "/import":
		reply = b.importIngredients(ctx, args)
	case "/shop":
		reply = b.shopReport(ctx)
	case "/toggle":
		reply = b.toggle(ctx, args)
	case "/clear":
		reply = b.clear(ctx)
	default:
		reply = "Unknown command. Send /help for the list."
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, reply)
	out.ParseMode = "Markdown"
	if _, err := b.api.Send(out); err != nil {
		log.Printf("Failed to send reply: %v", err)
	}
}

const helpText = `🍽 *DishDeck*

/today — today's meals
/tomorrow — tomorrow's meals
/week — the full weekly plan
/shuffle <meal> — re-roll a meal row for the week
/import [day] — add planned ingredients to the shopping list
/shop — show the shopping list
/toggle <id> — mark an item bought or unbought
/clear — empty the shopping list`

func (b *Bot) dayReport(ctx context.Context, title string) string {
	if _, err := b.app.Plan.RefetchAll(ctx, b.userID); err != nil {
		log.Printf("Warning: refetch before %s view failed, using local model: %v", title, err)
	}
	view := b.app.Plan.Today()
	if title == "Tomorrow" {
		view = b.app.Plan.Tomorrow()
	}
	return formatDayView(title, view)
}

func formatDayView(title string, view plan.DayView) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 *%s*\n\n", title))
	for _, mt := range plan.MealTypes {
		if dish, ok := view[mt]; ok {
			sb.WriteString(fmt.Sprintf("*%s*: %s\n", mt, dish.Name))
		} else {
			sb.WriteString(fmt.Sprintf("*%s*: —\n", mt))
		}
	}
	return sb.String()
}

func (b *Bot) weekReport(ctx context.Context) string {
	model, err := b.app.Plan.RefetchAll(ctx, b.userID)
	if err != nil {
		log.Printf("Warning: refetch before week view failed, using local model: %v", err)
		model = b.app.Plan.Model()
	}
	return formatWeek(model)
}

func formatWeek(model plan.Model) string {
	var sb strings.Builder
	sb.WriteString("📅 *Weekly Plan*\n\n")
	for _, day := range plan.Days {
		sb.WriteString(fmt.Sprintf("*%s*\n", day))
		for _, mt := range plan.MealTypes {
			if dish, ok := model.Dish(mt, day); ok {
				sb.WriteString(fmt.Sprintf("  %s: %s\n", mt, dish.Name))
			}
		}
	}
	return sb.String()
}

func (b *Bot) shuffle(ctx context.Context, args []string) string {
	if len(args) != 1 {
		return "Usage: /shuffle <Breakfast|Lunch|Dinner>"
	}
	mealType, err := plan.ParseMealType(args[0])
	if err != nil {
		return err.Error()
	}

	if _, err := b.app.Plan.Shuffle(ctx, mealType, b.userID); err != nil {
		switch {
		case errors.Is(err, plan.ErrNoCandidates):
			return fmt.Sprintf("No dishes tagged *%s* yet. Add some first.", mealType)
		case errors.Is(err, plan.ErrSyncBusy):
			return "Another plan change is still running. Try again in a moment."
		default:
			return fmt.Sprintf("❌ Shuffle failed: %v", err)
		}
	}
	return fmt.Sprintf("🔀 *%s* re-rolled for the whole week. Send /week to see it.", mealType)
}

func (b *Bot) importIngredients(ctx context.Context, args []string) string {
	var day string
	if len(args) > 0 {
		d, err := plan.ParseDay(args[0])
		if err != nil {
			return err.Error()
		}
		day = string(d)
	}

	n, err := b.app.Shopping.Import(ctx, b.userID, day)
	if err != nil {
		switch {
		case errors.Is(err, shopping.ErrNothingToImport):
			return "Nothing to import: no planned dishes with ingredients in that scope."
		case errors.Is(err, shopping.ErrBusy):
			return "Another shopping change is still running. Try again in a moment."
		default:
			return fmt.Sprintf("❌ Import failed: %v", err)
		}
	}
	return fmt.Sprintf("🛒 Added *%d* items. Send /shop to see the list.", n)
}

func (b *Bot) shopReport(ctx context.Context) string {
	sections, err := b.app.Shopping.Refresh(ctx, b.userID)
	if err != nil {
		log.Printf("Warning: shopping refresh failed, using local list: %v", err)
		sections = b.app.Shopping.Sections()
	}
	return formatSections(sections)
}

func formatSections(sections []shopping.Section) string {
	if len(sections) == 0 {
		return "🛒 The shopping list is empty."
	}

	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n")
	for _, section := range sections {
		sb.WriteString(fmt.Sprintf("\n*%s*\n", section.Title))
		for _, item := range section.Items {
			mark := "⬜"
			if item.IsBought {
				mark = "✅"
			}
			sb.WriteString(fmt.Sprintf("%s %s (#%d)\n", mark, item.Item, item.ID))
		}
	}
	return sb.String()
}

func (b *Bot) toggle(ctx context.Context, args []string) string {
	if len(args) != 1 {
		return "Usage: /toggle <item id>"
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil {
		return "Usage: /toggle <item id>"
	}

	item, ok := b.app.Shopping.Item(id)
	if !ok {
		return fmt.Sprintf("Item #%d is not on the list. Send /shop to see the ids.", id)
	}

	if err := b.app.Shopping.ToggleBought(ctx, b.userID, id, item.IsBought); err != nil {
		if errors.Is(err, shopping.ErrSyncFailed) {
			return "⚠️ That change did not sync; the item was left as it was."
		}
		return fmt.Sprintf("❌ Toggle failed: %v", err)
	}
	return fmt.Sprintf("Item #%d updated.", id)
}

func (b *Bot) clear(ctx context.Context) string {
	if err := b.app.Shopping.ClearAll(ctx, b.userID); err != nil {
		if errors.Is(err, shopping.ErrBusy) {
			return "Another shopping change is still running. Try again in a moment."
		}
		return fmt.Sprintf("❌ Clear failed: %v", err)
	}
	return "🧹 Shopping list cleared."
}
