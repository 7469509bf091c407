package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the configuration for the application.
type Config struct {
	SupabaseURL     string
	SupabaseAnonKey string

	// Credentials for the password sign-in flow (CLI and bot run headless).
	SupabaseEmail    string
	SupabasePassword string

	// Gemini is optional; autofill and the clipper degrade to no-ops without it.
	GeminiAPIKey string

	// Path of the local mirror-cache database.
	CachePath string

	// Telegram Config (required for the bot binary only)
	TelegramBotToken   string
	TelegramWebhookURL string
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	supabaseURL := os.Getenv("SUPABASE_URL")
	if supabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL environment variable not set")
	}

	supabaseAnonKey := os.Getenv("SUPABASE_ANON_KEY")
	if supabaseAnonKey == "" {
		return nil, fmt.Errorf("SUPABASE_ANON_KEY environment variable not set")
	}

	cachePath := os.Getenv("DISHDECK_CACHE_PATH")
	if cachePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory for cache path: %w", err)
		}
		cachePath = filepath.Join(home, ".dishdeck", "cache.db")
	}

	return &Config{
		SupabaseURL:        supabaseURL,
		SupabaseAnonKey:    supabaseAnonKey,
		SupabaseEmail:      os.Getenv("SUPABASE_EMAIL"),
		SupabasePassword:   os.Getenv("SUPABASE_PASSWORD"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		CachePath:          cachePath,
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),
	}, nil
}
