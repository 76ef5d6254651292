package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/af-corp/chatbot-gateway/internal/auth"
	"github.com/af-corp/chatbot-gateway/internal/config"
	"github.com/af-corp/chatbot-gateway/internal/store"
	"github.com/af-corp/chatbot-gateway/internal/types"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a client and print its API key",
	RunE:  runCreate,
}

func init() {
	f := createCmd.Flags()
	f.StringP("name", "n", "", "client name (required)")
	f.String("email", "", "contact email")
	f.StringP("env", "e", "live", "environment segment of the key")
	f.StringSlice("domains", nil, "allowed widget domains")
	f.String("bot-name", "", "widget bot name")
	f.String("system-prompt", "", "system prompt for this client's sessions")
	f.Int("rpm", 0, "requests per minute (0 uses the server default)")
	f.Int64("daily-tokens", 0, "daily token budget (0 uses the server default)")
	f.String("db-url", "", "database URL (overrides DATABASE_URL and the config file)")
	f.String("config", "configs", "configuration directory")
	createCmd.MarkFlagRequired("name")
}

func runCreate(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	name, _ := f.GetString("name")
	email, _ := f.GetString("email")
	env, _ := f.GetString("env")
	domains, _ := f.GetStringSlice("domains")
	botName, _ := f.GetString("bot-name")
	systemPrompt, _ := f.GetString("system-prompt")
	rpm, _ := f.GetInt("rpm")
	dailyTokens, _ := f.GetInt64("daily-tokens")
	dbURL, _ := f.GetString("db-url")
	configDir, _ := f.GetString("config")

	key, err := auth.GenerateKey(env)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	dsn, err := databaseURL(dbURL, configDir)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	client := &types.Client{
		Name:           name,
		Email:          email,
		APIKeyHash:     auth.HashKey(key),
		KeyPrefix:      auth.KeyPrefix(key),
		AllowedDomains: domains,
		IsActive:       true,
		Config: types.ClientConfig{
			SystemPrompt:      systemPrompt,
			BotName:           botName,
			RequestsPerMinute: rpm,
			DailyTokenBudget:  dailyTokens,
		},
	}
	if err := store.NewPostgresStore(pool).CreateClient(ctx, client); err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "client id:  %s\n", client.ID)
	fmt.Fprintf(out, "name:       %s\n", client.Name)
	fmt.Fprintf(out, "key prefix: %s\n", client.KeyPrefix)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "API key (shown once, store it now):")
	fmt.Fprintf(out, "  %s\n", key)
	return nil
}

func databaseURL(flagURL, configDir string) (string, error) {
	if flagURL != "" {
		return flagURL, nil
	}
	if env := os.Getenv("DATABASE_URL"); env != "" {
		return env, nil
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return "", err
	}
	return cfg.Database.DSN(), nil
}

func loadConfig(configDir string) (*config.Config, error) {
	loader := config.NewLoader(configDir, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	if err := loader.Load(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return loader.Config(), nil
}
