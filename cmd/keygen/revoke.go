package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/af-corp/chatbot-gateway/internal/auth"
	"github.com/af-corp/chatbot-gateway/internal/store"
)

var revokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Deactivate a client key and drop it from the auth cache",
	RunE:  runRevoke,
}

func init() {
	f := revokeCmd.Flags()
	f.StringP("key", "k", "", "raw API key to revoke")
	f.String("hash", "", "SHA-256 hash of the key, when the raw key is gone")
	f.String("redis-addr", "", "redis address of the auth cache (defaults to the config file)")
	f.String("db-url", "", "database URL (overrides DATABASE_URL and the config file)")
	f.String("config", "configs", "configuration directory")
	revokeCmd.MarkFlagsOneRequired("key", "hash")
	revokeCmd.MarkFlagsMutuallyExclusive("key", "hash")
}

func runRevoke(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	key, _ := f.GetString("key")
	hash, _ := f.GetString("hash")
	redisAddr, _ := f.GetString("redis-addr")
	dbURL, _ := f.GetString("db-url")
	configDir, _ := f.GetString("config")
	if key != "" {
		hash = auth.HashKey(key)
	}

	dsn, err := databaseURL(dbURL, configDir)
	if err != nil {
		return err
	}
	if redisAddr == "" {
		if cfg, err := loadConfig(configDir); err == nil && len(cfg.Redis.Addresses) > 0 {
			redisAddr = cfg.Redis.Addresses[0]
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	var rdb *redis.Client
	if redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: redisAddr})
		defer rdb.Close()
	}

	clients := auth.NewCachedClientStore(store.NewPostgresStore(pool), rdb, 0)
	if err := clients.Revoke(ctx, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no active client for key hash %s", hash)
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "revoked:    %s\n", hash)
	if rdb == nil {
		fmt.Fprintln(out, "auth cache: not configured, cached entries expire with their TTL")
	}
	return nil
}
