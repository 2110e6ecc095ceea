// Command mktoken mints an API access token for a user. The plain token is
// printed once; only its hash is stored.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/recoleo/recoleo/internal/app"
	"github.com/recoleo/recoleo/internal/auth"
	"github.com/recoleo/recoleo/internal/platform/db"
)

func main() {
	userID := flag.Int64("user", 0, "user id the token authenticates as")
	name := flag.String("name", "cli", "label stored with the token")
	ttl := flag.Duration("ttl", 0, "token lifetime, 0 means no expiry")
	flag.Parse()

	if *userID <= 0 {
		fmt.Fprintln(os.Stderr, "usage: mktoken -user <id> [-name <label>] [-ttl <duration>]")
		os.Exit(2)
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		slog.Default().Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	service := auth.NewService(auth.NewRepository(pool))
	plain, err := service.Issue(ctx, *userID, *name, *ttl)
	if err != nil {
		slog.Default().Error("issue token", slog.Any("error", err))
		os.Exit(1)
	}
	fmt.Println(plain)
}
