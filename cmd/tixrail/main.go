package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	_ "github.com/kirinyoku/tix-rail/docs"
	"github.com/kirinyoku/tix-rail/internal/app"
	"github.com/kirinyoku/tix-rail/internal/config"
	httpgin "github.com/kirinyoku/tix-rail/internal/transport/http/gin"
)

// @title TixRail API
// @version 1.0
// @description Rail ticketing engine: timetable administration, seat sales with waiting lists, and journey search.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	token := flag.String("token", "", "print a bearer token for user:role and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of the token printed by -token")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if *token != "" {
		username, role, _ := strings.Cut(*token, ":")
		signed, err := httpgin.IssueToken(cfg.Auth.JWTSecret, username, role, *tokenTTL)
		if err != nil {
			logger.Error("failed to issue token", "error", err)
			os.Exit(1)
		}
		fmt.Println(signed)
		return
	}

	ctx := context.Background()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to create application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application finished with error", "error", err)
		os.Exit(1)
	}
}
