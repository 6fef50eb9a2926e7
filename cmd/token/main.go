// Command token issues a bearer token for an office operator.
//
//	token -operator luis
//	token -operator maria -role admin
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mmynk/stayledger/internal/auth"
	"github.com/mmynk/stayledger/internal/config"
	"github.com/mmynk/stayledger/pkg/logging"
)

func main() {
	operator := flag.String("operator", "", "operator name carried in the token")
	role := flag.String("role", auth.RoleOperator, "operator or admin")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if *operator == "" {
		slog.Error("Missing -operator")
		flag.Usage()
		os.Exit(2)
	}
	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET is not set")
		os.Exit(1)
	}

	token, err := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration).Generate(*operator, *role)
	if err != nil {
		slog.Error("Failed to issue token", "operator", *operator, "role", *role, "error", err)
		os.Exit(1)
	}
	slog.Info("Token issued", "operator", *operator, "role", *role, "expires_in", cfg.TokenDuration)
	fmt.Println(token)
}
