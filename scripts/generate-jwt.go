//go:build ignore

// This script generates an operator token for the bridge's sync endpoints.
// Run with: go run scripts/generate-jwt.go -config config.yaml -sub alice

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/chainsafe/billing-bridge/pkg/auth"
	"github.com/chainsafe/billing-bridge/pkg/config"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "Path to configuration file")
	subject := flag.String("sub", "operator", "Operator name recorded on manual sync runs")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	token, err := auth.NewJWTValidator(cfg.Auth).IssueToken(*subject, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
