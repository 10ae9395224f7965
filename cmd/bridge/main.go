package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/chainsafe/billing-bridge/pkg/app"
	"github.com/chainsafe/billing-bridge/pkg/app/bridge"
	"github.com/chainsafe/billing-bridge/pkg/config"
)

var (
	configPath = flag.String("config", "config.yaml", "Path to configuration file")
	envFile    = flag.String("env", ".env", "Optional .env file loaded before the config is expanded")
)

func main() {
	flag.Parse()

	// A missing .env file is fine; the environment may already be set.
	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var runner app.Runner = bridge.NewServer(cfg)
	if err := runner.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "billing bridge exited: %v\n", err)
		os.Exit(1)
	}
}
