package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/openbooks-dev/openbooks/internal/commands"
)

func main() {
	// Optional .env for local overrides; see config.EnvDSN and
	// config.EnvBrokers.
	_ = godotenv.Load()

	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
