package main

import (
	"log/slog"

	"github.com/joho/godotenv"

	"github.com/vietddude/resilience/internal/cli"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found")
	}
	cli.Execute()
}
