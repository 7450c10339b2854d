package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/memementor/embedding-service/internal/cmd/serve"
	"github.com/urfave/cli/v3"
)

func main() {
	// Optional .env for local development; env vars win over file values.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "embedding-service",
		Usage: "HTTP facade over pre-loaded text embedding models",
		Commands: []*cli.Command{
			serve.Command(),
		},
	}
	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
