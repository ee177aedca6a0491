// Command quarry answers questions about a sales warehouse from a vector
// index of its rows.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/quarry/internal/adapters/driven/config/file"
	"github.com/custodia-labs/quarry/internal/adapters/driving/cli"
)

// version is set at build time with -ldflags "-X main.version=v1.2.3".
var version string

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional
	_ = godotenv.Load()

	dir, err := file.DefaultDir()
	if err != nil {
		return err
	}

	app, err := build(dir)
	if err != nil {
		return err
	}
	defer app.Close()

	cli.SetVersion(version)
	cli.SetServices(app.Services)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.Execute(ctx)
}
