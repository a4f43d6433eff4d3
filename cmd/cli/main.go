package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/glytch/internal/client/cli"
	"github.com/dmitrijs2005/glytch/internal/client/config"
	"github.com/dmitrijs2005/glytch/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := logging.NewTextLogger(os.Stderr, cfg.LogLevel)
	app, err := cli.NewApp(cfg, log)
	if err != nil {
		log.Error(ctx, "start", "error", err)
		os.Exit(1)
	}

	app.Run(ctx)
}
