package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/storykeeper/internal/client/cli"
	"github.com/dmitrijs2005/storykeeper/internal/client/config"
	"github.com/dmitrijs2005/storykeeper/internal/logging"
)

func main() {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.LoadConfig()
	logger := logging.NewDefault()

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}
