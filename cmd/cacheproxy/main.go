package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/storykeeper/internal/logging"
	"github.com/dmitrijs2005/storykeeper/internal/proxy"
)

func main() {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := proxy.LoadConfig()
	logger := logging.NewDefault()

	srv := proxy.NewServer(cfg, logger)
	srv.Install(ctx)
	srv.Activate(ctx)

	go srv.StartProbe(ctx, cfg.ProbeInterval)

	httpSrv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info(ctx, "cache proxy listening", "addr", cfg.ListenAddr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("%v", err)
	}

}
