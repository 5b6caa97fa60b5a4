package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"opertrack.org/internal/ai"
	"opertrack.org/internal/config"
	"opertrack.org/internal/httpapi"
	"opertrack.org/internal/mail"
	"opertrack.org/internal/obs"
	"opertrack.org/internal/store/pg"
)

var version = "1.2.0"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("OPERTRACK_COMMIT"))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	store, err := pg.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	mailer, err := mail.NewSender(cfg.SMTP)
	if err != nil && !errors.Is(err, mail.ErrNotConfigured) {
		log.Fatalf("mail: %v", err)
	}

	var analyzer ai.Analyzer
	if client, err := ai.NewClient(cfg.AI, &http.Client{Timeout: 60 * time.Second}); err == nil {
		analyzer = client
	}

	api := httpapi.New(cfg, store, mailer, analyzer, version)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second, // report rendering can be slow
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("starting opertrack-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("stopped")
}
