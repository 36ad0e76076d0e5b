package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/MegaGrindStone/portfolio-assistant/internal/handlers"
	"github.com/MegaGrindStone/portfolio-assistant/internal/services"
	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional; variables already set in the environment win.
	_ = godotenv.Load()

	cfgPath := flag.String("config", "", "path to the YAML config file (default: <user config dir>/"+appName+"/config.yaml)")
	listOnly := flag.Bool("list-inbox", false, "print the recorded contact submissions, newest first, and exit")
	flag.Parse()

	explicit := *cfgPath != ""
	if !explicit {
		*cfgPath = defaultConfigPath()
	}

	cfg, err := loadConfig(*cfgPath, explicit)
	if err != nil {
		log.Fatal(err)
	}

	if *listOnly {
		if err := listInbox(context.Background(), os.Stdout, cfg.InboxPath); err != nil {
			log.Fatal(err)
		}
		return
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.logLevel()}))

	persona, err := services.NewPersona(cfg.SystemPrompt, time.Now())
	if err != nil {
		log.Fatal(fmt.Errorf("error building persona: %w", err))
	}

	generator, err := cfg.LLM.generator(context.Background(), persona, logger)
	if err != nil {
		log.Fatal(fmt.Errorf("error creating generator: %w", err))
	}

	if err := os.MkdirAll(filepath.Dir(cfg.InboxPath), 0755); err != nil {
		log.Fatal(fmt.Errorf("error creating inbox directory: %w", err))
	}
	inbox, err := services.NewBoltDB(cfg.InboxPath)
	if err != nil {
		log.Fatal(err)
	}
	defer inbox.Close()

	mailer, err := cfg.SMTP.mailer()
	if err != nil {
		log.Fatal(fmt.Errorf("error creating mailer: %w", err))
	}
	if _, ok := mailer.(services.DisabledMailer); ok {
		logger.Warn("SMTP is not configured, contact submissions will only be recorded in the inbox",
			slog.String("inbox", cfg.InboxPath))
	}

	m := handlers.NewMain(generator, mailer, inbox, cfg.handlerOptions(), logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           m.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Channel to listen for errors coming from the listener
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info("Server starting", slog.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("Server error", slog.String("error", err.Error()))

	case sig := <-shutdown:
		logger.Info("Start shutdown", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed", slog.String("error", err.Error()))
			if err := srv.Close(); err != nil {
				logger.Error("Forcing server close", slog.String("error", err.Error()))
			}
		}
	}
}
