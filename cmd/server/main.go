package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pyquest/internal/config"
	"pyquest/internal/handlers"
	"pyquest/internal/interpreter"
	"pyquest/internal/logx"
	"pyquest/internal/repository"
	"pyquest/internal/service"
	"pyquest/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logx.InitGlobalLogger(cfg.IsDevelopment() || cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := repository.OpenBackend(ctx, cfg)
	if err != nil {
		logx.Fatal(err, "Failed to open storage", "type", cfg.DatabaseType)
	}
	defer backend.Close()

	// Words added from the dashboard on earlier runs
	blocklist := validation.NewBlocklist()
	if backend.BadWords != nil {
		words, err := backend.BadWords.List(ctx)
		if err != nil {
			logx.Fatal(err, "Failed to load blocked words")
		}
		blocklist.Add(words...)
	}

	registry := service.NewLedgerRegistry(backend.Stores, service.LedgerConfig{
		MaxUsers: cfg.MaxUsers,
		Policy: validation.PasswordPolicy{
			MinLength:  cfg.PasswordMinLen,
			MinClasses: cfg.PasswordClasses,
		},
		Blocklist: blocklist,
	})

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.ResetNotifyEmail)
	if err != nil {
		logx.Fatal(err, "Failed to initialize email service")
	}
	resets := service.NewResetService(registry, emailService, cfg.ResetCodeTTL)

	lessons, err := service.LoadLessonService(cfg.LessonsPath, interpreter.DefaultRunner)
	if err != nil {
		logx.Fatal(err, "Failed to load lessons", "path", cfg.LessonsPath)
	}

	if cfg.AdminToken == "" {
		logx.Warn("ADMIN_TOKEN is not set; the teacher dashboard is disabled")
	}

	router := handlers.NewRouter(ctx, &handlers.Deps{
		Config:   cfg,
		Registry: registry,
		Resets:   resets,
		Lessons:  lessons,
		BadWords: backend.BadWords,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logx.Info("Server starting", "addr", server.Addr, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed")
		}
	}()

	<-ctx.Done()
	logx.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Graceful shutdown failed")
	}
}
