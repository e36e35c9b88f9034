package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/employee_registry/internal/config"
	"github.com/Skotchmaster/employee_registry/internal/credentials"
	"github.com/Skotchmaster/employee_registry/internal/es"
	"github.com/Skotchmaster/employee_registry/internal/httpserver"
	"github.com/Skotchmaster/employee_registry/internal/logging"
	"github.com/Skotchmaster/employee_registry/internal/mykafka"
	"github.com/Skotchmaster/employee_registry/internal/repo"
	"github.com/Skotchmaster/employee_registry/internal/search"
	"github.com/Skotchmaster/employee_registry/internal/service"
	"github.com/Skotchmaster/employee_registry/internal/tokens"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("db init: %v", err)
	}

	store, err := credentials.NewStatic(cfg.AdminUsername, cfg.AdminPassword, cfg.AdminPasswordHash)
	if err != nil {
		log.Fatalf("credentials: %v", err)
	}
	tm, err := tokens.NewManager(tokens.StaticKey(cfg.JWTSecret), cfg.JWTAlgorithm)
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}

	r := &repo.GormRepo{DB: db}
	authSvc := &service.AuthService{Credentials: store, Tokens: tm, TokenTTL: cfg.TokenTTL}
	empSvc := &service.EmployeeService{Repo: r, EventsTopic: cfg.EventsTopic}

	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = mykafka.NewProducer(cfg.KafkaBrokers, []string{cfg.EventsTopic})
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		empSvc.Events = producer
		logger.Info("employee events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.EventsTopic)
	}

	if cfg.ESURL != "" {
		esCtx, esCancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err := es.NewClient(esCtx, cfg)
		if err == nil {
			idx := search.NewEmployeeIndex(client, cfg.ESIndex)
			if err = idx.EnsureIndex(esCtx); err == nil {
				empSvc.Index = idx
			}
		}
		esCancel()
		if err != nil {
			logger.Error("search index disabled", "error", err)
		}
	}

	e := httpserver.NewEcho(logger)
	httpserver.Register(e, &httpserver.Deps{
		EmployeeHandler: &httpserver.EmployeeHTTP{Svc: empSvc},
		AuthHandler:     &httpserver.AuthHTTP{Svc: authSvc},
		Tokens:          authSvc,
		DB:              r,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka close", "error", err)
		}
	}
	if err := config.Close(db); err != nil {
		logger.Error("db close", "error", err)
	}

	logger.Info("stopped")
}
