package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go-tradesim/internal/api"
	"go-tradesim/internal/common"
	"go-tradesim/internal/config"
	"go-tradesim/internal/ledger"
	"go-tradesim/internal/market"
	"go-tradesim/internal/util"
	"go-tradesim/internal/ws"
	"go-tradesim/pkg/models"
)

func main() {
	configPath := flag.String("config", common.DefaultConfigPath, "Path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Set global log level from config
	switch cfg.LogLevel {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		log.Fatal().Str("log_level", cfg.LogLevel).Msg("Invalid log level in config, use: debug, info, warn, error")
	}

	// Configure logger
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	logger := util.NewLogger()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	registry := market.NewRegistry()
	market.Seed(registry, cfg.Pairs, rng, time.Now())

	book := ledger.NewLedger(registry)
	for _, u := range cfg.Users {
		book.SeedUser(models.User{ID: u.ID, Username: u.Username, Balance: u.Balance})
	}

	hub := ws.NewHub(registry, cfg.GetClientSendBufferSize())

	simulator := market.NewSimulator(registry, hub, cfg.GetSimulatorInterval(), rng)
	monitor := ledger.NewMonitor(book, registry, hub, cfg.GetLiquidationScanInterval())
	simulator.Start()
	monitor.Start()

	handler := api.NewHandler(registry, book, hub)
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:    serverAddr,
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("Starting HTTP server", "address", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(err, common.ErrCodeHTTPServeFailed, common.ErrMsgHTTPServeFailed, "HTTP serve failed")
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutting down server...")
	simulator.Stop()
	monitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error(err, common.ErrCodeHTTPServeFailed, common.ErrMsgHTTPServeFailed, "HTTP shutdown failed")
	}
	logger.Info("Server stopped gracefully")
}
