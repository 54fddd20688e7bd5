package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"fundvault/config"
	"fundvault/core/events"
	"fundvault/native/arbitration"
	"fundvault/native/fundme"
	"fundvault/native/token"
	"fundvault/observability/logging"
	"fundvault/state"
	"fundvault/storage"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "fundvault.toml", "path to the gateway configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(logging.Options{
		Service:     "fundme-gateway",
		Environment: cfg.Environment,
		Level:       os.Getenv("LOG_LEVEL"),
	})

	db, err := openDatabase(cfg.DataDir)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ledger := state.NewLedger(db)
	vault := state.VaultAddress("escrow")
	native := token.NewNativeMover(ledger, vault)
	registry := token.NewRegistry()
	for _, symbol := range cfg.Assets {
		mover, err := token.NewLedgerMover(ledger, vault, symbol)
		if err != nil {
			logger.Error("build asset mover", "symbol", symbol, "error", err)
			os.Exit(1)
		}
		if err := registry.Register(mover); err != nil {
			logger.Error("register asset", "symbol", symbol, "error", err)
			os.Exit(1)
		}
	}

	arb := arbitration.NewCentralized(state.VaultAddress("arbitrator"), big.NewInt(10), cfg.FundMe.AppealWindow)

	eventLog := events.NewLog()

	params := fundme.Params{
		CreateTransactionFee: cfg.CreationFee(),
		MaxMilestones:        cfg.FundMe.MaxMilestones,
		FeeDepositTimeout:    cfg.FundMe.FeeDepositTimeout,
		AppealWindow:         cfg.FundMe.AppealWindow,
		SplitBps:             cfg.FundMe.SplitBps,
		DefaultWithdrawGrace: cfg.FundMe.DefaultWithdrawGrace,
	}

	engine := fundme.NewEngine()
	engine.SetState(ledger)
	engine.SetRegistry(registry)
	engine.SetNativeMover(native)
	engine.SetArbitrator(arb)
	engine.SetEmitter(eventLog)
	engine.SetFeeTreasury(state.VaultAddress("treasury"))
	if err := engine.SetParams(params); err != nil {
		logger.Error("configure fundme engine", "error", err)
		os.Exit(1)
	}

	direct := fundme.NewDirectEngine()
	direct.SetState(ledger)
	direct.SetRegistry(registry)
	direct.SetNativeMover(native)
	direct.SetArbitrator(arb)
	direct.SetEmitter(eventLog)
	if err := direct.SetParams(params); err != nil {
		logger.Error("configure direct engine", "error", err)
		os.Exit(1)
	}

	server := NewServer(engine, direct, arb, ledger, native, eventLog, logger)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("gateway listening", "address", cfg.ListenAddress)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("gateway stopped")
}

func openDatabase(dataDir string) (storage.Database, error) {
	if dataDir == "" {
		return storage.NewMemDB(), nil
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	return storage.NewLevelDB(filepath.Join(dataDir, "ledger"))
}
