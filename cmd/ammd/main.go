package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nftamm/config"
	"nftamm/core/state"
	"nftamm/native/amm"
	nativecommon "nftamm/native/common"
	"nftamm/observability/logging"
	"nftamm/rpc"
	"nftamm/storage"
)

func main() {
	configPath := flag.String("config", "./config.toml", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Setup("ammd", "").Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup("ammd", cfg.Env)

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("open database", "path", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	pauses := nativecommon.StaticPauses{}
	for _, module := range cfg.PausedModules {
		pauses[module] = true
	}

	engine := amm.NewEngine()
	engine.SetState(state.NewManager(db))
	engine.SetLogger(logger)
	engine.SetPauses(pauses)
	if cfg.KeepAliveBalance > 0 {
		engine.SetKeepAliveBalance(cfg.KeepAliveBalance)
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: cfg.MetricsAddress, Handler: metricsMux}
	go func() {
		logger.Info("metrics listener started", "address", cfg.MetricsAddress)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener failed", "error", err)
		}
	}()

	apiSrv := &http.Server{Addr: cfg.APIAddress, Handler: rpc.NewServer(engine, logger).Handler()}
	go func() {
		logger.Info("settlement api started", "address", cfg.APIAddress)
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("settlement api failed", "error", err)
		}
	}()

	logger.Info("settlement engine ready", "data_dir", cfg.DataDir)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiSrv.Shutdown(ctx); err != nil {
		logger.Error("settlement api shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(ctx); err != nil {
		logger.Error("metrics listener shutdown", "error", err)
	}
}
