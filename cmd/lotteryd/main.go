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

	"lottochain/config"
	"lottochain/native/lottery"
	"lottochain/native/rewardstake"
	"lottochain/observability/logging"
	"lottochain/observability/metrics"
	"lottochain/rpc"
	"lottochain/state"
	"lottochain/storage"
)

func main() {
	configPath := flag.String("config", "./lotteryd.toml", "path to the daemon configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Setup("lotteryd", "").Error("load config", "err", err)
		os.Exit(1)
	}
	logger := logging.Setup("lotteryd", cfg.Env)

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("open database", "path", cfg.DataDir, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	manager.AuthorizeSoulboundDest(cfg.Vault())

	emitter := metrics.NewEmitter(nil)

	lotto := lottery.NewEngine()
	lotto.SetState(manager)
	lotto.SetPauses(manager)
	lotto.SetEmitter(emitter)
	lotto.SetAdmin(cfg.Admin())
	lotto.SetOracle(cfg.Oracle())
	lotto.SetVault(cfg.Vault())
	if err := lotto.SetEntropyMode(cfg.Admin(), cfg.EntropyModeValue()); err != nil {
		logger.Error("set entropy mode", "err", err)
		os.Exit(1)
	}
	if err := lotto.Bootstrap(cfg.Admin()); err != nil {
		logger.Error("bootstrap lottery tiers", "err", err)
		os.Exit(1)
	}

	staking := rewardstake.NewEngine()
	staking.SetState(manager)
	staking.SetPauses(manager)
	staking.SetEmitter(emitter)
	staking.SetAdmin(cfg.Admin())
	params, err := cfg.Staking.Params()
	if err != nil {
		logger.Error("staking params", "err", err)
		os.Exit(1)
	}
	if err := staking.SetParams(cfg.Admin(), params); err != nil {
		logger.Error("apply staking params", "err", err)
		os.Exit(1)
	}

	queryServer := rpc.NewServer(rpc.Config{
		Lottery: lotto,
		Staking: staking,
		RateLimit: rpc.RateLimit{
			RequestsPerSecond: cfg.RPCRateLimit,
			Burst:             cfg.RPCRateBurst,
		},
		Logger: logger,
	})
	rpcSrv := &http.Server{
		Addr:              cfg.RPCAddress,
		Handler:           queryServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var metricsSrv *http.Server
	if cfg.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddress,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("rpc listening", "addr", cfg.RPCAddress)
		if err := rpcSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	if metricsSrv != nil {
		go func() {
			logger.Info("metrics listening", "addr", cfg.MetricsAddress)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		logger.Error("server failed", "err", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rpcSrv.Shutdown(ctx); err != nil {
		logger.Error("rpc shutdown", "err", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logger.Error("metrics shutdown", "err", err)
		}
	}
}
