// Command tenebrad is the node process entrypoint: it wires every
// component together and serves the HTTP API until terminated.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/allymonies/tenebra/config"
	"github.com/allymonies/tenebra/core/address"
	"github.com/allymonies/tenebra/core/block"
	"github.com/allymonies/tenebra/core/names"
	"github.com/allymonies/tenebra/core/staking"
	"github.com/allymonies/tenebra/core/tx"
	"github.com/allymonies/tenebra/events"
	"github.com/allymonies/tenebra/faststate"
	"github.com/allymonies/tenebra/httpapi"
	"github.com/allymonies/tenebra/scheduler"
	"github.com/allymonies/tenebra/store"
	"github.com/allymonies/tenebra/ulogger"
	"github.com/ordishs/gocore"
)

const progname = "tenebrad"

var version string
var commit string

func init() {
	gocore.SetInfo(progname, version, commit)
}

func main() {
	logger := ulogger.New(progname)
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := store.New(ctx, logger, cfg.StoreURL)
	if err != nil {
		logger.Fatalf("failed to open store: %v", err)
	}
	defer s.Close()

	fast := faststate.New(cfg.MaxWork, cfg.MiningEnabled, cfg.StakingEnabled)

	bus := events.NewBus(logger)
	go bus.Run(ctx)

	ledger := address.New(s, logger)
	nameRegistry := names.New(s, ledger, bus, cfg.Constants, logger)
	txEngine := tx.New(s, ledger, nameRegistry, bus, logger)
	blockEngine := block.New(s, fast, ledger, bus, block.Config{
		NonceMaxSize:        cfg.NonceMaxSize,
		MinWork:             cfg.MinWork,
		MaxWork:             cfg.MaxWork,
		WorkFactor:          cfg.WorkFactor,
		SecondsPerBlock:     cfg.SecondsPerBlock,
		FreeNonceSubmission: cfg.FreeNonceSubmission,
	}, logger)
	stakingEngine := staking.New(s, ledger, fast, bus, cfg.ValidatorPenalty, logger)

	if cfg.GenGenesis {
		if err := blockEngine.GenerateGenesis(ctx); err != nil {
			logger.Fatalf("failed to generate genesis block: %v", err)
		}
	}

	sched := scheduler.New(s, fast, stakingEngine, cfg.SecondsPerBlock, fast.StakingEnabled, logger)
	sched.Start(ctx)

	e := httpapi.New(&httpapi.Server{
		Ledger:  ledger,
		Names:   nameRegistry,
		Tx:      txEngine,
		Block:   blockEngine,
		Staking: stakingEngine,
		Fast:    fast,
		Bus:     bus,
		Cfg:     cfg,
		Logger:  logger,
	})

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: e}

	go func() {
		logger.Infof("listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("error during http shutdown: %v", err)
	}

	fmt.Println("tenebrad stopped")
}
