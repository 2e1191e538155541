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

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/draftpit/auction-engine/internal/config"
	"github.com/draftpit/auction-engine/internal/httpapi"
	"github.com/draftpit/auction-engine/internal/hub"
	"github.com/draftpit/auction-engine/internal/market"
	"github.com/draftpit/auction-engine/internal/notify"
	"github.com/draftpit/auction-engine/internal/recorder"
	"github.com/draftpit/auction-engine/internal/roster"
	"github.com/draftpit/auction-engine/internal/session"
	"github.com/draftpit/auction-engine/internal/store"
)

func main() {
	// Optional .env for local runs; real deployments set the env.
	_ = godotenv.Load()

	cfgPath := "configs/config.yml"
	if v := os.Getenv("AUCTION_CONFIG"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	logger, err := buildLogger(cfg.Log.Development)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Outcome store: Postgres when configured, in-memory otherwise.
	// Either way writes go through the retry wrapper.
	var backing store.Store
	if dsn := cfg.Database.PostgresDSN; dsn != "" {
		pg, err := store.NewPostgres(dsn)
		if err != nil {
			logger.Fatal("connect postgres", zap.Error(err))
		}
		backing = pg
		logger.Info("outcome store: postgres")
	} else {
		backing = store.NewMemory()
		logger.Info("outcome store: memory")
	}
	st := store.NewRetrying(backing, 5, 100*time.Millisecond, logger)

	var rec recorder.Recorder = recorder.NewNoop()
	var recClose func() error
	if path := cfg.History.SQLitePath; path != "" {
		sq, err := recorder.NewSQLite(path)
		if err != nil {
			logger.Warn("init sqlite history failed, using noop", zap.Error(err))
		} else {
			rec = sq
			recClose = sq.Close
			logger.Info("history recorder: sqlite", zap.String("path", path))
		}
	}

	var provider roster.Provider
	if path := cfg.Roster.Path; path != "" {
		p, err := roster.LoadFile(path)
		if err != nil {
			logger.Fatal("load roster", zap.String("path", path), zap.Error(err))
		}
		provider = p
		logger.Info("roster loaded", zap.String("path", path))
	} else {
		logger.Warn("no roster configured, starting with an empty league set")
		provider = roster.NewStatic()
	}

	sink := notify.NewBuffered(notify.NewLogSink(logger), 256, logger)

	rules := session.Rules{
		BidWindow:      cfg.BidWindow(),
		StartingBudget: cfg.StartingBudget(),
		ManualAdvance:  cfg.Auction.ManualAdvance,
	}
	deps := session.Deps{
		Roster:   provider,
		Store:    st,
		Recorder: rec,
		Sink:     sink,
		Log:      logger,
	}
	h := hub.New(ctx, rules, deps)

	var sched *market.Scheduler
	if !cfg.Market.Disabled {
		sched = market.NewScheduler(logger, h.SignalMarket)
		if err := sched.Register(cfg.Market.OpenCron, cfg.Market.CloseCron); err != nil {
			logger.Fatal("register market window crons", zap.Error(err))
		}
		sched.Start()
		logger.Info("transfer window schedule armed",
			zap.String("open", cfg.Market.OpenCron),
			zap.String("close", cfg.Market.CloseCron))
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpapi.SetupRoutes(h, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
		}
		if sched != nil {
			sched.Stop()
		}
		h.Shutdown()
		sink.Close()
		if recClose != nil {
			if err := recClose(); err != nil {
				logger.Warn("close history recorder", zap.Error(err))
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("stopped")
}

func buildLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
