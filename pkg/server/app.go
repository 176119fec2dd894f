package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "TickerBot/internal/domain/repository"
	"TickerBot/internal/usecase"
	"TickerBot/pkg/cache"
	"TickerBot/pkg/config"
	xhttp "TickerBot/pkg/http"
	applogger "TickerBot/pkg/logger"
	"TickerBot/pkg/scheduler"
	"TickerBot/pkg/sqlite"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
	scheduler  *scheduler.Scheduler
	cron       *usecase.CronJobs
	publisher  domrepo.CandlePublisher
	cache      cache.Service
	db         *sqlite.Client
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	cron *usecase.CronJobs,
	publisher domrepo.CandlePublisher,
	c cache.Service,
	db *sqlite.Client,
) *App {
	return &App{
		cfg:        cfg,
		l:          l,
		httpServer: httpServer,
		scheduler:  sched,
		cron:       cron,
		publisher:  publisher,
		cache:      c,
		db:         db,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the scheduler and HTTP server and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	a.l.Info("starting",
		applogger.String("app", a.cfg.App.Name),
		applogger.String("version", a.cfg.App.Version),
		applogger.Strings("tickers", a.cron.Tickers()),
	)

	n, err := a.cron.Register(a.scheduler, a.cfg.App.EnabledCron)
	if err != nil {
		a.l.Error("cron registration failed", applogger.Error(err))
		a.close()
		return err
	}
	if n > 0 {
		a.scheduler.Start()
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return a.shutdown()
	}

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops the HTTP server first so no request outlives the stores.
func (a *App) shutdown() error {
	httpCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(httpCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	schedCtx, cancelSched := context.WithTimeout(context.Background(), a.stopTimeout())
	defer cancelSched()
	if err := a.scheduler.Stop(schedCtx); err != nil {
		a.l.Warn("scheduler stop error", applogger.Error(err))
	}

	a.close()
	return nil
}

func (a *App) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.l.Warn("candle publisher close error", applogger.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.l.Warn("cache close error", applogger.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.l.Warn("database close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	_ = a.l.Close()
}

func (a *App) stopTimeout() time.Duration {
	if a.cfg.Scheduler.StopTimeout > 0 {
		return a.cfg.Scheduler.StopTimeout
	}
	return 30 * time.Second
}
