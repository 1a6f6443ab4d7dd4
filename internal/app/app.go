package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lunari-bot/lunari-telegram-bot/assets"
	"github.com/lunari-bot/lunari-telegram-bot/internal/config"
	"github.com/lunari-bot/lunari-telegram-bot/internal/domain"
	"github.com/lunari-bot/lunari-telegram-bot/internal/horoscope"
	"github.com/lunari-bot/lunari-telegram-bot/internal/natal"
	"github.com/lunari-bot/lunari-telegram-bot/internal/registry"
	"github.com/lunari-bot/lunari-telegram-bot/internal/scheduler"
	"github.com/lunari-bot/lunari-telegram-bot/internal/store"
	"github.com/lunari-bot/lunari-telegram-bot/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	clock   func() time.Time
	natal   natal.Generator

	repo   store.Repo
	subs   *registry.Registry
	router *telegram.Router
	sched  *scheduler.Scheduler
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	clock, err := newClock(cfg.ClockTZ)
	if err != nil {
		return nil, err
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	a := &App{
		cfg:   cfg,
		log:   log,
		bot:   bot,
		clock: clock,
		subs:  registry.New(),
		httpSrv: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      httpMux(),
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}

	registry.RegisterMetrics(a.subs, prometheus.DefaultRegisterer)

	if cfg.GeminiAPIKey != "" {
		gen, err := natal.NewGeminiGenerator(context.Background(), natal.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			Timeout: cfg.NatalTimeout,
		})
		if err != nil {
			return nil, err
		}
		a.natal = gen
	} else {
		log.Warn("GEMINI_API_KEY is not set, /natal is disabled")
	}

	return a, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting lunari-bot",
		zap.String("bot", a.bot.Self.UserName),
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("schedule", a.cfg.ScheduleSpec),
	)

	lookup, err := a.newLookup(ctx)
	if err != nil {
		a.log.Error("horoscope source init failed", zap.Error(err))
		return err
	}

	a.router = telegram.NewRouter(a.bot, a.log, telegram.Deps{
		Subscriptions: a.subs,
		Lookup:        lookup,
		Generator:     a.natal,
		WelcomeImage:  assets.WelcomeImage(),
		SendRate:      a.cfg.SendRate,
		Clock:         a.clock,
	})

	a.sched = scheduler.New(a.subs, lookup, a.router, a.log, scheduler.Config{
		Spec:      a.cfg.ScheduleSpec,
		Workers:   a.cfg.DeliveryWorkers,
		QueueSize: a.cfg.DeliveryQueue,
		Clock:     a.clock,
	})
	if err := a.sched.Start(); err != nil {
		a.closeRepo()
		return err
	}

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.shutdown()
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}

func (a *App) shutdown() {
	a.bot.StopReceivingUpdates()

	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.sched.Stop(shCtx); err != nil {
		a.log.Warn("scheduler stop error", zap.Error(err))
	}
	a.router.Wait()
	if err := a.httpSrv.Shutdown(shCtx); err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}
	a.closeRepo()
}

func (a *App) closeRepo() {
	if a.repo != nil {
		_ = a.repo.Close()
	}
}

// newLookup returns the SQLite-backed source when HOROSCOPE_DB_PATH is set,
// after importing HOROSCOPES_DIR into it; otherwise the text files are read directly.
func (a *App) newLookup(ctx context.Context) (horoscope.Lookup, error) {
	if a.cfg.HoroscopeDBPath == "" {
		a.log.Info("reading horoscopes from files", zap.String("dir", a.cfg.HoroscopesDir))
		return horoscope.NewFileLookup(a.cfg.HoroscopesDir), nil
	}

	repo, err := store.OpenSQLite(ctx, a.cfg.HoroscopeDBPath)
	if err != nil {
		return nil, err
	}
	a.repo = repo

	n, err := repo.ImportDir(ctx, a.cfg.HoroscopesDir)
	if err != nil {
		// Rows imported earlier are still served.
		a.log.Warn("horoscope import failed", zap.String("dir", a.cfg.HoroscopesDir), zap.Error(err))
	} else {
		a.log.Info("sqlite ready", zap.String("path", a.cfg.HoroscopeDBPath), zap.Int("imported", n))
	}
	return repo, nil
}

// newClock returns the wall clock used for matching and date keys.
func newClock(tz string) (func() time.Time, error) {
	if tz == "" {
		return time.Now, nil
	}
	loc, err := domain.ValidateTZ(tz)
	if err != nil {
		return nil, err
	}
	return func() time.Time { return time.Now().In(loc) }, nil
}

func httpMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
