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
	"go.uber.org/zap"

	"github.com/driftywinds/birthday-bot/internal/config"
	"github.com/driftywinds/birthday-bot/internal/confirm"
	"github.com/driftywinds/birthday-bot/internal/domain"
	"github.com/driftywinds/birthday-bot/internal/notify"
	"github.com/driftywinds/birthday-bot/internal/scheduler"
	"github.com/driftywinds/birthday-bot/internal/store"
	"github.com/driftywinds/birthday-bot/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	repo    *store.SQLiteRepo
	router  *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting birthday-bot",
		zap.String("db", a.cfg.DBPath),
		zap.String("http", a.cfg.HTTPAddr),
	)

	if _, err := domain.ValidateTZ(a.cfg.DefaultTZ); err != nil {
		a.log.Error("invalid DEFAULT_TZ", zap.String("tz", a.cfg.DefaultTZ), zap.Error(err))
		return err
	}

	// Open SQLite and run migrations.
	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo

	st := store.New(repo, a.log, a.cfg.DefaultTZ)
	if err := st.Load(ctx); err != nil {
		a.log.Error("load subscribers failed", zap.Error(err))
		return err
	}
	a.log.Info("sqlite ready")

	notifier := notify.NewService(a.bot, a.log)
	dispatcher := notify.NewDispatcher(notifier, a.log)
	flow := confirm.New(notifier, st, a.log)
	a.router = telegram.NewRouter(a.bot, a.log, st, flow, dispatcher)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	sched := scheduler.New(st, dispatcher, a.log)
	go sched.Run(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")

			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()

			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}
			if a.repo != nil {
				_ = a.repo.Close()
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}
