package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/anderka/support-relay/internal/api"
	"github.com/anderka/support-relay/internal/cache"
	"github.com/anderka/support-relay/internal/config"
	"github.com/anderka/support-relay/internal/model"
	"github.com/anderka/support-relay/internal/ratelimit"
	"github.com/anderka/support-relay/internal/repo"
	"github.com/anderka/support-relay/internal/scheduler"
	"github.com/anderka/support-relay/internal/service"
	"github.com/anderka/support-relay/internal/telegram"
	"github.com/anderka/support-relay/internal/ticket"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadAll()
	if err != nil {
		log.Fatal(err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.Database.PostgresURL)
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	defer db.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancelPing()
		log.Fatalf("ping postgres: %v", err)
	}
	cancelPing()

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Fatalf("telegram bot init: %v", err)
	}
	slog.Info("telegram bot connected", "username", bot.Self.UserName, "id", bot.Self.ID)

	var receipts cache.ReceiptCache
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		receipts = cache.NewRedisCache(rdb, cfg.Redis.TTL)
		slog.Info("receipt cache enabled", "addr", cfg.Redis.Address)
	}

	store := repo.NewPostgresMessageStore(db)
	sender := telegram.NewSender(bot, cfg.Telegram.ParseMode, slog.Default())
	notifier := telegram.NewNotifier(bot, cfg.Telegram.OperatorIDs, cfg.Telegram.ParseMode,
		cfg.Telegram.NotifyDelay, slog.Default())
	topics := ticket.NewResolver(store, slog.Default())
	gate := ratelimit.NewGate()

	onDelivered := func(ctx context.Context, msg model.Message, remoteMessageID int) {
		if receipts == nil {
			return
		}
		if err := receipts.StoreDelivered(ctx, msg.ID, remoteMessageID, time.Now()); err != nil {
			slog.Warn("receipt cache write failed", "id", msg.ID, "err", err)
		}
	}
	onDropped := func(ctx context.Context, msg model.Message, topic string, res model.SendResult) {
		if receipts != nil {
			if err := receipts.StoreDropped(ctx, msg.ID, res.Outcome.String(), time.Now()); err != nil {
				slog.Warn("receipt cache write failed", "id", msg.ID, "err", err)
			}
		}
		notifier.Broadcast(ctx, fmt.Sprintf(
			"Reply %d to chat %d was dropped (%s), topic: %s",
			msg.ID, msg.ChatID, res.Outcome, topic))
	}

	worker := service.NewWorker(store, sender, gate,
		cfg.Dispatch.BatchSize, cfg.Dispatch.Pacing, slog.Default()).
		WithTopics(topics).
		WithHooks(onDelivered, onDropped)

	sched, err := scheduler.New(cfg.Dispatch.Interval, worker.RunCycle)
	if err != nil {
		log.Fatalf("create scheduler: %v", err)
	}
	sched.Start()

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: loggingMiddleware(api.Router(api.NewHandler(sched, store))),
	}

	go func() {
		slog.Info("http server listening", "addr", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", "err", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
