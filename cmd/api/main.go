package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	server "stayhub/internal/adapters/http_server"
	"stayhub/internal/adapters/mail"
	"stayhub/internal/adapters/messaging"
	"stayhub/internal/adapters/observability"
	"stayhub/internal/adapters/push"
	redisad "stayhub/internal/adapters/redis"
	"stayhub/internal/adapters/trends"
	"stayhub/internal/app"
	"stayhub/internal/domain"
	"stayhub/internal/shared"
	mysqlrepo "stayhub/internal/storage/mysql"
)

func main() {
	_ = godotenv.Load() // optional .env for local runs
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "api")

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	mailer := mail.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	pusher := push.New(cfg.PushURL)

	var events domain.EventPublisher = messaging.Nop{}
	if cfg.NatsURL != "" {
		pub, err := messaging.Connect(cfg.NatsURL)
		if err != nil {
			log.Warn().Err(err).Msg("NATS unreachable, events disabled")
		} else {
			defer pub.Close()
			events = pub
		}
	}

	notify := app.NewNotifyService(repo, repo, mailer, pusher, events, log.Logger)
	catalog := app.NewCatalogService(repo, repo, repo, repo, cache, cfg.CacheTTL)
	bookings := app.NewBookingService(repo, repo, notify, cfg.BookingHold)
	auth := app.NewAuthService(repo, mailer, cfg.JWTSecret, cfg.OTPTTL)
	host := app.NewHostService(repo, repo, cache, trends.New(cfg.TrendsBase, cfg.TrendsKey, 5), notify, cfg.CacheTTL, log.Logger)
	admin := app.NewAdminService(repo, repo, repo, cache, notify)

	// pending requests expire after the hold window; finished stays complete
	go sweepLoop(bookings)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Catalog:  catalog,
		Bookings: bookings,
		Auth:     auth,
		Admin:    admin,
		Host:     host,
		Notify:   notify,
		Proxy:    server.NewTrendsProxy(cfg.TrendsBase, cfg.TrendsKey),
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

func sweepLoop(b *app.BookingService) {
	tick := time.NewTicker(10 * time.Minute)
	defer tick.Stop()
	for range tick.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		expired, completed, err := b.Sweep(ctx)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("booking sweep failed")
			continue
		}
		observability.ObserveSweep("expired", expired)
		observability.ObserveSweep("completed", completed)
		if expired+completed > 0 {
			log.Info().Int64("expired", expired).Int64("completed", completed).Msg("booking sweep")
		}
	}
}
