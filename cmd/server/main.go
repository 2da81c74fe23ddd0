package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/bookfair-stall-reservation/internal/auth"
	"github.com/iliyamo/bookfair-stall-reservation/internal/config"
	"github.com/iliyamo/bookfair-stall-reservation/internal/database"
	"github.com/iliyamo/bookfair-stall-reservation/internal/floorplan"
	"github.com/iliyamo/bookfair-stall-reservation/internal/handler"
	"github.com/iliyamo/bookfair-stall-reservation/internal/layoutsource"
	"github.com/iliyamo/bookfair-stall-reservation/internal/middleware"
	"github.com/iliyamo/bookfair-stall-reservation/internal/pricing"
	"github.com/iliyamo/bookfair-stall-reservation/internal/queue"
	"github.com/iliyamo/bookfair-stall-reservation/internal/repository"
	"github.com/iliyamo/bookfair-stall-reservation/internal/router"
	"github.com/iliyamo/bookfair-stall-reservation/internal/session"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)

	config.LoadDotEnv()
	cfg := config.Load()
	if cfg.Env == "dev" {
		log.SetLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.WithError(err).Fatal("migration failed")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	layouts := repository.NewLayoutRepo(db)
	reservations := repository.NewReservationRepo(db)

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unreachable: memory sessions, no cache, no rate limiting")
	} else {
		defer rdb.Close()
	}

	source, health := layoutSource(cfg.Layout, layouts)
	table := priceTable(cfg.Pricing)
	events := queue.NewPublisher(cfg.RabbitURL)

	consumer := &queue.Consumer{URL: cfg.RabbitURL, LogPath: cfg.ReservationLog}
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("reservation consumer stopped")
		}
	}()

	store := sessionStore(cfg.Session, rdb)
	if mem, ok := store.(*session.MemoryStore); ok {
		go mem.Run(ctx, time.Minute)
	}
	cacheCfg := config.LoadCacheConfig()
	purge := func(ctx context.Context, bookFairID string) {
		middleware.PurgeCache(ctx, cacheCfg, rdb, router.LayoutPaths(bookFairID)...)
	}
	sessions := session.NewService(store, source, reservations, events, table, cfg.Session.MaxHeld)
	sessions.Invalidate = purge
	jwt := auth.NewJWT(cfg.JWTSecret, time.Duration(cfg.AccessTTLMin)*time.Minute)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Metrics())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	resHandler := &handler.ReservationHandler{Reservations: reservations, Sessions: sessions}
	router.RegisterRoutes(e, handler.Health(health), promhttp.Handler())
	router.RegisterAuth(e, handler.NewAuthHandler(users, tokens, jwt,
		time.Duration(cfg.RefreshTTLDays)*24*time.Hour, cfg.BcryptCost), jwt)
	router.RegisterPublic(e, &handler.PublicHandler{
		Source:      source,
		Allocations: reservations,
		Pricing:     table,
		Palette:     floorplan.DefaultPalette,
		MaxHeld:     cfg.Session.MaxHeld,
	}, middleware.NewRedisCache(cacheCfg, rdb))
	router.RegisterPublisher(e, &handler.SessionHandler{Sessions: sessions}, resHandler, jwt)
	router.RegisterAdmin(e, &handler.AdminHandler{
		Sessions: sessions,
		Layouts:  layouts,
		Users:    users,
		Tokens:   tokens,
		Purge:    purge,
	}, resHandler, jwt)

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(log.Fields{"addr": addr, "env": cfg.Env, "layout_source": cfg.Layout.Source}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
	log.Info("stopped")
}

// layoutSource picks the layout backend.  The returned BreakerState is nil
// unless the external API is used.
func layoutSource(cfg config.LayoutConfig, layouts *repository.LayoutRepo) (layoutsource.Source, handler.BreakerState) {
	if cfg.Source == "api" {
		client := layoutsource.NewClient(cfg.APIURL, cfg.Timeout)
		return layoutsource.Instrumented{Name: "api", Next: client}, client
	}
	return layoutsource.Instrumented{Name: "db", Next: layoutsource.Repo{Layouts: layouts}}, nil
}

func sessionStore(cfg config.SessionConfig, rdb *redis.Client) session.Store {
	if cfg.Store == "redis" && rdb != nil {
		return session.NewRedisStore(rdb, cfg.TTL)
	}
	if cfg.Store == "redis" {
		log.Warn("SESSION_STORE=redis but redis is unreachable, using memory")
	}
	return session.NewMemoryStore(cfg.TTL)
}

func priceTable(c config.PricingConfig) pricing.Table {
	return pricing.Table{
		Prices: map[floorplan.Size]int64{
			floorplan.SizeSmall:  c.Small,
			floorplan.SizeMedium: c.Medium,
			floorplan.SizeLarge:  c.Large,
		},
		VATRate:    c.VATRate,
		ServiceFee: c.ServiceFee,
	}
}
