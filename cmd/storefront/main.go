package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	cartcache "github.com/joinsangha/storefront/internal/cart/cache"
	cartrepo "github.com/joinsangha/storefront/internal/cart/repository"
	cartsvc "github.com/joinsangha/storefront/internal/cart/service"
	checkoutrepo "github.com/joinsangha/storefront/internal/checkout/repository"
	checkoutsvc "github.com/joinsangha/storefront/internal/checkout/service"
	engagementrepo "github.com/joinsangha/storefront/internal/engagement/repository"
	engagementsvc "github.com/joinsangha/storefront/internal/engagement/service"
	"github.com/joinsangha/storefront/internal/feed"
	h "github.com/joinsangha/storefront/internal/http"
	"github.com/joinsangha/storefront/internal/inquiry"
	"github.com/joinsangha/storefront/internal/mailer"
	"github.com/joinsangha/storefront/internal/orders/notify"
	"github.com/joinsangha/storefront/internal/orders/publisher"
	ordersrepo "github.com/joinsangha/storefront/internal/orders/repository"
	orderssvc "github.com/joinsangha/storefront/internal/orders/service"
	"github.com/joinsangha/storefront/internal/payment"
	"github.com/joinsangha/storefront/internal/ratelimit"
	"github.com/joinsangha/storefront/pkg/config"
	"github.com/joinsangha/storefront/pkg/database"
	"github.com/joinsangha/storefront/pkg/logger"
	"github.com/joinsangha/storefront/pkg/shutdown"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const checkoutSessionTTL = 24 * time.Hour

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Options{Service: "storefront", Env: cfg.AppEnv, Level: cfg.LogLevel})
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	if err := run(cfg, log); err != nil {
		log.Error("storefront stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := shutdown.WithSignals(context.Background())
	defer stop()

	// Postgres holds the order ledger and, by default, blog stats.
	pg, err := database.OpenPostgres(&database.Credentials{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		DBName:   cfg.Postgres.DBName,
		SSLMode:  cfg.Postgres.SSLMode,
	})
	if err != nil {
		return err
	}
	defer pg.Close()
	log.Info("connected to postgres", zap.String("host", cfg.Postgres.Host), zap.String("db", cfg.Postgres.DBName))

	mongoDB, err := cartrepo.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return err
	}
	defer mongoDB.Client().Disconnect(context.Background())
	log.Info("connected to mongodb", zap.String("db", cfg.MongoDBName))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return err
	}
	log.Info("redis ping succeeded", zap.String("addr", cfg.RedisAddr))

	// Orders: ledger, retry queue, notifications, outbox publisher.
	orderRepo := ordersrepo.NewRepository(pg)
	if err := orderRepo.RunMigrations(); err != nil {
		return err
	}
	retryQueue := ordersrepo.NewRedisRetryQueue(redisClient)
	sender := mailer.New(cfg.Mail, log)
	recorder := orderssvc.NewRecorder(orderRepo, retryQueue, notify.NewNotifier(sender, cfg.Mail.AdminTo), log)

	kafkaWriter := publisher.NewKafkaWriter(cfg.OrderEventsTopic, cfg.KafkaBrokers...)
	defer kafkaWriter.Close()
	poller := publisher.NewOutboxPoller(orderRepo, retryQueue, kafkaWriter, log)

	// Engagement.
	statsRepo, closeStats, err := openStatsRepository(cfg, pg)
	if err != nil {
		return err
	}
	defer closeStats()
	if err := statsRepo.RunMigrations(); err != nil {
		return err
	}
	engagement := engagementsvc.NewEngagementService(statsRepo, log)

	// Cart and checkout.
	cartRepo := cartrepo.NewMongoRepository(mongoDB)
	if ix, ok := cartRepo.(interface{ CreateIndexes(context.Context) error }); ok {
		if err := ix.CreateIndexes(ctx); err != nil {
			return err
		}
	}
	carts := cartsvc.NewCartService(cartRepo, cartcache.NewRedisCache(redisClient), log)
	gateway := payment.NewGuardedGateway(newGateway(cfg, log), cfg.PaymentTimeout, log)
	checkout := checkoutsvc.NewCheckoutService(
		checkoutrepo.NewRedisStore(redisClient, checkoutSessionTTL),
		carts,
		gateway,
		recorder,
		cfg.Currency,
		log,
	)

	// Feeds and inquiries.
	fetcher := feed.NewFetcher(cfg.FeedTimeout, log)
	relay := inquiry.NewRelay(sender, cfg.Mail.AdminTo, log)

	limiters := newLimiterFactory(cfg, redisClient)
	defer limiters.Close()

	timeout := cfg.RequestTimeout
	maxBody := cfg.MaxRequestBodySize
	router := h.NewRouter(h.RouterDeps{
		Engagement: h.NewEngagementHandler(engagement, timeout, maxBody, log),
		Payment: h.NewPaymentHandler(
			gateway, recorder, payment.NewWebhookVerifier(cfg.StripeWebhookSecret),
			cfg.Currency, timeout, maxBody, log,
		),
		Cart:     h.NewCartHandler(carts, timeout, maxBody, log),
		Checkout: h.NewCheckoutHandler(checkout, cfg.PaymentTimeout+timeout, maxBody, log),
		Feed: h.NewFeedHandler(
			feed.NewCatalog(fetcher, cfg.MerchFeedURL),
			feed.NewBlog(fetcher, cfg.BlogFeedURL, log),
			feed.NewCareers(fetcher, cfg.JobsFeedURL),
			timeout, log,
		),
		Inquiry:        h.NewInquiryHandler(relay, timeout, maxBody, log),
		Limiters:       limiters.For,
		RequestTimeout: timeout + cfg.PaymentTimeout,
		SecureCookies:  cfg.IsProduction(),
		Log:            log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: timeout + cfg.PaymentTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		poller.Run(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("storefront listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if err := recorder.Wait(shutdownCtx); err != nil {
		log.Warn("order side effects still running at shutdown", zap.Error(err))
	}
	stop()
	<-pollerDone

	log.Info("storefront stopped")
	return nil
}

// openStatsRepository shares the ledger's postgres pool unless sqlite is selected.
func openStatsRepository(cfg config.Config, pg *sql.DB) (*engagementrepo.Repository, func(), error) {
	if cfg.EngagementDriver != "sqlite" {
		return engagementrepo.NewPostgresRepository(pg), func() {}, nil
	}

	db, err := database.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	repo := engagementrepo.NewSQLiteRepository(db)
	return repo, func() { _ = repo.Close() }, nil
}

func newGateway(cfg config.Config, log *zap.Logger) payment.Gateway {
	if cfg.StripeSecretKey == "" {
		log.Warn("STRIPE_SECRET_KEY not set, using simulated payment gateway")
		return payment.NewSimulatedGateway(nil)
	}
	return payment.NewStripeGateway(cfg.StripeSecretKey)
}

// limiterFactory builds one limiter per policy and closes the in-memory ones on exit.
type limiterFactory struct {
	mu      sync.Mutex
	backend string
	client  redis.UniversalClient
	memory  []*ratelimit.MemoryLimiter
}

func newLimiterFactory(cfg config.Config, client redis.UniversalClient) *limiterFactory {
	return &limiterFactory{backend: cfg.RateLimitBackend, client: client}
}

func (f *limiterFactory) For(p ratelimit.Policy) ratelimit.Limiter {
	if f.backend == "redis" {
		return ratelimit.NewRedisLimiter(f.client, p)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	l := ratelimit.NewMemoryLimiter(p)
	f.memory = append(f.memory, l)
	return l
}

func (f *limiterFactory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.memory {
		l.Close()
	}
}
