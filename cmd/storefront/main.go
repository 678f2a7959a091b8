package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/esdaly/storefront/internal/api"
	"github.com/esdaly/storefront/internal/config"
	"github.com/esdaly/storefront/internal/domain"
	h "github.com/esdaly/storefront/internal/http"
	"github.com/esdaly/storefront/internal/imageurl"
	"github.com/esdaly/storefront/internal/metrics"
	"github.com/esdaly/storefront/internal/persistence"
	"github.com/esdaly/storefront/internal/poller"
	"github.com/esdaly/storefront/internal/publisher"
	"github.com/esdaly/storefront/internal/service"
	"github.com/esdaly/storefront/internal/session"
	"github.com/esdaly/storefront/internal/storage"
	"github.com/esdaly/storefront/internal/store"
	"github.com/esdaly/storefront/internal/toast"
	"github.com/esdaly/storefront/pkg/circuitbreaker"
	"github.com/esdaly/storefront/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	zl, err := logger.New(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx := context.Background()

	m := metrics.Nop()
	shutdownMetrics := func(context.Context) error { return nil }
	if cfg.MetricsEnabled {
		m, shutdownMetrics, err = metrics.InitMetrics(ctx, cfg)
		if err != nil {
			zl.Fatal("failed to init metrics", zap.Error(err))
		}
	}

	st, closeStorage, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		zl.Fatal("failed to open storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer func() {
		if err := closeStorage(); err != nil {
			zl.Warn("failed to close storage", zap.Error(err))
		}
	}()

	sess := session.New(st, zl.Named("session"))
	client := api.New(cfg.APIURL,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithTokenSource(sess),
		api.WithUnauthorizedHandler(func(ctx context.Context) {
			if err := sess.Clear(ctx); err != nil {
				zl.Warn("failed to clear session after 401", zap.Error(err))
			}
		}),
		api.WithBreaker(circuitbreaker.Settings{Name: "storefront-api"}),
		api.WithLogger(zl.Named("api")),
	)

	catalog := store.NewCatalogCache(store.WithCapacity(cfg.CatalogCapacity), store.WithLoadTimeout(cfg.RequestTimeout))
	cart := store.NewCartStore(catalog, zl.Named("cart"))
	favorites := store.NewFavoritesStore()
	recent := store.NewRecentlyViewed()
	toasts := toast.NewNotifier(toast.WithDuration(cfg.ToastDuration), toast.WithMetrics(m))
	defer toasts.Close()

	origin := uuid.NewString()
	var wg sync.WaitGroup
	feedCtx, feedCancel := context.WithCancel(ctx)

	syncOpts := []persistence.Option{persistence.WithLogger(zl.Named("persistence")), persistence.WithMetrics(m)}
	var pub *publisher.Publisher
	if cfg.ChangeFeedEnabled() {
		pub = publisher.New(publisher.NewKafkaWriter(cfg.KafkaTopic, cfg.KafkaBrokers...), cfg.SessionID, origin, zl.Named("publisher"))
		syncOpts = append(syncOpts, persistence.WithWriteListener(pub.Notify))
	}

	syncer := persistence.New(st, syncOpts...)
	for _, err := range []error{
		persistence.Bind[domain.CatalogItem](syncer, catalog),
		persistence.Bind[domain.CartLine](syncer, cart),
		persistence.Bind[domain.FavoriteEntry](syncer, favorites),
		persistence.Bind[domain.RecentlyViewedEntry](syncer, recent, persistence.KeepEmpty()),
	} {
		if err != nil {
			zl.Fatal("failed to bind collection", zap.Error(err))
		}
	}
	syncer.Hydrate(ctx)
	syncer.Start()
	defer syncer.Close()

	var changes *poller.Poller
	if pub != nil {
		changes = poller.New(poller.NewKafkaReader(cfg.KafkaTopic, origin, cfg.KafkaBrokers...), syncer, cfg.SessionID, origin, zl.Named("poller"))
		wg.Add(2)
		go func() {
			defer wg.Done()
			pub.Run(feedCtx)
		}()
		go func() {
			defer wg.Done()
			changes.Run(feedCtx)
		}()
		zl.Info("change feed enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic), zap.String("origin", origin))
	}

	svc := service.New(service.Deps{
		API:       client,
		Resolver:  imageurl.NewResolver(cfg.APIURL),
		Cart:      cart,
		Favorites: favorites,
		Recent:    recent,
		Catalog:   catalog,
		Toasts:    toasts,
		Session:   sess,
		Logger:    zl.Named("service"),
		Metrics:   m,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      h.NewHandler(svc, zl.Named("http"), m, cfg.RequestTimeout).Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zl.Info("storefront starting", zap.String("port", cfg.HTTPPort), zap.String("api_url", cfg.APIURL), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down storefront")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}

	feedCancel()
	if changes != nil {
		changes.Close()
	}
	if pub != nil {
		if err := pub.Close(shutdownCtx); err != nil {
			zl.Warn("failed to close publisher", zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		zl.Warn("change feed did not stop in time")
	}

	if err := shutdownMetrics(shutdownCtx); err != nil {
		zl.Warn("failed to flush metrics", zap.Error(err))
	}
	zl.Info("storefront exited")
}
