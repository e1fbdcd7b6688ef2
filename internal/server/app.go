// Package server wires storage, the payment gateway, caches and publishers
// into the store services and runs the gRPC and HTTP endpoints until a
// shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/config"
	"github.com/dmitrijs2005/gophstore/internal/server/events"
	"github.com/dmitrijs2005/gophstore/internal/server/filestore"
	"github.com/dmitrijs2005/gophstore/internal/server/gateway"
	"github.com/dmitrijs2005/gophstore/internal/server/httpapi"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/memory"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophstore/internal/server/services"
	"github.com/dmitrijs2005/gophstore/internal/server/tokencache"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/gophstore/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	closers []func() error

	registry *services.OwnershipRegistry
	payments *services.PaymentService
	tokens   *services.TokenIssuer
	catalog  *services.Catalog
}

// NewApp builds every dependency named by c. Optional backends fall back
// to in-process implementations when their settings are empty.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	app := &App{config: c, logger: logger}

	tx, repos, err := app.openStorage(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	gw, err := app.newGateway()
	if err != nil {
		app.Close()
		return nil, err
	}

	cache := app.newTokenCache()

	linker, err := app.newLinker(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	publisher, err := app.newPublisher()
	if err != nil {
		app.Close()
		return nil, err
	}

	app.registry = services.NewOwnershipRegistry(tx, repos, logger)
	app.payments = services.NewPaymentService(tx, repos, gw, app.registry, publisher, logger, c)
	delivery := services.NewDeliveryTracker(tx, repos, logger)
	app.tokens = services.NewTokenIssuer(tx, repos, app.registry, delivery, cache, linker, logger, c)
	app.catalog = services.NewCatalog(tx, repos, logger)

	if c.CatalogFile != "" {
		if _, err := app.catalog.Import(ctx, c.CatalogFile, c.Currency); err != nil {
			app.Close()
			return nil, fmt.Errorf("catalog import: %w", err)
		}
	}

	return app, nil
}

func (app *App) openStorage(ctx context.Context) (dbx.Transactor, repomanager.RepositoryManager, error) {
	if app.config.DatabaseDSN == "" {
		app.logger.Warn(ctx, "No database DSN configured, using in-memory storage")
		return dbx.NopTransactor{}, repomanager.NewMemoryRepositoryManager(memory.NewStore()), nil
	}

	db, err := sql.Open("pgx", app.config.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}
	app.closers = append(app.closers, db.Close)

	if err := db.PingContext(ctx); err != nil {
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, nil, fmt.Errorf("migrations error: %w", err)
	}

	return dbx.NewSQLTransactor(db, nil), repos, nil
}

func (app *App) newGateway() (gateway.Gateway, error) {
	switch {
	case app.config.GatewayBaseURL != "":
		return gateway.NewHTTPGateway(app.config.GatewayBaseURL, app.config.GatewaySecretKey, app.config.GatewayTimeout), nil
	case app.config.GatewaySimulated:
		app.logger.Warn(context.Background(), "Simulated gateway enabled, payments succeed automatically")
		return gateway.NewSimulated(true), nil
	default:
		return nil, errors.New("no payment gateway configured")
	}
}

func (app *App) newTokenCache() tokencache.Cache {
	if app.config.RedisAddr == "" {
		return tokencache.Nop{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     app.config.RedisAddr,
		Password: app.config.RedisPassword,
		DB:       app.config.RedisDB,
	})
	app.closers = append(app.closers, client.Close)
	return tokencache.NewRedisCache(client)
}

func (app *App) newLinker(ctx context.Context) (filestore.Linker, error) {
	if app.config.S3Bucket == "" {
		return filestore.Passthrough{}, nil
	}
	p, err := filestore.NewS3Presigner(ctx, filestore.S3Config{
		Region:       app.config.S3Region,
		AccessKey:    app.config.S3RootUser,
		SecretKey:    app.config.S3RootPassword,
		Bucket:       app.config.S3Bucket,
		BaseEndpoint: app.config.S3BaseEndpoint,
		TTL:          app.config.S3PresignTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("filestore init error: %w", err)
	}
	return p, nil
}

func (app *App) newPublisher() (events.Publisher, error) {
	if len(app.config.KafkaBrokers) == 0 {
		return events.Nop{}, nil
	}
	p, err := events.NewKafkaPublisher(app.config.KafkaBrokers, app.config.KafkaTopic)
	if err != nil {
		return nil, fmt.Errorf("kafka init error: %w", err)
	}
	app.closers = append(app.closers, p.Close)
	return p, nil
}

// Close releases connections in reverse order of acquisition.
func (app *App) Close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.payments, app.tokens, app.registry, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	h := httpapi.NewHandler(app.logger, app.payments, app.tokens, app.registry, app.config.SecretKey)
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.logger, httpapi.NewRouter(h))

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives or a listener fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	if app.config.EndpointAddrGRPC != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	if app.config.EndpointAddrHTTP != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startHTTPServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(ctx, "close resources", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
