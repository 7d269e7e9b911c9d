package app

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	structValidator "github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/haguru/myblog/config"
	"github.com/haguru/myblog/internal/auth"
	"github.com/haguru/myblog/internal/interfaces"
	"github.com/haguru/myblog/internal/middleware"
	"github.com/haguru/myblog/internal/policy"
	"github.com/haguru/myblog/internal/routes"
	"github.com/haguru/myblog/internal/server"
	mongoUserRepo "github.com/haguru/myblog/internal/userrepo/mongo"
	postgresUserRepo "github.com/haguru/myblog/internal/userrepo/postgres"
	"github.com/haguru/myblog/internal/userservice"
	"github.com/haguru/myblog/pkg/databases/mongo"
	"github.com/haguru/myblog/pkg/databases/postgres"
	"github.com/haguru/myblog/pkg/hasher"
	"github.com/haguru/myblog/pkg/metrics"
	"github.com/haguru/myblog/pkg/zerolog"
)

// App represents one deployable: its server, configuration and the
// components wired behind the routes.
type App struct {
	Server   interfaces.Server
	Config   *config.ServiceConfig
	Logger   interfaces.Logger
	Metrics  interfaces.Metrics
	Policy   *policy.Policy
	UserRepo interfaces.UserRepository
	Route    *routes.Route

	privateKey *ecdsa.PrivateKey
	limiter    *rate.Limiter
}

// build reads and validates the configuration at configPath, connects the
// store and assembles the shared components. mount adds the routes of the
// concrete deployable.
func build(configPath string, mount func(app *App) error) (*App, error) {
	validator := structValidator.New()

	cfg, err := loadConfig(configPath, validator)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), StartupTimeout)
	defer cancel()

	dbClient, err := initializeDBClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrFailedToInitDBClient, err)
	}

	userRepo, err := initializeUserRepo(ctx, cfg, dbClient)
	if err != nil {
		_ = dbClient.Disconnect(ctx)
		return nil, fmt.Errorf("%s: %w", ErrFailedToInitUserRepo, err)
	}

	app, err := newApp(cfg, userRepo, validator)
	if err != nil {
		_ = userRepo.Close(ctx)
		return nil, err
	}

	if err := mount(app); err != nil {
		_ = userRepo.Close(ctx)
		return nil, err
	}

	return app, nil
}

func loadConfig(configPath string, validator *structValidator.Validate) (*config.ServiceConfig, error) {
	cfg, err := config.ReadLocalConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrFailedToReadConfig, err)
	}
	if err := config.Validate(validator, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp wires every component that does not depend on which routes are mounted.
func newApp(cfg *config.ServiceConfig, userRepo interfaces.UserRepository, validator *structValidator.Validate) (*App, error) {
	logger := zerolog.NewZerologLogger(cfg.ServiceName)
	logger.SetLevel(cfg.LogLevel)

	passwordHasher, err := hasher.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrFailedToInitHasher, err)
	}

	privateKey, err := auth.LoadOrCreateECDSAPrivateKey(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrFailedToInitPrivateKey, err)
	}

	accessPolicy, err := policy.New(cfg.AccessPolicy)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrFailedToInitPolicy, err)
	}

	app := &App{
		Config:     cfg,
		Logger:     logger,
		Metrics:    metrics.NewMetrics(cfg.ServiceName),
		Policy:     accessPolicy,
		UserRepo:   userRepo,
		privateKey: privateKey,
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		app.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
	}

	userService := userservice.NewUserService(userRepo, passwordHasher, logger)
	app.Route = routes.NewRoute(logger, app.Metrics, userService, validator, privateKey, cfg.SessionTTL,
		cfg.ServiceName, accessPolicy.FormLogin())
	app.Route.RegisterMetrics()
	middleware.RegisterMetrics(app.Metrics)

	app.Server = server.NewServer(cfg.Host, cfg.Port, logger)
	app.Server.Use(
		func(next http.Handler) http.Handler { return otelhttp.NewHandler(next, cfg.ServiceName) },
		middleware.InFlight(app.Metrics),
	)
	if accessPolicy.CSRFEnabled() {
		app.Server.Use(middleware.CSRF(accessPolicy.AllowedOrigins(), app.Metrics))
	}
	app.Server.Use(middleware.Authorize(accessPolicy, &privateKey.PublicKey, cfg.ServiceName, logger, app.Metrics))

	if err := app.addRoute(routes.HealthRouteAPI, app.Route.Health(userRepo.Ping)); err != nil {
		return nil, err
	}
	tracedMetricsHandler := otelhttp.NewHandler(app.Route.MetricsHandler(), routes.MetricsRouteAPI)
	if err := app.addRoute(routes.MetricsRouteAPI, tracedMetricsHandler.ServeHTTP); err != nil {
		return nil, err
	}

	return app, nil
}

// Run serves until the process receives SIGINT or SIGTERM, then shuts the
// server down gracefully and closes the store.
func (app *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- app.Server.ListenAndServe()
	}()

	var err error
	select {
	case err = <-serveErr:
	case <-ctx.Done():
		app.Logger.Info("Shutdown signal received", "service", app.Config.ServiceName)
	}

	return errors.Join(err, app.shutdown())
}

func (app *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Logger.Error(ErrFailedToShutdownServer, "error", err)
		errs = append(errs, err)
	}
	if err := app.UserRepo.Close(ctx); err != nil {
		app.Logger.Error(ErrFailedToCloseUserRepo, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", ErrFailedToCloseUserRepo, err))
	}
	return errors.Join(errs...)
}

func (app *App) addRoute(route string, handler http.HandlerFunc) error {
	if err := app.Server.AddRoute(route, handler); err != nil {
		return fmt.Errorf("%s %s: %w", ErrFailedToAddRoute, route, err)
	}
	return nil
}

// rateLimited guards a credential endpoint with the configured token bucket.
func (app *App) rateLimited(handler http.HandlerFunc) http.HandlerFunc {
	return middleware.RateLimitMiddleware(app.limiter, app.Metrics)(handler).ServeHTTP
}

func initializeDBClient(ctx context.Context, cfg *config.ServiceConfig) (interfaces.DBClient, error) {
	switch cfg.Database.Type {
	case config.DatabaseTypeMongo:
		if cfg.Database.MongoDB == nil {
			return nil, fmt.Errorf("%s: %s", ErrMissingDatabaseSettings, cfg.Database.Type)
		}
		dbClient := mongo.NewMongoDB(cfg.Database.MongoDB)
		if err := dbClient.Connect(ctx, cfg.Database.MongoDB.DSN); err != nil {
			_ = dbClient.Disconnect(ctx)
			return nil, err
		}
		return dbClient, nil

	case config.DatabaseTypePostgres:
		if cfg.Database.Postgres == nil {
			return nil, fmt.Errorf("%s: %s", ErrMissingDatabaseSettings, cfg.Database.Type)
		}
		dbClient := postgres.NewPostgresDatabaseClient(cfg.Database.Postgres)
		if err := dbClient.Connect(ctx, cfg.Database.Postgres.DSN); err != nil {
			_ = dbClient.Disconnect(ctx)
			return nil, err
		}
		return dbClient, nil

	default:
		return nil, fmt.Errorf("%s: %s", ErrUnsupportedDatabaseType, cfg.Database.Type)
	}
}

func initializeUserRepo(ctx context.Context, cfg *config.ServiceConfig, dbClient interfaces.DBClient) (interfaces.UserRepository, error) {
	var userRepo interfaces.UserRepository
	var err error

	switch cfg.Database.Type {
	case config.DatabaseTypeMongo:
		userRepo, err = mongoUserRepo.NewMongoUserRepository(dbClient)
	case config.DatabaseTypePostgres:
		userRepo, err = postgresUserRepo.NewPostgresUserRepository(dbClient)
	default:
		return nil, fmt.Errorf("%s: %s", ErrUnsupportedDatabaseType, cfg.Database.Type)
	}
	if err != nil {
		return nil, err
	}

	if err = userRepo.EnsureIndices(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrFailedToEnsureIndices, err)
	}

	return userRepo, nil
}
