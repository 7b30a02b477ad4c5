package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"

	database "github.com/FACorreiaa/go-journeymate/app/db"
	"github.com/FACorreiaa/go-journeymate/config"
	"github.com/FACorreiaa/go-journeymate/internal/api/auth"
	"github.com/FACorreiaa/go-journeymate/internal/api/catalog"
	"github.com/FACorreiaa/go-journeymate/internal/api/chat"
	"github.com/FACorreiaa/go-journeymate/internal/api/company"
	"github.com/FACorreiaa/go-journeymate/internal/api/favourites"
	"github.com/FACorreiaa/go-journeymate/internal/api/interactions"
	"github.com/FACorreiaa/go-journeymate/internal/api/payment"
	"github.com/FACorreiaa/go-journeymate/internal/api/remote"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	// Pool is nil unless interactions are stored in Postgres.
	Pool *pgxpool.Pool
	// NATS is nil when chat is disabled or unreachable.
	NATS *nats.Conn

	Remote      *remote.Client
	Oracle      auth.Oracle
	TokenParser *auth.TokenParser
	Catalog     *catalog.Store
	Favourites  *favourites.Registry
	Recorder    *interactions.Recorder
	Scheduler   *interactions.Scheduler

	AuthHandler         *auth.AuthHandler
	CatalogHandler      *catalog.CatalogHandler
	FavouritesHandler   *favourites.FavouritesHandler
	InteractionsHandler *interactions.InteractionsHandler
	ChatHandler         *chat.ChatHandler
	PaymentHandler      *payment.PaymentHandler
	CompanyHandler      *company.CompanyHandler
}

// NewContainer initializes and returns a new dependency container
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	remoteClient, err := remote.NewClient(cfg.RemoteAPI, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote API client: %w", err)
	}
	c.Remote = remoteClient
	c.Oracle = auth.NewOracle()
	c.TokenParser = auth.NewTokenParser(cfg.JWT)

	// catalog and favourites
	c.Catalog = catalog.NewStore(remoteClient, logger)
	sessions := catalog.NewSessions(c.Catalog, cfg.Catalog.PageSize, cfg.Catalog.SessionIdle)
	c.Favourites = favourites.NewRegistry(c.Oracle, remoteClient, cfg.Favourites.RollbackOnFailure, cfg.Favourites.IdleExpiry, logger)

	// interactions
	store, err := c.interactionStore(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Recorder = interactions.NewRecorder(store, remoteClient, c.Oracle, logger)
	c.Scheduler = interactions.NewScheduler(c.Recorder, cfg.Interactions.FlushInterval, logger)

	// chat
	var chatClient *chat.Client
	if cfg.Chat.Enabled {
		conn, err := chat.Connect(cfg.Chat, logger)
		if err != nil {
			logger.Error("Chat disabled, channel unreachable", slog.Any("error", err))
		} else {
			c.NATS = conn
			chatClient = chat.NewClient(chat.NewNatsTransport(conn), cfg.Chat.SubjectPrefix, logger)
		}
	}

	// payments
	var paymentService payment.Service
	gateway, err := payment.NewPayOSGateway(cfg.Payment)
	switch {
	case errors.Is(err, payment.ErrMissingCredentials):
		logger.Warn("Payments disabled, no provider credentials configured")
	case err != nil:
		logger.Error("Payments disabled", slog.Any("error", err))
	default:
		paymentService = payment.NewService(gateway, c.Recorder, cfg.Payment, logger)
	}

	c.AuthHandler = auth.NewAuthHandler(c.Oracle, logger)
	c.CatalogHandler = catalog.NewCatalogHandler(c.Catalog, sessions, remoteClient, c.Favourites, cfg.Catalog.PageSize, logger)
	c.FavouritesHandler = favourites.NewFavouritesHandler(c.Favourites, c.Catalog, c.Recorder, c.Oracle, logger)
	c.InteractionsHandler = interactions.NewInteractionsHandler(c.Recorder, c.Scheduler, c.Oracle, logger)
	c.ChatHandler = chat.NewChatHandler(chatClient, c.Oracle, logger)
	c.PaymentHandler = payment.NewPaymentHandler(paymentService, c.Oracle, logger)
	c.CompanyHandler = company.NewCompanyHandler(company.NewService(remoteClient, cfg.Company.CacheTTL, logger), logger)
	return c, nil
}

func (c *Container) interactionStore(ctx context.Context) (interactions.Store, error) {
	if c.Config.Interactions.Store != "postgres" {
		c.Logger.Info("Keeping interactions in memory")
		return interactions.NewMemoryStore(), nil
	}

	dbConfig, err := database.NewDatabaseConfig(c.Config, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to generate database config: %w", err)
	}
	if err := database.RunMigrations(dbConfig.ConnectionURL, c.Logger); err != nil {
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	pool, err := database.Init(ctx, dbConfig.ConnectionURL, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database pool: %w", err)
	}
	c.Pool = pool
	if !database.WaitForDB(ctx, pool, c.Logger) {
		return nil, errors.New("database not ready after waiting")
	}
	return interactions.NewPostgresStore(pool, c.Logger), nil
}

// Close stops background flushes and releases connections.
func (c *Container) Close() {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.NATS != nil {
		if err := c.NATS.Drain(); err != nil {
			c.Logger.Warn("Failed to drain chat channel", slog.Any("error", err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}
