package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/urbanfrill/storefront/internal/api"
	"github.com/urbanfrill/storefront/internal/auth"
	"github.com/urbanfrill/storefront/internal/cart"
	"github.com/urbanfrill/storefront/internal/catalog"
	"github.com/urbanfrill/storefront/internal/checkout"
	"github.com/urbanfrill/storefront/internal/config"
	"github.com/urbanfrill/storefront/internal/domain/product"
	"github.com/urbanfrill/storefront/internal/infrastructure/blob"
	"github.com/urbanfrill/storefront/internal/infrastructure/firebase"
	"github.com/urbanfrill/storefront/internal/infrastructure/kafka"
	"github.com/urbanfrill/storefront/internal/infrastructure/redis"
	"github.com/urbanfrill/storefront/internal/infrastructure/store"
	"github.com/urbanfrill/storefront/internal/payment"
	"github.com/urbanfrill/storefront/internal/profile"
	"github.com/urbanfrill/storefront/internal/session"
	"github.com/urbanfrill/storefront/internal/shopper"
	"github.com/urbanfrill/storefront/pkg/closer"
)

type application struct {
	router   http.Handler
	registry *shopper.Registry
}

// build connects every configured backend and assembles the HTTP stack.
// Each opened resource is registered with shutdown so it is released in
// reverse order of construction.
func build(ctx context.Context, cfg *config.Config, log *zap.Logger, shutdown *closer.Closer) (*application, error) {
	health := map[string]api.HealthCheck{}

	var fb *firebase.Clients
	if cfg.NeedsFirebase() {
		var err error
		if fb, err = firebase.New(ctx, cfg, log); err != nil {
			return nil, err
		}
		shutdown.AddErr("firebase", fb.Close)
	}

	docs, err := openDocumentStore(ctx, cfg, fb, log, shutdown, health)
	if err != nil {
		return nil, err
	}

	files, err := openFileStore(ctx, cfg, fb, log)
	if err != nil {
		return nil, err
	}

	var (
		local  cart.LocalStore  = cart.NewMemoryLocalStore()
		backup checkout.Backup = checkout.NewMemoryBackup()
	)
	if cfg.Local.Backend == config.LocalRedis {
		rdb := redis.NewClient(cfg.Redis)
		if err := rdb.Ping(ctx); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		shutdown.AddErr("redis", rdb.Close)
		health["redis"] = rdb.Ping

		local = redis.NewDeviceStore(rdb, cfg.Redis.CartTTL)
		backup = redis.NewBackupStore(rdb, cfg.Redis.BackupTTL)
		log.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	var publisher checkout.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		shutdown.AddErr("kafka producer", producer.Close)
		publisher = producer
		log.Info("Publishing order events",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}

	var sso auth.SSOVerifier
	if cfg.Firebase.EnableSSO {
		sso = auth.NewFirebaseVerifier(fb.Auth)
	}

	profiles := profile.NewService(docs)

	mirror := cart.NewMirror(docs, log.Named("mirror"), cart.MirrorOptions{
		Workers:   cfg.Cart.MirrorWorkers,
		QueueSize: cfg.Cart.MirrorQueue,
		Timeout:   cfg.Cart.MirrorTimeout,
	})
	shutdown.Add(mirror.Close)

	registry := shopper.NewRegistry(&session.Deps{
		Accounts: auth.NewAccounts(docs, nil),
		SSO:      sso,
		Profiles: profiles,
		Files:    files,
		Logger:   log.Named("session"),
	}, local, mirror, cfg.Cart.DeviceIdleTTL, log.Named("shopper"))

	gateway := payment.NewGateway(cfg.Payment.KeyID, cfg.Payment.KeySecret)
	if !gateway.Configured() {
		log.Warn("Online payments disabled: RAZORPAY_KEY_ID is not set")
	}

	repo := checkout.NewRepository(docs, backup, log.Named("orders"), checkout.RepositoryOptions{
		Attempts: cfg.Orders.SaveAttempts,
		Timeout:  cfg.Orders.SaveTimeout,
		Backoff:  cfg.Orders.RetryBackoff,
	})
	checkoutSvc := checkout.NewService(repo, gateway, publisher, cfg.Payment.DraftTTL, log.Named("checkout"))

	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.AccessExpiry, cfg.Auth.RefreshExpiry)

	router := api.NewRouter(api.RouterConfig{
		Handlers:     api.NewHandlers(catalog.NewService(product.Builtin()), checkoutSvc, health, log.Named("api")),
		AuthHandlers: api.NewAuthHandlers(jwtService, profiles, log.Named("auth")),
		Registry:     registry,
		JWTService:   jwtService,
		Logger:       log.Named("http"),
		WebDir:       cfg.HTTP.WebDir,
	})

	return &application{router: router, registry: registry}, nil
}

func openDocumentStore(
	ctx context.Context,
	cfg *config.Config,
	fb *firebase.Clients,
	log *zap.Logger,
	shutdown *closer.Closer,
	health map[string]api.HealthCheck,
) (store.DocumentStore, error) {
	switch cfg.Store.Backend {
	case config.StorePostgres:
		db, err := store.ConnectPostgres(cfg.Store.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		shutdown.AddErr("postgres", db.Close)
		health["postgres"] = db.PingContext

		pg := store.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		log.Info("Connected to PostgreSQL")
		return pg, nil

	case config.StoreDynamoDB:
		client, err := store.NewDynamoClient(ctx, cfg.Store.DynamoRegion, cfg.Store.DynamoEndpoint)
		if err != nil {
			return nil, fmt.Errorf("dynamodb client: %w", err)
		}
		log.Info("Using DynamoDB", zap.String("table", cfg.Store.DynamoTable))
		return store.NewDynamoStore(client, cfg.Store.DynamoTable), nil

	case config.StoreFirestore:
		log.Info("Using Firestore", zap.String("project", cfg.Firebase.ProjectID))
		return store.NewFirestoreStore(fb.Firestore), nil

	default:
		log.Warn("Using in-memory document store; data is lost on restart")
		return store.NewMemoryStore(), nil
	}
}

func openFileStore(ctx context.Context, cfg *config.Config, fb *firebase.Clients, log *zap.Logger) (blob.Store, error) {
	switch cfg.Files.Backend {
	case config.FilesGCS:
		return blob.NewGCSStore(fb.Storage, cfg.Files.Bucket, cfg.Files.PublicBaseURL), nil

	case config.FilesMinIO:
		mc, err := blob.NewMinIOClient(cfg.Files.MinIO)
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		if err := blob.EnsureBucket(ctx, mc, cfg.Files.Bucket); err != nil {
			return nil, err
		}
		log.Info("Using MinIO", zap.String("endpoint", cfg.Files.MinIO.Endpoint), zap.String("bucket", cfg.Files.Bucket))
		return blob.NewMinIOStore(mc, cfg.Files.Bucket, cfg.Files.PublicBaseURL), nil

	default:
		return blob.NewMemoryStore(cfg.Files.PublicBaseURL), nil
	}
}
