// Package firebase bootstraps the Firebase app and the Google clients derived
// from it.
package firebase

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	fb "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/urbanfrill/storefront/internal/config"
)

// Clients holds whichever Google clients the configuration asked for.
// Unused clients stay nil.
type Clients struct {
	App       *fb.App
	Firestore *firestore.Client
	Storage   *storage.Client
	Auth      *fbauth.Client
}

// New initializes the Firebase app and the clients the configuration needs.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Clients, error) {
	if cfg.Firebase.ProjectID == "" {
		return nil, fmt.Errorf("firebase: project id is required")
	}

	var opts []option.ClientOption
	if cfg.Firebase.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
	}

	app, err := fb.NewApp(ctx, &fb.Config{
		ProjectID:     cfg.Firebase.ProjectID,
		StorageBucket: cfg.Files.Bucket,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: NewApp failed: %w", err)
	}
	c := &Clients{App: app}

	if cfg.Store.Backend == config.StoreFirestore {
		if c.Firestore, err = app.Firestore(ctx); err != nil {
			return nil, fmt.Errorf("firebase: firestore client: %w", err)
		}
		logger.Info("Firestore client initialized", zap.String("project", cfg.Firebase.ProjectID))
	}

	if cfg.Files.Backend == config.FilesGCS {
		if c.Storage, err = storage.NewClient(ctx, opts...); err != nil {
			c.Close()
			return nil, fmt.Errorf("firebase: storage.NewClient failed: %w", err)
		}
		logger.Info("GCS storage client initialized", zap.String("bucket", cfg.Files.Bucket))
	}

	if cfg.Firebase.EnableSSO {
		if c.Auth, err = app.Auth(ctx); err != nil {
			c.Close()
			return nil, fmt.Errorf("firebase: auth client: %w", err)
		}
		logger.Info("Firebase auth client initialized")
	}

	return c, nil
}

// Close releases the clients that hold connections.
func (c *Clients) Close() error {
	var firstErr error
	if c.Firestore != nil {
		if err := c.Firestore.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.Storage != nil {
		if err := c.Storage.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
