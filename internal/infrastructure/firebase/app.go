package firebase

import (
	"context"
	"fmt"

	fbapp "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"gigmarket/pkg/config"
	"gigmarket/pkg/logger"
)

// NewApp initializes the Firebase app from inline JSON credentials, a
// credentials file, or application default credentials, in that order.
func NewApp(ctx context.Context, cfg *config.Config) (*fbapp.App, error) {
	var opts []option.ClientOption
	switch {
	case cfg.ServiceAccountJSON != "":
		logger.Info("Using Firebase credentials from environment")
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)))
	case cfg.ServiceAccountPath != "":
		logger.Info("Using Firebase credentials file %s", cfg.ServiceAccountPath)
		opts = append(opts, option.WithCredentialsFile(cfg.ServiceAccountPath))
	default:
		logger.Info("Using application default credentials")
	}

	fbConfig := &fbapp.Config{ProjectID: cfg.FirebaseProject}
	if cfg.StorageBucket != "" {
		fbConfig.StorageBucket = cfg.StorageBucket
	}

	app, err := fbapp.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	return app, nil
}
