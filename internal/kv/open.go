package kv

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog"

	"ai-thumbnail-pro/internal/config"
)

// Open builds the backend selected by cfg.StoreBackend. The returned close
// func releases pooled connections and is never nil.
func Open(ctx context.Context, cfg config.Config, logger zerolog.Logger) (Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, func() {}, err
		}
		store, err := NewPostgres(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, func() {}, err
		}
		logger.Info().Str("backend", cfg.StoreBackend).Msg("kv store ready")
		return store, pool.Close, nil

	case config.BackendDynamo:
		var optFns []func(*awsconfig.LoadOptions) error
		if cfg.AWSRegion != "" {
			optFns = append(optFns, awsconfig.WithRegion(cfg.AWSRegion))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
		if err != nil {
			return nil, func() {}, fmt.Errorf("load aws config: %w", err)
		}
		logger.Info().
			Str("backend", cfg.StoreBackend).
			Str("region", awsCfg.Region).
			Str("table", cfg.DynamoTable).
			Msg("kv store ready")
		return NewDynamo(dynamodb.NewFromConfig(awsCfg), cfg.DynamoTable), func() {}, nil

	default:
		logger.Info().Str("backend", config.BackendMemory).Msg("kv store ready")
		return NewMemory(), func() {}, nil
	}
}
