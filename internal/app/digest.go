package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/decoders-hk/centre-assistant-go/internal/awsclient"
	"github.com/decoders-hk/centre-assistant-go/internal/config"
	"github.com/decoders-hk/centre-assistant-go/internal/digest"
	"github.com/decoders-hk/centre-assistant-go/internal/holiday"
	"github.com/decoders-hk/centre-assistant-go/internal/logger"
	"github.com/decoders-hk/centre-assistant-go/internal/metrics"
	"github.com/decoders-hk/centre-assistant-go/internal/objstore"
)

// NewDigestService builds the admin digest on DynamoDB, with the sent-state
// in S3 when a bucket is configured. It is shared by the server and
// cmd/digest.
func NewDigestService(ctx context.Context, cfg *config.Config, awsCfg *aws.Config, sender digest.Sender,
	holidays *holiday.Resolver, m *metrics.Metrics, log *logger.Logger) (*digest.Service, error) {
	if awsCfg == nil {
		return nil, errors.New("digest: AWS configuration required")
	}

	store := digest.NewDynamoStore(awsclient.DynamoDB(*awsCfg, cfg.AWS.DynamoDBEndpoint), cfg.Digest.Table)
	if cfg.AWS.DynamoDBEndpoint != "" {
		if err := store.EnsureTable(ctx); err != nil {
			return nil, fmt.Errorf("digest table: %w", err)
		}
	} else if err := store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("digest table: %w", err)
	}

	var state digest.SentState = digest.NewMemorySentState()
	if cfg.Digest.StateBucket != "" {
		bucket, err := objstore.New(awsclient.S3(*awsCfg, cfg.AWS.S3Endpoint), cfg.Digest.StateBucket)
		if err != nil {
			return nil, fmt.Errorf("digest state: %w", err)
		}
		state = digest.NewS3SentState(bucket, cfg.Digest.StatePrefix)
	} else {
		log.Warn("Digest sent-state kept in memory; a restart may resend today's digest")
	}

	return digest.NewService(digest.Config{
		Hour:           cfg.Digest.Hour,
		Minute:         cfg.Digest.Minute,
		DirectorNumber: cfg.Digest.DirectorNumber,
		MaxItems:       cfg.Digest.MaxItems,
	}, store, state, sender, holidays, m, log), nil
}
