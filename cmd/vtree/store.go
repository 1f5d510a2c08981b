package main

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/vtree/internal/config"
	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/snapshot"
)

// openStore builds the snapshot store selected by the config.
func openStore(cfg *config.Config) (snapshot.Store, error) {
	switch cfg.Snapshot.Backend {
	case config.BackendS3:
		client := newS3Client(cfg.Snapshot)
		return snapshot.NewS3Store(client, cfg.Snapshot.Bucket, cfg.Snapshot.Prefix, cfg.Snapshot.MaxSize), nil
	default:
		store, err := snapshot.NewDiskStore(cfg.SnapshotDir(), cfg.Snapshot.MaxSize)
		if err != nil {
			return nil, errors.New("S004").WithFile(cfg.SnapshotDir()).Wrap(err)
		}
		return store, nil
	}
}

// newS3Client creates an S3 client from the snapshot settings and the
// standard AWS environment variables.
func newS3Client(cfg config.SnapshotConfig) *s3.Client {
	region := cfg.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	opts := s3.Options{
		Region:      region,
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(envCredentials)),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

func envCredentials(ctx context.Context) (aws.Credentials, error) {
	creds := aws.Credentials{
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "environment",
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return aws.Credentials{}, errors.Newf(errors.CategorySnapshot,
			"AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set for the s3 backend")
	}
	return creds, nil
}
