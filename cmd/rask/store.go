package main

import (
	"github.com/vango-dev/rask/internal/config"
	"github.com/vango-dev/rask/pkg/snapshot"
)

// openStore returns the configured snapshot store: S3 when a bucket is
// set, the snapshot directory otherwise.
func openStore(cfg *config.Config) (snapshot.Store, error) {
	if cfg.UseS3() {
		s3cfg := cfg.Snapshot.S3
		client := snapshot.NewS3Client(snapshot.S3Config{
			Region:    s3cfg.Region,
			Endpoint:  s3cfg.Endpoint,
			PathStyle: s3cfg.PathStyle,
		})
		return snapshot.NewS3Store(client, s3cfg.Bucket, s3cfg.Prefix), nil
	}
	store, err := snapshot.NewDiskStore(cfg.Snapshot.Dir)
	if err != nil {
		return nil, err
	}
	return store, nil
}
