package config

import (
	"context"

	"github.com/matzehuels/docmap/pkg/cache"
	"github.com/matzehuels/docmap/pkg/sink"
	"github.com/matzehuels/docmap/pkg/store"
)

// OpenCache builds the configured cache backend. A file cache without a
// directory uses cache.DefaultDir.
func (c *Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.Cache.Redis.Addr,
			Password: c.Cache.Redis.Password,
			DB:       c.Cache.Redis.DB,
			Prefix:   c.Cache.Redis.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	}
	dir, err := c.CacheDir()
	if err != nil {
		return nil, err
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return fc, nil
}

// CacheDir is the file cache directory.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return cache.DefaultDir()
}

// OpenSink builds the configured export sink.
func (c *Config) OpenSink(ctx context.Context) (sink.Sink, error) {
	if c.Sink.Backend != "s3" {
		return sink.NewFileSink(c.Sink.Dir), nil
	}
	s, err := sink.NewS3Sink(ctx, sink.S3Config{
		Bucket:          c.Sink.S3.Bucket,
		Prefix:          c.Sink.S3.Prefix,
		Region:          c.Sink.S3.Region,
		Endpoint:        c.Sink.S3.Endpoint,
		AccessKeyID:     c.Sink.S3.AccessKeyID,
		SecretAccessKey: c.Sink.S3.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// OpenStore opens the configured map store.
func (c *Config) OpenStore(ctx context.Context) (store.Source, error) {
	if !store.IsMongoDSN(c.Store.DSN) {
		return store.Open(ctx, c.Store.DSN)
	}
	s, err := store.NewMongoSource(ctx, c.Store.DSN, c.Store.MongoDatabase)
	if err != nil {
		return nil, err
	}
	return s, nil
}
