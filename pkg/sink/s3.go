package sink

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/matzehuels/docmap/pkg/errors"
)

// S3Config configures an S3Sink.
type S3Config struct {
	Bucket string
	Prefix string // key prefix, e.g. "exports/"
	Region string
	// Endpoint overrides the S3 endpoint for MinIO and other compatible
	// stores; path-style addressing is used when set.
	Endpoint string
	// AccessKeyID and SecretAccessKey pin static credentials. When empty the
	// default AWS credential chain applies.
	AccessKeyID     string
	SecretAccessKey string
}

// S3Sink uploads documents to a bucket.
type S3Sink struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Sink loads AWS configuration and builds an S3 client.
func NewS3Sink(ctx context.Context, cfg S3Config) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "s3 sink needs a bucket")
	}
	loaders := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		loaders = append(loaders, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "load aws config")
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
	return &S3Sink{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Save uploads content as <prefix><filename> and returns its s3:// URL.
func (s *S3Sink) Save(ctx context.Context, filename string, content []byte) (string, error) {
	if err := errors.ValidateFilename(filename); err != nil {
		return "", err
	}
	key := path.Join(s.prefix, filename)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(content),
		ContentLength: aws.Int64(int64(len(content))),
		ContentType:   aws.String(ContentType(filename)),
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, err, "upload %s", key)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

var _ Sink = (*S3Sink)(nil)
