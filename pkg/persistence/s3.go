package persistence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dd0wney/cluso-explorer/pkg/logging"
	"github.com/dd0wney/cluso-explorer/pkg/metrics"
	"github.com/dd0wney/cluso-explorer/pkg/snapshot"
)

// ObjectAPI is the subset of the S3 client the store uses.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config locates the snapshot object. Credentials fall back to the
// default AWS chain when AccessKeyID is empty.
type S3Config struct {
	Bucket          string `yaml:"bucket" validate:"required"`
	Key             string `yaml:"key" validate:"required"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

// S3Store keeps the snapshot as a single object.
type S3Store struct {
	client  ObjectAPI
	bucket  string
	key     string
	codec   codec
	logger  logging.Logger
	metrics *metrics.Registry
}

// NewS3Store builds an S3 client from cfg and the ambient AWS configuration.
func NewS3Store(ctx context.Context, cfg S3Config, logger logging.Logger, m *metrics.Registry) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewS3StoreWithClient(client, cfg.Bucket, cfg.Key, logger, m), nil
}

// NewS3StoreWithClient wraps an existing client.
func NewS3StoreWithClient(client ObjectAPI, bucket, key string, logger logging.Logger, m *metrics.Registry) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		key:    key,
		codec:  codecFor(key),
		logger: logging.OrNop(logger).With(
			logging.Component("s3_store"),
			logging.String("bucket", bucket),
			logging.String("key", key)),
		metrics: m,
	}
}

// Name identifies the backend in metrics and logs.
func (s *S3Store) Name() string { return "s3" }

// Load fetches and decodes the snapshot object.
func (s *S3Store) Load(ctx context.Context) (*snapshot.Document, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			s.metrics.RecordLoad(s.Name(), "missing")
			return nil, ErrNotFound
		}
		s.metrics.RecordLoad(s.Name(), "error")
		return nil, fmt.Errorf("failed to get snapshot object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		s.metrics.RecordLoad(s.Name(), "error")
		return nil, fmt.Errorf("failed to read snapshot object: %w", err)
	}

	doc, err := s.codec.decode(data)
	if err != nil {
		s.metrics.RecordLoad(s.Name(), "invalid")
		return nil, err
	}
	s.metrics.RecordLoad(s.Name(), "success")
	return doc, nil
}

// Save encodes doc and overwrites the object.
func (s *S3Store) Save(ctx context.Context, doc *snapshot.Document) error {
	timer := logging.StartTimer(s.logger, "save")
	start := time.Now()

	data, err := s.codec.encode(doc)
	if err != nil {
		s.metrics.RecordSave(s.Name(), "error", time.Since(start), 0)
		timer.EndError(err)
		return err
	}

	contentType := "application/json"
	if s.codec.format == snapshot.YAML {
		contentType = "application/yaml"
	}
	if s.codec.compressed {
		contentType = "application/x-snappy"
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		err = fmt.Errorf("failed to put snapshot object: %w", err)
		s.metrics.RecordSave(s.Name(), "error", time.Since(start), 0)
		timer.EndError(err)
		return err
	}

	s.metrics.RecordSave(s.Name(), "success", time.Since(start), len(data))
	timer.End()
	return nil
}
