// Package s3store implements storage.Store on Amazon S3 or any S3-compatible
// object store (NAVER Cloud Object Storage, MinIO, ...).
//
// Objects are returned either as a public URL under a configured base or as
// a presigned GET URL valid for a fixed TTL.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/MrWong99/greeni/internal/storage"
)

// DefaultPresignTTL is used when Config.PresignTTL is zero.
const DefaultPresignTTL = 15 * time.Minute

// Config configures a [Store].
type Config struct {
	Bucket string
	Region string

	// Endpoint overrides the S3 endpoint for compatible services.
	Endpoint string

	// AccessKey and SecretKey select static credentials. When empty the AWS
	// default credential chain (env, shared config, instance role) is used.
	AccessKey string
	SecretKey string

	// Prefix is prepended to every key.
	Prefix string

	// PublicBaseURL, when set, makes Put return PublicBaseURL/<key> instead of
	// a presigned URL.
	PublicBaseURL string

	PresignTTL time.Duration

	// PathStyle addresses the bucket in the path rather than the host name.
	PathStyle bool
}

// Store is an S3-backed [storage.Store].
type Store struct {
	client     *s3.Client
	presign    *s3.PresignClient
	bucket     string
	prefix     string
	publicBase string
	presignTTL time.Duration
}

var _ storage.Store = (*Store)(nil)

// New creates a [Store]. Credentials are resolved once here.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3store: bucket must not be empty")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = DefaultPresignTTL
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3store: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
		// S3-compatible stores often reject streaming checksum trailers.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	return &Store{
		client:     client,
		presign:    s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		prefix:     strings.Trim(cfg.Prefix, "/"),
		publicBase: strings.TrimRight(cfg.PublicBaseURL, "/"),
		presignTTL: cfg.PresignTTL,
	}, nil
}

// Put uploads data and returns its public or presigned URL.
func (s *Store) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	full := s.objectKey(key)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(full),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("s3store: put %q: %w", full, err)
	}

	if s.publicBase != "" {
		return s.publicBase + "/" + full, nil
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(full),
	}, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return "", fmt.Errorf("s3store: presign %q: %w", full, err)
	}
	return req.URL, nil
}

// Bucket returns the configured bucket name.
func (s *Store) Bucket() string { return s.bucket }

func (s *Store) objectKey(key string) string {
	key = strings.TrimLeft(key, "/")
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}
