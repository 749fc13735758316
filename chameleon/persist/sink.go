/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/chainguard-dev/clog"
)

// Sink is a place a record can be written to and read back from.
type Sink interface {
	Put(ctx context.Context, data []byte, contentType string) error
	Get(ctx context.Context) ([]byte, error)
	// URL identifies the sink; its extension selects the format.
	URL() string
}

// S3Config configures the s3:// sink. Empty credentials fall back to the
// default AWS chain.
type S3Config struct {
	Region          string `env:"AWS_REGION,default=us-east-1"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	// Endpoint overrides the S3 endpoint, for S3-compatible stores.
	Endpoint     string `env:"S3_ENDPOINT"`
	UsePathStyle bool   `env:"S3_USE_PATH_STYLE"`
}

// OpenSink returns the sink for url: gs://bucket/object, s3://bucket/key,
// or a local path.
func OpenSink(ctx context.Context, url string, s3cfg S3Config) (Sink, error) {
	switch {
	case strings.HasPrefix(url, "gs://"):
		bucket, object, err := splitBucketURL(url, "gs://")
		if err != nil {
			return nil, err
		}
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating storage client: %w", err)
		}
		return NewGCSSink(client, bucket, object), nil
	case strings.HasPrefix(url, "s3://"):
		bucket, key, err := splitBucketURL(url, "s3://")
		if err != nil {
			return nil, err
		}
		return NewS3Sink(ctx, s3cfg, bucket, key)
	default:
		return FileSink(url), nil
	}
}

func splitBucketURL(url, scheme string) (bucket, key string, err error) {
	bucket, key, ok := strings.Cut(strings.TrimPrefix(url, scheme), "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid URL %q: want %sbucket/key", url, scheme)
	}
	return bucket, key, nil
}

// Save encodes rec in the sink's format and writes it.
func Save(ctx context.Context, sink Sink, rec *Record) error {
	f := FormatFor(sink.URL())
	data, err := Marshal(rec, f)
	if err != nil {
		return err
	}
	if err := sink.Put(ctx, data, f.ContentType()); err != nil {
		return fmt.Errorf("writing %s: %w", sink.URL(), err)
	}
	clog.FromContext(ctx).With("url", sink.URL()).
		With("bytes", len(data)).
		Info("Saved results")
	return nil
}

// Load reads and decodes the record stored in sink.
func Load(ctx context.Context, sink Sink) (*Record, error) {
	data, err := sink.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", sink.URL(), err)
	}
	return Unmarshal(data, FormatFor(sink.URL()))
}

// FileSink is a local file.
type FileSink string

// Put implements Sink.
func (f FileSink) Put(_ context.Context, data []byte, _ string) error {
	if dir := filepath.Dir(string(f)); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(string(f)), filepath.Base(string(f))+".*")
	if err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), string(f))
}

// Get implements Sink.
func (f FileSink) Get(context.Context) ([]byte, error) {
	return os.ReadFile(string(f))
}

// URL implements Sink.
func (f FileSink) URL() string { return string(f) }

// GCSSink is an object in Google Cloud Storage.
type GCSSink struct {
	client *storage.Client
	bucket string
	object string
}

// NewGCSSink returns a sink for gs://bucket/object.
func NewGCSSink(client *storage.Client, bucket, object string) *GCSSink {
	return &GCSSink{client: client, bucket: bucket, object: object}
}

// Put implements Sink.
func (g *GCSSink) Put(ctx context.Context, data []byte, contentType string) error {
	w := g.client.Bucket(g.bucket).Object(g.object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// Get implements Sink.
func (g *GCSSink) Get(ctx context.Context) ([]byte, error) {
	r, err := g.client.Bucket(g.bucket).Object(g.object).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// URL implements Sink.
func (g *GCSSink) URL() string { return "gs://" + g.bucket + "/" + g.object }

// S3Sink is an object in Amazon S3 or an S3-compatible store.
type S3Sink struct {
	client *s3.Client
	bucket string
	key    string
}

// NewS3Sink loads the AWS configuration and returns a sink for
// s3://bucket/key.
func NewS3Sink(ctx context.Context, cfg S3Config, bucket, key string, optFns ...func(*s3.Options)) (*S3Sink, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	switch {
	case cfg.AccessKeyID != "" && cfg.SecretAccessKey != "":
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	case cfg.AccessKeyID != "" || cfg.SecretAccessKey != "":
		return nil, errors.New("both the access key ID and the secret access key must be set")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	opts := []func(*s3.Options){func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}}
	return &S3Sink{
		client: s3.NewFromConfig(awsCfg, append(opts, optFns...)...),
		bucket: bucket,
		key:    key,
	}, nil
}

// Put implements Sink.
func (s *S3Sink) Put(ctx context.Context, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	return err
}

// Get implements Sink.
func (s *S3Sink) Get(ctx context.Context) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// URL implements Sink.
func (s *S3Sink) URL() string { return "s3://" + s.bucket + "/" + s.key }
