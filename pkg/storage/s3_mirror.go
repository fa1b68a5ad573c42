package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/unexca/student-docs-api/pkg/config"
)

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Mirror copies issued artifacts to an S3-compatible bucket.
type S3Mirror struct {
	client objectPutter
	bucket string
	prefix string
	logger *zap.Logger
}

// NewS3Mirror builds a mirror from configuration. It works against AWS S3 or
// any S3-compatible endpoint such as MinIO.
func NewS3Mirror(ctx context.Context, cfg config.MirrorConfig, logger *zap.Logger) (*S3Mirror, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("mirror bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("mirror credentials are required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			endpoint := cfg.Endpoint
			if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
				endpoint = "https://" + endpoint
			}
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return newS3Mirror(client, cfg.Bucket, cfg.Prefix, logger), nil
}

func newS3Mirror(client objectPutter, bucket, prefix string, logger *zap.Logger) *S3Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Mirror{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

// Put uploads data under prefix+name and returns the object key.
func (m *S3Mirror) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	key := path.Join(m.prefix, name)
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	m.logger.Debug("object mirrored", zap.String("bucket", m.bucket), zap.String("key", key), zap.Int("bytes", len(data)))
	return key, nil
}
