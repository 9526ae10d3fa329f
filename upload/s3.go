package upload

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Config configures the S3-backed uploader. BaseEndpoint and UsePathStyle
// support S3-compatible stores (MinIO and friends); PublicBaseURL overrides
// the URL assets are served from, e.g. a CDN in front of the bucket.
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseEndpoint    string
	PublicBaseURL   string
	KeyPrefix       string
	UsePathStyle    bool
}

// S3Uploader stores assets in an S3 bucket under random object keys.
type S3Uploader struct {
	client *s3.Client
	cfg    S3Config
}

// NewS3Uploader builds the AWS client from cfg and returns the uploader.
func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	if cfg.Region == "" || cfg.Bucket == "" {
		return nil, errors.New("s3 uploader requires region and bucket")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Uploader{client: client, cfg: cfg}, nil
}

// Upload writes the object and returns its public URL together with the
// caller-supplied original name.
func (u *S3Uploader) Upload(ctx context.Context, in Input) (*Asset, error) {
	if in.Body == nil {
		return nil, errors.New("upload requires a body")
	}

	key := objectKey(u.cfg.KeyPrefix, in.OriginalName)

	put := &s3.PutObjectInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(key),
		Body:   in.Body,
	}
	if in.ContentType != "" {
		put.ContentType = aws.String(in.ContentType)
	}
	if in.Size > 0 {
		put.ContentLength = aws.Int64(in.Size)
	}

	if _, err := u.client.PutObject(ctx, put); err != nil {
		return nil, err
	}

	return &Asset{
		URL:          assetURL(u.cfg, key),
		OriginalName: in.OriginalName,
	}, nil
}

// objectKey names stored objects by a fresh UUID, keeping only the original
// file extension. Caller-chosen names never become object keys.
func objectKey(prefix, originalName string) string {
	ext := strings.ToLower(path.Ext(originalName))
	key := uuid.NewString() + ext
	if prefix != "" {
		key = strings.TrimRight(prefix, "/") + "/" + key
	}
	return key
}

func assetURL(cfg S3Config, key string) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", cfg.Bucket, cfg.Region, key)
}
