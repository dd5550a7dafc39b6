package blob

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Config holds S3-compatible storage settings. An empty Bucket disables uploads.
type Config struct {
	Bucket    string `env:"S3_BUCKET"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
	Endpoint  string `env:"S3_ENDPOINT"`
	Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	// PublicURL is a CDN or bucket URL prefix used to build object URLs.
	PublicURL string `env:"S3_PUBLIC_URL"`
	Prefix    string `env:"UPLOAD_PREFIX" envDefault:"uploads"`
	MaxSize   int64  `env:"UPLOAD_MAX_SIZE" envDefault:"10485760"`
	PathStyle bool   `env:"S3_PATH_STYLE" envDefault:"false"`
	PublicACL bool   `env:"S3_PUBLIC_READ" envDefault:"true"`
}

// Enabled reports whether a bucket is configured.
func (c Config) Enabled() bool { return c.Bucket != "" }

func (c Config) validate() error {
	if c.Bucket == "" || c.AccessKey == "" || c.SecretKey == "" {
		return ErrInvalidConfig
	}
	return nil
}

// S3 stores uploads in an S3-compatible bucket.
type S3 struct {
	client *s3.Client
	cfg    Config
}

// NewS3 creates an S3 client from cfg. It does not contact the bucket.
func NewS3(cfg Config) (*S3, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.Region = cfg.Region
			o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		},
	}
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		})
	}

	return &S3{client: s3.New(s3.Options{}, opts...), cfg: cfg}, nil
}

// Put uploads u under a generated key and returns its public URL.
func (s *S3) Put(ctx context.Context, u Upload) (Object, error) {
	key := buildKey(s.cfg.Prefix, u)

	acl := types.ObjectCannedACLPrivate
	if s.cfg.PublicACL {
		acl = types.ObjectCannedACLPublicRead
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(u.Data),
		ContentLength: aws.Int64(int64(len(u.Data))),
		ContentType:   aws.String(u.ContentType),
		ACL:           acl,
	})
	if err != nil {
		return Object{}, wrapS3Error(err, ErrUploadFailed)
	}

	return Object{
		Key:         key,
		URL:         s.URL(key),
		ContentType: u.ContentType,
		Size:        int64(len(u.Data)),
	}, nil
}

// Ping checks that the bucket exists and is reachable.
func (s *S3) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.cfg.Bucket)})
	if err != nil {
		return wrapS3Error(err, ErrUnreachable)
	}
	return nil
}

// URL returns the public URL of key.
func (s *S3) URL(key string) string {
	if s.cfg.PublicURL != "" {
		return strings.TrimSuffix(s.cfg.PublicURL, "/") + "/" + key
	}
	if s.cfg.Endpoint != "" {
		endpoint := strings.TrimSuffix(s.cfg.Endpoint, "/")
		if s.cfg.PathStyle {
			return fmt.Sprintf("%s/%s/%s", endpoint, s.cfg.Bucket, key)
		}
		return fmt.Sprintf("%s/%s", endpoint, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}

// Open returns an S3 store for cfg, or Disabled when no bucket is configured.
func Open(cfg Config) (Store, error) {
	if !cfg.Enabled() {
		return Disabled{}, nil
	}
	return NewS3(cfg)
}

var _ Store = (*S3)(nil)
