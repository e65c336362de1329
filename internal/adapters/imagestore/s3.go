package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"eventshub/internal/domain"
)

// S3Config holds configuration for the S3 (or S3-compatible) image bucket.
type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint overrides the AWS endpoint, e.g. for MinIO. Path-style addressing is used when set.
	Endpoint string
	// PublicBaseURL is the prefix of returned image URLs (CDN or bucket website).
	// Defaults to the virtual-hosted bucket URL.
	PublicBaseURL string
}

// objectAPI is the subset of the S3 client used by the store.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type s3Store struct {
	client  objectAPI
	bucket  string
	baseURL string
}

// NewS3Store returns an ImageStore backed by an S3 bucket. Objects are keyed
// "<folder>/<uuid>" and the key doubles as the image's public id.
func NewS3Store(cfg S3Config) (domain.ImageStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("image store bucket is required")
	}
	awsCfg := aws.Config{
		Region: cfg.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Store(client, cfg), nil
}

func newS3Store(client objectAPI, cfg S3Config) *s3Store {
	base := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if base == "" {
		if cfg.Endpoint != "" {
			base = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	return &s3Store{client: client, bucket: cfg.Bucket, baseURL: base}
}

func (s *s3Store) Upload(ctx context.Context, data []byte, folder string) (*domain.UploadedImage, error) {
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: detected %s", domain.ErrNotAnImage, contentType)
	}
	key := path.Join(strings.Trim(folder, "/"), uuid.NewString())
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}
	return &domain.UploadedImage{URL: s.baseURL + "/" + key, PublicID: key}, nil
}

func (s *s3Store) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return fmt.Errorf("public id is required")
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", publicID, err)
	}
	return nil
}

func (s *s3Store) PublicID(imageURL string) (string, bool) {
	key, found := strings.CutPrefix(strings.TrimSpace(imageURL), s.baseURL+"/")
	if !found {
		return "", false
	}
	folder := path.Dir(key)
	if folder == "." {
		folder = ""
	}
	return PublicIDFromURL(imageURL, folder)
}
