package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/Dosada05/tournament-finder/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/errgroup"
)

type CloudflareR2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
	// Endpoint overrides the account endpoint, e.g. for a local S3 emulator.
	Endpoint string
}

// s3API is the subset of *s3.Client used here.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// R2Storage stores uploads in an S3-compatible bucket and resolves upload
// handles (object keys) back into image records.
type R2Storage struct {
	client        s3API
	bucketName    string
	publicBaseURL *url.URL
	concurrency   int
}

func NewCloudflareR2Storage(ctx context.Context, cfg CloudflareR2Config) (*R2Storage, error) {
	if cfg.AccountID == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.BucketName == "" || cfg.PublicBaseURL == "" {
		return nil, fmt.Errorf("%w: account id, credentials, bucket and public base url are required", ErrInvalidConfig)
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}

	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config for R2: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
	return newR2Storage(client, cfg.BucketName, cfg.PublicBaseURL)
}

func newR2Storage(client s3API, bucket, publicBaseURL string) (*R2Storage, error) {
	base, err := url.Parse(publicBaseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("%w: public base url %q", ErrInvalidConfig, publicBaseURL)
	}
	return &R2Storage{client: client, bucketName: bucket, publicBaseURL: base, concurrency: 8}, nil
}

func (s *R2Storage) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	result, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        reader,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload object to R2 (key: %s): %w", key, err)
	}

	etag := ""
	if result.ETag != nil {
		etag = strings.Trim(*result.ETag, "\"")
	}
	return &UploadResult{Key: key, Location: s.GetPublicURL(key), ETag: etag}, nil
}

func (s *R2Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from R2 (key: %s): %w", key, err)
	}
	return nil
}

func (s *R2Storage) GetPublicURL(key string) string {
	return publicURL(s.publicBaseURL, key)
}

// Resolve looks every handle up in the bucket. Handles with no object are
// dropped; the rest keep their input order.
func (s *R2Storage) Resolve(ctx context.Context, handles []string) ([]models.Image, error) {
	found := make([]*models.Image, len(handles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, key := range handles {
		g.Go(func() error {
			out, err := s.client.HeadObject(gctx, &s3.HeadObjectInput{
				Bucket: aws.String(s.bucketName),
				Key:    aws.String(key),
			})
			if err != nil {
				var notFound *types.NotFound
				if errors.As(err, &notFound) {
					return nil
				}
				return fmt.Errorf("failed to resolve object %s: %w", key, err)
			}
			created := time.Now().UTC()
			if out.LastModified != nil {
				created = out.LastModified.UTC()
			}
			found[i] = imageRecord(s.publicBaseURL, key, created)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	images := make([]models.Image, 0, len(handles))
	for _, img := range found {
		if img != nil {
			images = append(images, *img)
		}
	}
	return images, nil
}

func imageRecord(base *url.URL, key string, created time.Time) *models.Image {
	secure := publicURL(base, key)
	insecure := secure
	if u, err := url.Parse(secure); err == nil {
		u.Scheme = "http"
		insecure = u.String()
	}
	if strings.HasPrefix(secure, "http://") {
		secure = "https://" + strings.TrimPrefix(secure, "http://")
	}
	return &models.Image{PublicID: key, URL: insecure, SecureURL: secure, CreatedAt: created}
}

func publicURL(base *url.URL, key string) string {
	if base == nil || key == "" {
		return ""
	}
	u := *base
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(key, "/")
	return u.String()
}
