package clients

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3Config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/emzola/libris/config"
	"github.com/emzola/libris/data"
)

// NewS3Client configures a new AWS S3 object storage client. Static credentials are
// used when configured; otherwise the default AWS credential chain applies.
func NewS3Client(cfg config.Config) (*s3.Client, error) {
	opts := []func(*s3Config.LoadOptions) error{s3Config.WithRegion(cfg.S3.Region)}
	if cfg.S3.AccessKeyID != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, "")
		opts = append(opts, s3Config.WithCredentialsProvider(creds))
	}
	awsCfg, err := s3Config.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg), nil
}

// CoverBucket stores book cover images in an S3 bucket, one object per book.
type CoverBucket struct {
	client *s3.Client
	bucket string
	region string
}

// NewCoverBucket wraps an S3 client for the configured bucket.
func NewCoverBucket(client *s3.Client, cfg config.Config) *CoverBucket {
	return &CoverBucket{
		client: client,
		bucket: cfg.S3.Bucket,
		region: cfg.S3.Region,
	}
}

// Upload saves a cover image and returns its public URL. A second upload for the same
// book replaces the first.
func (c *CoverBucket) Upload(ctx context.Context, bookID int64, body []byte, contentType string) (string, error) {
	key := coverKey(bookID)
	uploader := manager.NewUploader(c.client)
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: int64(len(body)),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload cover: %w", err)
	}
	return "https://" + c.bucket + ".s3." + c.region + ".amazonaws.com/" + key, nil
}

// Delete removes the cover image of a book. Deleting a missing object is not an error.
func (c *CoverBucket) Delete(ctx context.Context, bookID int64) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(coverKey(bookID)),
	})
	if err != nil {
		return fmt.Errorf("delete cover: %w", err)
	}
	return nil
}

func coverKey(bookID int64) string {
	return fmt.Sprintf("%ss/%d", data.ScopeCover, bookID)
}
