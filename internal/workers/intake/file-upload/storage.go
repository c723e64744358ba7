// internal/workers/intake/file-upload/storage.go
package fileupload

import (
	"bytes"
	"context"
	"fmt"

	commonaws "quote-intake/internal/common/aws"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Storage is the object-storage adapter: it stores body under key and returns its public URL.
type Storage interface {
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// S3API is the part of *s3.Client the adapter needs.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Storage struct {
	api           S3API
	bucket        string
	region        string
	publicBaseURL string
}

func NewS3Storage(api S3API, bucket, region, publicBaseURL string) *S3Storage {
	return &S3Storage{
		api:           api,
		bucket:        bucket,
		region:        region,
		publicBaseURL: publicBaseURL,
	}
}

func (s *S3Storage) Put(ctx context.Context, key, contentType string, body []byte) (string, error) {
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        awssdk.String(s.bucket),
		Key:           awssdk.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   awssdk.String(contentType),
		ContentLength: awssdk.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return commonaws.ObjectURL(s.publicBaseURL, s.bucket, s.region, key), nil
}
