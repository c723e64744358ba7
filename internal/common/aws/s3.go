// internal/common/aws/s3.go
package aws

import (
	"fmt"
	"net/url"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func NewS3Client(cfg awssdk.Config) *s3.Client {
	return s3.NewFromConfig(cfg)
}

// ObjectURL returns the public URL of key. publicBaseURL (a CDN or website
// endpoint) wins over the bucket's virtual-hosted URL.
func ObjectURL(publicBaseURL, bucket, region, key string) string {
	escaped := escapeKey(key)
	if publicBaseURL != "" {
		return strings.TrimRight(publicBaseURL, "/") + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, escaped)
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
