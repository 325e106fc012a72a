package s3

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

const URIScheme = "s3://"

type ItfS3 interface {
	Download(uri string) ([]byte, error)
}

type s3Client struct {
	downloader    *s3manager.Downloader
	defaultBucket string
}

func New() (ItfS3, error) {
	sess, err := newSession()
	if err != nil {
		return nil, err
	}

	return &s3Client{
		downloader:    s3manager.NewDownloader(sess),
		defaultBucket: os.Getenv("AWS_BUCKET_NAME"),
	}, nil
}

// Download fetches an object addressed as s3://bucket/key. A bare key is
// resolved against AWS_BUCKET_NAME.
func (s *s3Client) Download(uri string) ([]byte, error) {
	bucket, key, err := SplitURI(uri, s.defaultBucket)
	if err != nil {
		return nil, err
	}

	buf := aws.NewWriteAtBuffer([]byte{})
	n, err := s.downloader.Download(buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("download s3://%s/%s: %w", bucket, key, err)
	}

	return buf.Bytes()[:n], nil
}

func IsURI(path string) bool {
	return strings.HasPrefix(path, URIScheme)
}

func SplitURI(uri string, defaultBucket string) (string, string, error) {
	trimmed := strings.TrimPrefix(uri, URIScheme)
	if trimmed == "" {
		return "", "", fmt.Errorf("empty s3 location")
	}

	bucket := defaultBucket
	key := trimmed
	if IsURI(uri) {
		parts := strings.SplitN(trimmed, "/", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return "", "", fmt.Errorf("invalid s3 location %q", uri)
		}
		bucket, key = parts[0], parts[1]
	}
	if bucket == "" {
		return "", "", fmt.Errorf("no bucket for s3 key %q", key)
	}

	decodedKey, err := url.QueryUnescape(key)
	if err != nil {
		return "", "", fmt.Errorf("failed to decode S3 key: %w", err)
	}

	return bucket, decodedKey, nil
}

func newSession() (*session.Session, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(os.Getenv("AWS_REGION")),
		Credentials: credentials.NewStaticCredentials(
			os.Getenv("AWS_ACCESS_KEY_ID"),
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			"",
		),
	})

	if err != nil {
		return nil, err
	}

	return sess, nil
}
