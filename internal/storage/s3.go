package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"                  //nolint:staticcheck // TODO: Migrate to aws-sdk-go-v2 s3 manager
	"github.com/aws/aws-sdk-go/aws/session"          //nolint:staticcheck
	"github.com/aws/aws-sdk-go/service/s3"           //nolint:staticcheck
	"github.com/aws/aws-sdk-go/service/s3/s3manager" //nolint:staticcheck

	"github.com/Conceptual-Machines/vibify-api/internal/logger"
)

// ErrInvalidS3URL is returned for inputs that are not s3://bucket/key
var ErrInvalidS3URL = errors.New("invalid s3 url")

// downloader is the part of s3manager.Downloader the fetcher uses
type downloader interface {
	DownloadWithContext(ctx aws.Context, w io.WriterAt, input *s3.GetObjectInput, options ...func(*s3manager.Downloader)) (int64, error)
}

// S3Fetcher downloads remote inputs to the local filesystem
type S3Fetcher struct {
	downloader downloader
}

// NewS3Fetcher creates a fetcher for region using the default credential chain
func NewS3Fetcher(region string) (*S3Fetcher, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return &S3Fetcher{downloader: s3manager.NewDownloader(sess)}, nil
}

// IsS3URL reports whether input names an S3 object
func IsS3URL(input string) bool {
	return strings.HasPrefix(input, "s3://")
}

// ParseS3URL splits s3://bucket/key into bucket and key
func ParseS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidS3URL, err)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Scheme != "s3" || u.Host == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidS3URL, raw)
	}
	return u.Host, key, nil
}

// Fetch downloads s3://bucket/key into destDir and returns the local path.
// A partially written file is removed on failure.
func (f *S3Fetcher) Fetch(ctx context.Context, s3URL, destDir string) (string, error) {
	bucket, key, err := ParseS3URL(s3URL)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(destDir, dirPerm); err != nil {
		return "", fmt.Errorf("create %s: %w", destDir, err)
	}
	localPath := filepath.Join(destDir, path.Base(key))

	file, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", localPath, err)
	}

	logger.Info("Downloading input from S3", logger.Fields{"bucket": bucket, "key": key})
	size, err := f.downloader.DownloadWithContext(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(localPath)
		return "", fmt.Errorf("download %s: %w", s3URL, err)
	}

	logger.Info("Downloaded input from S3", logger.Fields{"path": localPath, "bytes": size})
	return localPath, nil
}
