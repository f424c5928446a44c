// Package source opens the input stream for an ingestion run.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// Stdin is the name that selects standard input.
const Stdin = "-"

// ErrSourceNotFound is returned when the local path or S3 object does not exist.
var ErrSourceNotFound = errors.New("source does not exist")

// IsS3 reports whether name is an s3:// URL.
func IsS3(name string) bool {
	return strings.HasPrefix(name, "s3://")
}

// Open opens name for streaming: a local path, Stdin, or an s3://bucket/key
// URL. The s3client is required only for S3 URLs.
// The caller must close the returned reader.
func Open(ctx context.Context, name string, s3client s3iface.S3API) (io.ReadCloser, error) {
	switch {
	case name == Stdin:
		return io.NopCloser(os.Stdin), nil
	case IsS3(name):
		return openS3(ctx, name, s3client)
	default:
		f, err := os.Open(name)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, name)
			}
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		return f, nil
	}
}

func openS3(ctx context.Context, name string, s3client s3iface.S3API) (io.ReadCloser, error) {
	if s3client == nil {
		return nil, errors.New("missing s3 client")
	}
	u, err := url.Parse(name)
	if err != nil {
		return nil, fmt.Errorf("parse S3 URL %s: %w", name, err)
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("S3 URL %s must name a bucket and a key", name)
	}

	result, err := s3client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) {
			switch aerr.Code() {
			case s3.ErrCodeNoSuchBucket, s3.ErrCodeNoSuchKey:
				return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, name)
			}
		}
		return nil, fmt.Errorf("fetch S3 object %s: %w", name, err)
	}
	return result.Body, nil
}
