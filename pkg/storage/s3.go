package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Client abstracts the S3 API operations used by [S3]. The
// [s3.Client] type satisfies this interface.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3 implements FileStore backed by Amazon S3 or any S3-compatible
// object store (MinIO, R2, etc.), so corpus snapshots can be shipped
// off the host that serves queries.
//
// Storage paths are mapped to object keys under an optional prefix.
// The caller is responsible for configuring the [s3.Client] with
// appropriate credentials, region, and endpoint.
type S3 struct {
	client S3Client
	bucket string
	prefix string
}

// NewS3 creates an S3-backed FileStore.
//
// Any type satisfying [S3Client] is accepted; typically an [s3.Client].
// Prefix is prepended to all object keys; pass "" for no prefix.
func NewS3(client S3Client, bucket, prefix string) *S3 {
	return &S3{client: client, bucket: bucket, prefix: prefix}
}

// IsS3URI reports whether dest names an S3 destination rather than a
// local path.
func IsS3URI(dest string) bool {
	return strings.HasPrefix(dest, "s3://")
}

// ParseS3URI splits a destination of the form s3://bucket/path into
// bucket and object key. The key may be empty when the URI names only
// a bucket.
func ParseS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("storage: parse s3 uri %q: %w", uri, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("storage: %q is not an s3:// destination", uri)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("storage: s3 uri %q has no bucket", uri)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// key builds the full S3 object key for the given storage path.
func (s *S3) key(p string) string {
	return path.Join(s.prefix, p)
}

// Read opens the named object for reading via GetObject. Returns an
// error wrapping os.ErrNotExist if the key does not exist.
func (s *S3) Read(ctx context.Context, p string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(p)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("storage: read %s: %w", p, os.ErrNotExist)
		}
		return nil, fmt.Errorf("storage: s3 read %s: %w", p, err)
	}
	return out.Body, nil
}

// Write returns a writer that streams data to S3 via PutObject.
//
// A background goroutine performs the upload, reading from an
// [io.Pipe]. The caller must close the writer to complete the upload;
// Close blocks until the upload finishes and returns any S3 error.
func (s *S3) Write(ctx context.Context, p string) (io.WriteCloser, error) {
	pr, pw := io.Pipe()
	w := &s3Writer{pw: pw, errc: make(chan error, 1)}
	go func() {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key(p)),
			Body:   pr,
		})
		// On an early upload failure this unblocks pending Write calls.
		pr.CloseWithError(err)
		w.errc <- err
	}()
	return w, nil
}

// Delete removes the named object via DeleteObject. S3 DeleteObject is
// already idempotent (returns success for missing keys).
func (s *S3) Delete(ctx context.Context, p string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(p)),
	})
	if err != nil {
		return fmt.Errorf("storage: s3 delete %s: %w", p, err)
	}
	return nil
}

// Exists checks whether the named object exists via HeadObject.
func (s *S3) Exists(ctx context.Context, p string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(p)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("storage: s3 head %s: %w", p, err)
	}
	return true, nil
}

// s3Writer streams data to a background PutObject call through an
// io.Pipe. The upload result arrives on errc exactly once.
type s3Writer struct {
	pw   *io.PipeWriter
	errc chan error
}

func (w *s3Writer) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

// Close signals EOF so PutObject finishes reading, waits for the
// upload to complete, and returns the upload error (if any).
func (w *s3Writer) Close() error {
	w.pw.Close()
	return <-w.errc
}

// Abort fails the pipe so PutObject errors out and stores nothing, then
// waits for the upload goroutine to finish.
func (w *s3Writer) Abort() error {
	w.pw.CloseWithError(errWriteAborted)
	<-w.errc
	return nil
}

var errWriteAborted = errors.New("storage: write aborted")

// isS3NotFound reports whether err indicates the S3 object does not
// exist.
func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

var _ FileStore = (*S3)(nil)
