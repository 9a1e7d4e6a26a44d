// Package s3store implements blob.Store on Amazon S3 or an S3-compatible endpoint.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"inventorycam/internal/blob"
	"inventorycam/internal/config"
	"inventorycam/internal/logger"
)

// Options configures the S3 client.
type Options struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint overrides the AWS endpoint, e.g. for MinIO.
	Endpoint string
	// PublicBaseURL, when set, is used instead of presigned URLs.
	PublicBaseURL string
	PresignTTL    time.Duration
	// MaxRetries is the number of SDK retries per request. Zero disables them.
	MaxRetries int
}

// OptionsFromConfig builds Options from the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Region:          cfg.AWSRegion,
		Bucket:          cfg.AWSBucket,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		Endpoint:        cfg.AWSEndpoint,
		PublicBaseURL:   cfg.S3PublicBaseURL,
		PresignTTL:      cfg.PresignTTL,
		MaxRetries:      0,
	}
}

// Store uploads objects to a single bucket.
type Store struct {
	client   *s3.S3
	uploader *s3manager.Uploader
	opts     Options
	logger   *logger.Logger
}

// New creates a store for the configured bucket.
func New(opts Options, logger *logger.Logger) (*Store, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3store: bucket name required")
	}
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = 15 * time.Minute
	}

	awsConfig := &aws.Config{
		Region: aws.String(opts.Region),
	}
	if opts.AccessKeyID != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(opts.AccessKeyID, opts.SecretAccessKey, "")
	}
	if opts.Endpoint != "" {
		awsConfig.Endpoint = aws.String(opts.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}
	// Nieudany upload konczy probe, bez ponawiania
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	awsConfig.MaxRetries = aws.Int(opts.MaxRetries)

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("s3store: create session: %w", err)
	}

	return &Store{
		client:   s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		opts:     opts,
		logger:   logger,
	}, nil
}

// Put uploads the decoded payload under key.
func (s *Store) Put(ctx context.Context, key string, data []byte, encoding blob.Encoding) (blob.Handle, error) {
	if err := blob.ValidateKey(key); err != nil {
		return blob.Handle{}, err
	}

	payload, contentType, err := blob.Decode(data, encoding)
	if err != nil {
		return blob.Handle{}, err
	}

	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.opts.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return blob.Handle{}, classify("upload", key, err)
	}

	s.logger.Debug("Uploaded %s to bucket %s", key, s.opts.Bucket)
	return blob.Handle{Key: key, Location: out.Location}, nil
}

// ResolveURL returns the public URL when configured, otherwise a presigned GET URL.
func (s *Store) ResolveURL(ctx context.Context, h blob.Handle) (string, error) {
	_, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(h.Key),
	})
	if err != nil {
		return "", classify("head", h.Key, err)
	}

	if s.opts.PublicBaseURL != "" {
		return url.JoinPath(s.opts.PublicBaseURL, h.Key)
	}

	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(h.Key),
	})
	signed, err := req.Presign(s.opts.PresignTTL)
	if err != nil {
		return "", fmt.Errorf("s3store: presign %s: %w", h.Key, err)
	}
	return signed, nil
}

// Delete removes an object from the bucket.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return classify("delete", key, err)
	}
	return nil
}

// classify wraps client-side (4xx) responses with blob.ErrRejected; everything
// else is left as a transport failure.
func classify(op, key string, err error) error {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() >= 400 && reqErr.StatusCode() < 500 {
		return fmt.Errorf("%w: s3 %s %s: %s (%d)", blob.ErrRejected, op, key, reqErr.Code(), reqErr.StatusCode())
	}
	return fmt.Errorf("s3store: %s %s: %w", op, key, err)
}
