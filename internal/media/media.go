// Package media stores menu and gallery images in S3-compatible object storage.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// MaxUploadSize is the largest accepted image, in bytes.
const MaxUploadSize = 5 << 20

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image too large")
	ErrUnknownFolder   = errors.New("unknown upload folder")
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var folders = map[string]bool{"menu": true, "gallery": true}

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds S3-compatible storage configuration.
type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// PublicURL is the base URL objects are served from. When empty the
	// path-style endpoint URL is used.
	PublicURL string
}

type Store struct {
	client    s3Client
	bucket    string
	publicURL string
}

func New(cfg Config) *Store {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if opts.Region == "" {
		opts.Region = "auto"
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return newStore(s3.New(opts), cfg)
}

func newStore(client s3Client, cfg Config) *Store {
	public := cfg.PublicURL
	if public == "" {
		public = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return &Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(public, "/"),
	}
}

// Object describes a stored image.
type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Upload reads an image from r, checks its type from the content itself and
// stores it under folder with a random key.
func (s *Store) Upload(ctx context.Context, folder string, r io.Reader) (*Object, error) {
	if !folders[folder] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFolder, folder)
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, ErrTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := extensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	key := path.Join(folder, uuid.NewString()+ext)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return nil, fmt.Errorf("upload to s3: %w", err)
	}

	return &Object{
		Key:         key,
		URL:         s.URL(key),
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

// URL returns the public address of key.
func (s *Store) URL(key string) string {
	return s.publicURL + "/" + key
}

// KeyFromURL returns the object key for a URL served by this store, or false
// for images hosted elsewhere.
func (s *Store) KeyFromURL(u string) (string, bool) {
	prefix := s.publicURL + "/"
	if !strings.HasPrefix(u, prefix) {
		return "", false
	}
	return strings.TrimPrefix(u, prefix), true
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete s3 object %s: %w", key, err)
	}
	return nil
}
