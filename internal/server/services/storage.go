package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/letterdesk/internal/filex"
	sc "github.com/dmitrijs2005/letterdesk/internal/server/config"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MaxAssetSize bounds background and signature downloads.
const MaxAssetSize = 32 << 20

// AssetStore reads template backgrounds and signature images by key.
type AssetStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Deliverer hands a finished document to its destination and returns where
// it can be fetched from.
type Deliverer interface {
	Deliver(ctx context.Context, data []byte, suggestedName string) (string, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		return c.GetObject(ctx, in)
	}
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// S3Storage keeps assets and delivered exports in an S3-compatible bucket.
type S3Storage struct {
	config *sc.Config
	now    func() time.Time
}

func NewS3Storage(config *sc.Config) *S3Storage {
	return &S3Storage{config: config, now: time.Now}
}

// ExportKey returns the object key for a delivered document.
func ExportKey(d time.Time, name string) string {
	return fmt.Sprintf("exports/%d/%d/%d/%v-%s", d.Year(), d.Month(), d.Day(), uuid.New(), filex.SafeName(name))
}

func (s *S3Storage) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Get downloads one object.
func (s *S3Storage) Get(ctx context.Context, key string) ([]byte, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	out, err := getObject(client, ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, MaxAssetSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Deliver uploads data and returns a presigned download URL.
func (s *S3Storage) Deliver(ctx context.Context, data []byte, suggestedName string) (string, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	key := ExportKey(s.now(), suggestedName)
	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.PresignTTL))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// LocalStorage serves assets from and delivers exports to a directory.
type LocalStorage struct {
	dir string
}

// NewLocalStorage creates dir when missing.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &LocalStorage{dir: abs}, nil
}

// Get reads dir/key. The key cannot escape the directory.
func (s *LocalStorage) Get(_ context.Context, key string) ([]byte, error) {
	p := filepath.Join(s.dir, filepath.FromSlash(path.Clean("/"+key)))
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return data, nil
}

// Deliver writes data atomically and returns the file path.
func (s *LocalStorage) Deliver(_ context.Context, data []byte, suggestedName string) (string, error) {
	return filex.WriteAtomic(s.dir, filex.SafeName(suggestedName), data)
}
