// Package upload stores user files in an S3-compatible bucket and hands back
// their public URL.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/Zhouyi071021/campus-circle/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// KeyPrefix is where uploaded files land inside the bucket.
const KeyPrefix = "posts/"

var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// ObjectPutter is the part of the S3 API uploads use.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Storage struct {
	client    ObjectPutter
	bucket    string
	publicURL string
	newKey    func(ext string) string
}

func NewStorage(client ObjectPutter, bucket, publicURL string) *Storage {
	return &Storage{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		newKey: func(ext string) string {
			return KeyPrefix + uuid.NewString() + "." + ext
		},
	}
}

// NewS3Storage builds a client for the configured endpoint with static
// credentials and path-style addressing, which MinIO needs.
func NewS3Storage(ctx context.Context, c *config.Config) (*Storage, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(c.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.S3AccessKey, c.S3SecretKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(c.S3Endpoint)
		}
		o.UsePathStyle = true
	})
	return NewStorage(client, c.S3Bucket, c.S3PublicURL), nil
}

// Object is one file to store.
type Object struct {
	Name        string
	ContentType string
	Data        []byte
}

// Put writes obj under a fresh key and returns its public URL. Anything that
// is not an image is served as a download.
func (s *Storage) Put(ctx context.Context, obj Object) (string, error) {
	contentType := obj.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(obj.Data).String()
	}

	key := s.newKey(extension(obj.Name))
	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(obj.Data),
		ContentLength: aws.Int64(int64(len(obj.Data))),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("max-age=3600"),
	}
	if !strings.HasPrefix(contentType, "image/") {
		in.ContentDisposition = aws.String("attachment")
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.publicURL + "/" + key, nil
}

// extension returns what follows the last dot of name, or the whole name
// when there is no dot.
func extension(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "bin"
	}
	return strings.ToLower(name)
}
