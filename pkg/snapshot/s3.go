package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of *s3.Client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store writes snapshots to an S3 bucket as <prefix><name>.html.
//
//	client := snapshot.NewS3Client(snapshot.S3Config{Region: "eu-west-1"})
//	store := snapshot.NewS3Store(client, "my-bucket", "snapshots/")
type S3Store struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Store creates an S3Store.
func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Store) key(name string) string {
	return s.prefix + name + ".html"
}

// Save uploads the snapshot and returns its s3:// location.
func (s *S3Store) Save(ctx context.Context, snap *Snapshot) (string, error) {
	if err := ValidateName(snap.Name); err != nil {
		return "", err
	}
	key := s.key(snap.Name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(snap.HTML),
		ContentLength: aws.Int64(int64(len(snap.HTML))),
		ContentType:   aws.String("text/html; charset=utf-8"),
		Metadata: map[string]string{
			"nodes":     strconv.Itoa(snap.Nodes),
			"mutations": strconv.FormatUint(snap.Mutations, 10),
			"taken-at":  snap.TakenAt.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("snapshot: s3 upload failed: %w", err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}

// Load downloads a saved snapshot.
func (s *S3Store) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("snapshot: s3 download failed: %w", err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// S3Config describes how to reach the bucket.
type S3Config struct {
	Region string
	// Endpoint overrides the service endpoint, for S3-compatible stores.
	Endpoint string
	// PathStyle forces path-style addressing.
	PathStyle bool
}

// NewS3Client builds an S3 client. Credentials come from the standard
// AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN
// variables.
func NewS3Client(cfg S3Config) *s3.Client {
	return s3.New(s3.Options{
		Region:      cfg.Region,
		Credentials: aws.NewCredentialsCache(envCredentials{}),
	}, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
}

type envCredentials struct{}

func (envCredentials) Retrieve(context.Context) (aws.Credentials, error) {
	id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.Credentials{}, errors.New("snapshot: AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
	}
	return aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "environment",
	}, nil
}
