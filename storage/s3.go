package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// PutObjectAPI is the part of the S3 client the provider uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 is the generic blob provider.
type S3 struct {
	client     PutObjectAPI
	bucket     string
	region     string
	prefix     string
	publicBase string
}

func NewS3(ctx context.Context, bucket, region, prefix, publicBase string) (*S3, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3WithClient(s3.NewFromConfig(cfg), bucket, region, prefix, publicBase), nil
}

func NewS3WithClient(client PutObjectAPI, bucket, region, prefix, publicBase string) *S3 {
	if publicBase == "" {
		publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3{
		client:     client,
		bucket:     bucket,
		region:     region,
		prefix:     prefix,
		publicBase: strings.TrimRight(publicBase, "/"),
	}
}

func (s *S3) Name() string { return "s3" }

func (s *S3) Upload(ctx context.Context, folder string, f UploadFile) (*Result, error) {
	data, err := readAll(f)
	if err != nil {
		return nil, err
	}

	key := path.Join(s.prefix, folder, fmt.Sprintf("%s-%d%s", uuid.NewString(), time.Now().Unix(), extension(f.FileName)))
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &Result{
		URL:      s.publicBase + "/" + key,
		Provider: s.Name(),
		Bytes:    int64(len(data)),
	}, nil
}

func (s *S3) Owns(rawURL string) bool {
	return strings.HasPrefix(rawURL, s.publicBase+"/")
}

// Delete is a no-op: blob objects are retained for audit.
func (s *S3) Delete(context.Context, string) error { return nil }
