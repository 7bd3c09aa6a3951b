package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	sc "github.com/akozlovs/filestash/internal/server/config"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Seams for testing the AWS SDK calls without a live endpoint.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
		return c.DeleteObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ObjectStore adapts an S3-compatible backend (MinIO, AWS) to the thin
// contract the services need: store bytes under a fresh key, delete by key,
// and build short-lived retrieval URLs.
type ObjectStore struct {
	config *sc.Config
}

// NewObjectStore constructs an ObjectStore using the server config's S3 settings.
func NewObjectStore(cfg *sc.Config) *ObjectStore {
	return &ObjectStore{config: cfg}
}

// randomStorageKey builds a date-partitioned, collision-free object key.
func randomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("users/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *ObjectStore) getClient(ctx context.Context) (*s3.Client, error) {
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

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return client, nil
}

// Store uploads data under a freshly generated key and returns the object's
// retrieval URL and storage key.
func (s *ObjectStore) Store(ctx context.Context, data []byte, contentType string) (string, string, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := randomStorageKey()

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return "", "", err
	}

	url := fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.config.S3BaseEndpoint, "/"), bucket, key)
	return url, key, nil
}

// Delete removes the object stored under key.
func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	client, err := s.getClient(ctx)
	if err != nil {
		return err
	}

	bucket := s.config.S3Bucket
	_, err = deleteObject(client, ctx, &s3.DeleteObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	return err
}

// DownloadURL builds a presigned GET URL for key, valid for 15 minutes.
// When asAttachment is true the response carries a Content-Disposition
// header naming filename, so browsers download instead of rendering inline.
func (s *ObjectStore) DownloadURL(ctx context.Context, key, filename string, asAttachment bool) (string, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return "", err
	}

	presignClient := newS3PresignClient(client)

	bucket := s.config.S3Bucket
	in := &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}
	if asAttachment {
		disposition := fmt.Sprintf("attachment; filename=%q", filename)
		in.ResponseContentDisposition = &disposition
	}

	req, err := presignGetObject(presignClient, ctx, in, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
