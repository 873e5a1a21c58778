package archive

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Uploader adapts s3manager's multipart Uploader to the Uploader
// interface Archiver consumes.
type S3Uploader struct {
	bucket   string
	uploader *manager.Uploader
}

// NewS3Uploader builds an S3Uploader targeting bucket, using client for the
// underlying S3 calls.
func NewS3Uploader(client *s3.Client, bucket string) *S3Uploader {
	return &S3Uploader{bucket: bucket, uploader: manager.NewUploader(client)}
}

// Upload pushes body to bucket/key via a managed multipart upload.
func (u *S3Uploader) Upload(ctx context.Context, key string, body *bytes.Reader) error {
	_, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: &u.bucket,
		Key:    &key,
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("archive: s3 upload %s: %w", key, err)
	}
	return nil
}
