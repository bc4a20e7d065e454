package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"lostfound/internal/domain/service"
)

// CloudStorageClient is the alternate photo host, used when IMAGE_HOST=gcs.
type CloudStorageClient struct {
	client     *storage.Client
	bucketName string
	folder     string
}

func NewCloudStorageClient(ctx context.Context, bucketName, folder string, opts ...option.ClientOption) (*CloudStorageClient, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %v", err)
	}

	return &CloudStorageClient{
		client:     client,
		bucketName: bucketName,
		folder:     folder,
	}, nil
}

var _ service.ImageUploader = (*CloudStorageClient)(nil)

func (c *CloudStorageClient) Upload(ctx context.Context, photo *service.Photo) (*service.UploadedImage, error) {
	objectName := ObjectName(c.folder, photo.ContentType, time.Now())

	obj := c.client.Bucket(c.bucketName).Object(objectName)
	wc := obj.NewWriter(ctx)
	wc.ContentType = photo.ContentType
	wc.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(wc, photo.Content); err != nil {
		_ = wc.Close()
		return nil, fmt.Errorf("failed to copy photo to GCS: %v", err)
	}

	if err := wc.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %v", err)
	}

	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return nil, fmt.Errorf("failed to set ACL: %v", err)
	}

	return &service.UploadedImage{
		URL:      PublicURL(c.bucketName, objectName),
		PublicID: objectName,
	}, nil
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}

// ObjectName builds "<folder>/<uuid>-<timestamp><ext>".
func ObjectName(folder, contentType string, now time.Time) string {
	name := fmt.Sprintf("%s/%s-%s", folder, uuid.New().String(), now.Format("20060102150405"))

	switch contentType {
	case "image/jpeg", "image/jpg":
		name += ".jpg"
	case "image/png":
		name += ".png"
	case "image/gif":
		name += ".gif"
	case "image/webp":
		name += ".webp"
	case "image/heic":
		name += ".heic"
	default:
		name += ".bin"
	}
	return name
}

func PublicURL(bucket, objectName string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, objectName)
}
