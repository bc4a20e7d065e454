package service

import (
	"context"
	"io"
)

// Photo is an uploaded image waiting to be sent to the image host.
type Photo struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// UploadedImage is what the image host hands back.
type UploadedImage struct {
	URL      string
	PublicID string
}

type ImageUploader interface {
	Upload(ctx context.Context, photo *Photo) (*UploadedImage, error)
}
