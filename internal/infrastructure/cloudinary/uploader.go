package cloudinary

import (
	"context"
	"fmt"

	cldsdk "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"lostfound/internal/domain/service"
	"lostfound/pkg/logger"
)

type uploadFunc func(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)

// ImageUploader sends report photos to Cloudinary.
type ImageUploader struct {
	upload       uploadFunc
	folder       string
	uploadPreset string
}

func NewImageUploader(cloudName, apiKey, apiSecret, uploadPreset, folder string) (*ImageUploader, error) {
	cld, err := cldsdk.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %v", err)
	}
	cld.Config.URL.Secure = true

	return &ImageUploader{
		upload:       cld.Upload.Upload,
		folder:       folder,
		uploadPreset: uploadPreset,
	}, nil
}

var _ service.ImageUploader = (*ImageUploader)(nil)

func (u *ImageUploader) Upload(ctx context.Context, photo *service.Photo) (*service.UploadedImage, error) {
	params := uploader.UploadParams{
		Folder:       u.folder,
		UploadPreset: u.uploadPreset,
	}

	res, err := u.upload(ctx, photo.Content, params)
	if err != nil {
		return nil, err
	}
	// Cloudinary reports API-level failures in the result body, not as err.
	if res.Error.Message != "" {
		return nil, fmt.Errorf("%s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return nil, fmt.Errorf("cloudinary returned no secure_url")
	}

	logger.Debug("Uploaded %s to cloudinary as %s", photo.Filename, res.PublicID)
	return &service.UploadedImage{
		URL:      res.SecureURL,
		PublicID: res.PublicID,
	}, nil
}
