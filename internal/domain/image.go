package domain

import (
	"context"
	"errors"
)

// ErrNotAnImage is returned by an ImageStore when the payload is not a recognised image type.
var ErrNotAnImage = errors.New("payload is not an image")

// UploadedImage is a stored image: its public URL and the identifier used to delete it.
type UploadedImage struct {
	URL      string
	PublicID string
}

// ImageStore is the boundary to the external object storage holding event images.
type ImageStore interface {
	// Upload stores data under folder and returns a stable URL.
	Upload(ctx context.Context, data []byte, folder string) (*UploadedImage, error)
	// Delete removes the image identified by publicID.
	Delete(ctx context.Context, publicID string) error
	// PublicID recovers the public id from a URL previously returned by Upload.
	// ok is false when no id can be extracted; callers then skip deletion.
	PublicID(imageURL string) (publicID string, ok bool)
}
