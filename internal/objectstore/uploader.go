package objectstore

import (
	"context"

	"intake/pkg/requestcontext"
)

// Uploader maps domain objects onto store paths.
type Uploader struct {
	store Store
}

func NewUploader(store Store) *Uploader {
	if store == nil {
		store = Unconfigured{}
	}
	return &Uploader{store: store}
}

// UploadImage decodes an inline image and stores it under the applicant's roll number.
func (u *Uploader) UploadImage(ctx context.Context, kind ImageKind, roll, dataURL string) (string, error) {
	img, err := ParseDataURL(dataURL)
	if err != nil {
		return "", err
	}
	path := ImagePath(kind, roll, requestcontext.Now(ctx), img.Ext)
	return u.store.Put(ctx, path, img.ContentType, img.Data)
}

// UploadCertificate stores a rendered certificate PDF.
func (u *Uploader) UploadCertificate(ctx context.Context, certificateID string, pdf []byte) (string, error) {
	return u.store.Put(ctx, CertificatePath(certificateID), "application/pdf", pdf)
}
