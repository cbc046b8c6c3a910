// Package objectstore writes applicant images and certificate PDFs to a
// public object store and reads them back for document generation.
package objectstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"intake/internal/platform/config"
	"intake/pkg/platform/sentinel"
)

// Store persists an object and returns its public URL.
type Store interface {
	Put(ctx context.Context, path, contentType string, data []byte) (string, error)
}

// ImageKind names the applicant image being stored.
type ImageKind string

const (
	KindPhoto     ImageKind = "photo"
	KindSignature ImageKind = "signature"
)

var (
	dataURLPattern = regexp.MustCompile(`^data:image/(\w+);base64,(.+)$`)
	unsafeChars    = regexp.MustCompile(`[^a-zA-Z0-9]`)

	ErrInvalidDataURL = errors.New("invalid base64 data URL")
)

// DataURL is a decoded inline image.
type DataURL struct {
	ContentType string
	Ext         string
	Data        []byte
}

// ParseDataURL decodes a data:image/...;base64 value.
func ParseDataURL(value string) (*DataURL, error) {
	m := dataURLPattern.FindStringSubmatch(value)
	if m == nil {
		return nil, ErrInvalidDataURL
	}
	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return &DataURL{
		ContentType: "image/" + m[1],
		Ext:         extension(m[1]),
		Data:        data,
	}, nil
}

func extension(subtype string) string {
	if subtype == "jpeg" {
		return "jpg"
	}
	return subtype
}

// IsDataURL reports whether value has the data:image/...;base64 shape.
func IsDataURL(value string) bool {
	return dataURLPattern.MatchString(value)
}

// IsURL reports whether a stored image value is a remote URL rather than inline data.
func IsURL(value string) bool {
	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
}

// SafeSegment replaces every non-alphanumeric character with an underscore.
func SafeSegment(s string) string {
	return unsafeChars.ReplaceAllString(s, "_")
}

// ImagePath is {kind}/{safeRoll}_{unixMillis}.{ext}.
func ImagePath(kind ImageKind, roll string, at time.Time, ext string) string {
	return fmt.Sprintf("%s/%s_%d.%s", kind, SafeSegment(roll), at.UnixMilli(), ext)
}

// CertificatePath is certificates/{id}.pdf.
func CertificatePath(certificateID string) string {
	return "certificates/" + certificateID + ".pdf"
}

// Unconfigured rejects every write so callers fall back to inline storage.
type Unconfigured struct{}

func (Unconfigured) Put(context.Context, string, string, []byte) (string, error) {
	return "", fmt.Errorf("object store not configured: %w", sentinel.ErrUnavailable)
}

// FromConfig builds the configured store.
func FromConfig(cfg config.ObjectStore, baseURL string) (Store, error) {
	switch cfg.Driver {
	case config.ObjectStoreSupabase:
		return NewSupabase(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.Bucket, cfg.HTTPTimeout), nil
	case config.ObjectStoreFilesystem:
		return NewFilesystem(cfg.FilesDir, baseURL)
	case config.ObjectStoreNone, "":
		return Unconfigured{}, nil
	default:
		return nil, fmt.Errorf("unknown object store driver %q", cfg.Driver)
	}
}
