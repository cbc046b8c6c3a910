package objectstore

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Image is raw image bytes plus a file extension.
type Image struct {
	Data []byte
	Ext  string
}

// Fetcher loads stored images, whether inline or remote.
type Fetcher struct {
	client *resty.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{client: resty.New().SetTimeout(timeout)}
}

// Load returns the image behind a stored value: a URL is downloaded and a
// data URL is decoded.
func (f *Fetcher) Load(ctx context.Context, value string) (*Image, error) {
	if IsURL(value) {
		return f.fetch(ctx, value)
	}
	img, err := ParseDataURL(value)
	if err != nil {
		return nil, err
	}
	return &Image{Data: img.Data, Ext: img.Ext}, nil
}

func (f *Fetcher) fetch(ctx context.Context, url string) (*Image, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode())
	}
	return &Image{Data: resp.Body(), Ext: guessExt(url, resp.Header().Get("Content-Type"))}, nil
}

func guessExt(url, contentType string) string {
	if ext := strings.TrimPrefix(path.Ext(strings.SplitN(url, "?", 2)[0]), "."); ext != "" {
		return ext
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if _, sub, ok := strings.Cut(mediaType, "/"); ok && sub != "" {
			return extension(sub)
		}
	}
	return "jpg"
}
