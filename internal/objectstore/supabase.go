package objectstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// SupabaseStore uploads through the Supabase Storage REST API.
type SupabaseStore struct {
	client  *resty.Client
	baseURL string
	bucket  string
}

func NewSupabase(baseURL, serviceKey, bucket string, timeout time.Duration) *SupabaseStore {
	baseURL = strings.TrimRight(baseURL, "/")
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(serviceKey)
	return &SupabaseStore{client: client, baseURL: baseURL, bucket: bucket}
}

// Put creates the object; existing objects are never overwritten.
func (s *SupabaseStore) Put(ctx context.Context, path, contentType string, data []byte) (string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetHeader("x-upsert", "false").
		SetBody(data).
		Post("/storage/v1/object/" + s.bucket + "/" + path)
	if err != nil {
		return "", fmt.Errorf("upload object: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("upload object: status %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}
	return s.PublicURL(path), nil
}

// PublicURL is the unauthenticated URL of an object in a public bucket.
func (s *SupabaseStore) PublicURL(path string) string {
	return s.baseURL + "/storage/v1/object/public/" + s.bucket + "/" + path
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
