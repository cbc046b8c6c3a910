package export

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"intake/internal/intake/models"
	"intake/internal/objectstore"
)

// DefaultConcurrency bounds parallel image downloads.
const DefaultConcurrency = 8

// ImageLoader resolves a stored image value to bytes.
type ImageLoader interface {
	Load(ctx context.Context, value string) (*objectstore.Image, error)
}

// ZipSummary counts archived and skipped images.
type ZipSummary struct {
	Written int
	Skipped int
}

// ZipFilename is internship_images_YYYY-MM-DD.zip.
func ZipFilename(now time.Time) string {
	return "internship_images_" + now.UTC().Format("2006-01-02") + ".zip"
}

type zipEntry struct {
	base  string
	value string
}

func zipEntries(apps []*models.Application) []zipEntry {
	var entries []zipEntry
	for _, a := range apps {
		stem := objectstore.SafeSegment(a.StudentName) + "_" + objectstore.SafeSegment(a.UniversityRollNumber)
		if a.Photo != "" {
			entries = append(entries, zipEntry{base: "photos/" + stem, value: a.Photo})
		}
		if a.Signature != "" {
			entries = append(entries, zipEntry{base: "signatures/" + stem + "_signature", value: a.Signature})
		}
	}
	return entries
}

// WriteZip downloads every photo and signature and streams them to w as a
// ZIP archive in submission order. At most concurrency images are downloaded
// or waiting to be written at any time. Images that cannot be loaded are
// logged and skipped.
func WriteZip(ctx context.Context, w io.Writer, apps []*models.Application, loader ImageLoader, concurrency int, logger *slog.Logger) (*ZipSummary, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	entries := zipEntries(apps)

	loadCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]chan *objectstore.Image, len(entries))
	for i := range results {
		results[i] = make(chan *objectstore.Image, 1)
	}
	window := make(chan struct{}, concurrency)

	var g errgroup.Group
	g.Go(func() error {
		for i, e := range entries {
			select {
			case window <- struct{}{}:
			case <-loadCtx.Done():
				return nil
			}
			g.Go(func() error {
				img, err := loader.Load(loadCtx, e.value)
				if err != nil {
					logger.WarnContext(loadCtx, "skipping image in export",
						"entry", e.base,
						"error", err,
					)
					img = nil
				}
				results[i] <- img
				return nil
			})
		}
		return nil
	})

	summary := &ZipSummary{}
	zw := zip.NewWriter(w)
	err := writeEntries(loadCtx, zw, entries, results, window, summary)
	cancel()
	_ = g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return summary, nil
}

func writeEntries(ctx context.Context, zw *zip.Writer, entries []zipEntry, results []chan *objectstore.Image, window <-chan struct{}, summary *ZipSummary) error {
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		var img *objectstore.Image
		select {
		case img = <-results[i]:
		case <-ctx.Done():
			return ctx.Err()
		}
		<-window

		if img == nil {
			summary.Skipped++
			continue
		}
		f, err := zw.Create(e.base + "." + img.Ext)
		if err != nil {
			return fmt.Errorf("create zip entry: %w", err)
		}
		if _, err := f.Write(img.Data); err != nil {
			return fmt.Errorf("write zip entry: %w", err)
		}
		summary.Written++
	}
	return nil
}
