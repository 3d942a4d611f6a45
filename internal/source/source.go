// Package source reads payroll PDFs from, and writes CSV results to, local
// files or Google Cloud Storage objects.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dvloznov/payroll-csv/internal/logger"
)

var (
	// ErrInvalidURI is returned for gs:// URIs without a bucket or object.
	ErrInvalidURI = errors.New("invalid GCS URI")
	// ErrTooLarge is returned when a source exceeds the configured limit.
	ErrTooLarge = errors.New("source exceeds size limit")
)

// DefaultMaxBytes caps how much of a source is read.
const DefaultMaxBytes int64 = 20 << 20

// Fetcher loads a PDF by path or URI.
type Fetcher interface {
	Fetch(ctx context.Context, src string) ([]byte, error)
}

// Storer writes a result by path or URI.
type Storer interface {
	Store(ctx context.Context, dest string, data []byte, contentType string) error
}

// Loader resolves local paths and gs:// URIs.
type Loader struct {
	gcs      GCSOptions
	maxBytes int64
}

// NewLoader creates a Loader. maxBytes <= 0 uses DefaultMaxBytes.
func NewLoader(gcs GCSOptions, maxBytes int64) *Loader {
	return &Loader{gcs: gcs, maxBytes: maxBytes}
}

func (l *Loader) limit() int64 {
	if l.maxBytes <= 0 {
		return DefaultMaxBytes
	}
	return l.maxBytes
}

// Fetch reads src, which is either a gs:// URI or a local file path.
func (l *Loader) Fetch(ctx context.Context, src string) ([]byte, error) {
	log := logger.FromContext(ctx)
	log.Debug().Str("source", src).Msg("Fetching PDF")

	if IsGCSURI(src) {
		return l.fetchGCS(ctx, src)
	}
	return l.fetchFile(src)
}

// Store writes data to dest, which is either a gs:// URI or a local file path.
func (l *Loader) Store(ctx context.Context, dest string, data []byte, contentType string) error {
	log := logger.FromContext(ctx)
	log.Debug().Str("dest", dest).Int("bytes", len(data)).Msg("Storing result")

	if IsGCSURI(dest) {
		return l.storeGCS(ctx, dest, data, contentType)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", dest, err)
	}
	return nil
}

func (l *Loader) fetchFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file %q: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, l.limit()+1))
	if err != nil {
		return nil, fmt.Errorf("read file %q: %w", path, err)
	}
	if int64(len(data)) > l.limit() {
		return nil, fmt.Errorf("read file %q: %w", path, ErrTooLarge)
	}
	return data, nil
}
