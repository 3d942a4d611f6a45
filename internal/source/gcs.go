package source

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const gcsScheme = "gs://"

// uploadTimeout bounds a single object write.
const uploadTimeout = 2 * time.Minute

// IsGCSURI reports whether s names a Cloud Storage object.
func IsGCSURI(s string) bool {
	return strings.HasPrefix(s, gcsScheme)
}

// ParseGCSURI splits "gs://bucket/path/to/file.pdf" into bucket and object.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !IsGCSURI(uri) {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidURI, uri)
	}

	parts := strings.SplitN(strings.TrimPrefix(uri, gcsScheme), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w (no object path): %s", ErrInvalidURI, uri)
	}
	return parts[0], parts[1], nil
}

// ExtractFilename returns the last path element of a local path or GCS URI.
// e.g., "gs://bucket/folder/file.pdf" → "file.pdf"
func ExtractFilename(src string) string {
	if IsGCSURI(src) {
		parts := strings.SplitN(strings.TrimPrefix(src, gcsScheme), "/", 2)
		if len(parts) < 2 {
			return parts[0]
		}
		return path.Base(parts[1])
	}
	return path.Base(strings.ReplaceAll(src, "\\", "/"))
}

// GCSOptions configures the storage client.
type GCSOptions struct {
	CredentialsFile string
	Endpoint        string // e.g. a fake-gcs-server emulator
	Anonymous       bool
}

func (o GCSOptions) clientOptions() []option.ClientOption {
	var opts []option.ClientOption
	if o.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(o.Endpoint))
	}
	switch {
	case o.Anonymous:
		opts = append(opts, option.WithoutAuthentication())
	case o.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(o.CredentialsFile))
	}
	return opts
}

func (l *Loader) fetchGCS(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx, l.gcs.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: creating storage client: %w", uri, err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: opening object: %w", uri, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, l.limit()+1))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: reading bytes: %w", uri, err)
	}
	if int64(len(data)) > l.limit() {
		return nil, fmt.Errorf("fetch %s: %w", uri, ErrTooLarge)
	}
	return data, nil
}

func (l *Loader) storeGCS(ctx context.Context, uri string, data []byte, contentType string) error {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return err
	}

	client, err := storage.NewClient(ctx, l.gcs.clientOptions()...)
	if err != nil {
		return fmt.Errorf("store %s: creating storage client: %w", uri, err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("store %s: writing object: %w", uri, err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("store %s: finalize upload: %w", uri, err)
	}
	return nil
}
