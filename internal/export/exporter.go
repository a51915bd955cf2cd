package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jo-hoe/photolog/internal/entry"
	"github.com/vincent-petithory/dataurl"
)

const (
	DefaultManifestName = "metadata.json"
	ContentType         = "application/zip"
)

// ErrEmptyExport is returned when there is nothing to export
var ErrEmptyExport = errors.New("no entries to export")

// SerializationError wraps any failure while building the archive
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("failed to generate archive: %v", e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// ManifestItem describes one exported image in metadata.json
type ManifestItem struct {
	Filename  string `json:"filename"`
	Caption   string `json:"caption"`
	Category1 string `json:"category1"`
	Category2 string `json:"category2"`
}

var extensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Exporter bundles entries into a zip archive of images plus a JSON manifest
type Exporter struct {
	manifestName string
	now          func() time.Time
}

func NewExporter(manifestName string) *Exporter {
	if manifestName == "" {
		manifestName = DefaultManifestName
	}
	return &Exporter{
		manifestName: manifestName,
		now:          time.Now,
	}
}

// Export writes the archive for entries to w. The archive is assembled in
// memory first, so w receives either the complete archive or nothing.
// entries is only read.
func (e *Exporter) Export(ctx context.Context, entries []entry.Entry, w io.Writer) error {
	if len(entries) == 0 {
		return ErrEmptyExport
	}
	start := time.Now()

	archive, err := e.build(ctx, entries)
	if err != nil {
		slog.Error("archive export failed", "entry_count", len(entries), "error", err)
		return &SerializationError{Err: err}
	}

	if _, err := archive.WriteTo(w); err != nil {
		return &SerializationError{Err: fmt.Errorf("failed to write archive: %w", err)}
	}

	slog.Info("archive exported",
		"entry_count", len(entries),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (e *Exporter) build(ctx context.Context, entries []entry.Entry) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	modified := e.now()

	manifest := make([]ManifestItem, 0, len(entries))
	for i, item := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		mediaType, data, err := decodeImage(item.Image)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		filename := ImageFilename(i+1, mediaType)

		if err := writeFile(zw, filename, data, modified); err != nil {
			return nil, err
		}

		manifest = append(manifest, ManifestItem{
			Filename:  filename,
			Caption:   item.Caption,
			Category1: item.Category1,
			Category2: item.Category2,
		})
	}

	manifestData, err := MarshalManifest(manifest)
	if err != nil {
		return nil, err
	}
	if err := writeFile(zw, e.manifestName, manifestData, modified); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize zip: %w", err)
	}
	return &buf, nil
}

func writeFile(zw *zip.Writer, name string, data []byte, modified time.Time) error {
	fw, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func decodeImage(image string) (string, []byte, error) {
	du, err := dataurl.DecodeString(image)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode image data: %w", err)
	}
	return strings.ToLower(du.MediaType.ContentType()), du.Data, nil
}

// ImageFilename names the n-th (1-based) image; unknown media types fall back to png
func ImageFilename(n int, mediaType string) string {
	ext, ok := extensions[mediaType]
	if !ok {
		ext = "png"
	}
	return fmt.Sprintf("image_%d.%s", n, ext)
}

// MarshalManifest renders the manifest with two-space indentation, without
// HTML escaping and without a trailing newline.
func MarshalManifest(manifest []ManifestItem) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(manifest); err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
