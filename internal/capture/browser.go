package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const BrowserDeviceName = "browser"

// FramePusher is implemented by feeds whose frames are produced by the client.
// The page owns the camera and uploads the frame visible at trigger time.
type FramePusher interface {
	Push(data []byte) error
}

// BrowserDevice stands for the camera of the page that opened the session
type BrowserDevice struct{}

// NewBrowserDevice creates the client-side camera device; it takes no parameters
func NewBrowserDevice(_ map[string]any) (Device, error) {
	return &BrowserDevice{}, nil
}

func (d *BrowserDevice) Name() string {
	return BrowserDeviceName
}

// Open always succeeds on the server; permission is negotiated in the page,
// which reports denial separately.
func (d *BrowserDevice) Open(ctx context.Context) (Feed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &BrowserFeed{}, nil
}

// BrowserFeed holds the most recent frame uploaded by the page
type BrowserFeed struct {
	mu     sync.RWMutex
	latest image.Image
}

// Push decodes an uploaded frame and makes it the current one
func (f *BrowserFeed) Push(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty frame upload")
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		slog.Error("BrowserFeed: failed to decode uploaded frame",
			"input_size_bytes", len(data), "error", err)
		return fmt.Errorf("failed to decode frame: %w", err)
	}
	slog.Debug("BrowserFeed: frame received",
		"format", format,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())

	f.mu.Lock()
	f.latest = img
	f.mu.Unlock()
	return nil
}

func (f *BrowserFeed) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.latest == nil {
		return nil, ErrNoFrame
	}
	return f.latest, nil
}

func init() {
	if err := DefaultRegistry.Register(BrowserDeviceName, NewBrowserDevice); err != nil {
		panic(fmt.Sprintf("failed to register %s device: %v", BrowserDeviceName, err))
	}
}
