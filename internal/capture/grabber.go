package capture

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"

	"github.com/vincent-petithory/dataurl"
)

const SnapshotMediaType = "image/png"

// Snapshot is one still frame, encoded as a PNG data URL
type Snapshot struct {
	Image  string
	Width  int
	Height int
}

// Grabber turns the current frame of a feed into a static snapshot
type Grabber struct {
	previewMaxWidth int
}

type GrabberOption func(*Grabber)

// WithPreviewMaxWidth downscales live previews wider than width. Snapshots are never scaled.
func WithPreviewMaxWidth(width int) GrabberOption {
	return func(g *Grabber) {
		g.previewMaxWidth = width
	}
}

func NewGrabber(opts ...GrabberOption) *Grabber {
	g := &Grabber{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Grab produces exactly one snapshot at the feed's native resolution
func (g *Grabber) Grab(ctx context.Context, feed Feed) (Snapshot, error) {
	if feed == nil {
		return Snapshot{}, fmt.Errorf("no live feed to grab from")
	}
	frame, err := feed.Frame(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read frame: %w", err)
	}

	bounds := frame.Bounds()
	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		slog.Error("Grabber: failed to encode frame to PNG", "error", err)
		return Snapshot{}, fmt.Errorf("failed to encode frame: %w", err)
	}

	slog.Debug("Grabber: frame grabbed",
		"width", bounds.Dx(),
		"height", bounds.Dy(),
		"output_size_bytes", buf.Len())

	return Snapshot{
		Image:  dataurl.New(buf.Bytes(), SnapshotMediaType).String(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// Preview encodes the current frame as PNG bytes for the live view without producing a snapshot
func (g *Grabber) Preview(ctx context.Context, feed Feed) ([]byte, error) {
	frame, err := feed.Frame(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
	if g.previewMaxWidth > 0 {
		frame = scaleToWidth(frame, g.previewMaxWidth)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}
