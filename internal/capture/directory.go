package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const DirectoryDeviceName = "directory"

var frameExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
	".svg":  true,
}

// DirectoryDevice replays the image files of a directory as a looping feed.
// Useful on headless hosts and for demos without a camera.
type DirectoryDevice struct {
	path      string
	svgWidth  int
	svgHeight int
	frameTime time.Duration
}

// NewDirectoryDevice requires "path"; "svgWidth"/"svgHeight" size SVG frames (default 640x480)
// and "frameMillis" sets how long each file stays on screen (default 1000).
func NewDirectoryDevice(params map[string]any) (Device, error) {
	path := getStringParam(params, "path", "")
	if path == "" {
		return nil, fmt.Errorf("missing required parameter: path")
	}
	frameMillis := getIntParam(params, "frameMillis", 1000)
	if frameMillis <= 0 {
		return nil, fmt.Errorf("frameMillis must be positive, got %d", frameMillis)
	}
	return &DirectoryDevice{
		path:      path,
		svgWidth:  getIntParam(params, "svgWidth", 640),
		svgHeight: getIntParam(params, "svgHeight", 480),
		frameTime: time.Duration(frameMillis) * time.Millisecond,
	}, nil
}

func (d *DirectoryDevice) Name() string {
	return DirectoryDeviceName
}

func (d *DirectoryDevice) Open(ctx context.Context) (Feed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, &CapabilityError{Device: DirectoryDeviceName, Err: err}
	}

	var files []string
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		if frameExtensions[strings.ToLower(filepath.Ext(de.Name()))] {
			files = append(files, filepath.Join(d.path, de.Name()))
		}
	}
	if len(files) == 0 {
		return nil, &CapabilityError{
			Device: DirectoryDeviceName,
			Err:    fmt.Errorf("no image files in %s", d.path),
		}
	}
	sort.Strings(files)

	slog.Info("directory feed opened", "path", d.path, "frame_count", len(files))
	return &directoryFeed{
		files:     files,
		svgWidth:  d.svgWidth,
		svgHeight: d.svgHeight,
		frameTime: d.frameTime,
		start:     time.Now(),
		now:       time.Now,
	}, nil
}

type directoryFeed struct {
	files     []string
	svgWidth  int
	svgHeight int
	frameTime time.Duration
	start     time.Time
	now       func() time.Time
}

// Frame shows the file scheduled for the current instant, looping over the directory
func (f *directoryFeed) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	elapsed := f.now().Sub(f.start)
	if elapsed < 0 {
		elapsed = 0
	}
	idx := uint64(elapsed/f.frameTime) % uint64(len(f.files))
	path := f.files[idx]

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame %s: %w", path, err)
	}

	if svgSignature(data) {
		return renderSVG(bytes.NewReader(data), f.svgWidth, f.svgHeight)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %s: %w", path, err)
	}
	return img, nil
}

func init() {
	if err := DefaultRegistry.Register(DirectoryDeviceName, NewDirectoryDevice); err != nil {
		panic(fmt.Sprintf("failed to register %s device: %v", DirectoryDeviceName, err))
	}
}
