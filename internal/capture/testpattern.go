package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"strings"
	"time"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

const (
	TestPatternDeviceName = "testpattern"
	testPatternFrameTime  = 100 * time.Millisecond
)

var barColors = []string{"#c0c0c0", "#c0c000", "#00c0c0", "#00c000", "#c000c0", "#c00000", "#0000c0"}

// TestPatternDevice is a synthetic camera rendering SMPTE-style colour bars
// with a marker that moves as time passes.
type TestPatternDevice struct {
	width  int
	height int
}

// NewTestPatternDevice reads optional "width" and "height" parameters (default 640x480)
func NewTestPatternDevice(params map[string]any) (Device, error) {
	width := getIntParam(params, "width", 640)
	height := getIntParam(params, "height", 480)
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid test pattern size: %dx%d", width, height)
	}
	return &TestPatternDevice{width: width, height: height}, nil
}

func (d *TestPatternDevice) Name() string {
	return TestPatternDeviceName
}

func (d *TestPatternDevice) Open(ctx context.Context) (Feed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &testPatternFeed{width: d.width, height: d.height, start: time.Now(), now: time.Now}, nil
}

type testPatternFeed struct {
	width  int
	height int
	start  time.Time
	now    func() time.Time
}

// Frame renders the frame for the current instant; reads at the same instant are identical
func (f *testPatternFeed) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	elapsed := f.now().Sub(f.start)
	if elapsed < 0 {
		elapsed = 0
	}
	return renderTestPattern(f.width, f.height, uint64(elapsed/testPatternFrameTime))
}

func testPatternSVG(frame uint64) string {
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 700 500">`)
	for i, c := range barColors {
		fmt.Fprintf(&b, `<rect x="%d" y="0" width="100" height="400" fill="%s"/>`, i*100, c)
	}
	marker := int(frame%70) * 10
	fmt.Fprintf(&b, `<rect x="%d" y="400" width="60" height="100" fill="#ffffff"/>`, marker)
	b.WriteString(`</svg>`)
	return b.String()
}

// renderTestPattern rasterizes the pattern for the given frame number at width x height
func renderTestPattern(width, height int, frame uint64) (image.Image, error) {
	return renderSVG(strings.NewReader(testPatternSVG(frame)), width, height)
}

// renderSVG rasterizes an SVG document onto a dark width x height canvas
func renderSVG(svg io.Reader, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target dimensions for SVG rendering: %dx%d", width, height)
	}
	icon, err := oksvg.ReadIconStream(svg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}
	icon.SetTarget(0, 0, float64(width), float64(height))

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.RGBA{16, 16, 16, 255}}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(width, height, dst, dst.Bounds())
	dasher := rasterx.NewDasher(width, height, scanner)
	icon.Draw(dasher, 1.0)
	return dst, nil
}

// svgSignature reports whether data looks like an SVG document
func svgSignature(data []byte) bool {
	n := min(len(data), 4096)
	header := bytes.ToLower(bytes.TrimSpace(data[:n]))
	return bytes.Contains(header, []byte("<svg"))
}

func init() {
	if err := DefaultRegistry.Register(TestPatternDeviceName, NewTestPatternDevice); err != nil {
		panic(fmt.Sprintf("failed to register %s device: %v", TestPatternDeviceName, err))
	}
}
