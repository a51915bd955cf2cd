package capture

import (
	"image"
	"log/slog"

	"golang.org/x/image/draw"
)

// scaledSize fits width x height into maxWidth while preserving the aspect ratio.
// Frames that already fit are returned unchanged.
func scaledSize(width, height, maxWidth int) (int, int) {
	if maxWidth <= 0 || width <= maxWidth || height <= 0 {
		return width, height
	}
	aspect := float64(width) / float64(height)
	scaledHeight := int(float64(maxWidth) / aspect)
	if scaledHeight < 1 {
		scaledHeight = 1
	}
	return maxWidth, scaledHeight
}

// scaleToWidth downscales img to at most maxWidth pixels wide
func scaleToWidth(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	width, height := scaledSize(bounds.Dx(), bounds.Dy(), maxWidth)
	if width == bounds.Dx() && height == bounds.Dy() {
		return img
	}

	slog.Debug("scaling preview frame",
		"original_width", bounds.Dx(),
		"original_height", bounds.Dy(),
		"scaled_width", width,
		"scaled_height", height)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}
