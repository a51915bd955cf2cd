package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// ErrNoFrame is returned by a feed that has not produced any frame yet
var ErrNoFrame = errors.New("no frame available yet")

// Device is a video input that can be opened into a live feed
type Device interface {
	Name() string
	// Open requests access to the device. A *CapabilityError means no device
	// is present or access was denied.
	Open(ctx context.Context) (Feed, error)
}

// Feed is a continuously updating frame source. Reading never mutates it.
type Feed interface {
	Frame(ctx context.Context) (image.Image, error)
}

// CapabilityError reports a missing or denied camera
type CapabilityError struct {
	Device string
	Err    error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("camera unavailable (%s): %v", e.Device, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// IsCapabilityError reports whether err is, or wraps, a *CapabilityError
func IsCapabilityError(err error) bool {
	var capErr *CapabilityError
	return errors.As(err, &capErr)
}
