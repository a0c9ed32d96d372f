package sketchview

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	errSurfaceNotRegistered = errors.New("surface not registered")
	errSurfaceClosed        = errors.New("surface already closed")
)

// ConfigurationError is returned when a surface handle does not resolve to
// something that can be drawn on.
type ConfigurationError struct {
	Surface string
	Err     error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("surface %q: %v", e.Surface, e.Err)
}

// Cause ...
func (e *ConfigurationError) Cause() error { return e.Err }

// Unwrap ...
func (e *ConfigurationError) Unwrap() error { return e.Err }

// RenderError is returned when drawing a chart or flushing its surface fails.
type RenderError struct {
	Chart string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s chart: %v", e.Chart, e.Err)
}

// Cause ...
func (e *RenderError) Cause() error { return e.Err }

// Unwrap ...
func (e *RenderError) Unwrap() error { return e.Err }

// IsConfigurationError reports whether err, or anything it wraps, is a
// *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsRenderError reports whether err, or anything it wraps, is a *RenderError.
func IsRenderError(err error) bool {
	var re *RenderError
	return errors.As(err, &re)
}
