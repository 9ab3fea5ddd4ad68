package mapview

import (
	"github.com/richxcame/map-directions/internal/routes"
	"github.com/richxcame/map-directions/pkg/config"
	"github.com/richxcame/map-directions/pkg/polyline"
)

// Callbacks run outside the view's lock. Any of them may be nil.
type Callbacks struct {
	OnStart         func()
	OnReady         func(decoded []routes.DecodedRoute)
	OnError         func(err error)
	OnRouteSelected func(index int)
}

// Surface receives every frame the view renders.
type Surface interface {
	Render(frame Frame)
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(frame Frame)

// Render implements Surface.
func (f SurfaceFunc) Render(frame Frame) { f(frame) }

// Option configures a View.
type Option func(*View)

// WithResetOnChange controls whether routes are cleared as soon as route
// parameters change (true) or kept until the new fetch completes (false).
func WithResetOnChange(reset bool) Option {
	return func(v *View) { v.resetOnChange = reset }
}

// WithCallbacks sets the host callbacks.
func WithCallbacks(cb Callbacks) Option {
	return func(v *View) { v.callbacks = cb }
}

// WithSurface sets the frame receiver.
func WithSurface(s Surface) Option {
	return func(v *View) { v.surface = s }
}

// WithFitPadding sets the camera fit padding and animation flag.
func WithFitPadding(p Padding, animated bool) Option {
	return func(v *View) {
		v.style.padding = p
		v.style.animated = animated
	}
}

// WithRouteColors sets the stroke colors of the selected and other routes.
func WithRouteColors(selected, other string) Option {
	return func(v *View) {
		if selected != "" {
			v.style.selectedColor = selected
		}
		if other != "" {
			v.style.routeColor = other
		}
	}
}

// WithDecoder sets the polyline decoder.
func WithDecoder(d *polyline.Decoder) Option {
	return func(v *View) {
		if d != nil {
			v.decoder = d
		}
	}
}

// ConfigOptions translates view configuration into options.
func ConfigOptions(cfg config.ViewConfig) []Option {
	return []Option{
		WithResetOnChange(cfg.ResetOnChange),
		WithFitPadding(Padding{
			Top:    cfg.FitPaddingTop,
			Right:  cfg.FitPaddingRight,
			Bottom: cfg.FitPaddingBottom,
			Left:   cfg.FitPaddingLeft,
		}, cfg.FitAnimated),
		WithRouteColors(cfg.SelectedRouteColor, cfg.RouteColor),
	}
}
