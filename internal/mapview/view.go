// Package mapview holds the route and selection state of one map and derives
// the markers, polylines and camera commands a map surface draws.
package mapview

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/richxcame/map-directions/internal/routes"
	"github.com/richxcame/map-directions/pkg/async"
	"github.com/richxcame/map-directions/pkg/geo"
	"github.com/richxcame/map-directions/pkg/logger"
	"github.com/richxcame/map-directions/pkg/polyline"
	"github.com/richxcame/map-directions/pkg/tracing"
	"go.uber.org/zap"
)

const tracerName = "directions-mapview"

var (
	// ErrRouteOutOfRange is returned when selecting a route the view does not hold.
	ErrRouteOutOfRange = errors.New("route index out of range")
	// ErrClosed is returned by operations on a closed view.
	ErrClosed = errors.New("view closed")
)

// Snapshot is a copy of a view's state.
type Snapshot struct {
	Status        Status
	Routes        []routes.DecodedRoute
	SelectedIndex int
	Err           error
	Generation    uint64
	Params        RouteParams
}

// View is the render and selection state machine of one map.
//
// Every fetch carries a generation number; starting a new fetch cancels the
// previous one and results of superseded generations are dropped.
type View struct {
	fetcher       routes.Fetcher
	decoder       *polyline.Decoder
	resetOnChange bool
	callbacks     Callbacks
	surface       Surface
	style         frameStyle

	ctx       context.Context
	cancelAll context.CancelFunc
	wg        sync.WaitGroup

	mu          sync.Mutex
	mounted     bool
	closed      bool
	inputs      Inputs
	params      RouteParams
	status      Status
	routes      []routes.DecodedRoute
	selected    int
	err         error
	generation  uint64
	cancelFetch context.CancelFunc
	fitted      []geo.LatLng
	sequence    uint64
	frame       Frame
}

// New creates an empty view fetching through fetcher.
func New(fetcher routes.Fetcher, opts ...Option) *View {
	ctx, cancel := context.WithCancel(context.Background())
	v := &View{
		fetcher:       fetcher,
		decoder:       polyline.Default,
		resetOnChange: true,
		style: frameStyle{
			selectedColor: defaultSelectedColor,
			routeColor:    defaultRouteColor,
			padding:       DefaultPadding,
			animated:      true,
		},
		ctx:       ctx,
		cancelAll: cancel,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Mount sets the initial inputs and starts the first fetch.
func (v *View) Mount(ctx context.Context, in Inputs) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	v.mounted = true
	v.inputs = in
	v.params = ParamsOf(in)
	v.mu.Unlock()

	v.fetch(ctx)
	return nil
}

// Update replaces the inputs. A new fetch starts only when the route
// parameters changed; otherwise the frame is re-derived from held routes.
func (v *View) Update(ctx context.Context, in Inputs) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if !v.mounted {
		v.mu.Unlock()
		return v.Mount(ctx, in)
	}

	next := ParamsOf(in)
	changed := !next.Equal(v.params)
	v.inputs = in
	v.params = next
	if changed {
		v.supersedeLocked()
		if v.resetOnChange {
			v.routes = nil
			v.err = nil
			v.status = StatusEmpty
		}
	}
	frame := v.renderLocked()
	v.mu.Unlock()

	v.emit(frame)
	if changed {
		logger.DebugContext(ctx, "route parameters changed", zap.Bool("reset", v.resetOnChange))
		v.fetch(ctx)
	}
	return nil
}

// SelectRoute makes the route at index the active one. Selecting the
// already active route is a no-op.
func (v *View) SelectRoute(index int) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if index < 0 || index >= len(v.routes) {
		n := len(v.routes)
		v.mu.Unlock()
		return fmt.Errorf("%w: %d not in [0, %d)", ErrRouteOutOfRange, index, n)
	}
	if index == v.selected {
		v.mu.Unlock()
		return nil
	}
	v.selected = index
	frame := v.renderLocked()
	onSelected := v.callbacks.OnRouteSelected
	v.mu.Unlock()

	if onSelected != nil {
		onSelected(index)
	}
	v.emit(frame)
	return nil
}

// ResetSelection makes the first route active again.
func (v *View) ResetSelection() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if v.selected == 0 {
		v.mu.Unlock()
		return nil
	}
	v.selected = 0
	frame := v.renderLocked()
	onSelected := v.callbacks.OnRouteSelected
	v.mu.Unlock()

	if onSelected != nil {
		onSelected(0)
	}
	v.emit(frame)
	return nil
}

// Snapshot returns a copy of the current state.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Snapshot{
		Status:        v.status,
		Routes:        copyRoutes(v.routes),
		SelectedIndex: v.selected,
		Err:           v.err,
		Generation:    v.generation,
		Params:        v.params,
	}
}

// Frame returns the most recently rendered frame. Callers must not modify it.
func (v *View) Frame() Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frame
}

// Wait blocks until no fetch is in flight.
func (v *View) Wait() {
	v.wg.Wait()
}

// Close cancels any in-flight fetch and waits for it to exit. Callbacks must
// not call Close.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.generation++
	v.mu.Unlock()

	v.cancelAll()
	v.wg.Wait()
}

func (v *View) fetch(ctx context.Context) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	if err := v.fetcher.Configured(); err != nil {
		v.mu.Unlock()
		logger.WarnContext(ctx, "route fetch skipped", zap.Error(err))
		return
	}
	if !v.params.Complete() {
		v.mu.Unlock()
		logger.DebugContext(ctx, "route fetch skipped: origin or destination missing")
		return
	}

	req := v.inputs.Request()
	gen := v.supersedeLocked()
	fetchCtx, cancel := context.WithCancel(async.WithValuesFrom(v.ctx, ctx))
	v.cancelFetch = cancel
	v.status = StatusLoading
	v.err = nil
	frame := v.renderLocked()
	onStart := v.callbacks.OnStart

	// The result is applied only after OnStart has been delivered.
	started := make(chan struct{})
	async.GoTracked(fetchCtx, &v.wg, "compute-routes", func(ctx context.Context) {
		decoded, err := v.compute(ctx, req)
		<-started
		v.complete(ctx, gen, decoded, err)
	})
	v.mu.Unlock()

	if onStart != nil {
		onStart()
	}
	v.emit(frame)
	close(started)
}

func (v *View) compute(ctx context.Context, req *routes.Request) ([]routes.DecodedRoute, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "mapview.fetch")
	defer span.End()

	resp, err := v.fetcher.ComputeRoutes(ctx, req)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}
	decoded, err := routes.DecodeRoutes(resp, v.decoder)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}
	tracing.AddSpanAttributes(ctx, tracing.RouteCountKey.Int(len(decoded)))
	return decoded, nil
}

func (v *View) complete(ctx context.Context, gen uint64, decoded []routes.DecodedRoute, err error) {
	v.mu.Lock()
	if v.closed || gen != v.generation {
		v.mu.Unlock()
		logger.DebugContext(ctx, "dropping superseded route result", zap.Uint64("generation", gen))
		return
	}
	if v.cancelFetch != nil {
		v.cancelFetch()
		v.cancelFetch = nil
	}

	clamped := false
	if err != nil {
		v.routes = nil
		v.status = StatusErrored
		v.err = err
	} else {
		v.routes = decoded
		v.status = StatusReady
		v.err = nil
		if v.selected >= len(decoded) {
			v.selected = 0
			clamped = true
		}
	}
	frame := v.renderLocked()
	cb := v.callbacks
	v.mu.Unlock()

	if err != nil {
		logger.WarnContext(ctx, "route fetch failed", zap.String("kind", routes.Kind(err)), zap.Error(err))
		if cb.OnError != nil {
			cb.OnError(err)
		}
	} else {
		logger.DebugContext(ctx, "routes ready", zap.Int("routes", len(decoded)), zap.Uint64("generation", gen))
		if cb.OnReady != nil {
			cb.OnReady(copyRoutes(decoded))
		}
		if clamped && cb.OnRouteSelected != nil {
			cb.OnRouteSelected(0)
		}
	}
	v.emit(frame)
}

// supersedeLocked invalidates the in-flight fetch and returns the new generation.
func (v *View) supersedeLocked() uint64 {
	v.generation++
	if v.cancelFetch != nil {
		v.cancelFetch()
		v.cancelFetch = nil
	}
	return v.generation
}

// renderLocked derives a frame from the current state and records it.
func (v *View) renderLocked() Frame {
	v.sequence++
	f := Frame{
		Sequence:      v.sequence,
		Status:        v.status,
		SelectedIndex: v.selected,
	}

	if len(v.routes) == 0 {
		v.fitted = nil
		v.frame = f
		return f
	}

	f.Visible = true
	f.Markers = markers(v.inputs)
	f.Polylines = polylines(v.routes, v.selected, v.style)
	if v.inputs.Origin != nil {
		f.InitialRegion = &Region{
			LatLng:         v.inputs.Origin.LatLng,
			LatitudeDelta:  initialRegionDelta,
			LongitudeDelta: initialRegionDelta,
		}
	}

	coords := fitCoordinates(v.inputs)
	if len(coords) > 1 && !equalCoords(coords, v.fitted) {
		bounds, _ := geo.BoundsOf(coords)
		f.Fit = &FitCommand{
			Coordinates: copyCoords(coords),
			Bounds:      bounds,
			EdgePadding: v.style.padding,
			Animated:    v.style.animated,
		}
		v.fitted = coords
	}

	v.frame = f
	return f
}

func (v *View) emit(frame Frame) {
	if v.surface != nil {
		v.surface.Render(frame)
	}
}
