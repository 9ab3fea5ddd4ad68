package directions

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/richxcame/map-directions/internal/mapview"
	"github.com/richxcame/map-directions/internal/routes"
	"github.com/richxcame/map-directions/pkg/common"
	"github.com/richxcame/map-directions/pkg/logger"
	"go.uber.org/zap"
)

// Result is the outcome of a one-shot computation.
type Result struct {
	Routes []routes.DecodedRoute
	Frame  mapview.Frame
	Cached bool
}

// Service runs one-shot route computations through a short-lived view.
type Service struct {
	fetcher  routes.Fetcher
	viewOpts []mapview.Option
}

// NewService creates a new directions service
func NewService(fetcher routes.Fetcher, viewOpts ...mapview.Option) *Service {
	return &Service{fetcher: fetcher, viewOpts: viewOpts}
}

// Compute fetches the routes for in, selects the route at selected and
// returns the routes with the frame derived from them.
func (s *Service) Compute(ctx context.Context, in mapview.Inputs, selected int) (*Result, error) {
	if err := s.fetcher.Configured(); err != nil {
		return nil, AppError(err)
	}
	if _, err := routes.BuildBody(in.Request()); err != nil {
		return nil, AppError(err)
	}

	fetcher := &observedFetcher{Fetcher: s.fetcher}
	var fit *mapview.FitCommand
	surface := mapview.SurfaceFunc(func(f mapview.Frame) {
		if f.Fit != nil {
			fit = f.Fit
		}
	})
	view := mapview.New(fetcher, append(s.viewOpts[:len(s.viewOpts):len(s.viewOpts)], mapview.WithSurface(surface))...)
	defer view.Close()
	stop := context.AfterFunc(ctx, view.Close)
	defer stop()

	if err := view.Mount(ctx, in); err != nil {
		return nil, AppError(ctx.Err())
	}
	view.Wait()
	if err := ctx.Err(); err != nil {
		return nil, AppError(err)
	}

	snap := view.Snapshot()
	if snap.Err != nil {
		return nil, AppError(snap.Err)
	}
	if selected != 0 {
		if err := view.SelectRoute(selected); err != nil {
			return nil, common.NewBadRequestError(fmt.Sprintf("selected_index %d out of range", selected), err).
				WithErrorCode(CodeRouteOutOfRange)
		}
	}

	// A one-shot caller gets the camera fit even when a later render omitted it.
	frame := view.Frame()
	if frame.Fit == nil {
		frame.Fit = fit
	}

	logger.DebugContext(ctx, "routes computed",
		zap.Int("routes", len(snap.Routes)),
		zap.Bool("cached", fetcher.cached.Load()),
	)
	return &Result{
		Routes: snap.Routes,
		Frame:  frame,
		Cached: fetcher.cached.Load(),
	}, nil
}

// observedFetcher records whether a response was served from cache.
type observedFetcher struct {
	routes.Fetcher
	cached atomic.Bool
}

func (f *observedFetcher) ComputeRoutes(ctx context.Context, req *routes.Request) (*routes.Response, error) {
	resp, err := f.Fetcher.ComputeRoutes(ctx, req)
	if resp != nil && resp.CacheHit {
		f.cached.Store(true)
	}
	return resp, err
}
