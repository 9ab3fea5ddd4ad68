// Package session hosts one live map view per WebSocket connection.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/richxcame/map-directions/internal/directions"
	"github.com/richxcame/map-directions/internal/mapview"
	"github.com/richxcame/map-directions/internal/routes"
	"github.com/richxcame/map-directions/pkg/async"
	apperrors "github.com/richxcame/map-directions/pkg/errors"
	"github.com/richxcame/map-directions/pkg/eventbus"
	"github.com/richxcame/map-directions/pkg/logger"
	"github.com/richxcame/map-directions/pkg/tracing"
	"github.com/richxcame/map-directions/pkg/validation"
	ws "github.com/richxcame/map-directions/pkg/websocket"
	"go.uber.org/zap"
)

const (
	eventSource    = "directions-session"
	publishTimeout = 5 * time.Second
	kindSession    = "session"
	tracerName     = "directions-session"
)

// Service owns the live sessions and wires them to the hub.
type Service struct {
	hub       *ws.Hub
	fetcher   routes.Fetcher
	publisher eventbus.Publisher
	upgrader  *websocket.Upgrader
	viewOpts  []mapview.Option

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	id     string
	client *ws.Client
	view   *mapview.View

	mu     sync.Mutex
	mode   routes.TravelMode
	routes []routes.DecodedRoute
}

// NewService creates a session service and registers its handlers on hub.
func NewService(hub *ws.Hub, fetcher routes.Fetcher, publisher eventbus.Publisher, upgrader *websocket.Upgrader, viewOpts ...mapview.Option) *Service {
	if publisher == nil {
		publisher = eventbus.NopPublisher{}
	}
	s := &Service{
		hub:       hub,
		fetcher:   fetcher,
		publisher: publisher,
		upgrader:  upgrader,
		viewOpts:  viewOpts,
		sessions:  make(map[string]*session),
	}

	hub.RegisterHandler(TypeUpdate, s.handleUpdate)
	hub.RegisterHandler(TypeSelectRoute, s.handleSelectRoute)
	hub.RegisterHandler(TypeResetSelection, s.handleResetSelection)
	hub.OnConnect(s.open)
	hub.OnDisconnect(s.close)
	return s
}

// HandleWebSocket upgrades the request into a new session.
func (s *Service) HandleWebSocket(c *gin.Context) {
	if _, err := ws.Serve(c, s.hub, s.upgrader); err != nil {
		// The upgrader has already written the error response.
		_ = c.Error(err)
	}
}

// ActiveSessions returns the number of open sessions.
func (s *Service) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Shutdown closes every session's view.
func (s *Service) Shutdown() {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		sessions = append(sessions, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.view.Close()
	}
}

func (s *Service) open(client *ws.Client) {
	sess := &session{id: client.ID, client: client}
	opts := append(s.viewOpts[:len(s.viewOpts):len(s.viewOpts)],
		mapview.WithCallbacks(s.callbacks(sess)),
		mapview.WithSurface(mapview.SurfaceFunc(func(f mapview.Frame) {
			client.SendData(TypeFrame, f)
		})),
	)
	sess.view = mapview.New(s.fetcher, opts...)

	s.mu.Lock()
	s.sessions[client.ID] = sess
	s.mu.Unlock()

	client.SendData(TypeSessionOpened, OpenedPayload{SessionID: client.ID})
	s.publish(client.Context(), eventbus.SubjectSessionOpened, eventbus.SessionData{
		SessionID: client.ID,
		At:        time.Now().UTC(),
	})
	logger.InfoContext(client.Context(), "map session opened")
}

func (s *Service) close(client *ws.Client) {
	s.mu.Lock()
	sess, ok := s.sessions[client.ID]
	delete(s.sessions, client.ID)
	s.mu.Unlock()
	if !ok {
		return
	}

	sess.view.Close()
	s.publish(client.Context(), eventbus.SubjectSessionClosed, eventbus.SessionData{
		SessionID: client.ID,
		At:        time.Now().UTC(),
	})
	logger.InfoContext(client.Context(), "map session closed")
}

func (s *Service) lookup(client *ws.Client) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[client.ID]
	if !ok {
		client.SendData(ws.TypeError, ws.ErrorPayload{Kind: kindSession, Message: "session is closed"})
	}
	return sess, ok
}

func (s *Service) handleUpdate(client *ws.Client, msg *ws.Message) {
	sess, ok := s.lookup(client)
	if !ok {
		return
	}

	var in directions.RouteInput
	if err := msg.Decode(&in); err != nil {
		sendError(client, routes.KindInvalid, err)
		return
	}
	if err := directions.Validate(in); err != nil {
		sendError(client, routes.KindInvalid, err)
		return
	}

	sess.mu.Lock()
	sess.mode = in.Options.WithDefaults().Mode
	sess.mu.Unlock()

	ctx, span := tracing.StartSpan(client.Context(), tracerName, "session.update")
	defer span.End()
	span.SetAttributes(tracing.SessionIDKey.String(sess.id))

	if err := sess.view.Update(ctx, in.Inputs()); err != nil {
		tracing.RecordError(ctx, err)
		sendError(client, kindSession, err)
	}
}

func (s *Service) handleSelectRoute(client *ws.Client, msg *ws.Message) {
	sess, ok := s.lookup(client)
	if !ok {
		return
	}

	var payload SelectRoutePayload
	if err := msg.Decode(&payload); err != nil {
		sendError(client, routes.KindInvalid, err)
		return
	}
	if err := validation.ValidateStruct(payload); err != nil {
		sendError(client, routes.KindInvalid, err)
		return
	}

	if err := sess.view.SelectRoute(*payload.Index); err != nil {
		kind := kindSession
		if errors.Is(err, mapview.ErrRouteOutOfRange) {
			kind = routes.KindInvalid
		}
		sendError(client, kind, err)
	}
}

func (s *Service) handleResetSelection(client *ws.Client, _ *ws.Message) {
	sess, ok := s.lookup(client)
	if !ok {
		return
	}
	if err := sess.view.ResetSelection(); err != nil {
		sendError(client, kindSession, err)
	}
}

func (s *Service) callbacks(sess *session) mapview.Callbacks {
	ctx := sess.client.Context()
	return mapview.Callbacks{
		OnStart: func() {
			sess.client.SendData(TypeFetchStarted, nil)
		},
		OnReady: func(decoded []routes.DecodedRoute) {
			sess.mu.Lock()
			sess.routes = decoded
			mode := sess.mode
			sess.mu.Unlock()

			sess.client.SendData(TypeRoutesReady, RoutesReadyPayload{Routes: decoded})

			selected := sess.view.Snapshot().SelectedIndex
			data := eventbus.RoutesReadyData{
				SessionID:     sess.id,
				TravelMode:    string(mode),
				RouteCount:    len(decoded),
				SelectedRoute: selected,
				CompletedAt:   time.Now().UTC(),
			}
			if selected < len(decoded) {
				data.DistanceMeters = decoded[selected].DistanceMeters
				data.Duration = decoded[selected].Duration
			}
			s.publish(ctx, eventbus.SubjectRoutesReady, data)
		},
		OnError: func(err error) {
			sess.mu.Lock()
			sess.routes = nil
			mode := sess.mode
			sess.mu.Unlock()

			kind := routes.Kind(err)
			sess.client.SendData(TypeRoutesError, ws.ErrorPayload{Kind: kind, Message: err.Error()})
			s.publish(ctx, eventbus.SubjectRoutesFailed, eventbus.RoutesFailedData{
				SessionID:  sess.id,
				TravelMode: string(mode),
				Kind:       kind,
				Message:    err.Error(),
				FailedAt:   time.Now().UTC(),
			})

			if status := directions.AppError(err).Code; apperrors.ShouldReportError(err, status) {
				apperrors.CaptureErrorWithContext(ctx, err, map[string]interface{}{
					"kind":        kind,
					"status_code": status,
				})
			}
		},
		OnRouteSelected: func(index int) {
			key := routes.RouteKey(index)
			sess.client.SendData(TypeRouteSelected, RouteSelectedPayload{Index: index, Key: key})
			s.publish(ctx, eventbus.SubjectRouteSelected, eventbus.RouteSelectedData{
				SessionID:  sess.id,
				RouteIndex: index,
				RouteKey:   key,
				SelectedAt: time.Now().UTC(),
			})
		},
	}
}

func (s *Service) publish(ctx context.Context, subject string, data interface{}) {
	async.GoWithTimeout(ctx, "publish-"+subject, publishTimeout, func(ctx context.Context) {
		event, err := eventbus.NewEvent(subject, eventSource, data)
		if err != nil {
			logger.ErrorContext(ctx, "failed to build event", zap.String("subject", subject), zap.Error(err))
			return
		}
		if err := s.publisher.Publish(ctx, subject, event); err != nil {
			logger.WarnContext(ctx, "failed to publish event", zap.String("subject", subject), zap.Error(err))
		}
	})
}

// sendError reports a message the session could not act on.
func sendError(client *ws.Client, kind string, err error) {
	client.SendData(ws.TypeError, ws.ErrorPayload{Kind: kind, Message: err.Error()})
}
