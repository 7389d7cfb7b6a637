// Package relay serves the HTTP surface of the bridge: the stream relay
// proxy, the M3U playlist export and the control API.
package relay

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/1bobby-git/ytmusic-bridge/internal/domain"
	"github.com/1bobby-git/ytmusic-bridge/internal/settings"
)

// StreamResolver resolves tracks to stream metadata and supports dropping a
// stale entry.
type StreamResolver interface {
	Resolve(ctx context.Context, trackID string) (domain.TrackMedia, error)
	Invalidate(trackID string)
}

// PlaylistSource loads playlist tracks for the M3U export. The seed video id
// may be empty.
type PlaylistSource interface {
	Tracks(ctx context.Context, listID, seedVideoID string) ([]domain.Track, error)
}

// PlayService executes play requests.
type PlayService interface {
	PlayURL(ctx context.Context, rawURL string, targets []string) (domain.PlayReport, error)
}

// QueueController exposes queue control to the API.
type QueueController interface {
	QueueInfo(targetID string) (domain.QueueInfo, bool)
	StopPlaylist(targetID string)
	ClearAll()
}

// DeviceLister lists known cast devices.
type DeviceLister interface {
	Devices(ctx context.Context) ([]domain.Device, error)
}

// PlaybackStopper stops active playback on a device.
type PlaybackStopper interface {
	StopPlayback(ctx context.Context, targetID string) error
}

type Deps struct {
	Resolver StreamResolver
	Source   PlaylistSource
	Player   PlayService
	Queue    QueueController
	Devices  DeviceLister
	Stopper  PlaybackStopper
	Settings *settings.Store
	BaseURL  string
	Version  string
	Logger   *log.Logger
	// Client fetches upstream stream URLs; defaults to a plain client with
	// no overall timeout (streams are long-lived).
	Client *http.Client
}

type Server struct {
	httpServer *http.Server
	handlers   *handlers
	logger     *log.Logger
}

func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.New(nil)
	}
	if deps.Client == nil {
		deps.Client = &http.Client{}
	}

	h := &handlers{deps: deps}
	router := NewRouter()
	router.Use(RequestLogging(deps.Logger), CORS())

	router.Handle(http.MethodGet, "/relay/playlist/", http.HandlerFunc(h.playlistM3U))
	router.Handle(http.MethodGet, "/relay/", http.HandlerFunc(h.relayStream))
	router.Handle(http.MethodPost, "/api/play", http.HandlerFunc(h.play))
	router.Handle(http.MethodPost, "/api/stop", http.HandlerFunc(h.stop))
	router.Handle(http.MethodGet, "/api/queue/", http.HandlerFunc(h.queueInfo))
	router.Handle(http.MethodGet, "/api/devices", http.HandlerFunc(h.devices))
	router.Handle(http.MethodGet, "/api/settings", http.HandlerFunc(h.getSettings))
	router.Handle(http.MethodPut, "/api/settings", http.HandlerFunc(h.putSettings))
	router.Handle(http.MethodGet, "/health", http.HandlerFunc(h.health))

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		handlers: h,
		logger:   deps.Logger,
	}
}

// Handler exposes the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
