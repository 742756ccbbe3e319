package server

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rawrpantsu/archive/internal/config"
	"github.com/rawrpantsu/archive/internal/twitch"
	"github.com/rawrpantsu/archive/internal/vods"
)

// redisHealthChecker is the slice of the redis client health checks need.
type redisHealthChecker interface {
	Ping(ctx context.Context) error
}

// postgresHealthChecker is the slice of the pgx pool health checks need.
type postgresHealthChecker interface {
	Ping(ctx context.Context) error
}

// playbackResolver resolves a VOD id into a playable variant chain.
type playbackResolver interface {
	Resolve(ctx context.Context, vodID string) (*twitch.Playback, error)
}

// subscriptionManager is the slice of the Twitch subscription manager the
// admin surface needs.
type subscriptionManager interface {
	Subscribe(ctx context.Context, userID string) error
	Unsubscribe(ctx context.Context, userID string) error
	ListSubscriptions(ctx context.Context) ([]twitch.Subscription, error)
}

// liveChecker reports whether a channel is currently streaming.
type liveChecker interface {
	IsLive(ctx context.Context, userID string) (bool, error)
}

type Server struct {
	echo          *echo.Echo
	config        *config.Config
	vods          vods.Service
	playback      playbackResolver
	subscriptions subscriptionManager
	live          liveChecker
	webhookSecret string
	registry      *prometheus.Registry
	redis         redisHealthChecker
	postgres      postgresHealthChecker
}

// Deps are the collaborators the HTTP surface is built on. Vods must already
// be wrapped with the cache layer; handlers mark external requests on the
// context and the wrapper does the rest.
type Deps struct {
	Vods          vods.Service
	Playback      playbackResolver
	Subscriptions subscriptionManager
	Live          liveChecker
	WebhookSecret string
	Registry      *prometheus.Registry
	Redis         redisHealthChecker
	Postgres      postgresHealthChecker
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	srv := &Server{
		echo:          e,
		config:        cfg,
		vods:          deps.Vods,
		playback:      deps.Playback,
		subscriptions: deps.Subscriptions,
		live:          deps.Live,
		webhookSecret: deps.WebhookSecret,
		registry:      deps.Registry,
		redis:         deps.Redis,
		postgres:      deps.Postgres,
	}

	srv.registerRoutes()
	return srv
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	return s.echo.Start(":" + s.config.Port)
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
