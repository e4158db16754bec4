package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/botorabi/Meet4Eat-sub002/internal/channels"
	"github.com/botorabi/Meet4Eat-sub002/internal/config"
	"github.com/botorabi/Meet4Eat-sub002/internal/conn"
	"github.com/botorabi/Meet4Eat-sub002/internal/dispatch"
	"github.com/botorabi/Meet4Eat-sub002/internal/notify"
	"github.com/botorabi/Meet4Eat-sub002/internal/state"
	"github.com/botorabi/Meet4Eat-sub002/internal/store"
	"github.com/botorabi/Meet4Eat-sub002/pkg/protocol"
)

// Server wires the realtime core: registry, router, channel handlers,
// notifier and the HTTP surface.
type Server struct {
	cfg      config.Config
	log      zerolog.Logger
	mem      *store.Memory
	reg      *state.Registry
	router   *dispatch.Router
	notifier *notify.Notifier
	conns    *conn.Manager
	engine   *gin.Engine
	cancel   context.CancelFunc
}

func NewServer(cfg config.Config, log zerolog.Logger) *Server {
	mem := store.NewMemory()
	reg := state.NewRegistry(log)
	router := dispatch.NewRouter(reg, log)
	notifier := notify.NewNotifier(router, mem, mem, cfg.NotifyBuffer, log)

	router.Handle(protocol.ChannelSystem, channels.NewSystemHandler(router, log))
	router.Handle(protocol.ChannelChat, channels.NewChatHandler(router, mem, log))
	router.Handle(protocol.ChannelEvent, channels.NewEventHandler(router, mem, log))

	s := &Server{
		cfg:      cfg,
		log:      log,
		mem:      mem,
		reg:      reg,
		router:   router,
		notifier: notifier,
		conns:    conn.NewManager(reg, router, mem, notifier, cfg, log),
	}
	s.engine = s.buildRouter()
	return s
}

// Start launches the notification fan-out loop.
func (s *Server) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.notifier.Run(ctx)
}

// Stop ends the notification loop. Live connections wind down with the
// HTTP server.
func (s *Server) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Notifier is the hand-off surface for other subsystems (REST layer,
// maintenance jobs) that push notifications through the realtime core.
func (s *Server) Notifier() *notify.Notifier {
	return s.notifier
}

func (s *Server) buildRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), cidMiddleware(), requestLogger(s.log), traceMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "meet4eat-rtc"})
	})
	r.GET("/api/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.reg.Stats())
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", s.conns.HandleWebSocket)

	return r
}
