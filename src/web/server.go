package web

import (
	"strings"

	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/anonchat/server/config"
	"github.com/anonchat/server/src/auth"
	"github.com/anonchat/server/src/hub"
	"github.com/anonchat/server/src/session"
	"github.com/rs/zerolog"
)

// Server composes the fiber app with the raw WebSocket upgrade handler.
// Fiber v3 does not expose *fasthttp.RequestCtx, so /ws is dispatched at the
// fasthttp level instead of through a fiber route.
type Server struct {
	cfg      *config.Config
	auth     *auth.Service
	sessions session.Store
	hub      *hub.Hub
	logger   zerolog.Logger

	app      *fiber.App
	upgrader websocket.FastHTTPUpgrader
	srv      *fasthttp.Server
}

// NewServer wires the HTTP surface around the hub and its collaborators.
func NewServer(cfg *config.Config, authSvc *auth.Service, sessions session.Store, h *hub.Hub, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		auth:     authSvc,
		sessions: sessions,
		hub:      h,
		logger:   logger.With().Str("component", "web").Logger(),
		upgrader: websocket.FastHTTPUpgrader{
			ReadBufferSize:  cfg.Socket.ReadBufferSize,
			WriteBufferSize: cfg.Socket.WriteBufferSize,
		},
	}
	s.app = s.newApp()
	s.srv = &fasthttp.Server{
		Handler:     s.handler(),
		Concurrency: cfg.Socket.MaxConnections,
	}
	return s
}

// handler routes /ws to the upgrade handler and everything else to fiber.
func (s *Server) handler() fasthttp.RequestHandler {
	appHandler := s.app.Handler()
	wsHandler := s.wsHandler()

	return func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) == "/ws" {
			wsHandler(ctx)
			return
		}
		appHandler(ctx)
	}
}

// wsHandler upgrades the connection and hands it to the hub. The connection
// stays anonymous until its register event arrives.
func (s *Server) wsHandler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		upgrade := string(ctx.Request.Header.Peek("Upgrade"))
		if !strings.EqualFold(upgrade, "websocket") {
			ctx.SetStatusCode(fasthttp.StatusUpgradeRequired)
			ctx.SetBodyString(`{"error":"upgrade_required","message":"WebSocket upgrade required"}`)
			return
		}

		connID := uuid.New().String()
		h := s.hub
		logger := s.logger

		err := s.upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
			client := hub.NewClient(connID, &fasthttpConn{conn}, h)
			h.Register(client)
			go client.WritePump()
			client.ReadPump()
		})
		if err != nil {
			logger.Error().Err(err).Msg("websocket upgrade failed")
		}
	}
}

// Listen serves until Shutdown is called. A bind failure is returned to the
// caller, which treats it as fatal.
func (s *Server) Listen(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("listening")
	return s.srv.ListenAndServe(addr)
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown() error {
	return s.srv.Shutdown()
}

// fasthttpConn wraps fasthttp/websocket.Conn to satisfy types.Conn.
type fasthttpConn struct {
	conn *websocket.Conn
}

func (f *fasthttpConn) WriteJSON(v any) error { return f.conn.WriteJSON(v) }
func (f *fasthttpConn) ReadJSON(v any) error  { return f.conn.ReadJSON(v) }
func (f *fasthttpConn) Close() error          { return f.conn.Close() }
