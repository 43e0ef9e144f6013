// Package web exposes warden's HTTP API and the live status websocket.
package web

import (
	"encoding/json"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/wardenhq/go-warden/internal/log"
	"github.com/wardenhq/go-warden/pkg/calibration"
	"github.com/wardenhq/go-warden/pkg/capture"
	"github.com/wardenhq/go-warden/pkg/hub"
	"github.com/wardenhq/go-warden/pkg/persona"
	"github.com/wardenhq/go-warden/pkg/session"
	"github.com/wardenhq/go-warden/pkg/tts"
	"github.com/wardenhq/go-warden/pkg/vision"
)

// Deps are the collaborators the API surfaces. Speech may be nil; /api/speak
// then reports unavailable.
type Deps struct {
	Controller *session.Controller
	Trigger    *session.Trigger
	Store      *calibration.Store
	Source     capture.Source
	Classifier vision.Classifier
	Registry   *persona.Registry
	Speech     tts.Provider
}

// Server is the warden API server.
type Server struct {
	app    *fiber.App
	port   string
	deps   Deps
	logger *slog.Logger

	statusHub *hub.Hub
}

// NewServer builds the server and wires its routes.
func NewServer(port string, deps Deps) *Server {
	s := &Server{
		port:      port,
		deps:      deps,
		logger:    log.With("component", "web"),
		statusHub: hub.New("status"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Warden",
		DisableStartupMessage: true,
		BodyLimit:             16 * 1024 * 1024, // calibration uploads
	})

	// CORS for local development
	app.Use(cors.New())

	app.Static("/", "./web")

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/health", s.handleHealth)
	api.Post("/calibrate", s.handleCalibrate)
	api.Get("/calibration", s.handleCalibration)
	api.Get("/calibration/image", s.handleCalibrationImage)
	api.Post("/session/start", s.handleSessionStart)
	api.Post("/session/stop", s.handleSessionStop)
	api.Get("/personas", s.handleListPersonas)
	api.Post("/persona", s.handleSetPersona)
	api.Post("/speak", s.handleSpeak)
	api.Get("/episode/audio", s.handleEpisodeAudio)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// Start runs the status hub and blocks serving HTTP.
func (s *Server) Start() error {
	go s.statusHub.Run()
	s.logger.Info("listening", "addr", "http://localhost:"+s.port)
	return s.app.Listen(":" + s.port)
}

// BroadcastSnapshot pushes a session snapshot to websocket clients. Safe for
// concurrent use; wire it to the controller's OnSnapshot hook.
func (s *Server) BroadcastSnapshot(snap session.Snapshot) {
	s.statusHub.BroadcastJSON(snap)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}

// handleStatusWS streams status snapshots to one websocket client. The
// current snapshot is queued on connect so the write pump delivers it under
// its deadlines, then updates follow each sample tick.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	client := hub.NewClient(s.statusHub, c)
	if data, err := json.Marshal(s.deps.Controller.Status()); err == nil {
		client.Send(data)
	}
	client.Run()
}
