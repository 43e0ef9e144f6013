package web

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/wardenhq/go-warden/pkg/calibration"
	"github.com/wardenhq/go-warden/pkg/persona"
	"github.com/wardenhq/go-warden/pkg/session"
	"github.com/wardenhq/go-warden/pkg/tts"
)

// handleStatus returns the current session snapshot plus ambient state the
// snapshot does not carry.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	snap := s.deps.Controller.Status()
	return c.JSON(fiber.Map{
		"session":    snap,
		"calibrated": s.deps.Store.Calibrated(),
		"persona":    s.deps.Trigger.Persona().ID,
	})
}

// handleHealth reports backend connectivity.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	visionErr := s.deps.Classifier.Health(c.Context())
	out := fiber.Map{
		"vision": healthString(visionErr),
	}
	if s.deps.Speech != nil {
		out["speech"] = healthString(s.deps.Speech.Health(c.Context()))
	}
	if visionErr != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(out)
	}
	return c.JSON(out)
}

func healthString(err error) string {
	if err != nil {
		return err.Error()
	}
	return "ok"
}

// handleCalibrate captures or accepts a baseline frame, has the classifier
// describe it, and persists both as the new baseline. An uploaded "image"
// multipart file takes precedence; otherwise a frame is grabbed from the
// camera.
func (s *Server) handleCalibrate(c *fiber.Ctx) error {
	frame, err := s.calibrationFrame(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	description, err := s.deps.Classifier.Describe(c.Context(), frame)
	if err != nil {
		s.logger.Error("baseline description failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "vision backend: " + err.Error(),
		})
	}

	ref, err := s.deps.Store.Set(frame, description)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	s.logger.Info("calibrated", "bytes", len(frame))
	return c.JSON(fiber.Map{
		"description": ref.Description,
		"created_at":  ref.CreatedAt,
	})
}

func (s *Server) calibrationFrame(c *fiber.Ctx) ([]byte, error) {
	if fh, err := c.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	return s.deps.Source.CaptureJPEG(c.Context())
}

// handleCalibration returns the stored baseline metadata.
func (s *Server) handleCalibration(c *fiber.Ctx) error {
	ref, err := s.deps.Store.Get()
	if errors.Is(err, calibration.ErrNotCalibrated) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "not calibrated",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(ref)
}

// handleCalibrationImage serves the baseline frame.
func (s *Server) handleCalibrationImage(c *fiber.Ctx) error {
	img, err := s.deps.Store.Image()
	if errors.Is(err, calibration.ErrNotCalibrated) {
		return c.SendStatus(fiber.StatusNotFound)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	c.Set(fiber.HeaderContentType, "image/jpeg")
	return c.Send(img)
}

// handleSessionStart launches the sampling loop. Starting an already running
// session is a no-op and still returns 200. The loop outlives the request,
// so it runs on a background context rather than the request's.
func (s *Server) handleSessionStart(c *fiber.Ctx) error {
	err := s.deps.Controller.Start(context.Background())
	if errors.Is(err, calibration.ErrNotCalibrated) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "calibrate before starting a session",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"running": true})
}

func (s *Server) handleSessionStop(c *fiber.Ctx) error {
	s.deps.Controller.Stop()
	return c.JSON(fiber.Map{"running": false})
}

// handleListPersonas returns the registered personas with the active one
// flagged.
func (s *Server) handleListPersonas(c *fiber.Ctx) error {
	active := s.deps.Trigger.Persona().ID
	personas := s.deps.Registry.List()

	out := make([]fiber.Map, 0, len(personas))
	for _, p := range personas {
		out = append(out, fiber.Map{
			"id":     p.ID,
			"name":   p.Name,
			"voice":  p.Voice,
			"active": p.ID == active,
		})
	}
	return c.JSON(out)
}

// SetPersonaRequest selects the active persona.
type SetPersonaRequest struct {
	ID string `json:"id"`
}

func (s *Server) handleSetPersona(c *fiber.Ctx) error {
	var req SetPersonaRequest
	if err := c.BodyParser(&req); err != nil || req.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "body must be {\"id\": \"<persona>\"}",
		})
	}

	if err := s.deps.Trigger.SetPersona(req.ID); err != nil {
		if errors.Is(err, persona.ErrUnknownPersona) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	s.logger.Info("persona switched", "persona", req.ID)
	return c.JSON(fiber.Map{"persona": req.ID})
}

// SpeakRequest is the manual text-to-speech request body.
type SpeakRequest struct {
	Text    string `json:"text"`
	Persona string `json:"persona"`
}

// handleSpeak synthesizes arbitrary text, useful for testing voices.
func (s *Server) handleSpeak(c *fiber.Ctx) error {
	if s.deps.Speech == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "speech synthesis not configured",
		})
	}

	var req SpeakRequest
	if err := c.BodyParser(&req); err != nil || req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "body must include non-empty text",
		})
	}

	voice := s.deps.Trigger.Persona().Voice
	if req.Persona != "" {
		p, err := s.deps.Registry.Get(req.Persona)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		voice = p.Voice
	}

	start := time.Now()
	audio, err := s.deps.Speech.Synthesize(c.Context(), tts.Request{Text: req.Text, Voice: voice})
	if err != nil {
		s.logger.Error("speak failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	s.logger.Debug("speak", "chars", audio.CharCount, "took", time.Since(start).String())

	c.Set(fiber.HeaderContentType, audio.MIME)
	return c.Send(audio.Data)
}

// handleEpisodeAudio serves the audio of the most recent response episode.
func (s *Server) handleEpisodeAudio(c *fiber.Ctx) error {
	snap := s.deps.Controller.Status()
	ep := snap.LastEpisode
	if ep == nil {
		return c.SendStatus(fiber.StatusNotFound)
	}
	if ep.Status != session.EpisodeDelivered {
		return c.Status(fiber.StatusGone).JSON(fiber.Map{
			"error": ep.Error,
		})
	}
	if len(ep.Audio) == 0 {
		return c.SendStatus(fiber.StatusNotFound)
	}
	c.Set(fiber.HeaderContentType, ep.AudioMIME)
	return c.Send(ep.Audio)
}
