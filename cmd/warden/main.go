// Warden - webcam focus accountability daemon.
// Samples the camera, scores focus against a calibrated baseline, and calls
// you out through a persona voice when you drift.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/wardenhq/go-warden/internal/config"
	"github.com/wardenhq/go-warden/internal/log"
	"github.com/wardenhq/go-warden/pkg/calibration"
	"github.com/wardenhq/go-warden/pkg/capture"
	"github.com/wardenhq/go-warden/pkg/focus"
	"github.com/wardenhq/go-warden/pkg/persona"
	"github.com/wardenhq/go-warden/pkg/session"
	"github.com/wardenhq/go-warden/pkg/tts"
	"github.com/wardenhq/go-warden/pkg/vision"
	"github.com/wardenhq/go-warden/pkg/web"
)

func main() {
	cfg := parseFlags()
	log.Init(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		log.Error("warden exited", "error", err)
		os.Exit(1)
	}
}

func parseFlags() config.Config {
	cfg := config.Load()

	port := flag.String("port", cfg.Port, "HTTP listen port")
	device := flag.Int("camera", cfg.CameraDevice, "camera device index")
	personaID := flag.String("persona", cfg.Persona, "active persona id")
	autostart := flag.Bool("autostart", false, "start a session immediately when calibrated")
	flag.Parse()

	cfg.Port = *port
	cfg.CameraDevice = *device
	cfg.Persona = *personaID
	cfg.Autostart = *autostart
	return cfg
}

func run(cfg config.Config) error {
	store := calibration.NewStore(cfg.DataDir)
	if err := store.Load(); err != nil {
		return fmt.Errorf("restore calibration: %w", err)
	}

	camCfg := capture.DefaultConfig()
	camCfg.Device = cfg.CameraDevice
	webcam := capture.NewWebcam(camCfg)
	defer webcam.Close()

	classifier, err := buildClassifier(cfg)
	if err != nil {
		return err
	}

	registry, err := loadPersonas(cfg.PersonasPath)
	if err != nil {
		return err
	}

	remarks := persona.NewOllama(persona.OllamaConfig{
		BaseURL:     cfg.OllamaURL,
		Model:       cfg.TextModel,
		UseFallback: true,
	})

	speech := buildSpeech(cfg)
	if speech != nil {
		defer speech.Close()
	}

	if _, err := registry.Get(cfg.Persona); err != nil {
		return fmt.Errorf("persona %q: %w", cfg.Persona, err)
	}
	trigger := session.NewTrigger(registry, cfg.Persona, remarks, speech, cfg.ResponseCooldown)

	sessCfg := session.Config{
		Interval:        cfg.SampleInterval,
		SampleTimeout:   cfg.SampleTimeout,
		ResponseTimeout: cfg.ResponseTimeout,
		Machine: focus.Config{
			GreenThreshold:   cfg.GreenThreshold,
			YellowThreshold:  cfg.YellowThreshold,
			EscalationWindow: cfg.EscalationWindow,
			HistorySize:      focus.DefaultConfig().HistorySize,
		},
	}
	controller := session.NewController(sessCfg, webcam, classifier, store, trigger)

	server := web.NewServer(cfg.Port, web.Deps{
		Controller: controller,
		Trigger:    trigger,
		Store:      store,
		Source:     webcam,
		Classifier: classifier,
		Registry:   registry,
		Speech:     speech,
	})
	controller.OnSnapshot = server.BroadcastSnapshot

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Autostart {
		if err := controller.Start(context.Background()); err != nil {
			if errors.Is(err, calibration.ErrNotCalibrated) {
				log.Warn("autostart skipped: not calibrated, POST /api/calibrate first")
			} else {
				return fmt.Errorf("autostart: %w", err)
			}
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		controller.Stop()
		return server.Shutdown()
	})

	return g.Wait()
}

// buildClassifier selects the vision backend. Local Ollama is the default;
// WARDEN_VISION_BACKEND=gemini switches to the hosted API.
func buildClassifier(cfg config.Config) (vision.Classifier, error) {
	if cfg.VisionBackend == "gemini" {
		g, err := vision.NewGemini(
			vision.WithAPIKey(cfg.GoogleKey),
			vision.WithTimeout(cfg.SampleTimeout),
		)
		if err != nil {
			return nil, err
		}
		return g, nil
	}
	return vision.NewOllama(
		vision.WithBaseURL(cfg.OllamaURL),
		vision.WithModel(cfg.VisionModel),
		vision.WithTimeout(cfg.SampleTimeout),
	), nil
}

// loadPersonas reads the persona registry file, falling back to the builtins
// when the file does not exist.
func loadPersonas(path string) (*persona.Registry, error) {
	registry, err := persona.LoadRegistry(path)
	if err == nil {
		return registry, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		log.Debug("no persona file, using builtins", "path", path)
		return persona.Builtins(), nil
	}
	return nil, fmt.Errorf("load personas: %w", err)
}

// buildSpeech assembles the synthesis chain from whichever providers have
// credentials. Order matters: ElevenLabs first for quality, OpenAI as
// fallback. No keys means warden runs silent.
func buildSpeech(cfg config.Config) tts.Provider {
	var providers []tts.Provider

	if cfg.ElevenKey != "" {
		opts := []tts.Option{tts.WithAPIKey(cfg.ElevenKey)}
		if cfg.ElevenVoice != "" {
			opts = append(opts, tts.WithDefaultVoice(cfg.ElevenVoice))
		}
		p, err := tts.NewElevenLabs(opts...)
		if err != nil {
			log.Warn("elevenlabs disabled", "error", err)
		} else {
			providers = append(providers, p)
		}
	}
	if cfg.OpenAIKey != "" {
		p, err := tts.NewOpenAI(tts.WithAPIKey(cfg.OpenAIKey))
		if err != nil {
			log.Warn("openai tts disabled", "error", err)
		} else {
			providers = append(providers, p)
		}
	}

	if len(providers) == 0 {
		log.Info("no speech credentials, responses will be text-only")
		return nil
	}
	chain, err := tts.NewChain(providers...)
	if err != nil {
		return nil
	}
	return chain
}
