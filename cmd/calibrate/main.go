// Calibrate captures a baseline frame and stores it as the "focused"
// reference, without running the full daemon. Sit how you work, run it once.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/wardenhq/go-warden/internal/config"
	"github.com/wardenhq/go-warden/internal/log"
	"github.com/wardenhq/go-warden/pkg/calibration"
	"github.com/wardenhq/go-warden/pkg/capture"
	"github.com/wardenhq/go-warden/pkg/vision"
)

func main() {
	cfg := config.Load()

	device := flag.Int("camera", cfg.CameraDevice, "camera device index")
	file := flag.String("file", "", "use a JPEG file instead of the camera")
	countdown := flag.Int("countdown", 3, "seconds before the frame is taken")
	flag.Parse()

	log.Init(cfg.LogLevel)

	if err := run(cfg, *device, *file, *countdown); err != nil {
		log.Error("calibration failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, device int, file string, countdown int) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.SampleTimeout)
	defer cancel()

	frame, err := grabFrame(ctx, device, file, countdown)
	if err != nil {
		return err
	}

	classifier := vision.NewOllama(
		vision.WithBaseURL(cfg.OllamaURL),
		vision.WithModel(cfg.VisionModel),
		vision.WithTimeout(cfg.SampleTimeout),
	)

	fmt.Println("Describing baseline...")
	description, err := classifier.Describe(ctx, frame)
	if err != nil {
		return fmt.Errorf("describe baseline: %w", err)
	}

	store := calibration.NewStore(cfg.DataDir)
	ref, err := store.Set(frame, description)
	if err != nil {
		return err
	}

	fmt.Printf("Calibrated at %s\n", ref.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Baseline: %s\n", ref.Description)
	return nil
}

func grabFrame(ctx context.Context, device int, file string, countdown int) ([]byte, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read baseline file: %w", err)
		}
		return data, nil
	}

	camCfg := capture.DefaultConfig()
	camCfg.Device = device
	webcam := capture.NewWebcam(camCfg)
	defer webcam.Close()

	for i := countdown; i > 0; i-- {
		fmt.Printf("Capturing in %d... sit how you work when focused.\n", i)
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return webcam.CaptureJPEG(ctx)
}
