// Package vision scores webcam frames against the calibrated "focused"
// baseline using a multimodal LLM.
//
// A Classifier does two jobs: Describe summarizes the calibration frame once
// (the summary is stored alongside the baseline), and Analyze compares a live
// frame against that summary, returning a focus score in [0,100] plus a short
// observation. The production backend talks to an Ollama server; tests use
// the in-package Mock.
package vision

import (
	"context"
)

// Analysis is the classifier's verdict on one frame.
type Analysis struct {
	// FocusScore is in [0,100]; higher means more focused.
	FocusScore int `json:"focus_score"`

	// Observations is the model's brief reasoning.
	Observations string `json:"observations"`
}

// Classifier scores frames against a baseline description.
type Classifier interface {
	// Describe summarizes a calibration frame in a few sentences.
	Describe(ctx context.Context, frame []byte) (string, error)

	// Analyze scores a frame against the baseline description.
	// Failures are surfaced, never defaulted to a score.
	Analyze(ctx context.Context, frame []byte, baseline string) (Analysis, error)

	// Health checks backend connectivity.
	Health(ctx context.Context) error
}

// describePrompt asks the model for a compact baseline summary.
const describePrompt = `Describe this image briefly. Focus on:
- Is there a person visible?
- What is their posture and position?
- Are they at a desk/workstation?
- What are they doing (working, looking at phone, away, etc.)?
Keep response under 50 words.`

// analyzePrompt compares the current frame to the baseline description.
// The scoring bands line up with the focus thresholds.
const analyzePrompt = `You are analyzing a webcam image to determine if a person is focused on their work.

CALIBRATION BASELINE (what focused looks like):
%s

TASK: Compare the current image to the baseline and rate focus from 0-100.

Scoring guide:
- 90-100: Person in same focused position as baseline
- 70-89: Person at desk, minor posture differences
- 50-69: Person present but attention may be divided
- 25-49: Person distracted (phone, looking away, different activity)
- 0-24: Person not at desk or major scene change

Respond with ONLY a JSON object in this exact format:
{"focus_score": <number 0-100>, "observations": "<brief reason>"}`
