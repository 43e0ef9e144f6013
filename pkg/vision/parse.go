package vision

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	jsonObjectRe = regexp.MustCompile(`\{[^{}]+\}`)
	bareNumberRe = regexp.MustCompile(`\b(\d{1,3})\b`)
)

// ParseAnalysis extracts a focus score and observations from a model reply.
//
// Multimodal models do not always honor the "JSON only" instruction, so the
// parser degrades gracefully: first a JSON object anywhere in the reply, then
// a bare number with the surrounding text as observations. Scores are clamped
// to [0,100]. A reply with neither returns ErrUnparseable; the caller treats
// that as a classification failure, not as some default score.
func ParseAnalysis(reply string) (Analysis, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return Analysis{}, fmt.Errorf("%w: empty reply", ErrUnparseable)
	}

	if match := jsonObjectRe.FindString(reply); match != "" {
		var parsed struct {
			FocusScore   json.Number `json:"focus_score"`
			Observations string      `json:"observations"`
		}
		if err := json.Unmarshal([]byte(match), &parsed); err == nil && parsed.FocusScore != "" {
			score, err := scoreFromNumber(parsed.FocusScore)
			if err == nil {
				obs := parsed.Observations
				if obs == "" {
					obs = "no details provided"
				}
				return Analysis{FocusScore: clamp(score), Observations: obs}, nil
			}
		}
	}

	if match := bareNumberRe.FindString(reply); match != "" {
		score, _ := strconv.Atoi(match)
		obs := reply
		if len(obs) > 200 {
			obs = obs[:200]
		}
		return Analysis{FocusScore: clamp(score), Observations: obs}, nil
	}

	return Analysis{}, fmt.Errorf("%w: %q", ErrUnparseable, truncate(reply, 120))
}

// scoreFromNumber accepts both integer and float score encodings.
func scoreFromNumber(n json.Number) (int, error) {
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
