package persona

import (
	"context"
	"strings"
)

// Generator produces one short in-character remark.
type Generator interface {
	// Remark generates a 1-2 sentence reminder for the given persona.
	// observations is the vision classifier's description of what the
	// user is doing instead of working.
	Remark(ctx context.Context, p Persona, observations string) (string, error)
}

// remarkPrompt is appended to the persona's own prompt.
const remarkPrompt = `

The user appears distracted. Here's the context:
%s

Generate ONE brief response (1-2 sentences max) to remind them to refocus. Stay in character.`

// TrimSentences shortens a remark to at most n sentences. Models asked for
// "1-2 sentences" routinely deliver five; the extra ones get cut before
// synthesis so the spoken reminder stays short.
func TrimSentences(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 {
		return s
	}

	count := 0
	for i, r := range s {
		if r == '.' || r == '!' || r == '?' {
			count++
			if count == n {
				return strings.TrimSpace(s[:i+1])
			}
		}
	}
	return s
}
