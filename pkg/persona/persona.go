// Package persona manages the characters that deliver focus reminders.
//
// A Persona bundles a system prompt, a TTS voice, and a canned fallback line.
// The Generator interface produces one short in-character remark from the
// recent distraction context; the production backend is an Ollama text model.
package persona

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Sentinel errors for the persona package.
var (
	// ErrUnknownPersona indicates the requested persona is not registered.
	ErrUnknownPersona = errors.New("persona: unknown persona")

	// ErrEmptyRemark indicates the model produced no usable text.
	ErrEmptyRemark = errors.New("persona: empty remark")
)

// Persona is one reminder character.
type Persona struct {
	// ID is the registry key, e.g. "hal".
	ID string `yaml:"-" json:"id"`

	// Name is the display name.
	Name string `yaml:"name" json:"name"`

	// Voice is the TTS voice for this persona.
	Voice string `yaml:"voice" json:"voice"`

	// Prompt is the system prompt establishing the character.
	Prompt string `yaml:"prompt" json:"-"`

	// Fallback is the canned remark used when generation fails.
	Fallback string `yaml:"fallback" json:"-"`
}

// Registry holds the available personas.
type Registry struct {
	personas map[string]Persona
	def      string
}

// registryFile is the on-disk YAML layout.
type registryFile struct {
	Default  string             `yaml:"default"`
	Personas map[string]Persona `yaml:"personas"`
}

// LoadRegistry reads a persona registry from a YAML file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persona: read registry: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("persona: parse registry: %w", err)
	}
	if len(file.Personas) == 0 {
		return nil, errors.New("persona: registry defines no personas")
	}

	personas := make(map[string]Persona, len(file.Personas))
	for id, p := range file.Personas {
		p.ID = id
		if p.Name == "" {
			p.Name = id
		}
		personas[id] = p
	}

	def := file.Default
	if _, ok := personas[def]; !ok {
		return nil, fmt.Errorf("%w: default %q", ErrUnknownPersona, def)
	}

	return &Registry{personas: personas, def: def}, nil
}

// Builtins returns the compiled-in persona set, used when no registry file
// is configured.
func Builtins() *Registry {
	personas := map[string]Persona{
		"hal": {
			ID:    "hal",
			Name:  "HAL",
			Voice: "onyx",
			Prompt: "You are HAL 9000: calm, measured, faintly ominous. " +
				"You address the user as Dave regardless of their actual name.",
			Fallback: "I'm afraid I can't let you continue this distraction, Dave.",
		},
		"sarcastic_friend": {
			ID:    "sarcastic_friend",
			Name:  "Sarcastic Friend",
			Voice: "nova",
			Prompt: "You are the user's sarcastic friend. Deadpan, dry, " +
				"affectionately merciless about their procrastination.",
			Fallback: "Oh sure, take your time. It's not like you have work to do or anything.",
		},
		"motivational_coach": {
			ID:    "motivational_coach",
			Name:  "Motivational Coach",
			Voice: "shimmer",
			Prompt: "You are an upbeat motivational coach. High energy, " +
				"relentlessly positive, always believes in the user.",
			Fallback: "Hey! You've got this! Let's get back on track!",
		},
		"drill_sergeant": {
			ID:    "drill_sergeant",
			Name:  "Drill Sergeant",
			Voice: "echo",
			Prompt: "You are a drill sergeant. Loud, terse, zero patience " +
				"for slacking. Keep it PG.",
			Fallback: "Back to work, soldier! No excuses!",
		},
	}
	return &Registry{personas: personas, def: "hal"}
}

// Get returns the persona with the given id, or ErrUnknownPersona.
func (r *Registry) Get(id string) (Persona, error) {
	p, ok := r.personas[id]
	if !ok {
		return Persona{}, fmt.Errorf("%w: %q", ErrUnknownPersona, id)
	}
	return p, nil
}

// Default returns the default persona.
func (r *Registry) Default() Persona {
	return r.personas[r.def]
}

// List returns all personas sorted by id.
func (r *Registry) List() []Persona {
	out := make([]Persona, 0, len(r.personas))
	for _, p := range r.personas {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
