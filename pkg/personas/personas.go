// Package personas — YAML-defined reply personalities.
//
// A persona bundles the system prompt and generation parameters used when
// the assistant answers a platform message or an /api/generate request.
// Persona directories searched (in order):
//  1. ./personas/            (relative to working directory)
//  2. ~/.pibot/personas/
//  3. The builtin default persona compiled into the binary
package personas

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultName is the persona used when none is configured.
const DefaultName = "technical-advisor"

// Persona is the YAML schema for a reply personality.
type Persona struct {
	Name        string `yaml:"name"`         // machine identifier (slug)
	DisplayName string `yaml:"display_name"` // human-readable
	Description string `yaml:"description,omitempty"`

	// Soul is the system prompt injected ahead of the user message.
	Soul string `yaml:"soul"`

	// Generation overrides; zero values fall back to config.
	Model       string  `yaml:"model,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`

	// Set by the loader, not in YAML.
	SourceFile string `yaml:"-"`
	Builtin    bool   `yaml:"-"`
}

// Registry is a thread-safe store of loaded personas.
type Registry struct {
	mu       sync.RWMutex
	personas map[string]*Persona
}

func NewRegistry() *Registry {
	r := &Registry{
		personas: make(map[string]*Persona),
	}
	r.Register(builtinDefault())
	return r
}

func builtinDefault() *Persona {
	return &Persona{
		Name:        DefaultName,
		DisplayName: "Technical Advisor",
		Description: "Concise engineering assistant for chat platforms",
		Soul: "You are a concise technical assistant embedded in a chat platform. " +
			"Answer engineering questions directly and briefly. When the question " +
			"is ambiguous, state your assumption in one line and answer anyway. " +
			"Prefer plain text over heavy formatting; chat clients render little markup.",
		Builtin: true,
	}
}

// Load reads all *.yaml files from dir and registers them.
// Errors in individual files are collected but don't abort loading.
func (r *Registry) Load(dir string) (int, []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, []error{fmt.Errorf("cannot read persona dir %s: %w", dir, err)}
	}

	loaded := 0
	var errs []error

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		p, err := LoadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("load %s: %w", e.Name(), err))
			continue
		}
		r.Register(p)
		loaded++
	}

	return loaded, errs
}

// LoadFile parses a single YAML persona file.
func LoadFile(path string) (*Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Persona
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}
	if p.Name == "" {
		return nil, fmt.Errorf("persona at %s has no 'name' field", path)
	}
	if strings.TrimSpace(p.Soul) == "" {
		return nil, fmt.Errorf("persona '%s' has no 'soul' field", p.Name)
	}
	p.SourceFile = path
	return &p, nil
}

// Register adds or replaces a persona in the registry.
func (r *Registry) Register(p *Persona) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.personas[p.Name] = p
}

// Get retrieves a persona by name.
func (r *Registry) Get(name string) (*Persona, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.personas[name]
	return p, ok
}

// Resolve returns the named persona, or the builtin default when name is
// empty or unknown.
func (r *Registry) Resolve(name string) *Persona {
	if name != "" {
		if p, ok := r.Get(name); ok {
			return p
		}
	}
	p, _ := r.Get(DefaultName)
	return p
}

// List returns all registered personas, sorted by name.
func (r *Registry) List() []*Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Persona, 0, len(r.personas))
	for _, p := range r.personas {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LoadDefaults loads personas from the standard locations into a fresh
// registry and returns it along with any load warnings.
func LoadDefaults() (*Registry, []string) {
	r := NewRegistry()
	dirs := []string{
		"personas",
		filepath.Join(os.Getenv("HOME"), ".pibot", "personas"),
	}

	var warnings []string
	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		_, errs := r.Load(dir)
		for _, e := range errs {
			warnings = append(warnings, e.Error())
		}
	}

	return r, warnings
}
