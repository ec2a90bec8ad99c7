package translation

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry stores translation engines and resolves a default engine. Engines
// are registered at startup; the default may be switched at runtime.
type Registry struct {
	mu            sync.RWMutex
	engines       map[string]Engine
	defaultEngine string
}

func NewRegistry(defaultEngine string) *Registry {
	return &Registry{
		engines:       make(map[string]Engine),
		defaultEngine: normalizeEngineName(defaultEngine),
	}
}

// Register adds one engine.
func (r *Registry) Register(engine Engine) error {
	if r == nil {
		return fmt.Errorf("registry is nil")
	}
	if engine == nil {
		return fmt.Errorf("engine is nil")
	}
	name := normalizeEngineName(engine.Name())
	if name == "" {
		return fmt.Errorf("engine name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[name] = engine
	if r.defaultEngine == "" {
		r.defaultEngine = name
	}
	return nil
}

// Engine resolves an engine by name. Empty names use the configured default.
func (r *Registry) Engine(name string) (Engine, error) {
	if r == nil {
		return nil, fmt.Errorf("registry is nil")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.engines) == 0 {
		return nil, fmt.Errorf("no translation engines are registered")
	}

	resolved := normalizeEngineName(name)
	if resolved == "" {
		resolved = r.defaultEngine
	}
	if engine, ok := r.engines[resolved]; ok {
		return engine, nil
	}
	return nil, fmt.Errorf("translation engine %q is not registered (available: %s)",
		resolved, strings.Join(r.engineNamesLocked(), ", "))
}

func (r *Registry) DefaultEngine() string {
	if r == nil {
		return ""
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultEngine
}

// SetDefaultEngine updates the default engine name if it is registered.
func (r *Registry) SetDefaultEngine(name string) error {
	resolved := normalizeEngineName(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.engines[resolved]; !ok {
		return fmt.Errorf("translation engine %q is not registered", resolved)
	}
	r.defaultEngine = resolved
	return nil
}

func (r *Registry) EngineNames() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.engineNamesLocked()
}

func (r *Registry) engineNamesLocked() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeEngineName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
