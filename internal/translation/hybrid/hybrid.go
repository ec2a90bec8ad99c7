// Package hybrid composes translation results from several engines. Each
// result field is assigned to an engine; one translate call fans out over the
// engines the assignment references and stitches the per-field winners into a
// single result.
package hybrid

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"horse.fit/lingo/internal/cache"
	"horse.fit/lingo/internal/translation"
)

const (
	engineName = "hybrid"

	defaultCacheMax = 250
	defaultCacheTTL = 15 * time.Minute
)

// Config assigns an engine to every composable result field. Engines lists
// the engines the assignment references; it is derived, never hand-set.
type Config struct {
	Selections map[translation.Field]string `json:"selections"`
	Engines    []string                     `json:"engines"`
}

// DefaultConfig assigns every field to primary.
func DefaultConfig(primary string) Config {
	selections := make(map[translation.Field]string, len(translation.Fields()))
	for _, field := range translation.Fields() {
		selections[field] = primary
	}
	return Config{Selections: selections, Engines: []string{primary}}
}

// Options configures an Orchestrator.
type Options struct {
	// Engines are the real engines composition may draw from.
	Engines []translation.Engine
	// Config is the initial field assignment. Zero value assigns every field
	// to the first engine.
	Config   Config
	CacheMax int
	CacheTTL time.Duration
	Logger   zerolog.Logger
}

// Orchestrator is a translation.Engine whose results are composed from the
// engines it wraps.
type Orchestrator struct {
	logger  zerolog.Logger
	engines map[string]translation.Engine

	mu      sync.RWMutex
	config  Config
	primary string

	results  *cache.Cache[string, *translation.Result]
	inflight singleflight.Group
}

func New(opts Options) (*Orchestrator, error) {
	if len(opts.Engines) == 0 {
		return nil, fmt.Errorf("hybrid needs at least one engine")
	}

	engines := make(map[string]translation.Engine, len(opts.Engines))
	for _, engine := range opts.Engines {
		name := strings.ToLower(strings.TrimSpace(engine.Name()))
		if name == "" || name == engineName {
			return nil, fmt.Errorf("invalid engine name %q", engine.Name())
		}
		engines[name] = engine
	}

	cacheMax := opts.CacheMax
	if cacheMax <= 0 {
		cacheMax = defaultCacheMax
	}
	cacheTTL := opts.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}

	o := &Orchestrator{
		logger:  opts.Logger.With().Str("engine", engineName).Logger(),
		engines: engines,
		results: cache.New[string, *translation.Result](cache.Options{Max: cacheMax, TTL: cacheTTL}),
	}

	config := opts.Config
	if len(config.Selections) == 0 {
		config = DefaultConfig(strings.ToLower(opts.Engines[0].Name()))
	}
	if err := o.UseConfig(config); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Orchestrator) Name() string {
	return engineName
}

// Config returns a copy of the current field assignment.
func (o *Orchestrator) Config() Config {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return copyConfig(o.config)
}

// UseConfig replaces the field assignment. Every referenced engine must be
// wrapped by this orchestrator and every assigned field must be known. The
// result cache is invalidated: cached compositions reflect the old assignment.
func (o *Orchestrator) UseConfig(config Config) error {
	if len(config.Selections) == 0 {
		return fmt.Errorf("config assigns no fields")
	}
	for field, engine := range config.Selections {
		if !translation.KnownField(field) {
			return fmt.Errorf("unknown result field %q", field)
		}
		if _, ok := o.engines[engine]; !ok {
			return fmt.Errorf("engine %q is not wrapped by this orchestrator", engine)
		}
	}

	primary, ok := config.Selections[translation.FieldMainMeaning]
	if !ok {
		return fmt.Errorf("config assigns no engine to the main meaning")
	}
	config.Engines = referencedEngines(config.Selections)

	o.mu.Lock()
	o.config = copyConfig(config)
	o.primary = primary
	o.mu.Unlock()

	o.results.Clear()
	return nil
}

// WarmUp forwards to every wrapped engine.
func (o *Orchestrator) WarmUp(ctx context.Context) {
	for _, engine := range o.engines {
		engine.WarmUp(ctx)
	}
}

// SupportedLanguages is the union of the wrapped engines' languages: a pair
// may still be translatable after UpdateConfigFor reassigns fields.
func (o *Orchestrator) SupportedLanguages() []string {
	seen := map[string]bool{}
	for _, engine := range o.engines {
		for _, code := range engine.SupportedLanguages() {
			seen[code] = true
		}
	}
	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Detect delegates to the engine assigned to the main meaning.
func (o *Orchestrator) Detect(ctx context.Context, text string) (string, error) {
	return o.primaryEngine().Detect(ctx, text)
}

// Pronounce delegates to the engine assigned to the main meaning.
func (o *Orchestrator) Pronounce(ctx context.Context, text, language string, speed translation.Speed) ([]byte, error) {
	return o.primaryEngine().Pronounce(ctx, text, language, speed)
}

func (o *Orchestrator) StopPronounce() {
	o.primaryEngine().StopPronounce()
}

func (o *Orchestrator) primaryEngine() translation.Engine {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.engines[o.primary]
}

// Translate fans out over the engines the current assignment references,
// waits for all of them and composes the per-field winners. Concurrent calls
// for the same key share one fan-out.
func (o *Orchestrator) Translate(ctx context.Context, text, from, to string) (*translation.Result, error) {
	if strings.TrimSpace(text) == "" {
		return &translation.Result{OriginalText: text, MainMeaning: ""}, nil
	}

	key := cache.Key(engineName, from, to, text)
	if cached, ok := o.results.Get(key); ok {
		return cached, nil
	}

	v, err, _ := o.inflight.Do(key, func() (any, error) {
		if cached, ok := o.results.Get(key); ok {
			return cached, nil
		}
		result, err := o.translateAll(ctx, text, from, to)
		if err != nil {
			return nil, err
		}
		o.results.Set(key, result)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*translation.Result), nil
}

func (o *Orchestrator) translateAll(ctx context.Context, text, from, to string) (*translation.Result, error) {
	o.mu.RLock()
	config := copyConfig(o.config)
	primary := o.primary
	o.mu.RUnlock()

	// Fan out and await all: one engine's failure must not abort the others,
	// composition decides below whether the failure is fatal.
	results := make(map[string]*translation.Result, len(config.Engines))
	errs := make(map[string]error, len(config.Engines))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, name := range config.Engines {
		engine := o.engines[name]
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := engine.Translate(ctx, text, from, to)
			mu.Lock()
			results[name] = result
			errs[name] = err
			mu.Unlock()
		}()
	}
	wg.Wait()

	for name, err := range errs {
		if err != nil {
			o.logger.Debug().Err(err).Str("delegate", name).Msg("engine failed during fan-out")
		}
	}

	composed := &translation.Result{}
	for _, field := range translation.Fields() {
		selected := config.Selections[field]
		if selected == "" {
			selected = primary
		}
		selectedResult := results[selected]
		primaryResult := results[primary]

		if v := selectedResult.Field(field); v.HasValue() {
			composed.SetField(field, v)
		} else if v := primaryResult.Field(field); v.HasValue() {
			composed.SetField(field, v)
		} else if selectedResult != nil {
			// Keep the selected engine's empty value so the field is an
			// explicit absence, not a silently dropped one.
			composed.SetField(field, selectedResult.Field(field))
		}
	}

	if composed.MainMeaning == "" {
		selected := config.Selections[translation.FieldMainMeaning]
		if err := errs[selected]; err != nil {
			return nil, err
		}
		if err := errs[primary]; err != nil {
			return nil, err
		}
		return nil, translation.WrapError(
			translation.NewError(translation.KindAPI, 0, "no engine produced a translation"),
			translation.Action{Engine: engineName, Operation: "translate", Text: text, From: from, To: to})
	}

	if composed.OriginalText == "" {
		composed.OriginalText = text
	}
	if primaryResult := results[primary]; primaryResult != nil {
		if composed.SourceLanguage == "" {
			composed.SourceLanguage = primaryResult.SourceLanguage
		}
		if composed.TargetLanguage == "" {
			composed.TargetLanguage = primaryResult.TargetLanguage
		}
	}
	return composed, nil
}

// AvailableEnginesFor returns the wrapped engines supporting both languages,
// the engine currently assigned to the main meaning first and the rest in
// name order.
func (o *Orchestrator) AvailableEnginesFor(from, to string) []string {
	o.mu.RLock()
	primary := o.primary
	o.mu.RUnlock()

	var available []string
	for name, engine := range o.engines {
		if translation.SupportsPair(engine, from, to) {
			available = append(available, name)
		}
	}
	sort.Slice(available, func(i, j int) bool {
		if available[i] == primary {
			return true
		}
		if available[j] == primary {
			return false
		}
		return available[i] < available[j]
	})
	return available
}

// UpdateConfigFor adapts the field assignment to a new language pair: fields
// assigned to an engine that cannot serve the pair move to the first
// available engine, the derived engine set shrinks to what is still
// referenced and cached compositions are dropped. The returned config is what
// callers persist.
func (o *Orchestrator) UpdateConfigFor(from, to string) (Config, error) {
	available := o.AvailableEnginesFor(from, to)
	if len(available) == 0 {
		return Config{}, translation.WrapError(
			translation.NewError(translation.KindLanguage, 0,
				fmt.Sprintf("no engine supports translating %s to %s", from, to)),
			translation.Action{Engine: engineName, Operation: "updateConfig", From: from, To: to})
	}

	availableSet := make(map[string]bool, len(available))
	for _, name := range available {
		availableSet[name] = true
	}
	fallback := available[0]

	o.mu.RLock()
	current := copyConfig(o.config)
	o.mu.RUnlock()

	next := Config{Selections: make(map[translation.Field]string, len(current.Selections))}
	for field, engine := range current.Selections {
		if availableSet[engine] {
			next.Selections[field] = engine
		} else {
			next.Selections[field] = fallback
		}
	}

	if err := o.UseConfig(next); err != nil {
		return Config{}, err
	}
	return o.Config(), nil
}

func referencedEngines(selections map[translation.Field]string) []string {
	seen := make(map[string]bool, len(selections))
	for _, engine := range selections {
		seen[engine] = true
	}
	engines := make([]string, 0, len(seen))
	for engine := range seen {
		engines = append(engines, engine)
	}
	sort.Strings(engines)
	return engines
}

func copyConfig(config Config) Config {
	copied := Config{
		Selections: make(map[translation.Field]string, len(config.Selections)),
		Engines:    append([]string(nil), config.Engines...),
	}
	for field, engine := range config.Selections {
		copied.Selections[field] = engine
	}
	return copied
}
