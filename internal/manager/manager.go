// Package manager is the request dispatcher sitting between the inbound
// surfaces (HTTP API, CLI) and the translation engines. It owns the
// dispatcher-level caches, deduplicates and debounces bursts, resolves the
// mutual translation mode, keeps language metadata usable for speech, emits
// timestamped lifecycle events and reacts to settings changes.
package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"horse.fit/lingo/internal/cache"
	"horse.fit/lingo/internal/settings"
	"horse.fit/lingo/internal/translation"
	"horse.fit/lingo/internal/translation/hybrid"
)

const (
	defaultCacheMax       = 300
	defaultDetectTTL      = 10 * time.Minute
	defaultTranslateTTL   = 30 * time.Minute
	defaultDebounceWindow = 250 * time.Millisecond

	defaultSourceLanguage = translation.LangAuto
	defaultTargetLanguage = "en"
)

// Options configures a Dispatcher.
type Options struct {
	Registry *translation.Registry
	Hybrid   *hybrid.Orchestrator
	// Store persists settings and feeds change notifications. Optional; a nil
	// store keeps all state in memory.
	Store settings.Store
	// OfflineDetect is the secondary, network-free language detector consulted
	// when the engines cannot name a source language.
	OfflineDetect func(text string) string
	Logger        zerolog.Logger

	// SourceLanguage, TargetLanguage and MutualTranslate seed the language
	// setting; values persisted in the store take precedence.
	SourceLanguage  string
	TargetLanguage  string
	MutualTranslate bool

	CacheMax       int
	DetectTTL      time.Duration
	TranslateTTL   time.Duration
	DebounceWindow time.Duration
	Clock          func() time.Time
}

// Dispatcher is the translation façade used by every inbound surface.
type Dispatcher struct {
	logger        zerolog.Logger
	registry      *translation.Registry
	hybrid        *hybrid.Orchestrator
	store         settings.Store
	offlineDetect func(string) string
	clock         func() time.Time
	bus           *eventBus

	detectCache    *cache.Cache[string, string]
	translateCache *cache.Cache[string, *translation.Result]

	inflightDetect    singleflight.Group
	inflightTranslate singleflight.Group

	mu             sync.Mutex
	langFrom       string
	langTo         string
	mutualMode     bool
	ttsSpeed       translation.Speed
	lastKey        string
	lastAt         time.Time
	debounceWindow time.Duration

	unsubscribe func()
}

func New(ctx context.Context, opts Options) (*Dispatcher, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("dispatcher needs an engine registry")
	}
	if opts.Hybrid == nil {
		return nil, fmt.Errorf("dispatcher needs the hybrid orchestrator")
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	cacheMax := opts.CacheMax
	if cacheMax <= 0 {
		cacheMax = defaultCacheMax
	}
	detectTTL := opts.DetectTTL
	if detectTTL <= 0 {
		detectTTL = defaultDetectTTL
	}
	translateTTL := opts.TranslateTTL
	if translateTTL <= 0 {
		translateTTL = defaultTranslateTTL
	}
	debounceWindow := opts.DebounceWindow
	if debounceWindow <= 0 {
		debounceWindow = defaultDebounceWindow
	}

	d := &Dispatcher{
		logger:        opts.Logger.With().Str("component", "dispatcher").Logger(),
		registry:      opts.Registry,
		hybrid:        opts.Hybrid,
		store:         opts.Store,
		offlineDetect: opts.OfflineDetect,
		clock:         clock,
		bus:           newEventBus(clock),
		detectCache: cache.New[string, string](
			cache.Options{Max: cacheMax, TTL: detectTTL, Now: cache.Clock(clock)}),
		translateCache: cache.New[string, *translation.Result](
			cache.Options{Max: cacheMax, TTL: translateTTL, Now: cache.Clock(clock)}),
		langFrom:       defaultSourceLanguage,
		langTo:         defaultTargetLanguage,
		mutualMode:     opts.MutualTranslate,
		ttsSpeed:       translation.SpeedFast,
		debounceWindow: debounceWindow,
	}
	if opts.SourceLanguage != "" {
		d.langFrom = opts.SourceLanguage
	}
	if opts.TargetLanguage != "" && opts.TargetLanguage != translation.LangAuto {
		d.langTo = opts.TargetLanguage
	}

	d.loadSettings(ctx)
	if d.store != nil {
		d.unsubscribe = d.store.Subscribe(d.onSettingsChange)
	}
	return d, nil
}

// Close stops reacting to settings changes.
func (d *Dispatcher) Close() {
	if d.unsubscribe != nil {
		d.unsubscribe()
	}
}

// WarmUp primes every registered engine in the background.
func (d *Dispatcher) WarmUp(ctx context.Context) {
	for _, name := range d.registry.EngineNames() {
		if engine, err := d.registry.Engine(name); err == nil {
			engine.WarmUp(ctx)
		}
	}
}

// Subscribe returns a channel of dispatcher events and a cancel function. A
// consumer that falls behind misses events rather than blocking translation.
func (d *Dispatcher) Subscribe(buffer int) (<-chan Event, func()) {
	return d.bus.subscribe(buffer)
}

// LanguageSetting returns the active language pair.
func (d *Dispatcher) LanguageSetting() (from, to string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.langFrom, d.langTo
}

// MutualMode reports whether mutual translation is active.
func (d *Dispatcher) MutualMode() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mutualMode
}

// DefaultTranslator returns the designated default engine name.
func (d *Dispatcher) DefaultTranslator() string {
	return d.registry.DefaultEngine()
}

// SupportedLanguages lists the language codes the named engine supports. An
// empty name resolves to the default engine.
func (d *Dispatcher) SupportedLanguages(engine string) ([]string, error) {
	resolved, err := d.registry.Engine(engine)
	if err != nil {
		return nil, err
	}
	return resolved.SupportedLanguages(), nil
}

// Detect returns the language code of text through the default engine, with
// a dispatcher-level cache and in-flight deduplication.
func (d *Dispatcher) Detect(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	key := cache.NormalizeKeyText(text)
	if detected, ok := d.detectCache.Get(key); ok {
		return detected, nil
	}

	v, err, _ := d.inflightDetect.Do(key, func() (any, error) {
		if detected, ok := d.detectCache.Get(key); ok {
			return detected, nil
		}
		engine, err := d.registry.Engine("")
		if err != nil {
			return "", err
		}
		detected, err := engine.Detect(ctx, text)
		if err != nil {
			return "", err
		}
		if detected != "" {
			d.detectCache.Set(key, detected)
		}
		return detected, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Translate translates text using the active language setting and emits
// started/finished/error events. In mutual mode the source language is
// detected first and the pair flipped when the text is already in the target
// language. Duplicate requests inside the debounce window stay silent on the
// event stream and are served from cache or the shared in-flight call.
func (d *Dispatcher) Translate(ctx context.Context, text string) (*translation.Result, error) {
	if strings.TrimSpace(text) == "" {
		return &translation.Result{OriginalText: text, MainMeaning: ""}, nil
	}

	d.mu.Lock()
	from, to, mutual := d.langFrom, d.langTo, d.mutualMode
	d.mu.Unlock()

	if from != translation.LangAuto && mutual {
		detected, err := d.Detect(ctx, text)
		if err != nil {
			stamp := d.bus.stamp()
			d.bus.publish(Event{Type: EventTranslateError, Timestamp: stamp, Text: text, Error: publicError(err)})
			return nil, err
		}
		switch detected {
		case from:
			// Keep the configured pair.
		case to:
			from, to = detected, from
		default:
			from = translation.LangAuto
		}
	}

	return d.translateResolved(ctx, text, from, to)
}

// TranslateWith translates text between an explicit language pair, bypassing
// the language setting and the mutual mode but keeping caches, deduplication
// and events.
func (d *Dispatcher) TranslateWith(ctx context.Context, text, from, to string) (*translation.Result, error) {
	if strings.TrimSpace(text) == "" {
		return &translation.Result{OriginalText: text, MainMeaning: ""}, nil
	}

	d.mu.Lock()
	if from == "" {
		from = d.langFrom
	}
	if to == "" {
		to = d.langTo
	}
	d.mu.Unlock()

	return d.translateResolved(ctx, text, from, to)
}

func (d *Dispatcher) translateResolved(ctx context.Context, text, from, to string) (*translation.Result, error) {
	engineName := d.registry.DefaultEngine()
	key := cache.Key(engineName, from, to, text)
	debounced := d.noteDebounce(key)

	var stamp int64
	if !debounced {
		stamp = d.bus.stamp()
		d.bus.publish(Event{Type: EventTranslateStarted, Timestamp: stamp, Text: text})
	}

	result, err := d.lookupOrTranslate(ctx, key, text, from, to)
	if err != nil {
		if !debounced {
			d.bus.publish(Event{Type: EventTranslateError, Timestamp: d.bus.stamp(), Text: text, Error: publicError(err)})
		}
		return nil, err
	}

	// Speech needs concrete language metadata, so the returned copy always
	// carries a resolved source language and the original text verbatim.
	resolved := *result
	resolved.SourceLanguage = d.resolveSourceLanguage(ctx, text, from, result.SourceLanguage)
	resolved.TargetLanguage = to
	resolved.OriginalText = text

	if !debounced {
		d.bus.publish(Event{Type: EventTranslateFinished, Timestamp: d.bus.stamp(), Text: text, Result: &resolved})
	}
	return &resolved, nil
}

func (d *Dispatcher) lookupOrTranslate(ctx context.Context, key, text, from, to string) (*translation.Result, error) {
	if cached, ok := d.translateCache.Get(key); ok {
		return cached, nil
	}

	v, err, _ := d.inflightTranslate.Do(key, func() (any, error) {
		if cached, ok := d.translateCache.Get(key); ok {
			return cached, nil
		}
		engine, err := d.registry.Engine("")
		if err != nil {
			return nil, err
		}
		result, err := engine.Translate(ctx, text, from, to)
		if err != nil {
			return nil, err
		}
		d.translateCache.Set(key, result)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*translation.Result), nil
}

// noteDebounce records the request key and reports whether it repeats the
// previous one inside the debounce window.
func (d *Dispatcher) noteDebounce(key string) bool {
	now := d.clock()
	d.mu.Lock()
	defer d.mu.Unlock()
	repeated := d.lastKey == key && now.Sub(d.lastAt) < d.debounceWindow
	d.lastKey = key
	d.lastAt = now
	return repeated
}

// resolveSourceLanguage turns "auto" into a concrete code: the engine result
// first, a detect call second, the offline detector third, English last.
func (d *Dispatcher) resolveSourceLanguage(ctx context.Context, text, from, reported string) string {
	if from != translation.LangAuto && from != "" {
		return from
	}
	if reported != "" && reported != translation.LangAuto {
		return reported
	}
	if detected, err := d.Detect(ctx, text); err == nil && detected != "" && detected != translation.LangAuto {
		return detected
	}
	if d.offlineDetect != nil {
		if detected := d.offlineDetect(text); detected != "" {
			return detected
		}
	}
	return "en"
}

// Pronounce synthesizes speech through the default engine and emits
// pronounce events. An empty speed alternates between fast and slow, so
// repeating a pronunciation replays it at the other pace.
func (d *Dispatcher) Pronounce(ctx context.Context, text, language string, speed translation.Speed) ([]byte, error) {
	if speed == "" {
		d.mu.Lock()
		speed = d.ttsSpeed
		if speed == translation.SpeedFast {
			d.ttsSpeed = translation.SpeedSlow
		} else {
			d.ttsSpeed = translation.SpeedFast
		}
		d.mu.Unlock()
	}

	stamp := d.bus.stamp()
	d.bus.publish(Event{Type: EventPronounceStarted, Timestamp: stamp, Text: text})

	engine, err := d.registry.Engine("")
	if err != nil {
		d.bus.publish(Event{Type: EventPronounceError, Timestamp: d.bus.stamp(), Text: text, Error: publicError(err)})
		return nil, err
	}
	audio, err := engine.Pronounce(ctx, text, language, speed)
	if err != nil {
		d.bus.publish(Event{Type: EventPronounceError, Timestamp: d.bus.stamp(), Text: text, Error: publicError(err)})
		return nil, err
	}

	d.bus.publish(Event{Type: EventPronounceFinished, Timestamp: d.bus.stamp(), Text: text})
	return audio, nil
}

// StopPronounce cancels any in-flight synthesis on the default engine.
func (d *Dispatcher) StopPronounce() {
	if engine, err := d.registry.Engine(""); err == nil {
		engine.StopPronounce()
	}
	d.bus.publish(Event{Type: EventPronounceFinished, Timestamp: d.bus.stamp()})
}

// AvailableTranslators lists the translators able to serve the language
// pair, the designated default first. The hybrid engine is always available
// as long as any of its delegates is.
func (d *Dispatcher) AvailableTranslators(from, to string) []string {
	available := d.hybrid.AvailableEnginesFor(from, to)
	names := make([]string, 0, len(available)+1)
	if len(available) > 0 {
		names = append(names, d.hybrid.Name())
	}
	names = append(names, available...)

	defaultName := d.registry.DefaultEngine()
	for i, name := range names {
		if name == defaultName && i > 0 {
			copy(names[1:i+1], names[:i])
			names[0] = name
			break
		}
	}
	return names
}

// UpdateDefaultTranslator switches the default engine, persists the choice
// and drops dispatcher caches keyed by the previous engine.
func (d *Dispatcher) UpdateDefaultTranslator(ctx context.Context, name string) error {
	if err := d.registry.SetDefaultEngine(name); err != nil {
		return err
	}
	d.clearCaches()

	if d.store != nil {
		payload, err := json.Marshal(d.registry.DefaultEngine())
		if err != nil {
			return fmt.Errorf("encode default translator: %w", err)
		}
		if err := d.store.Put(ctx, settings.KeyDefaultTranslator, payload); err != nil {
			return fmt.Errorf("persist default translator: %w", err)
		}
	}
	return nil
}

// UpdateLanguageSetting switches the language pair: the hybrid assignment is
// recomputed for the pair and persisted, caches are dropped, and a default
// translator that cannot serve the pair is replaced by the first one that
// can.
func (d *Dispatcher) UpdateLanguageSetting(ctx context.Context, from, to string) error {
	newConfig, err := d.hybrid.UpdateConfigFor(from, to)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.langFrom, d.langTo = from, to
	d.mu.Unlock()
	d.clearCaches()

	available := d.AvailableTranslators(from, to)
	supported := false
	for _, name := range available {
		if name == d.registry.DefaultEngine() {
			supported = true
			break
		}
	}
	if !supported && len(available) > 0 {
		replacement := available[0]
		// Prefer a concrete engine over the hybrid composition as the new
		// default, matching the ordering produced above.
		if replacement == d.hybrid.Name() && len(available) > 1 {
			replacement = available[1]
		}
		if err := d.UpdateDefaultTranslator(ctx, replacement); err != nil {
			return err
		}
	}

	if d.store == nil {
		return nil
	}
	selectionsPayload, err := json.Marshal(newConfig)
	if err != nil {
		return fmt.Errorf("encode hybrid selections: %w", err)
	}
	if err := d.store.Put(ctx, settings.KeyHybridSelections, selectionsPayload); err != nil {
		return fmt.Errorf("persist hybrid selections: %w", err)
	}
	languagePayload, err := json.Marshal(settings.LanguageSetting{From: from, To: to})
	if err != nil {
		return fmt.Errorf("encode language setting: %w", err)
	}
	if err := d.store.Put(ctx, settings.KeyLanguageSetting, languagePayload); err != nil {
		return fmt.Errorf("persist language setting: %w", err)
	}
	return nil
}

func (d *Dispatcher) clearCaches() {
	d.detectCache.Clear()
	d.translateCache.Clear()
}

func (d *Dispatcher) loadSettings(ctx context.Context) {
	if d.store == nil {
		return
	}

	if payload, err := d.store.Get(ctx, settings.KeyHybridSelections); err == nil {
		d.applyHybridSelections(payload)
	}
	if payload, err := d.store.Get(ctx, settings.KeyDefaultTranslator); err == nil {
		var name string
		if err := json.Unmarshal(payload, &name); err == nil {
			if err := d.registry.SetDefaultEngine(name); err != nil {
				d.logger.Warn().Err(err).Msg("stored default translator is not registered")
			}
		}
	}
	if payload, err := d.store.Get(ctx, settings.KeyLanguageSetting); err == nil {
		var setting settings.LanguageSetting
		if err := json.Unmarshal(payload, &setting); err == nil && setting.From != "" && setting.To != "" {
			d.mu.Lock()
			d.langFrom, d.langTo = setting.From, setting.To
			d.mu.Unlock()
		}
	}
	if payload, err := d.store.Get(ctx, settings.KeyMutualTranslate); err == nil {
		var enabled bool
		if err := json.Unmarshal(payload, &enabled); err == nil {
			d.mu.Lock()
			d.mutualMode = enabled
			d.mu.Unlock()
		}
	}
}

// onSettingsChange applies an observed settings mutation. Changes that affect
// request routing drop the dispatcher caches.
func (d *Dispatcher) onSettingsChange(change settings.Change) {
	switch change.Key {
	case settings.KeyHybridSelections:
		d.applyHybridSelections(change.Value)
		d.clearCaches()
	case settings.KeyDefaultTranslator:
		var name string
		if err := json.Unmarshal(change.Value, &name); err != nil {
			return
		}
		if err := d.registry.SetDefaultEngine(name); err != nil {
			d.logger.Warn().Err(err).Msg("updated default translator is not registered")
			return
		}
		d.clearCaches()
	case settings.KeyLanguageSetting:
		var setting settings.LanguageSetting
		if err := json.Unmarshal(change.Value, &setting); err != nil || setting.From == "" || setting.To == "" {
			return
		}
		d.mu.Lock()
		d.langFrom, d.langTo = setting.From, setting.To
		d.mu.Unlock()
		d.clearCaches()
	case settings.KeyMutualTranslate:
		var enabled bool
		if err := json.Unmarshal(change.Value, &enabled); err != nil {
			return
		}
		d.mu.Lock()
		d.mutualMode = enabled
		d.mu.Unlock()
	}
}

func (d *Dispatcher) applyHybridSelections(payload json.RawMessage) {
	var config hybrid.Config
	if err := json.Unmarshal(payload, &config); err != nil {
		d.logger.Warn().Err(err).Msg("stored hybrid selections are malformed")
		return
	}
	if err := d.hybrid.UseConfig(config); err != nil {
		d.logger.Warn().Err(err).Msg("stored hybrid selections are not applicable")
	}
}

// publicError is what event consumers see in place of raw backend errors.
func publicError(err error) string {
	switch translation.KindOf(err) {
	case translation.KindLanguage:
		return "the language is not supported for this operation"
	case translation.KindAPI:
		return "the translation service rejected the request"
	default:
		return "the translation service could not be reached"
	}
}
