package hybrid

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"horse.fit/lingo/internal/translation"
)

type stubEngine struct {
	name      string
	languages []string
	result    *translation.Result
	err       error
	delay     time.Duration

	calls      atomic.Int64
	detects    atomic.Int64
	pronounces atomic.Int64
}

func (e *stubEngine) Name() string { return e.name }

func (e *stubEngine) SupportedLanguages() []string {
	if e.languages == nil {
		return []string{"en", "zh-CN"}
	}
	return e.languages
}

func (e *stubEngine) WarmUp(_ context.Context) {}

func (e *stubEngine) Detect(_ context.Context, _ string) (string, error) {
	e.detects.Add(1)
	return "en", e.err
}

func (e *stubEngine) Translate(_ context.Context, text, from, to string) (*translation.Result, error) {
	e.calls.Add(1)
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	if e.err != nil {
		return nil, e.err
	}
	result := *e.result
	result.OriginalText = text
	return &result, nil
}

func (e *stubEngine) Pronounce(_ context.Context, _, _ string, _ translation.Speed) ([]byte, error) {
	e.pronounces.Add(1)
	return []byte(e.name), e.err
}

func (e *stubEngine) StopPronounce() {}

func newOrchestrator(t *testing.T, config Config, engines ...translation.Engine) *Orchestrator {
	t.Helper()
	o, err := New(Options{Engines: engines, Config: config})
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	return o
}

func TestTranslate_ComposesPerFieldAssignment(t *testing.T) {
	t.Parallel()

	alpha := &stubEngine{name: "alpha", result: &translation.Result{
		MainMeaning:    "alpha meaning",
		TPronunciation: "alpha pron",
		SourceLanguage: "en",
		TargetLanguage: "zh-CN",
	}}
	beta := &stubEngine{name: "beta", result: &translation.Result{
		MainMeaning:      "beta meaning",
		DetailedMeanings: []translation.DetailedMeaning{{Meaning: "beta sense"}},
	}}
	config := DefaultConfig("alpha")
	config.Selections[translation.FieldDetailedMeanings] = "beta"

	o := newOrchestrator(t, config, alpha, beta)
	result, err := o.Translate(context.Background(), "hello", "en", "zh-CN")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}

	if result.MainMeaning != "alpha meaning" {
		t.Fatalf("unexpected main meaning: %q", result.MainMeaning)
	}
	if len(result.DetailedMeanings) != 1 || result.DetailedMeanings[0].Meaning != "beta sense" {
		t.Fatalf("unexpected detailed meanings: %+v", result.DetailedMeanings)
	}
	if result.TPronunciation != "alpha pron" {
		t.Fatalf("unexpected pronunciation: %q", result.TPronunciation)
	}
	if result.OriginalText != "hello" || result.SourceLanguage != "en" || result.TargetLanguage != "zh-CN" {
		t.Fatalf("unexpected identity fields: %+v", result)
	}
	if alpha.calls.Load() != 1 || beta.calls.Load() != 1 {
		t.Fatalf("unexpected fan-out: alpha %d beta %d", alpha.calls.Load(), beta.calls.Load())
	}
}

func TestTranslate_FallsBackToPrimaryWhenSelectedFieldEmpty(t *testing.T) {
	t.Parallel()

	alpha := &stubEngine{name: "alpha", result: &translation.Result{
		MainMeaning: "alpha meaning",
		Definitions: []translation.Definition{{Meaning: "alpha def"}},
	}}
	beta := &stubEngine{name: "beta", result: &translation.Result{
		MainMeaning: "beta meaning",
	}}
	config := DefaultConfig("alpha")
	config.Selections[translation.FieldDefinitions] = "beta"

	o := newOrchestrator(t, config, alpha, beta)
	result, err := o.Translate(context.Background(), "hello", "en", "zh-CN")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if len(result.Definitions) != 1 || result.Definitions[0].Meaning != "alpha def" {
		t.Fatalf("expected the primary's definitions as fallback, got %+v", result.Definitions)
	}
}

func TestTranslate_ToleratesNonEssentialEngineFailure(t *testing.T) {
	t.Parallel()

	alpha := &stubEngine{name: "alpha", result: &translation.Result{MainMeaning: "alpha meaning"}}
	beta := &stubEngine{name: "beta", err: errors.New("beta down")}
	config := DefaultConfig("alpha")
	config.Selections[translation.FieldExamples] = "beta"

	o := newOrchestrator(t, config, alpha, beta)
	result, err := o.Translate(context.Background(), "hello", "en", "zh-CN")
	if err != nil {
		t.Fatalf("one failed enrichment engine must not abort the call: %v", err)
	}
	if result.MainMeaning != "alpha meaning" {
		t.Fatalf("unexpected main meaning: %q", result.MainMeaning)
	}
	if len(result.Examples) != 0 {
		t.Fatalf("expected no examples, got %+v", result.Examples)
	}
}

func TestTranslate_FailsWhenMainMeaningEngineFails(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("alpha down")
	alpha := &stubEngine{name: "alpha", err: wantErr}
	beta := &stubEngine{name: "beta", result: &translation.Result{
		Examples: []translation.Example{{Source: "beta example"}},
	}}
	config := DefaultConfig("alpha")
	config.Selections[translation.FieldExamples] = "beta"

	o := newOrchestrator(t, config, alpha, beta)
	_, err := o.Translate(context.Background(), "hello", "en", "zh-CN")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the main meaning engine's error, got %v", err)
	}
}

func TestTranslate_EmptyInputShortCircuits(t *testing.T) {
	t.Parallel()

	alpha := &stubEngine{name: "alpha", result: &translation.Result{MainMeaning: "x"}}
	o := newOrchestrator(t, DefaultConfig("alpha"), alpha)

	result, err := o.Translate(context.Background(), " ", "en", "zh-CN")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if result.MainMeaning != "" || alpha.calls.Load() != 0 {
		t.Fatalf("expected a zero-call short circuit, result %+v calls %d", result, alpha.calls.Load())
	}
}

func TestTranslate_DeduplicatesConcurrentCalls(t *testing.T) {
	t.Parallel()

	alpha := &stubEngine{
		name:   "alpha",
		delay:  30 * time.Millisecond,
		result: &translation.Result{MainMeaning: "alpha meaning"},
	}
	o := newOrchestrator(t, DefaultConfig("alpha"), alpha)

	start := make(chan struct{})
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := o.Translate(context.Background(), "hello", "en", "zh-CN"); err != nil {
				t.Errorf("translate: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := alpha.calls.Load(); got != 1 {
		t.Fatalf("concurrent callers should share one fan-out, got %d engine calls", got)
	}
}

func TestTranslate_ServesRepeatsFromCache(t *testing.T) {
	t.Parallel()

	alpha := &stubEngine{name: "alpha", result: &translation.Result{MainMeaning: "alpha meaning"}}
	o := newOrchestrator(t, DefaultConfig("alpha"), alpha)

	for range 3 {
		if _, err := o.Translate(context.Background(), "hello", "en", "zh-CN"); err != nil {
			t.Fatalf("translate: %v", err)
		}
	}
	if got := alpha.calls.Load(); got != 1 {
		t.Fatalf("unexpected engine call count: got %d want 1", got)
	}
}

func TestUpdateConfigFor_ReassignsUnsupportedEngines(t *testing.T) {
	t.Parallel()

	alpha := &stubEngine{name: "alpha", languages: []string{"en", "zh-CN", "fr"},
		result: &translation.Result{MainMeaning: "alpha meaning"}}
	beta := &stubEngine{name: "beta", languages: []string{"en", "zh-CN"},
		result: &translation.Result{MainMeaning: "beta meaning"}}
	config := DefaultConfig("alpha")
	config.Selections[translation.FieldExamples] = "beta"

	o := newOrchestrator(t, config, alpha, beta)
	if _, err := o.Translate(context.Background(), "hello", "en", "zh-CN"); err != nil {
		t.Fatalf("translate: %v", err)
	}

	next, err := o.UpdateConfigFor("en", "fr")
	if err != nil {
		t.Fatalf("update config: %v", err)
	}
	if got := next.Selections[translation.FieldExamples]; got != "alpha" {
		t.Fatalf("unsupported engine not reassigned: got %q want alpha", got)
	}
	if !reflect.DeepEqual(next.Engines, []string{"alpha"}) {
		t.Fatalf("unexpected derived engine set: %v", next.Engines)
	}

	// The config change must invalidate cached compositions.
	if _, err := o.Translate(context.Background(), "hello", "en", "zh-CN"); err != nil {
		t.Fatalf("translate after update: %v", err)
	}
	if got := alpha.calls.Load(); got != 2 {
		t.Fatalf("expected a fresh fan-out after the config change, got %d calls", got)
	}
}

func TestUpdateConfigFor_FailsWhenNoEngineSupportsPair(t *testing.T) {
	t.Parallel()

	alpha := &stubEngine{name: "alpha", languages: []string{"en", "zh-CN"},
		result: &translation.Result{MainMeaning: "alpha meaning"}}
	o := newOrchestrator(t, DefaultConfig("alpha"), alpha)

	_, err := o.UpdateConfigFor("en", "xx")
	if err == nil {
		t.Fatal("expected an error")
	}
	if kind := translation.KindOf(err); kind != translation.KindLanguage {
		t.Fatalf("unexpected error kind: got %q want %q", kind, translation.KindLanguage)
	}
}

func TestAvailableEnginesFor_SortsPrimaryFirst(t *testing.T) {
	t.Parallel()

	alpha := &stubEngine{name: "alpha", result: &translation.Result{MainMeaning: "x"}}
	beta := &stubEngine{name: "beta", result: &translation.Result{MainMeaning: "x"}}
	gamma := &stubEngine{name: "gamma", result: &translation.Result{MainMeaning: "x"}}
	o := newOrchestrator(t, DefaultConfig("beta"), alpha, beta, gamma)

	got := o.AvailableEnginesFor("en", "zh-CN")
	if !reflect.DeepEqual(got, []string{"beta", "alpha", "gamma"}) {
		t.Fatalf("unexpected ordering: %v", got)
	}
}

func TestDetectAndPronounce_DelegateToPrimary(t *testing.T) {
	t.Parallel()

	alpha := &stubEngine{name: "alpha", result: &translation.Result{MainMeaning: "x"}}
	beta := &stubEngine{name: "beta", result: &translation.Result{MainMeaning: "x"}}
	o := newOrchestrator(t, DefaultConfig("beta"), alpha, beta)

	if _, err := o.Detect(context.Background(), "hello"); err != nil {
		t.Fatalf("detect: %v", err)
	}
	audio, err := o.Pronounce(context.Background(), "hello", "en", translation.SpeedFast)
	if err != nil {
		t.Fatalf("pronounce: %v", err)
	}
	if string(audio) != "beta" {
		t.Fatalf("pronounce did not reach the primary engine: %q", audio)
	}
	if alpha.detects.Load() != 0 || beta.detects.Load() != 1 {
		t.Fatalf("detect did not reach the primary engine")
	}
}
