package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"horse.fit/lingo/internal/manager"
	"horse.fit/lingo/internal/translation"
	"horse.fit/lingo/internal/translation/hybrid"
)

type stubEngine struct {
	name          string
	languages     []string
	result        translation.Result
	detected      string
	err           error
	pronounceLang string
}

func (e *stubEngine) Name() string { return e.name }

func (e *stubEngine) Detect(context.Context, string) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return e.detected, nil
}

func (e *stubEngine) Translate(_ context.Context, text, _, _ string) (*translation.Result, error) {
	if e.err != nil {
		return nil, e.err
	}
	result := e.result
	result.OriginalText = text
	return &result, nil
}

func (e *stubEngine) Pronounce(_ context.Context, _ string, language string, _ translation.Speed) ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.pronounceLang = language
	return []byte("mp3-bytes"), nil
}

func (e *stubEngine) StopPronounce() {}

func (e *stubEngine) SupportedLanguages() []string { return e.languages }

func (e *stubEngine) WarmUp(context.Context) {}

type serverFixture struct {
	server     *Server
	e          *echo.Echo
	dispatcher *manager.Dispatcher
	bing       *stubEngine
	google     *stubEngine
}

func newTestServer(t *testing.T) (*Server, *echo.Echo, *manager.Dispatcher) {
	t.Helper()
	fx := newTestFixture(t)
	return fx.server, fx.e, fx.dispatcher
}

func newTestFixture(t *testing.T) *serverFixture {
	t.Helper()

	bing := &stubEngine{
		name:      "bing",
		languages: []string{"en", "fr", "zh-CN"},
		result:    translation.Result{MainMeaning: "bonjour", SourceLanguage: "en"},
		detected:  "fr",
	}
	google := &stubEngine{
		name:      "google",
		languages: []string{"en", "de", "zh-CN"},
		result:    translation.Result{MainMeaning: "hallo", SourceLanguage: "en"},
		detected:  "de",
	}

	orchestrator, err := hybrid.New(hybrid.Options{Engines: []translation.Engine{bing, google}})
	if err != nil {
		t.Fatalf("hybrid.New: %v", err)
	}

	registry := translation.NewRegistry("bing")
	for _, engine := range []translation.Engine{bing, google, orchestrator} {
		if err := registry.Register(engine); err != nil {
			t.Fatalf("register %s: %v", engine.Name(), err)
		}
	}

	dispatcher, err := manager.New(context.Background(), manager.Options{
		Registry: registry,
		Hybrid:   orchestrator,
	})
	if err != nil {
		t.Fatalf("manager.New: %v", err)
	}
	t.Cleanup(dispatcher.Close)

	server := NewServer(dispatcher, zerolog.Nop(), Options{})
	return &serverFixture{
		server:     server,
		e:          server.buildEcho(),
		dispatcher: dispatcher,
		bing:       bing,
		google:     google,
	}
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeJSend(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Status string         `json:"status"`
		Data   map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	if envelope.Status != "success" {
		t.Fatalf("unexpected status %q: %s", envelope.Status, rec.Body.String())
	}
	return envelope.Data
}

func TestHealth(t *testing.T) {
	t.Parallel()

	_, e, _ := newTestServer(t)
	rec := doJSON(t, e, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusOK)
	}
	data := decodeJSend(t, rec)
	if data["service"] != "lingo" {
		t.Fatalf("service: got %v", data["service"])
	}
	if data["default_translator"] != "bing" {
		t.Fatalf("default translator: got %v", data["default_translator"])
	}
}

func TestTranslate_ReturnsResult(t *testing.T) {
	t.Parallel()

	_, e, _ := newTestServer(t)
	rec := doJSON(t, e, http.MethodPost, "/api/v1/translate", `{"text":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	data := decodeJSend(t, rec)
	result, ok := data["result"].(map[string]any)
	if !ok {
		t.Fatalf("response carries no result: %v", data)
	}
	if result["mainMeaning"] != "bonjour" {
		t.Fatalf("main meaning: got %v", result["mainMeaning"])
	}
	if result["originalText"] != "hello" {
		t.Fatalf("original text: got %v", result["originalText"])
	}
}

func TestTranslate_RejectsEmptyText(t *testing.T) {
	t.Parallel()

	_, e, _ := newTestServer(t)
	rec := doJSON(t, e, http.MethodPost, "/api/v1/translate", `{"text":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "validation_errors") {
		t.Fatalf("expected a validation failure, got %s", rec.Body.String())
	}
}

func TestDetect(t *testing.T) {
	t.Parallel()

	_, e, _ := newTestServer(t)
	rec := doJSON(t, e, http.MethodPost, "/api/v1/detect", `{"text":"bonjour"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	data := decodeJSend(t, rec)
	if data["language"] != "fr" {
		t.Fatalf("language: got %v", data["language"])
	}
}

func TestPronounce_ReturnsAudio(t *testing.T) {
	t.Parallel()

	_, e, _ := newTestServer(t)
	rec := doJSON(t, e, http.MethodPost, "/api/v1/pronounce", `{"text":"hello","language":"en","speed":"fast"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(echo.HeaderContentType); got != "audio/mpeg" {
		t.Fatalf("content type: got %q", got)
	}
	if rec.Body.String() != "mp3-bytes" {
		t.Fatalf("audio: got %q", rec.Body.String())
	}
}

func TestPronounce_DefaultsLanguageToAuto(t *testing.T) {
	t.Parallel()

	fx := newTestFixture(t)
	rec := doJSON(t, fx.e, http.MethodPost, "/api/v1/pronounce", `{"text":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	if got := fx.bing.pronounceLang; got != translation.LangAuto {
		t.Fatalf("engine language: got %q want %q", got, translation.LangAuto)
	}
}

func TestPronounce_NormalizesLanguageCasing(t *testing.T) {
	t.Parallel()

	fx := newTestFixture(t)
	rec := doJSON(t, fx.e, http.MethodPost, "/api/v1/pronounce", `{"text":"你好","language":"ZH-cn"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	if got := fx.bing.pronounceLang; got != "zh-CN" {
		t.Fatalf("engine language: got %q want %q", got, "zh-CN")
	}
}

func TestPronounce_RejectsUnknownSpeed(t *testing.T) {
	t.Parallel()

	_, e, _ := newTestServer(t)
	rec := doJSON(t, e, http.MethodPost, "/api/v1/pronounce", `{"text":"hello","speed":"ludicrous"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rec.Code)
	}
}

func TestTranslators_ListsDefaultFirst(t *testing.T) {
	t.Parallel()

	_, e, _ := newTestServer(t)
	rec := doJSON(t, e, http.MethodGet, "/api/v1/translators?from=en&to=zh-CN", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	data := decodeJSend(t, rec)
	translators, ok := data["translators"].([]any)
	if !ok || len(translators) == 0 {
		t.Fatalf("translators missing: %v", data)
	}
	if translators[0] != "bing" {
		t.Fatalf("first translator: got %v want bing", translators[0])
	}
	if data["default"] != "bing" {
		t.Fatalf("default: got %v", data["default"])
	}
}

func TestTranslators_NormalizesQueryCasing(t *testing.T) {
	t.Parallel()

	_, e, _ := newTestServer(t)
	rec := doJSON(t, e, http.MethodGet, "/api/v1/translators?from=EN&to=ZH-cn", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	data := decodeJSend(t, rec)
	if data["from"] != "en" || data["to"] != "zh-CN" {
		t.Fatalf("pair not canonical: %v -> %v", data["from"], data["to"])
	}
	translators, ok := data["translators"].([]any)
	if !ok || len(translators) == 0 {
		t.Fatalf("uppercase pair matched no translators: %v", data)
	}
}

func TestLanguages_ReturnsLabeledOptions(t *testing.T) {
	t.Parallel()

	fx := newTestFixture(t)
	rec := doJSON(t, fx.e, http.MethodGet, "/api/v1/languages?translator=google", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	data := decodeJSend(t, rec)
	if data["translator"] != "google" {
		t.Fatalf("translator: got %v", data["translator"])
	}
	options, ok := data["languages"].([]any)
	if !ok || len(options) != len(fx.google.languages) {
		t.Fatalf("languages: got %v want %d options", data["languages"], len(fx.google.languages))
	}
	first, ok := options[0].(map[string]any)
	if !ok || first["code"] != "de" || first["label"] != "German" || first["native"] != "Deutsch" {
		t.Fatalf("first option: got %v", options[0])
	}
}

func TestLanguages_DefaultsToDefaultTranslator(t *testing.T) {
	t.Parallel()

	_, e, _ := newTestServer(t)
	rec := doJSON(t, e, http.MethodGet, "/api/v1/languages", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	data := decodeJSend(t, rec)
	if data["translator"] != "bing" {
		t.Fatalf("translator: got %v", data["translator"])
	}

	rec = doJSON(t, e, http.MethodGet, "/api/v1/languages?translator=nope", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status for unknown translator: got %d", rec.Code)
	}
}

func TestPutDefaultTranslator(t *testing.T) {
	t.Parallel()

	_, e, dispatcher := newTestServer(t)
	rec := doJSON(t, e, http.MethodPut, "/api/v1/translators/default", `{"translator":"google"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	if got := dispatcher.DefaultTranslator(); got != "google" {
		t.Fatalf("default translator: got %q want %q", got, "google")
	}

	rec = doJSON(t, e, http.MethodPut, "/api/v1/translators/default", `{"translator":"nope"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status for unknown translator: got %d", rec.Code)
	}
}

func TestPutLanguageSetting_ReassignsDefault(t *testing.T) {
	t.Parallel()

	_, e, dispatcher := newTestServer(t)

	// bing is the default but does not support German.
	rec := doJSON(t, e, http.MethodPut, "/api/v1/language-setting", `{"from":"en","to":"de"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	data := decodeJSend(t, rec)
	if data["from"] != "en" || data["to"] != "de" {
		t.Fatalf("pair: got %v -> %v", data["from"], data["to"])
	}
	if got := dispatcher.DefaultTranslator(); got != "google" {
		t.Fatalf("default translator: got %q want %q", got, "google")
	}
}

func TestPutLanguageSetting_RejectsAutoTarget(t *testing.T) {
	t.Parallel()

	_, e, _ := newTestServer(t)
	rec := doJSON(t, e, http.MethodPut, "/api/v1/language-setting", `{"from":"auto","to":"auto"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rec.Code)
	}
}

func TestEvents_StreamsTranslationLifecycle(t *testing.T) {
	t.Parallel()

	_, e, dispatcher := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()

	go func() {
		time.Sleep(50 * time.Millisecond)
		_, _ = dispatcher.Translate(context.Background(), "hello events")
	}()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if got := rec.Header().Get(echo.HeaderContentType); got != "text/event-stream" {
		t.Fatalf("content type: got %q", got)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "event: translating_started") {
		t.Fatalf("stream misses started event: %q", body)
	}
	if !strings.Contains(body, "event: translating_finished") {
		t.Fatalf("stream misses finished event: %q", body)
	}
}
