package translation

import "context"

// Engine is one translation backend with its own session/auth protocol.
type Engine interface {
	// Name returns the engine's registry identifier.
	Name() string

	// Detect returns the language code of text.
	Detect(ctx context.Context, text string) (string, error)

	// Translate translates text between the given languages. from may be
	// LangAuto; the returned Result always carries resolved languages.
	Translate(ctx context.Context, text, from, to string) (*Result, error)

	// Pronounce synthesizes speech for text and returns MP3 audio. A language
	// of LangAuto is resolved via Detect first. Returns a LANG_ERR envelope
	// when the resolved language has no voice mapping on this backend.
	Pronounce(ctx context.Context, text, language string, speed Speed) ([]byte, error)

	// StopPronounce cancels any in-flight synthesis. Idempotent.
	StopPronounce()

	// SupportedLanguages returns the language codes this engine accepts.
	SupportedLanguages() []string

	// WarmUp primes the engine's session in the background. Best effort;
	// failures are swallowed.
	WarmUp(ctx context.Context)
}

// SupportsPair reports whether the engine accepts both languages. A source
// of LangAuto is always acceptable: every engine detects.
func SupportsPair(e Engine, from, to string) bool {
	supported := make(map[string]struct{})
	for _, code := range e.SupportedLanguages() {
		supported[code] = struct{}{}
	}
	if _, ok := supported[to]; !ok {
		return false
	}
	if from == LangAuto {
		return true
	}
	_, ok := supported[from]
	return ok
}
