// Package langdetect wraps an offline statistical language detector. It is
// the dispatcher's fallback when no engine can name a source language.
package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// Detect returns the language of text as one of the translation layer's
// codes, or "" when the sample is too short or too ambiguous to call.
func Detect(text string) string {
	code := DetectISO6391(text)
	// The engines distinguish Chinese variants; without script analysis the
	// simplified code is the safer guess.
	if code == "zh" {
		return "zh-CN"
	}
	return code
}

// DetectISO6391 returns the lowercase ISO 639-1 code of text. Samples with
// fewer than 6 letters are reported as unknown: single words misclassify too
// often to act on.
func DetectISO6391(text string) string {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return ""
	}

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < 6 {
		return ""
	}

	language, exists := getDetector().DetectLanguageOf(sample)
	if !exists {
		return ""
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	if len(code) != 2 {
		return ""
	}
	return code
}

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			WithPreloadedLanguageModels().
			Build()
	})
	return detector
}
