package bing

import (
	"net/http"
	"reflect"
	"testing"
)

func TestParseTranslate_JoinsMultiItemResponses(t *testing.T) {
	t.Parallel()

	body := []byte(`[
		{"detectedLanguage":{"language":"en"},"translations":[{"text":"第一","transliteration":{"text":"dì yī"}}]},
		{"translations":[{"text":"第二","transliteration":{"text":"dì èr"}}]}
	]`)
	parsed := parseTranslate(body)
	if parsed.mainMeaning != "第一第二" {
		t.Fatalf("unexpected joined meaning: %q", parsed.mainMeaning)
	}
	if parsed.tPronunciation != "dì yī" {
		t.Fatalf("expected the first transliteration to win, got %q", parsed.tPronunciation)
	}
	if parsed.detectedLanguage != "en" {
		t.Fatalf("unexpected detected language: %q", parsed.detectedLanguage)
	}
}

func TestParseTranslate_ToleratesMalformedBodies(t *testing.T) {
	t.Parallel()

	for _, body := range []string{`{"statusCode":400}`, `not json`, `[]`, `[{"translations":[]}]`} {
		parsed := parseTranslate([]byte(body))
		if parsed.mainMeaning != "" {
			t.Fatalf("body %q: expected empty parse, got %+v", body, parsed)
		}
	}
}

func TestEmbeddedStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		body string
		want int
	}{
		{`{"statusCode":205}`, 205},
		{`{"statusCode":200}`, http.StatusOK},
		{`{"other":"field"}`, http.StatusOK},
		{`[{"translations":[]}]`, http.StatusOK},
		{`garbage`, http.StatusOK},
	}
	for _, tc := range cases {
		if got := embeddedStatus([]byte(tc.body)); got != tc.want {
			t.Fatalf("body %q: got %d want %d", tc.body, got, tc.want)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want []string
	}{
		{"One. Two! Three?", []string{"One.", "Two!", "Three?"}},
		{"你好。 再见。", []string{"你好。", "再见。"}},
		{"No terminal punctuation", []string{"No terminal punctuation"}},
		{"Version 1.2 stays whole.", []string{"Version 1.2 stays whole."}},
	}
	for _, tc := range cases {
		if got := splitSentences(tc.text); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("text %q: got %v want %v", tc.text, got, tc.want)
		}
	}
}
