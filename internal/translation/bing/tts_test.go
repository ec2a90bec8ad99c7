package bing

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"horse.fit/lingo/internal/translation"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(req *http.Request, body string) *http.Response {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}
}

func TestPronounce_SynthesizesSpeech(t *testing.T) {
	t.Parallel()

	audio := []byte("mp3-bytes")
	var synthBody string
	var synthAuth string

	transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		switch {
		case strings.HasSuffix(req.URL.Path, "/translator"):
			page := `<html>IG:"ABCDEF1234" var params_AbusePreventionHelper = [12345,"token-1",3600000]; data-iid="translator.5028"</html>`
			return jsonResponse(req, page), nil
		case strings.Contains(req.URL.Path, "tfetspktok"):
			return jsonResponse(req, `{"region":"eastus","token":"speech-token"}`), nil
		case strings.Contains(req.URL.Host, "tts.speech.microsoft.com"):
			if req.URL.Host != "eastus.tts.speech.microsoft.com" {
				t.Errorf("unexpected synthesis host: %q", req.URL.Host)
			}
			synthAuth = req.Header.Get("Authorization")
			body, _ := io.ReadAll(req.Body)
			synthBody = string(body)
			header := http.Header{}
			header.Set("Content-Type", "audio/mpeg")
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     header,
				Body:       io.NopCloser(strings.NewReader(string(audio))),
				Request:    req,
			}, nil
		default:
			t.Errorf("unexpected request: %s", req.URL)
			return jsonResponse(req, `{}`), nil
		}
	})
	client := New(Options{Host: "https://test.invalid/", HTTPClient: &http.Client{Transport: transport}})

	got, err := client.Pronounce(context.Background(), "hello & goodbye", "en", translation.SpeedFast)
	if err != nil {
		t.Fatalf("pronounce: %v", err)
	}
	if string(got) != string(audio) {
		t.Fatalf("unexpected audio payload: %q", got)
	}
	if synthAuth != "Bearer speech-token" {
		t.Fatalf("unexpected authorization header: %q", synthAuth)
	}
	if !strings.Contains(synthBody, "en-US-JessaRUS") {
		t.Fatalf("voice missing from markup: %q", synthBody)
	}
	if !strings.Contains(synthBody, "rate='-10.00%'") {
		t.Fatalf("fast rate missing from markup: %q", synthBody)
	}
	if !strings.Contains(synthBody, "hello &amp; goodbye") {
		t.Fatalf("text not escaped in markup: %q", synthBody)
	}
}

func TestPronounce_RejectsVoicelessLanguage(t *testing.T) {
	t.Parallel()

	client := New(Options{})
	_, err := client.Pronounce(context.Background(), "bonjour", "xx", translation.SpeedSlow)
	if err == nil {
		t.Fatal("expected an error")
	}
	if kind := translation.KindOf(err); kind != translation.KindLanguage {
		t.Fatalf("unexpected error kind: got %q want %q", kind, translation.KindLanguage)
	}
}

func TestStopPronounce_IsIdempotent(t *testing.T) {
	t.Parallel()

	client := New(Options{})
	client.StopPronounce()
	client.StopPronounce()
}

func TestSSML_SlowRate(t *testing.T) {
	t.Parallel()

	markup := ssml("hello", reader{locale: "en-US", gender: "Female", voice: "en-US-JessaRUS"}, translation.SpeedSlow)
	if !strings.Contains(markup, "rate='-30.00%'") {
		t.Fatalf("slow rate missing from markup: %q", markup)
	}
	if !strings.Contains(markup, "xml:gender='Female'") {
		t.Fatalf("gender missing from markup: %q", markup)
	}
}
