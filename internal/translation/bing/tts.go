package bing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"horse.fit/lingo/internal/translation"
)

// ttsAuth is the region-scoped token authorizing speech synthesis calls.
// Guarded by Client.ttsMu.
type ttsAuth struct {
	region string
	token  string
}

func (a ttsAuth) valid() bool {
	return a.region != "" && a.token != ""
}

// updateTTSAuth fetches a fresh synthesis token from the backend.
func (c *Client) updateTTSAuth(ctx context.Context) error {
	body, err := c.request(ctx, c.ttsAuthCall(), true)
	if err != nil {
		return err
	}

	var parsed struct {
		Region string `json:"region"`
		Token  string `json:"token"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("decode tts auth response: %w", err)
	}
	if parsed.Region == "" || parsed.Token == "" {
		return fmt.Errorf("tts auth response carries no region or token")
	}

	c.ttsMu.Lock()
	c.tts = ttsAuth{region: parsed.Region, token: parsed.Token}
	c.ttsMu.Unlock()
	return nil
}

// Pronounce synthesizes speech for text and returns MP3 audio. An "auto"
// language is resolved via detection, falling back to English. Languages
// without a voice mapping fail with a LANG_ERR envelope.
func (c *Client) Pronounce(ctx context.Context, text, language string, speed translation.Speed) ([]byte, error) {
	c.StopPronounce()

	lang := language
	if lang == translation.LangAuto {
		detected, err := c.Detect(ctx, text)
		if err == nil && detected != "" && detected != translation.LangAuto {
			lang = detected
		} else {
			lang = "en"
		}
	}

	act := translation.Action{Engine: engineName, Operation: "pronounce", Text: text, From: lang}

	code, ok := languageCodes[lang]
	if !ok {
		return nil, translation.WrapError(
			translation.NewError(translation.KindLanguage, 0, fmt.Sprintf("language %q is not supported for speech", lang)), act)
	}
	voice, ok := readers[code]
	if !ok {
		return nil, translation.WrapError(
			translation.NewError(translation.KindLanguage, 0, fmt.Sprintf("language %q has no voice mapping", lang)), act)
	}

	synthCtx, cancel := context.WithCancel(ctx)
	c.ttsMu.Lock()
	c.stopCurrent = cancel
	auth := c.tts
	c.ttsMu.Unlock()
	defer cancel()

	if !auth.valid() {
		if err := c.updateTTSAuth(synthCtx); err != nil {
			return nil, translation.WrapError(err, act)
		}
	}

	audio, err := c.synthesize(synthCtx, text, voice, speed)
	if err == nil {
		return audio, nil
	}

	// A stale synthesis token is the common failure; refresh it and retry
	// once before propagating.
	if renewErr := c.updateTTSAuth(synthCtx); renewErr != nil {
		return nil, translation.WrapError(renewErr, act)
	}
	audio, err = c.synthesize(synthCtx, text, voice, speed)
	if err != nil {
		return nil, translation.WrapError(err, act)
	}
	return audio, nil
}

// StopPronounce cancels any in-flight synthesis. Idempotent; a no-op when
// nothing is playing.
func (c *Client) StopPronounce() {
	c.ttsMu.Lock()
	cancel := c.stopCurrent
	c.stopCurrent = nil
	c.ttsMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Client) synthesize(ctx context.Context, text string, voice reader, speed translation.Speed) ([]byte, error) {
	c.ttsMu.Lock()
	auth := c.tts
	c.ttsMu.Unlock()

	endpoint := fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", auth.region)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(ssml(text, voice, speed)))
	if err != nil {
		return nil, fmt.Errorf("build synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("Authorization", "Bearer "+auth.token)
	req.Header.Set("X-MICROSOFT-OutputFormat", "audio-16khz-32kbitrate-mono-mp3")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, translation.NewError(translation.KindAPI, resp.StatusCode, "speech synthesis rejected")
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesis response: %w", err)
	}
	return audio, nil
}

func ssml(text string, voice reader, speed translation.Speed) string {
	rate := "-10.00%"
	if speed == translation.SpeedSlow {
		rate = "-30.00%"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<speak version='1.0' xml:lang='%s'>", voice.locale)
	fmt.Fprintf(&b, "<voice xml:lang='%s' xml:gender='%s' name='%s'>", voice.locale, voice.gender, voice.voice)
	fmt.Fprintf(&b, "<prosody rate='%s'>%s</prosody>", rate, escapeXML(text))
	b.WriteString("</voice></speak>")
	return b.String()
}

func escapeXML(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"'", "&apos;",
		`"`, "&quot;",
	)
	return replacer.Replace(s)
}
