package googleweb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"horse.fit/lingo/internal/translation"
)

// maxTTSSegmentLength is the endpoint's per-request text limit in runes.
// Longer texts are synthesized segment by segment and the audio concatenated.
const maxTTSSegmentLength = 200

// Pronounce synthesizes speech for text and returns MP3 audio. An "auto"
// language is resolved via detection, falling back to English.
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
	if !ok || code == "auto" {
		return nil, translation.WrapError(
			translation.NewError(translation.KindLanguage, 0, fmt.Sprintf("language %q is not supported for speech", lang)), act)
	}

	synthCtx, cancel := context.WithCancel(ctx)
	c.ttsMu.Lock()
	c.stopCurrent = cancel
	c.ttsMu.Unlock()
	defer cancel()

	ttsSpeed := "1"
	if speed == translation.SpeedSlow {
		ttsSpeed = "0.24"
	}

	segments := splitForSynthesis(text)
	var audio bytes.Buffer
	for i, segment := range segments {
		chunk, err := c.synthesizeSegment(synthCtx, segment, code, ttsSpeed, i, len(segments))
		if err != nil {
			return nil, translation.WrapError(err, act)
		}
		audio.Write(chunk)
	}
	return audio.Bytes(), nil
}

// StopPronounce cancels any in-flight synthesis. Idempotent.
func (c *Client) StopPronounce() {
	c.ttsMu.Lock()
	cancel := c.stopCurrent
	c.stopCurrent = nil
	c.ttsMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Client) synthesizeSegment(ctx context.Context, segment, code, speed string, idx, total int) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("ie", "UTF-8")
	query.Set("client", "tw-ob")
	query.Set("tl", code)
	query.Set("ttsspeed", speed)
	query.Set("total", strconv.Itoa(total))
	query.Set("idx", strconv.Itoa(idx))
	query.Set("textlen", strconv.Itoa(utf8.RuneCountInString(segment)))
	query.Set("q", segment)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ttsHost+"translate_tts?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build synthesis request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, translation.NewError(translation.KindAPI, resp.StatusCode, "speech synthesis rejected")
	}
	chunk, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesis response: %w", err)
	}
	return chunk, nil
}

// splitForSynthesis breaks text into segments under the endpoint's length
// limit, preferring whitespace boundaries and hard-splitting only when a
// single word exceeds the limit.
func splitForSynthesis(text string) []string {
	if utf8.RuneCountInString(text) <= maxTTSSegmentLength {
		return []string{text}
	}

	var segments []string
	var current strings.Builder
	currentLen := 0
	for _, word := range strings.Fields(text) {
		wordLen := utf8.RuneCountInString(word)
		if wordLen > maxTTSSegmentLength {
			if currentLen > 0 {
				segments = append(segments, current.String())
				current.Reset()
				currentLen = 0
			}
			segments = append(segments, hardSplit(word)...)
			continue
		}
		// +1 for the joining space.
		if currentLen > 0 && currentLen+1+wordLen > maxTTSSegmentLength {
			segments = append(segments, current.String())
			current.Reset()
			currentLen = 0
		}
		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(word)
		currentLen += wordLen
	}
	if currentLen > 0 {
		segments = append(segments, current.String())
	}
	return segments
}

func hardSplit(word string) []string {
	var segments []string
	runes := []rune(word)
	for len(runes) > maxTTSSegmentLength {
		segments = append(segments, string(runes[:maxTTSSegmentLength]))
		runes = runes[maxTTSSegmentLength:]
	}
	if len(runes) > 0 {
		segments = append(segments, string(runes))
	}
	return segments
}
