package bing

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"horse.fit/lingo/internal/translation"
)

var (
	paragraphPattern = regexp.MustCompile(`\n{2,}`)
	clausePattern    = regexp.MustCompile(`[,;:、，；：]\s*`)
)

// sentenceEnders terminate a sentence when followed by whitespace.
const sentenceEnders = ".!?。！？"

// segmentAndTranslate is the adaptive fallback for texts the backend fails to
// translate whole. It recursively splits by paragraph, sentence, clause and
// finally whitespace token, translating each segment independently and
// rejoining with the boundary's natural separator. A segment that succeeds
// whole is never split further, so the request count is bounded by the
// input's structure. Exhausting all four levels is a terminal failure.
func (c *Client) segmentAndTranslate(ctx context.Context, text, from, to string) (string, error) {
	if translated, err := c.translateAttempt(ctx, text, from, to); err == nil && translated != "" {
		return translated, nil
	}

	if parts := splitNonEmpty(paragraphPattern.Split(text, -1)); len(parts) > 1 {
		return c.translateParts(ctx, parts, from, to, "\n\n")
	}
	if parts := splitSentences(text); len(parts) > 1 {
		return c.translateParts(ctx, parts, from, to, " ")
	}
	if parts := splitNonEmpty(clausePattern.Split(text, -1)); len(parts) > 1 {
		return c.translateParts(ctx, parts, from, to, " ")
	}
	if parts := strings.Fields(text); len(parts) > 1 {
		return c.translateParts(ctx, parts, from, to, " ")
	}

	// Single-token terminal case.
	translated, err := c.translateAttempt(ctx, text, from, to)
	if err != nil {
		return "", err
	}
	if translated == "" {
		return "", translation.NewError(translation.KindAPI, 0, "segmentation exhausted without a usable translation")
	}
	return translated, nil
}

func (c *Client) translateParts(ctx context.Context, parts []string, from, to, separator string) (string, error) {
	translated := make([]string, 0, len(parts))
	for _, part := range parts {
		t, err := c.segmentAndTranslate(ctx, part, from, to)
		if err != nil {
			return "", err
		}
		translated = append(translated, t)
	}
	return strings.Join(translated, separator), nil
}

// translateAttempt issues one translate call and parses its main meaning. An
// empty parse forces a session renewal and a single retry before giving up
// on this segment.
func (c *Client) translateAttempt(ctx context.Context, text, from, to string) (string, error) {
	body, err := c.request(ctx, c.translateCall(text, from, to), true)
	if err != nil {
		return "", err
	}
	if parsed := parseTranslate(body); parsed.mainMeaning != "" {
		return parsed.mainMeaning, nil
	}

	if err := c.renewSession(ctx); err != nil {
		return "", err
	}
	body, err = c.request(ctx, c.translateCall(text, from, to), false)
	if err != nil {
		return "", err
	}
	return parseTranslate(body).mainMeaning, nil
}

// splitSentences breaks text after sentence-ending punctuation followed by
// whitespace.
func splitSentences(text string) []string {
	var parts []string
	var current strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if strings.ContainsRune(sentenceEnders, r) {
			if i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				parts = append(parts, strings.TrimSpace(current.String()))
				current.Reset()
			}
		}
	}
	if tail := strings.TrimSpace(current.String()); tail != "" {
		parts = append(parts, tail)
	}
	return splitNonEmpty(parts)
}

func splitNonEmpty(parts []string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
