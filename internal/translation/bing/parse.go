package bing

import (
	"encoding/json"
	"strings"

	"horse.fit/lingo/internal/translation"
)

type translateItem struct {
	DetectedLanguage struct {
		Language string `json:"language"`
	} `json:"detectedLanguage"`
	Translations []struct {
		Text            string `json:"text"`
		Transliteration struct {
			Text string `json:"text"`
		} `json:"transliteration"`
	} `json:"translations"`
}

type parsedTranslate struct {
	mainMeaning      string
	tPronunciation   string
	detectedLanguage string // backend code
}

// parseTranslate extracts the usable parts of a translate response. A shape
// mismatch yields empty fields rather than an error; the caller decides how
// to recover.
func parseTranslate(body []byte) parsedTranslate {
	var items []translateItem
	if err := json.Unmarshal(body, &items); err != nil || len(items) == 0 {
		return parsedTranslate{}
	}

	parsed := parsedTranslate{detectedLanguage: items[0].DetectedLanguage.Language}
	var parts []string
	for _, item := range items {
		if len(item.Translations) == 0 {
			continue
		}
		if t := item.Translations[0].Text; t != "" {
			parts = append(parts, t)
		}
		if parsed.tPronunciation == "" {
			parsed.tPronunciation = item.Translations[0].Transliteration.Text
		}
	}
	parsed.mainMeaning = strings.Join(parts, "")
	return parsed
}

func parseDetectedLanguage(body []byte) string {
	var items []translateItem
	if err := json.Unmarshal(body, &items); err != nil || len(items) == 0 {
		return ""
	}
	return items[0].DetectedLanguage.Language
}

type lookupItem struct {
	DisplaySource string `json:"displaySource"`
	Translations  []struct {
		DisplayTarget    string `json:"displayTarget"`
		Transliteration  string `json:"transliteration"`
		PosTag           string `json:"posTag"`
		BackTranslations []struct {
			DisplayText string `json:"displayText"`
		} `json:"backTranslations"`
		Examples []struct {
			SourceExample string `json:"sourceExample"`
			TargetExample string `json:"targetExample"`
		} `json:"examples"`
	} `json:"translations"`
}

// parseLookup merges dictionary senses into result. Parse failures leave
// result untouched: enrichment degrades gracefully to the base translation.
func parseLookup(body []byte, result *translation.Result) {
	var items []lookupItem
	if err := json.Unmarshal(body, &items); err != nil || len(items) == 0 {
		return
	}
	item := items[0]

	if item.DisplaySource != "" {
		result.OriginalText = item.DisplaySource
	}
	if len(item.Translations) == 0 {
		return
	}

	if t := item.Translations[0].DisplayTarget; t != "" {
		result.MainMeaning = t
	}
	if t := item.Translations[0].Transliteration; t != "" {
		result.TPronunciation = t
	}

	var detailed []translation.DetailedMeaning
	var definitions []translation.Definition
	for _, tr := range item.Translations {
		synonyms := make([]string, 0, len(tr.BackTranslations))
		for _, back := range tr.BackTranslations {
			if back.DisplayText != "" {
				synonyms = append(synonyms, back.DisplayText)
			}
		}
		detailed = append(detailed, translation.DetailedMeaning{
			PartOfSpeech: tr.PosTag,
			Meaning:      tr.DisplayTarget,
			Synonyms:     synonyms,
		})
		for _, ex := range tr.Examples {
			example := ex.SourceExample
			if example == "" {
				example = ex.TargetExample
			}
			definitions = append(definitions, translation.Definition{
				PartOfSpeech: tr.PosTag,
				Meaning:      tr.DisplayTarget,
				Example:      example,
			})
		}
	}

	if len(detailed) > 0 {
		result.DetailedMeanings = detailed
	}
	if len(definitions) > 0 {
		result.Definitions = definitions
	}
}

type exampleItem struct {
	Examples []struct {
		SourcePrefix string `json:"sourcePrefix"`
		SourceTerm   string `json:"sourceTerm"`
		SourceSuffix string `json:"sourceSuffix"`
		TargetPrefix string `json:"targetPrefix"`
		TargetTerm   string `json:"targetTerm"`
		TargetSuffix string `json:"targetSuffix"`
	} `json:"examples"`
}

// parseExamples merges bilingual usage examples into result, marking the
// looked-up term with <b> for display emphasis.
func parseExamples(body []byte, result *translation.Result) {
	var items []exampleItem
	if err := json.Unmarshal(body, &items); err != nil || len(items) == 0 || len(items[0].Examples) == 0 {
		return
	}

	examples := make([]translation.Example, 0, len(items[0].Examples))
	for _, ex := range items[0].Examples {
		examples = append(examples, translation.Example{
			Source: ex.SourcePrefix + "<b>" + ex.SourceTerm + "</b>" + ex.SourceSuffix,
			Target: ex.TargetPrefix + "<b>" + ex.TargetTerm + "</b>" + ex.TargetSuffix,
		})
	}
	result.Examples = examples
}
