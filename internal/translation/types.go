// Package translation defines the engine contract, the canonical translation
// result model and the error envelope shared by every translation backend.
package translation

import "strings"

// LangAuto is the sentinel source language asking an engine to detect the
// input's language itself. It never appears in a final Result.
const LangAuto = "auto"

// Speed selects a pronunciation speed.
type Speed string

const (
	SpeedFast Speed = "fast"
	SpeedSlow Speed = "slow"
)

// DetailedMeaning is one dictionary sense of the translated text.
type DetailedMeaning struct {
	PartOfSpeech string   `json:"pos,omitempty"`
	Meaning      string   `json:"meaning,omitempty"`
	Synonyms     []string `json:"synonyms,omitempty"`
}

// Definition is one dictionary definition, optionally with a usage example.
type Definition struct {
	PartOfSpeech string `json:"pos,omitempty"`
	Meaning      string `json:"meaning,omitempty"`
	Example      string `json:"example,omitempty"`
}

// Example is one bilingual usage example. Source and Target may contain
// limited inline markup (<b>) marking the looked-up term.
type Example struct {
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
}

// Result is the canonical output of a translate operation.
type Result struct {
	OriginalText     string            `json:"originalText"`
	MainMeaning      string            `json:"mainMeaning"`
	SourceLanguage   string            `json:"sourceLanguage,omitempty"`
	TargetLanguage   string            `json:"targetLanguage,omitempty"`
	SPronunciation   string            `json:"sPronunciation,omitempty"`
	TPronunciation   string            `json:"tPronunciation,omitempty"`
	DetailedMeanings []DetailedMeaning `json:"detailedMeanings,omitempty"`
	Definitions      []Definition      `json:"definitions,omitempty"`
	Examples         []Example         `json:"examples,omitempty"`
}

// Field names one composable Result field. The hybrid orchestrator assigns an
// engine per field; language metadata is owned by the composition itself and
// is therefore not a Field.
type Field string

const (
	FieldOriginalText     Field = "originalText"
	FieldMainMeaning      Field = "mainMeaning"
	FieldSPronunciation   Field = "sPronunciation"
	FieldTPronunciation   Field = "tPronunciation"
	FieldDetailedMeanings Field = "detailedMeanings"
	FieldDefinitions      Field = "definitions"
	FieldExamples         Field = "examples"
)

// Fields returns the composable fields in their fixed composition order.
// Composition iterates this slice, never arrival order, so results are
// deterministic given a set of engine responses.
func Fields() []Field {
	return []Field{
		FieldOriginalText,
		FieldMainMeaning,
		FieldSPronunciation,
		FieldTPronunciation,
		FieldDetailedMeanings,
		FieldDefinitions,
		FieldExamples,
	}
}

// KnownField reports whether name is a composable Result field.
func KnownField(name Field) bool {
	for _, f := range Fields() {
		if f == name {
			return true
		}
	}
	return false
}

// FieldValue is a tagged view of one Result field: either Present with a
// non-empty value or Absent. Empty strings and empty slices are Absent, which
// is the single "has value" standard used across all composition logic.
type FieldValue struct {
	field    Field
	text     string
	detailed []DetailedMeaning
	defs     []Definition
	examples []Example
}

// HasValue reports whether the field carries a non-empty value.
func (v FieldValue) HasValue() bool {
	switch v.field {
	case FieldDetailedMeanings:
		return len(v.detailed) > 0
	case FieldDefinitions:
		return len(v.defs) > 0
	case FieldExamples:
		return len(v.examples) > 0
	default:
		return strings.TrimSpace(v.text) != ""
	}
}

// Field extracts a tagged view of the named field.
func (r *Result) Field(name Field) FieldValue {
	v := FieldValue{field: name}
	if r == nil {
		return v
	}
	switch name {
	case FieldOriginalText:
		v.text = r.OriginalText
	case FieldMainMeaning:
		v.text = r.MainMeaning
	case FieldSPronunciation:
		v.text = r.SPronunciation
	case FieldTPronunciation:
		v.text = r.TPronunciation
	case FieldDetailedMeanings:
		v.detailed = r.DetailedMeanings
	case FieldDefinitions:
		v.defs = r.Definitions
	case FieldExamples:
		v.examples = r.Examples
	}
	return v
}

// SetField stores v into the named field, Present or Absent alike. Storing an
// Absent value keeps the requested field from being silently dropped during
// composition fallback.
func (r *Result) SetField(name Field, v FieldValue) {
	if r == nil {
		return
	}
	switch name {
	case FieldOriginalText:
		r.OriginalText = v.text
	case FieldMainMeaning:
		r.MainMeaning = v.text
	case FieldSPronunciation:
		r.SPronunciation = v.text
	case FieldTPronunciation:
		r.TPronunciation = v.text
	case FieldDetailedMeanings:
		r.DetailedMeanings = v.detailed
	case FieldDefinitions:
		r.Definitions = v.defs
	case FieldExamples:
		r.Examples = v.examples
	}
}
