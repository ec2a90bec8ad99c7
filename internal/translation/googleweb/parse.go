package googleweb

import (
	"encoding/json"
	"strings"

	"horse.fit/lingo/internal/translation"
)

// response is the dj=1 object shape of the translate endpoint. Sections are
// present only when the matching dt parameter was requested and the backend
// has data for them.
type response struct {
	Sentences []struct {
		Trans       string `json:"trans"`
		Translit    string `json:"translit"`
		SrcTranslit string `json:"src_translit"`
	} `json:"sentences"`
	Dict []struct {
		Pos   string `json:"pos"`
		Entry []struct {
			Word               string   `json:"word"`
			ReverseTranslation []string `json:"reverse_translation"`
		} `json:"entry"`
	} `json:"dict"`
	Definitions []struct {
		Pos   string `json:"pos"`
		Entry []struct {
			Gloss   string `json:"gloss"`
			Example string `json:"example"`
		} `json:"entry"`
	} `json:"definitions"`
	Examples struct {
		Example []struct {
			Text string `json:"text"`
		} `json:"example"`
	} `json:"examples"`
	Src string `json:"src"`
}

type parsed struct {
	result         *translation.Result
	sourceLanguage string // backend code
}

// parseResponse maps the endpoint's object shape onto a Result. Sentence
// fragments concatenate into the main meaning; dictionary, definition and
// example sections fill the enrichment fields when present.
func parseResponse(body []byte) (parsed, error) {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return parsed{}, err
	}

	result := &translation.Result{}
	var meanings []string
	for _, s := range resp.Sentences {
		if s.Trans != "" {
			meanings = append(meanings, s.Trans)
		}
		if result.TPronunciation == "" {
			result.TPronunciation = s.Translit
		}
		if result.SPronunciation == "" {
			result.SPronunciation = s.SrcTranslit
		}
	}
	result.MainMeaning = strings.Join(meanings, "")

	for _, d := range resp.Dict {
		meaning := translation.DetailedMeaning{PartOfSpeech: d.Pos}
		var words []string
		var synonyms []string
		for _, e := range d.Entry {
			if e.Word != "" {
				words = append(words, e.Word)
			}
			synonyms = append(synonyms, e.ReverseTranslation...)
		}
		meaning.Meaning = strings.Join(words, ", ")
		meaning.Synonyms = synonyms
		result.DetailedMeanings = append(result.DetailedMeanings, meaning)
	}

	for _, d := range resp.Definitions {
		for _, e := range d.Entry {
			result.Definitions = append(result.Definitions, translation.Definition{
				PartOfSpeech: d.Pos,
				Meaning:      e.Gloss,
				Example:      e.Example,
			})
		}
	}

	for _, ex := range resp.Examples.Example {
		if ex.Text == "" {
			continue
		}
		result.Examples = append(result.Examples, translation.Example{Source: ex.Text})
	}

	return parsed{result: result, sourceLanguage: resp.Src}, nil
}
