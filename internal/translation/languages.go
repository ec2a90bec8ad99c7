package translation

import (
	"sort"
	"strings"
)

// LanguageOption is one selectable language for API consumers.
type LanguageOption struct {
	Code   string `json:"code"`
	Label  string `json:"label"`
	Native string `json:"native,omitempty"`
}

type languageLabel struct {
	english string
	native  string
}

var languageLabels = map[string]languageLabel{
	"ar":    {english: "Arabic", native: "العربية"},
	"bg":    {english: "Bulgarian", native: "Български"},
	"ca":    {english: "Catalan", native: "Català"},
	"cs":    {english: "Czech", native: "Čeština"},
	"da":    {english: "Danish", native: "Dansk"},
	"de":    {english: "German", native: "Deutsch"},
	"el":    {english: "Greek", native: "Ελληνικά"},
	"en":    {english: "English", native: "English"},
	"es":    {english: "Spanish", native: "Español"},
	"fi":    {english: "Finnish", native: "Suomi"},
	"fr":    {english: "French", native: "Français"},
	"he":    {english: "Hebrew", native: "עברית"},
	"hi":    {english: "Hindi", native: "हिन्दी"},
	"hr":    {english: "Croatian", native: "Hrvatski"},
	"hu":    {english: "Hungarian", native: "Magyar"},
	"id":    {english: "Indonesian", native: "Bahasa Indonesia"},
	"it":    {english: "Italian", native: "Italiano"},
	"ja":    {english: "Japanese", native: "日本語"},
	"ko":    {english: "Korean", native: "한국어"},
	"ms":    {english: "Malay", native: "Bahasa Melayu"},
	"nl":    {english: "Dutch", native: "Nederlands"},
	"no":    {english: "Norwegian", native: "Norsk"},
	"pl":    {english: "Polish", native: "Polski"},
	"pt":    {english: "Portuguese", native: "Português"},
	"ro":    {english: "Romanian", native: "Română"},
	"ru":    {english: "Russian", native: "Русский"},
	"sk":    {english: "Slovak", native: "Slovenčina"},
	"sl":    {english: "Slovenian", native: "Slovenščina"},
	"sv":    {english: "Swedish", native: "Svenska"},
	"ta":    {english: "Tamil", native: "தமிழ்"},
	"te":    {english: "Telugu", native: "తెలుగు"},
	"th":    {english: "Thai", native: "ไทย"},
	"tr":    {english: "Turkish", native: "Türkçe"},
	"uk":    {english: "Ukrainian", native: "Українська"},
	"vi":    {english: "Vietnamese", native: "Tiếng Việt"},
	"zh-CN": {english: "Chinese (Simplified)", native: "简体中文"},
	"zh-TW": {english: "Chinese (Traditional)", native: "繁體中文"},
}

// NormalizeLangCode canonicalizes a language code: trimmed, base subtag
// lowercased, region subtag uppercased ("ZH-cn" -> "zh-CN"). The LangAuto
// sentinel passes through unchanged.
func NormalizeLangCode(raw string) string {
	code := strings.TrimSpace(raw)
	if code == "" {
		return ""
	}
	if strings.EqualFold(code, LangAuto) {
		return LangAuto
	}
	parts := strings.SplitN(strings.ReplaceAll(code, "_", "-"), "-", 2)
	base := strings.ToLower(parts[0])
	if len(parts) == 1 {
		return base
	}
	return base + "-" + strings.ToUpper(parts[1])
}

// LanguageOptions returns labeled options for the given codes, sorted by
// code, with unknown codes falling back to an uppercase label.
func LanguageOptions(codes []string) []LanguageOption {
	seen := make(map[string]struct{}, len(codes))
	normalized := make([]string, 0, len(codes))
	for _, code := range codes {
		c := NormalizeLangCode(code)
		if c == "" || c == LangAuto {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		normalized = append(normalized, c)
	}
	sort.Strings(normalized)

	options := make([]LanguageOption, 0, len(normalized))
	for _, code := range normalized {
		if labels, ok := languageLabels[code]; ok {
			options = append(options, LanguageOption{Code: code, Label: labels.english, Native: labels.native})
			continue
		}
		options = append(options, LanguageOption{Code: code, Label: strings.ToUpper(code)})
	}
	return options
}
