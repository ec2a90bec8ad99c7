package googleweb

// languageCodes maps our language codes to the codes the web endpoint
// expects. Most codes pass through unchanged; the exceptions are legacy
// backend spellings.
var languageCodes = map[string]string{
	"auto":  "auto",
	"ar":    "ar",
	"bg":    "bg",
	"ca":    "ca",
	"cs":    "cs",
	"da":    "da",
	"de":    "de",
	"el":    "el",
	"en":    "en",
	"es":    "es",
	"et":    "et",
	"fa":    "fa",
	"fi":    "fi",
	"fr":    "fr",
	"he":    "iw",
	"hi":    "hi",
	"hr":    "hr",
	"hu":    "hu",
	"id":    "id",
	"it":    "it",
	"ja":    "ja",
	"ko":    "ko",
	"lt":    "lt",
	"lv":    "lv",
	"ms":    "ms",
	"nl":    "nl",
	"no":    "no",
	"pl":    "pl",
	"pt":    "pt",
	"ro":    "ro",
	"ru":    "ru",
	"sk":    "sk",
	"sl":    "sl",
	"sv":    "sv",
	"th":    "th",
	"tr":    "tr",
	"uk":    "uk",
	"vi":    "vi",
	"zh-CN": "zh-CN",
	"zh-TW": "zh-TW",
}

var backendToCode = func() map[string]string {
	m := make(map[string]string, len(languageCodes))
	for code, backend := range languageCodes {
		m[backend] = code
	}
	return m
}()

func supportedLanguageCodes() []string {
	codes := make([]string, 0, len(languageCodes)-1)
	for code := range languageCodes {
		if code == "auto" {
			continue
		}
		codes = append(codes, code)
	}
	return codes
}
