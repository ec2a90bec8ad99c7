package bing

// languageCodes maps canonical language codes to the codes the backend's
// translate interface expects.
var languageCodes = map[string]string{
	"auto":  "auto-detect",
	"af":    "af",
	"ar":    "ar",
	"bg":    "bg",
	"bn":    "bn-BD",
	"bs":    "bs-Latn",
	"ca":    "ca",
	"cs":    "cs",
	"cy":    "cy",
	"da":    "da",
	"de":    "de",
	"el":    "el",
	"en":    "en",
	"es":    "es",
	"et":    "et",
	"fa":    "fa",
	"fi":    "fi",
	"fil":   "fil",
	"fj":    "fj",
	"fr":    "fr",
	"ga":    "ga",
	"gu":    "gu",
	"he":    "iw",
	"hi":    "hi",
	"hmn":   "mww",
	"hr":    "hr",
	"ht":    "ht",
	"hu":    "hu",
	"id":    "id",
	"is":    "is",
	"it":    "it",
	"ja":    "ja",
	"kk":    "kk",
	"kn":    "kn",
	"ko":    "ko",
	"ku":    "ku",
	"lt":    "lt",
	"lv":    "lv",
	"mg":    "mg",
	"mi":    "mi",
	"ml":    "ml",
	"mr":    "mr",
	"ms":    "ms",
	"mt":    "mt",
	"nl":    "nl",
	"no":    "nb",
	"or":    "or",
	"pa":    "pa",
	"pl":    "pl",
	"ps":    "ps",
	"pt":    "pt",
	"ro":    "ro",
	"ru":    "ru",
	"sk":    "sk",
	"sl":    "sl",
	"sm":    "sm",
	"sv":    "sv",
	"sw":    "sw",
	"ta":    "ta",
	"te":    "te",
	"th":    "th",
	"to":    "to",
	"tr":    "tr",
	"ty":    "ty",
	"uk":    "uk",
	"ur":    "ur",
	"vi":    "vi",
	"yue":   "yua",
	"zh-CN": "zh-Hans",
	"zh-TW": "zh-Hant",
}

// backendToCode is the reverse of languageCodes, used to map detected
// languages back to canonical codes.
var backendToCode = func() map[string]string {
	m := make(map[string]string, len(languageCodes))
	for code, backend := range languageCodes {
		if _, taken := m[backend]; !taken {
			m[backend] = code
		}
	}
	return m
}()

// reader holds the voice parameters for one synthesizable language:
// TTS locale, voice gender and voice name.
type reader struct {
	locale string
	gender string
	voice  string
}

// readers maps backend language codes to their synthesis voices. Languages
// missing here cannot be pronounced by this engine.
var readers = map[string]reader{
	"ar":      {"ar-SA", "Male", "ar-SA-Naayf"},
	"bg":      {"bg-BG", "Male", "bg-BG-Ivan"},
	"ca":      {"ca-ES", "Female", "ca-ES-HerenaRUS"},
	"cs":      {"cs-CZ", "Male", "cs-CZ-Jakub"},
	"da":      {"da-DK", "Female", "da-DK-HelleRUS"},
	"de":      {"de-DE", "Female", "de-DE-Hedda"},
	"el":      {"el-GR", "Male", "el-GR-Stefanos"},
	"en":      {"en-US", "Female", "en-US-JessaRUS"},
	"es":      {"es-ES", "Female", "es-ES-Laura-Apollo"},
	"fi":      {"fi-FI", "Female", "fi-FI-HeidiRUS"},
	"fr":      {"fr-FR", "Female", "fr-FR-Julie-Apollo"},
	"iw":      {"he-IL", "Male", "he-IL-Asaf"},
	"hi":      {"hi-IN", "Female", "hi-IN-Kalpana-Apollo"},
	"hr":      {"hr-HR", "Male", "hr-HR-Matej"},
	"hu":      {"hu-HU", "Male", "hu-HU-Szabolcs"},
	"id":      {"id-ID", "Male", "id-ID-Andika"},
	"it":      {"it-IT", "Male", "it-IT-Cosimo-Apollo"},
	"ja":      {"ja-JP", "Female", "ja-JP-Ayumi-Apollo"},
	"ko":      {"ko-KR", "Female", "ko-KR-HeamiRUS"},
	"ms":      {"ms-MY", "Male", "ms-MY-Rizwan"},
	"nl":      {"nl-NL", "Female", "nl-NL-HannaRUS"},
	"nb":      {"nb-NO", "Female", "nb-NO-HuldaRUS"},
	"pl":      {"pl-PL", "Female", "pl-PL-PaulinaRUS"},
	"pt":      {"pt-PT", "Female", "pt-PT-HeliaRUS"},
	"ro":      {"ro-RO", "Male", "ro-RO-Andrei"},
	"ru":      {"ru-RU", "Female", "ru-RU-Irina-Apollo"},
	"sk":      {"sk-SK", "Male", "sk-SK-Filip"},
	"sl":      {"sl-SI", "Male", "sl-SI-Lado"},
	"sv":      {"sv-SE", "Female", "sv-SE-HedvigRUS"},
	"ta":      {"ta-IN", "Female", "ta-IN-Valluvar"},
	"te":      {"te-IN", "Male", "te-IN-Chitra"},
	"th":      {"th-TH", "Male", "th-TH-Pattara"},
	"tr":      {"tr-TR", "Female", "tr-TR-SedaRUS"},
	"vi":      {"vi-VN", "Male", "vi-VN-An"},
	"zh-Hans": {"zh-CN", "Female", "zh-CN-HuihuiRUS"},
	"zh-Hant": {"zh-CN", "Female", "zh-CN-HuihuiRUS"},
	"yua":     {"zh-HK", "Female", "zh-HK-TracyRUS"},
}

func supportedLanguageCodes() []string {
	codes := make([]string, 0, len(languageCodes))
	for code := range languageCodes {
		if code == "auto" {
			continue
		}
		codes = append(codes, code)
	}
	return codes
}
