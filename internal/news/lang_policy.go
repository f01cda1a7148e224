package news

import "strings"

// Primary Google News language per NewsAPI country code. Anything missing
// falls back to English.
var countryLanguages = map[string]string{
	"ae": "ar", "ar": "es", "at": "de", "be": "fr", "bg": "bg", "br": "pt",
	"ch": "de", "cn": "zh", "co": "es", "cz": "cs", "de": "de", "eg": "ar",
	"fr": "fr", "gr": "el", "hu": "hu", "id": "id", "il": "he", "it": "it",
	"jp": "ja", "kr": "ko", "lt": "lt", "lv": "lv", "ma": "fr", "mx": "es",
	"nl": "nl", "no": "no", "pl": "pl", "pt": "pt", "ro": "ro", "rs": "sr",
	"ru": "ru", "sa": "ar", "se": "sv", "si": "sl", "sk": "sk", "th": "th",
	"tr": "tr", "tw": "zh", "ua": "uk", "ve": "es",
}

func languageFor(country string) string {
	if l, ok := countryLanguages[strings.ToLower(strings.TrimSpace(country))]; ok {
		return l
	}
	return "en"
}

// BuildGoogleNewsParams generates hl/gl/ceid from a country code and language.
// Example: iso2=hu, lang=hu -> hl=hu-HU, gl=HU, ceid=HU:hu
func BuildGoogleNewsParams(iso2, lang string) (hl, gl, ceid string) {
	iso2 = strings.ToUpper(strings.TrimSpace(iso2))
	lang = strings.ToLower(strings.TrimSpace(lang))
	if iso2 == "" || lang == "" {
		return "", "", ""
	}
	return lang + "-" + iso2, iso2, iso2 + ":" + lang
}
