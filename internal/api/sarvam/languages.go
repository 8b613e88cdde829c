package sarvam

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultLanguage is the language answers are generated in.
const DefaultLanguage = "en-IN"

// DefaultSpeaker is used when a TTS request names no speaker.
const DefaultSpeaker = "anushka"

// TTSMaxChars is the per-input limit of the text-to-speech endpoint.
const TTSMaxChars = 500

// Language describes one supported language.
type Language struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
	SarvamCode string `json:"sarvam_code"`
}

var languages = map[string]Language{
	"en-IN": {Code: "en-IN", Name: "English", NativeName: "English", SarvamCode: "en-IN"},
	"hi-IN": {Code: "hi-IN", Name: "Hindi", NativeName: "हिन्दी", SarvamCode: "hi-IN"},
	"bn-IN": {Code: "bn-IN", Name: "Bengali", NativeName: "বাংলা", SarvamCode: "bn-IN"},
	"gu-IN": {Code: "gu-IN", Name: "Gujarati", NativeName: "ગુજરાતી", SarvamCode: "gu-IN"},
	"kn-IN": {Code: "kn-IN", Name: "Kannada", NativeName: "ಕನ್ನಡ", SarvamCode: "kn-IN"},
	"ml-IN": {Code: "ml-IN", Name: "Malayalam", NativeName: "മലയാളം", SarvamCode: "ml-IN"},
	"mr-IN": {Code: "mr-IN", Name: "Marathi", NativeName: "मराठी", SarvamCode: "mr-IN"},
	"od-IN": {Code: "od-IN", Name: "Odia", NativeName: "ଓଡ଼ିଆ", SarvamCode: "od-IN"},
	"pa-IN": {Code: "pa-IN", Name: "Punjabi", NativeName: "ਪੰਜਾਬੀ", SarvamCode: "pa-IN"},
	"ta-IN": {Code: "ta-IN", Name: "Tamil", NativeName: "தமிழ்", SarvamCode: "ta-IN"},
	"te-IN": {Code: "te-IN", Name: "Telugu", NativeName: "తెలుగు", SarvamCode: "te-IN"},
}

// speakers is shared by every supported language.
var speakers = []string{
	"anushka", "abhilash", "manisha", "vidya", "arya", "karun", "hitesh", "aditya",
	"isha", "ritu", "chirag", "harsh", "sakshi", "priya", "neha", "rahul", "pooja",
	"rohan", "simran", "kavya", "anjali", "sneha", "kiran", "vikram", "rajesh",
	"sunita", "tara", "anirudh", "kriti", "ishaan",
}

var fallbackSpeakers = []string{"anushka", "abhilash", "manisha"}

var languageCodePattern = regexp.MustCompile(`^[a-z]{2}-[A-Z]{2}$`)

// Languages returns the supported languages sorted by code.
func Languages() []Language {
	out := make([]Language, 0, len(languages))
	for _, l := range languages {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// LookupLanguage returns the language for code, if supported.
func LookupLanguage(code string) (Language, bool) {
	l, ok := languages[code]
	return l, ok
}

// SarvamCode maps an app language code to the API code, defaulting to English.
func SarvamCode(code string) string {
	if l, ok := languages[code]; ok {
		return l.SarvamCode
	}
	return DefaultLanguage
}

// IsSupported reports whether code is in the language table.
func IsSupported(code string) bool {
	_, ok := languages[code]
	return ok
}

// ValidateLanguageCode reports whether code is well formed and supported.
func ValidateLanguageCode(code string) bool {
	return languageCodePattern.MatchString(code) && IsSupported(code)
}

// Speakers returns the TTS voices available for code.
func Speakers(code string) []string {
	if IsSupported(code) {
		return append([]string(nil), speakers...)
	}
	return append([]string(nil), fallbackSpeakers...)
}

// scriptRanges is checked in order; Devanagari text reports as Hindi.
var scriptRanges = []struct {
	code     string
	from, to rune
}{
	{"hi-IN", 0x0900, 0x097F},
	{"bn-IN", 0x0980, 0x09FF},
	{"gu-IN", 0x0A80, 0x0AFF},
	{"kn-IN", 0x0C80, 0x0CFF},
	{"ml-IN", 0x0D00, 0x0D7F},
	{"od-IN", 0x0B00, 0x0B7F},
	{"pa-IN", 0x0A00, 0x0A7F},
	{"ta-IN", 0x0B80, 0x0BFF},
	{"te-IN", 0x0C00, 0x0C7F},
}

// DetectLanguage guesses the language of text from its script.
func DetectLanguage(text string) string {
	for _, sr := range scriptRanges {
		if strings.ContainsFunc(text, func(r rune) bool { return r >= sr.from && r <= sr.to }) {
			return sr.code
		}
	}
	return DefaultLanguage
}
