package catalog

import (
	"slices"
	"strings"

	"github.com/tjfontaine/advisor-gateway/internal/api/gemini"
)

// GenerateContentMethod is the capability a chat candidate must declare.
const GenerateContentMethod = "generateContent"

// Filter decides whether a listed model may be used as a chat candidate.
type Filter func(m gemini.Model) bool

// DefaultFilter keeps Gemini chat models: the name must mention "gemini" and
// not "embedding", and a declared method list must include generateContent.
// Models that declare no methods are accepted.
func DefaultFilter(m gemini.Model) bool {
	return IsChatModel(m) && SupportsGenerateContent(m)
}

// IsChatModel is the name heuristic of DefaultFilter.
func IsChatModel(m gemini.Model) bool {
	return strings.Contains(m.Name, "gemini") && !strings.Contains(m.Name, "embedding")
}

// SupportsGenerateContent is the capability check of DefaultFilter.
func SupportsGenerateContent(m gemini.Model) bool {
	return len(m.SupportedGenerationMethods) == 0 ||
		slices.Contains(m.SupportedGenerationMethods, GenerateContentMethod)
}

// NormalizeModelName strips any path prefix, so "models/gemini-1.5-pro-002"
// becomes "gemini-1.5-pro-002".
func NormalizeModelName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}
