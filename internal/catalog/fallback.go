package catalog

import "github.com/tjfontaine/advisor-gateway/internal/domain"

// API surfaces, in order of preference.
const (
	VersionV1     = "v1"
	VersionV1Beta = "v1beta"
)

// DefaultVersions lists the surfaces discovery queries, stable first.
var DefaultVersions = []string{VersionV1, VersionV1Beta}

// fallbackMatrix is tried after discovered models. Numbered variants come
// before bare aliases because bare aliases are often missing on v1.
var fallbackMatrix = []domain.ModelCandidate{
	{APIVersion: VersionV1, ModelID: "gemini-1.5-pro-002"},
	{APIVersion: VersionV1, ModelID: "gemini-1.5-flash-002"},
	{APIVersion: VersionV1, ModelID: "gemini-1.5-pro-001"},
	{APIVersion: VersionV1, ModelID: "gemini-1.5-flash-001"},
	{APIVersion: VersionV1, ModelID: "gemini-1.5-pro"},
	{APIVersion: VersionV1, ModelID: "gemini-1.5-flash"},

	{APIVersion: VersionV1Beta, ModelID: "gemini-1.5-pro-002"},
	{APIVersion: VersionV1Beta, ModelID: "gemini-1.5-flash-002"},
	{APIVersion: VersionV1Beta, ModelID: "gemini-1.5-pro-001"},
	{APIVersion: VersionV1Beta, ModelID: "gemini-1.5-flash-001"},
	{APIVersion: VersionV1Beta, ModelID: "gemini-1.0-pro"},
	{APIVersion: VersionV1Beta, ModelID: "gemini-pro"},
}

// FallbackMatrix returns a copy of the static candidate list.
func FallbackMatrix() []domain.ModelCandidate {
	return append([]domain.ModelCandidate(nil), fallbackMatrix...)
}
