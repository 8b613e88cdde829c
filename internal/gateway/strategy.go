package gateway

import "fmt"

// Strategy selects how raw answer text is produced.
type Strategy string

const (
	// StrategyDiscoveryFallback walks discovered Gemini models, then the
	// fallback matrix, until one answers.
	StrategyDiscoveryFallback Strategy = "discovery-fallback"

	// StrategyDualCompose asks Gemini and DeepSeek concurrently and merges
	// both answers.
	StrategyDualCompose Strategy = "dual-compose"
)

// ParseStrategy validates s.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(s); st {
	case StrategyDiscoveryFallback, StrategyDualCompose:
		return st, nil
	}
	return "", fmt.Errorf("unknown gateway.strategy %q (want %s or %s)", s, StrategyDiscoveryFallback, StrategyDualCompose)
}

// ResponseMode selects how /chat delivers the answer.
type ResponseMode string

const (
	ResponseModeStream ResponseMode = "stream"
	ResponseModeJSON   ResponseMode = "json"
)

// ParseResponseMode validates s.
func ParseResponseMode(s string) (ResponseMode, error) {
	switch m := ResponseMode(s); m {
	case ResponseModeStream, ResponseModeJSON:
		return m, nil
	}
	return "", fmt.Errorf("unknown gateway.response_mode %q (want %s or %s)", s, ResponseModeStream, ResponseModeJSON)
}
