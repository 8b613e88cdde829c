package domain

import (
	"strings"
	"time"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn of the caller-owned conversation.
type ChatMessage struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// ModelCandidate identifies one servable model on one API surface.
type ModelCandidate struct {
	APIVersion string `json:"api_version"`
	ModelID    string `json:"model_id"`
}

func (c ModelCandidate) String() string {
	return c.APIVersion + "/" + c.ModelID
}

// ProbeOutcome classifies a single generation attempt.
type ProbeOutcome string

const (
	OutcomeSuccess       ProbeOutcome = "success"
	OutcomeHTTPError     ProbeOutcome = "http_error"
	OutcomeEmptyResponse ProbeOutcome = "empty_response"
	OutcomeException     ProbeOutcome = "exception"
)

// ProbeAttempt records one candidate attempt for diagnostics.
type ProbeAttempt struct {
	Candidate  ModelCandidate `json:"candidate"`
	Outcome    ProbeOutcome   `json:"outcome"`
	StatusCode int            `json:"status_code,omitempty"`
	Detail     string         `json:"detail,omitempty"`
}

// AdvisoryContext selects the prompt specialization.
type AdvisoryContext string

const (
	ContextFinancial  AdvisoryContext = "financial"
	ContextLoan       AdvisoryContext = "loan"
	ContextInvestment AdvisoryContext = "investment"
	ContextInsurance  AdvisoryContext = "insurance"
	ContextGeneral    AdvisoryContext = "general"
)

// Known reports whether c is one of the defined advisory contexts.
func (c AdvisoryContext) Known() bool {
	switch c {
	case ContextFinancial, ContextLoan, ContextInvestment, ContextInsurance, ContextGeneral:
		return true
	}
	return false
}

// ParseAdvisoryContext resolves s to a known context, falling back to general.
func ParseAdvisoryContext(s string) AdvisoryContext {
	c := AdvisoryContext(strings.ToLower(strings.TrimSpace(s)))
	if c.Known() {
		return c
	}
	return ContextGeneral
}

// UserProfile is the read-only profile fetched from the datastore.
// Zero values mean the field was never filled in.
type UserProfile struct {
	UserID               string  `json:"user_id"`
	Age                  int     `json:"age,omitempty"`
	MonthlyIncome        float64 `json:"monthly_income,omitempty"`
	MonthlyExpenses      float64 `json:"monthly_expenses,omitempty"`
	CurrentSavings       float64 `json:"current_savings,omitempty"`
	Dependents           int     `json:"dependents,omitempty"`
	RiskTolerance        string  `json:"risk_tolerance,omitempty"`
	InvestmentExperience string  `json:"investment_experience,omitempty"`
}

// ChatHistoryEntry is one persisted question/answer pair.
type ChatHistoryEntry struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Message   string          `json:"message"`
	Response  string          `json:"response"`
	Context   AdvisoryContext `json:"context"`
	CreatedAt time.Time       `json:"created_at"`
}

// FrameTypeTextDelta is the only frame type emitted by the streamer.
const FrameTypeTextDelta = "text-delta"

// StreamFrame is one incremental unit of a streamed answer.
type StreamFrame struct {
	Type      string `json:"type"`
	TextDelta string `json:"textDelta"`
}

// Fixed generation policy shared by every provider call.
const (
	GenerationTemperature float32 = 0.7
	MaxOutputTokens               = 768
)

// ApologyMessage is the only text shown to callers when no answer could be produced.
const ApologyMessage = "I apologize, but I'm having trouble responding right now. Please try again in a moment."
