// Package prompt assembles the advisor system prompt.
package prompt

import (
	"strconv"
	"strings"

	"github.com/tjfontaine/advisor-gateway/internal/domain"
)

// DefaultLanguage needs no language instructions.
const DefaultLanguage = "en-IN"

const notSpecified = "Not specified"

const basePolicy = `You are a professional AI Financial Advisor. You provide helpful, accurate, and personalized financial guidance.

IMPORTANT GUIDELINES:
- Always provide educational, informative responses
- Never give specific investment recommendations for individual stocks
- Always suggest consulting with qualified financial professionals for major decisions
- Use Indian financial context (INR, Indian financial products, regulations)
- Be conversational but professional
- Keep responses concise but comprehensive`

var guidance = map[domain.AdvisoryContext]string{
	domain.ContextFinancial:  "Focus on budgeting, savings strategies, emergency funds, retirement planning, and general financial wellness.",
	domain.ContextLoan:       "Focus on loan eligibility, EMI calculations, debt management, credit scores, and loan comparisons.",
	domain.ContextInvestment: "Focus on investment strategies, portfolio allocation, SIP planning, mutual funds, and risk management.",
	domain.ContextInsurance:  "Focus on insurance needs assessment, coverage calculations, policy comparisons, and claim guidance.",
	domain.ContextGeneral:    "Provide comprehensive financial guidance across all areas.",
}

// Guidance returns the specialization text for c; unknown contexts get the
// general guidance.
func Guidance(c domain.AdvisoryContext) string {
	if g, ok := guidance[c]; ok {
		return g
	}
	return guidance[domain.ContextGeneral]
}

// Build returns the system prompt for an advisory context, an optional
// profile and the caller's language. Equal inputs give byte-identical output.
func Build(c domain.AdvisoryContext, profile *domain.UserProfile, language string) string {
	if !c.Known() {
		c = domain.ContextGeneral
	}

	var sb strings.Builder
	sb.WriteString(basePolicy)

	if language != "" && language != DefaultLanguage {
		sb.WriteString("\n- The user is communicating in " + language)
		sb.WriteString("\n- You should respond in the same language as the user's query")
		sb.WriteString("\n- If the user writes in English, respond in English")
		sb.WriteString("\n- If the user writes in an Indian language, respond in that language")
		sb.WriteString("\n- Maintain financial terminology accuracy across languages")
	}

	sb.WriteString("\n\nCONTEXT: You are currently in the " + string(c) + " advisory portal.")

	if profile != nil {
		sb.WriteString("\n\nUSER PROFILE:")
		sb.WriteString("\n- Age: " + count(profile.Age, notSpecified))
		sb.WriteString("\n- Monthly Income: " + rupees(profile.MonthlyIncome))
		sb.WriteString("\n- Monthly Expenses: " + rupees(profile.MonthlyExpenses))
		sb.WriteString("\n- Current Savings: " + rupees(profile.CurrentSavings))
		sb.WriteString("\n- Dependents: " + count(profile.Dependents, "0"))
		sb.WriteString("\n- Risk Tolerance: " + text(profile.RiskTolerance))
		sb.WriteString("\n- Investment Experience: " + text(profile.InvestmentExperience))
		sb.WriteString("\n\nPlease personalize your advice based on this profile when relevant.")
	}

	sb.WriteString("\n\nSPECIALIZATION: " + Guidance(c))
	return sb.String()
}

func count(n int, missing string) string {
	if n <= 0 {
		return missing
	}
	return strconv.Itoa(n)
}

func rupees(v float64) string {
	if v <= 0 {
		return notSpecified
	}
	return "₹" + strconv.FormatFloat(v, 'f', -1, 64)
}

func text(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSpecified
	}
	return s
}
