package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/tjfontaine/advisor-gateway/internal/domain"
	"github.com/tjfontaine/advisor-gateway/internal/prober"
	"github.com/tjfontaine/advisor-gateway/internal/storage"
	"github.com/tjfontaine/advisor-gateway/internal/storage/memory"
)

type stubSource struct {
	candidates []domain.ModelCandidate
}

func (s *stubSource) Candidates(ctx context.Context) []domain.ModelCandidate {
	return s.candidates
}

type stubProber struct {
	text         string
	err          error
	systemPrompt string
	conversation []domain.ChatMessage
	candidates   []domain.ModelCandidate
}

func (s *stubProber) Probe(ctx context.Context, candidates []domain.ModelCandidate, conversation []domain.ChatMessage, systemPrompt string) (*prober.Result, error) {
	s.candidates = candidates
	s.conversation = conversation
	s.systemPrompt = systemPrompt
	if s.err != nil {
		return nil, s.err
	}
	return &prober.Result{Text: s.text, Candidate: candidates[0]}, nil
}

type stubComposer struct {
	text string
}

func (s *stubComposer) Compose(ctx context.Context, conversation []domain.ChatMessage, systemPrompt string) string {
	return s.text
}

type stubLocalizer struct {
	mu      sync.Mutex
	targets []string
}

func (s *stubLocalizer) Localize(ctx context.Context, text, target string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets = append(s.targets, target)
	if target == "hi-IN" {
		return "[hi] " + text
	}
	return text
}

type dropOldest struct{}

func (dropOldest) Trim(systemPrompt string, conversation []domain.ChatMessage, budget int) []domain.ChatMessage {
	if len(conversation) <= budget {
		return conversation
	}
	return conversation[len(conversation)-budget:]
}

type failingProfiles struct{}

func (failingProfiles) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	return nil, errors.New("connection refused")
}

var flash = domain.ModelCandidate{APIVersion: "v1beta", ModelID: "gemini-1.5-flash"}

func userTurn(text string) []domain.ChatMessage {
	return []domain.ChatMessage{{Role: domain.RoleUser, Content: text}}
}

func TestNew_RequiresStrategyComponents(t *testing.T) {
	if _, err := New(StrategyDiscoveryFallback); err == nil {
		t.Error("discovery-fallback without a prober should fail")
	}
	if _, err := New(StrategyDualCompose); err == nil {
		t.Error("dual-compose without a composer should fail")
	}
	if _, err := New("round-robin", WithComposer(&stubComposer{})); err == nil {
		t.Error("unknown strategy should fail")
	}
	if _, err := New(StrategyDualCompose, WithComposer(nil)); err == nil {
		t.Error("nil composer should fail")
	}
}

func TestRun_DiscoveryFallback(t *testing.T) {
	p := &stubProber{text: "Save 20% of income."}
	pl, err := New(StrategyDiscoveryFallback, WithDiscoveryFallback(&stubSource{candidates: []domain.ModelCandidate{flash}}, p))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	resp, err := pl.Run(context.Background(), Request{
		Messages: userTurn("How much should I save?"),
		Context:  domain.ContextFinancial,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if resp.Text != "Save 20% of income." {
		t.Errorf("Text = %q", resp.Text)
	}
	if resp.Model != flash.String() {
		t.Errorf("Model = %q, want %q", resp.Model, flash.String())
	}
	if resp.Language != "en-IN" {
		t.Errorf("Language = %q, want default en-IN", resp.Language)
	}
	if resp.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
	if !strings.Contains(p.systemPrompt, "the financial advisory portal") {
		t.Errorf("system prompt lacks the financial context:\n%s", p.systemPrompt)
	}
	if len(p.candidates) != 1 || p.candidates[0] != flash {
		t.Errorf("candidates = %v", p.candidates)
	}
}

func TestRun_DiscoveryFallbackExhausted(t *testing.T) {
	exhausted := &domain.AllCandidatesExhaustedError{}
	pl, err := New(StrategyDiscoveryFallback, WithDiscoveryFallback(
		&stubSource{candidates: []domain.ModelCandidate{flash}},
		&stubProber{err: exhausted},
	))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = pl.Run(context.Background(), Request{Messages: userTurn("hi")})
	if !errors.Is(err, domain.ErrAllCandidatesExhausted) {
		t.Errorf("Run() error = %v, want ErrAllCandidatesExhausted", err)
	}
}

func TestRun_DualComposeNeverFails(t *testing.T) {
	pl, err := New(StrategyDualCompose, WithComposer(&stubComposer{text: domain.ApologyMessage}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	resp, err := pl.Run(context.Background(), Request{Messages: userTurn("hi")})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if resp.Text != domain.ApologyMessage || resp.Model != ComposedModel {
		t.Errorf("resp = %+v", resp)
	}
}

func TestRun_UnknownContextFallsBackToGeneral(t *testing.T) {
	p := &stubProber{text: "ok"}
	pl, _ := New(StrategyDiscoveryFallback, WithDiscoveryFallback(&stubSource{candidates: []domain.ModelCandidate{flash}}, p))

	resp, err := pl.Run(context.Background(), Request{Messages: userTurn("hi"), Context: "crypto"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if resp.Context != domain.ContextGeneral {
		t.Errorf("Context = %q, want general", resp.Context)
	}
}

func TestRun_Localizes(t *testing.T) {
	loc := &stubLocalizer{}
	pl, _ := New(StrategyDualCompose,
		WithComposer(&stubComposer{text: "Invest early."}),
		WithLocalizer(loc),
		WithDefaultLanguage("hi-IN"),
	)

	resp, err := pl.Run(context.Background(), Request{Messages: userTurn("hi")})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if resp.Text != "[hi] Invest early." {
		t.Errorf("Text = %q", resp.Text)
	}
	if len(loc.targets) != 1 || loc.targets[0] != "hi-IN" {
		t.Errorf("targets = %v", loc.targets)
	}
}

func TestRun_TrimsToBudget(t *testing.T) {
	p := &stubProber{text: "ok"}
	pl, _ := New(StrategyDiscoveryFallback,
		WithDiscoveryFallback(&stubSource{candidates: []domain.ModelCandidate{flash}}, p),
		WithTokenBudget(dropOldest{}, 2),
	)

	msgs := []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "one"},
		{Role: domain.RoleAssistant, Content: "two"},
		{Role: domain.RoleUser, Content: "three"},
	}
	if _, err := pl.Run(context.Background(), Request{Messages: msgs}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(p.conversation) != 2 || p.conversation[0].Content != "two" {
		t.Errorf("conversation = %+v", p.conversation)
	}
	if len(msgs) != 3 {
		t.Error("caller's slice modified")
	}
}

func TestRun_ProfileAndHistory(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	if err := store.UpsertProfile(ctx, &domain.UserProfile{UserID: "u1", Age: 34, RiskTolerance: "moderate"}); err != nil {
		t.Fatalf("UpsertProfile() error = %v", err)
	}

	p := &stubProber{text: "Answer."}
	pl, _ := New(StrategyDiscoveryFallback,
		WithDiscoveryFallback(&stubSource{candidates: []domain.ModelCandidate{flash}}, p),
		WithStore(store, store),
	)

	if _, err := pl.Run(ctx, Request{UserID: "u1", Messages: userTurn("Question?"), Context: domain.ContextLoan}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(p.systemPrompt, "34") || !strings.Contains(p.systemPrompt, "moderate") {
		t.Errorf("system prompt lacks profile:\n%s", p.systemPrompt)
	}

	history, err := store.ListChatHistory(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ListChatHistory() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history = %d entries, want 1", len(history))
	}
	if history[0].Message != "Question?" || history[0].Response != "Answer." || history[0].Context != domain.ContextLoan {
		t.Errorf("entry = %+v", history[0])
	}
}

func TestRun_HistorySkipped(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		userID string
		msgs   []domain.ChatMessage
	}{
		{"anonymous", "", userTurn("hi")},
		{"last turn not user", "u1", []domain.ChatMessage{
			{Role: domain.RoleUser, Content: "hi"},
			{Role: domain.RoleAssistant, Content: "hello"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			pl, _ := New(StrategyDualCompose, WithComposer(&stubComposer{text: "x"}), WithStore(store, store))
			if _, err := pl.Run(ctx, Request{UserID: tt.userID, Messages: tt.msgs}); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			history, _ := store.ListChatHistory(ctx, "u1", 10)
			if len(history) != 0 {
				t.Errorf("history = %+v, want none", history)
			}
		})
	}
}

func TestRun_ProfileFailureIsIgnored(t *testing.T) {
	p := &stubProber{text: "ok"}
	pl, _ := New(StrategyDiscoveryFallback,
		WithDiscoveryFallback(&stubSource{candidates: []domain.ModelCandidate{flash}}, p),
		WithStore(failingProfiles{}, storage.Nop{}),
	)

	if _, err := pl.Run(context.Background(), Request{UserID: "u1", Messages: userTurn("hi")}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if strings.Contains(p.systemPrompt, "USER PROFILE") {
		t.Errorf("system prompt should not carry a profile:\n%s", p.systemPrompt)
	}
}

func TestParseStrategy(t *testing.T) {
	for _, s := range []string{"discovery-fallback", "dual-compose"} {
		if _, err := ParseStrategy(s); err != nil {
			t.Errorf("ParseStrategy(%q) error = %v", s, err)
		}
	}
	if _, err := ParseStrategy("fastest"); err == nil || !strings.Contains(err.Error(), "fastest") {
		t.Errorf("ParseStrategy(fastest) error = %v", err)
	}
	if _, err := ParseResponseMode("sse"); err == nil {
		t.Error("ParseResponseMode(sse) should fail")
	}
}
