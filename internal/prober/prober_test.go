package prober

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/tjfontaine/advisor-gateway/internal/api/gemini"
	"github.com/tjfontaine/advisor-gateway/internal/domain"
)

type reply struct {
	text string
	err  error
}

type stubGenerator struct {
	replies map[string]reply
	calls   []string
	lastReq *gemini.GenerateContentRequest
}

func (s *stubGenerator) GenerateContent(ctx context.Context, apiVersion, model string, req *gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error) {
	key := apiVersion + "/" + model
	s.calls = append(s.calls, key)
	s.lastReq = req
	r, ok := s.replies[key]
	if !ok {
		return nil, domain.NewAPIError(domain.ErrorTypeNotFound, "model not found").WithStatusCode(http.StatusNotFound)
	}
	if r.err != nil {
		return nil, r.err
	}
	return &gemini.GenerateContentResponse{Candidates: []gemini.Candidate{
		{Content: &gemini.Content{Role: "model", Parts: []gemini.Part{{Text: r.text}}}},
	}}, nil
}

func cands(keys ...string) []domain.ModelCandidate {
	out := make([]domain.ModelCandidate, 0, len(keys))
	for _, k := range keys {
		version, model, _ := strings.Cut(k, "/")
		out = append(out, domain.ModelCandidate{APIVersion: version, ModelID: model})
	}
	return out
}

var conversation = []domain.ChatMessage{{Role: domain.RoleUser, Content: "How should I save for retirement?"}}

func TestProbe_StopsAtFirstSuccess(t *testing.T) {
	gen := &stubGenerator{replies: map[string]reply{
		"v1/gemini-a": {text: ""},
		"v1/gemini-b": {text: "Start early."},
		"v1/gemini-c": {text: "never reached"},
	}}

	res, err := New(gen).Probe(context.Background(), cands("v1/gemini-x", "v1/gemini-a", "v1/gemini-b", "v1/gemini-c"), conversation, "system")
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if res.Text != "Start early." {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Candidate.ModelID != "gemini-b" {
		t.Errorf("Candidate = %v", res.Candidate)
	}

	wantCalls := []string{"v1/gemini-x", "v1/gemini-a", "v1/gemini-b"}
	if strings.Join(gen.calls, ",") != strings.Join(wantCalls, ",") {
		t.Errorf("calls = %v, want %v", gen.calls, wantCalls)
	}

	wantOutcomes := []domain.ProbeOutcome{domain.OutcomeHTTPError, domain.OutcomeEmptyResponse, domain.OutcomeSuccess}
	for i, a := range res.Attempts {
		if a.Outcome != wantOutcomes[i] {
			t.Errorf("attempt %d outcome = %s, want %s", i, a.Outcome, wantOutcomes[i])
		}
	}
	if res.Attempts[0].StatusCode != http.StatusNotFound {
		t.Errorf("attempt 0 status = %d", res.Attempts[0].StatusCode)
	}
}

func TestProbe_ExceptionContinues(t *testing.T) {
	gen := &stubGenerator{replies: map[string]reply{
		"v1beta/gemini-a": {err: errors.New("dial tcp: connection refused")},
		"v1beta/gemini-b": {text: "ok"},
	}}

	res, err := New(gen).Probe(context.Background(), cands("v1beta/gemini-a", "v1beta/gemini-b"), conversation, "")
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if res.Attempts[0].Outcome != domain.OutcomeException {
		t.Errorf("attempt 0 outcome = %s, want exception", res.Attempts[0].Outcome)
	}
}

func TestAttemptDetail_KeepsRunesWhole(t *testing.T) {
	gen := &stubGenerator{replies: map[string]reply{
		"v1beta/gemini-a": {err: errors.New(strings.Repeat("₹", 100))},
		"v1beta/gemini-b": {text: "ok"},
	}}

	res, err := New(gen).Probe(context.Background(), cands("v1beta/gemini-a", "v1beta/gemini-b"), conversation, "")
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	detail := res.Attempts[0].Detail
	if !utf8.ValidString(detail) {
		t.Errorf("detail is not valid UTF-8: %q", detail)
	}
	if len(detail) == 0 || len(detail) > maxDetail {
		t.Errorf("detail length = %d, want 1..%d", len(detail), maxDetail)
	}
}

func TestProbe_Exhausted(t *testing.T) {
	gen := &stubGenerator{replies: map[string]reply{
		"v1/gemini-a": {err: domain.NewAPIError(domain.ErrorTypePermission, "denied").WithStatusCode(http.StatusForbidden)},
		"v1/gemini-b": {err: domain.NewAPIError(domain.ErrorTypeServer, "boom").WithStatusCode(http.StatusInternalServerError)},
	}}

	_, err := New(gen).Probe(context.Background(), cands("v1/gemini-a", "v1/gemini-b"), conversation, "")
	if !errors.Is(err, domain.ErrAllCandidatesExhausted) {
		t.Fatalf("Probe() error = %v, want ErrAllCandidatesExhausted", err)
	}

	var exhausted *domain.AllCandidatesExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("error type = %T", err)
	}
	if len(exhausted.Attempts) != 2 {
		t.Errorf("attempts = %d, want 2", len(exhausted.Attempts))
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error %q should carry the last upstream detail", err)
	}

	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("last APIError = %v", apiErr)
	}
}

func TestProbe_SingleFallbackCandidate(t *testing.T) {
	gen := &stubGenerator{replies: map[string]reply{"v1beta/gemini-pro": {text: "hello"}}}

	res, err := New(gen).Probe(context.Background(), cands("v1beta/gemini-pro"), conversation, "")
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if len(gen.calls) != 1 || len(res.Attempts) != 1 {
		t.Errorf("calls = %v, attempts = %d, want exactly one", gen.calls, len(res.Attempts))
	}
}

func TestProbe_NoCandidates(t *testing.T) {
	_, err := New(&stubGenerator{}).Probe(context.Background(), nil, conversation, "")
	if !errors.Is(err, domain.ErrAllCandidatesExhausted) {
		t.Errorf("Probe() error = %v, want ErrAllCandidatesExhausted", err)
	}
}

func TestProbe_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &stubGenerator{}
	_, err := New(gen).Probe(ctx, cands("v1/gemini-a", "v1/gemini-b"), conversation, "")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Probe() error = %v, want context.Canceled", err)
	}
	if len(gen.calls) != 0 {
		t.Errorf("calls = %v, want none", gen.calls)
	}
}

func TestProbe_RequestShape(t *testing.T) {
	gen := &stubGenerator{replies: map[string]reply{"v1/gemini-a": {text: "ok"}}}
	conv := []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
		{Role: domain.RoleUser, Content: "advice?"},
	}

	if _, err := New(gen).Probe(context.Background(), cands("v1/gemini-a"), conv, "You are an advisor."); err != nil {
		t.Fatalf("Probe() error = %v", err)
	}

	req := gen.lastReq
	if len(req.Contents) != 4 {
		t.Fatalf("contents = %d, want 4", len(req.Contents))
	}
	if req.Contents[0].Role != "user" || req.Contents[0].Parts[0].Text != "You are an advisor." {
		t.Errorf("first content = %+v, want system prompt as user turn", req.Contents[0])
	}
	if req.Contents[2].Role != "model" {
		t.Errorf("assistant role mapped to %q, want model", req.Contents[2].Role)
	}
	if req.GenerationConfig == nil || *req.GenerationConfig.Temperature != 0.7 || req.GenerationConfig.MaxOutputTokens != 768 {
		t.Errorf("generation config = %+v", req.GenerationConfig)
	}
}
