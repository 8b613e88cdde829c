package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tjfontaine/advisor-gateway/internal/domain"
	"github.com/tjfontaine/advisor-gateway/internal/storage"
)

func TestMemoryStore_Profile(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, err := store.GetProfile(ctx, "u1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetProfile() error = %v, want ErrNotFound", err)
	}

	p := &domain.UserProfile{UserID: "u1", Age: 40, RiskTolerance: "high"}
	if err := store.UpsertProfile(ctx, p); err != nil {
		t.Fatalf("UpsertProfile() error = %v", err)
	}

	got, err := store.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	got.Age = 99
	again, _ := store.GetProfile(ctx, "u1")
	if again.Age != 40 {
		t.Error("GetProfile() must return a copy")
	}
}

func TestMemoryStore_ChatHistory(t *testing.T) {
	store := New()
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for i, msg := range []string{"first", "second", "third"} {
		err := store.SaveChatHistory(ctx, &domain.ChatHistoryEntry{
			UserID:    "u1",
			Message:   msg,
			Response:  "ok",
			Context:   domain.ContextFinancial,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("SaveChatHistory() error = %v", err)
		}
	}
	_ = store.SaveChatHistory(ctx, &domain.ChatHistoryEntry{UserID: "u2", Message: "other"})

	entries, err := store.ListChatHistory(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("ListChatHistory() error = %v", err)
	}
	if len(entries) != 2 || entries[0].Message != "third" || entries[1].Message != "second" {
		t.Errorf("entries = %+v", entries)
	}
	for _, e := range entries {
		if e.ID == "" {
			t.Error("entry missing id")
		}
	}
}

func TestNop(t *testing.T) {
	var s storage.Store = storage.Nop{}
	if _, err := s.GetProfile(context.Background(), "x"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Nop.GetProfile() error = %v", err)
	}
	if err := s.SaveChatHistory(context.Background(), &domain.ChatHistoryEntry{}); err != nil {
		t.Errorf("Nop.SaveChatHistory() error = %v", err)
	}
}
