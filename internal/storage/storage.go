// Package storage defines the user datastore the gateway reads profiles from
// and appends chat history to.
package storage

import (
	"context"
	"errors"

	"github.com/tjfontaine/advisor-gateway/internal/domain"
)

// ErrNotFound is returned when a profile does not exist.
var ErrNotFound = errors.New("not found")

// ProfileStore reads user profiles.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
}

// HistoryStore appends question/answer pairs.
type HistoryStore interface {
	SaveChatHistory(ctx context.Context, entry *domain.ChatHistoryEntry) error
}

// Store is a full datastore backend.
type Store interface {
	ProfileStore
	HistoryStore

	UpsertProfile(ctx context.Context, profile *domain.UserProfile) error
	ListChatHistory(ctx context.Context, userID string, limit int) ([]domain.ChatHistoryEntry, error)
	Close() error
}

// Nop is a Store that keeps nothing. Every profile lookup misses.
type Nop struct{}

var _ Store = Nop{}

func (Nop) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	return nil, ErrNotFound
}

func (Nop) SaveChatHistory(ctx context.Context, entry *domain.ChatHistoryEntry) error { return nil }

func (Nop) UpsertProfile(ctx context.Context, profile *domain.UserProfile) error { return nil }

func (Nop) ListChatHistory(ctx context.Context, userID string, limit int) ([]domain.ChatHistoryEntry, error) {
	return nil, nil
}

func (Nop) Close() error { return nil }
