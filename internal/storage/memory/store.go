package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tjfontaine/advisor-gateway/internal/domain"
	"github.com/tjfontaine/advisor-gateway/internal/storage"
)

// Store is an in-memory implementation of storage.Store
type Store struct {
	mu       sync.RWMutex
	profiles map[string]domain.UserProfile
	history  []domain.ChatHistoryEntry
}

var _ storage.Store = (*Store)(nil)

// New creates a new in-memory store
func New() *Store {
	return &Store{
		profiles: make(map[string]domain.UserProfile),
	}
}

func (s *Store) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.profiles[userID]
	if !exists {
		return nil, fmt.Errorf("profile %s: %w", userID, storage.ErrNotFound)
	}
	return &p, nil
}

func (s *Store) UpsertProfile(ctx context.Context, p *domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[p.UserID] = *p
	return nil
}

func (s *Store) SaveChatHistory(ctx context.Context, entry *domain.ChatHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	s.history = append(s.history, *entry)
	return nil
}

func (s *Store) ListChatHistory(ctx context.Context, userID string, limit int) ([]domain.ChatHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.ChatHistoryEntry
	for _, e := range s.history {
		if e.UserID == userID {
			result = append(result, e)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) Close() error {
	return nil
}
