package seed

import (
	"context"

	"github.com/yigit/mentorlink/internal/app/repositories"
	"github.com/yigit/mentorlink/internal/synth"
)

// HistoryStore adapts repositories.HistoryRepository to synth.Store
type HistoryStore struct {
	repo *repositories.HistoryRepository
}

// NewHistoryStore creates a new HistoryStore
func NewHistoryStore(repo *repositories.HistoryRepository) *HistoryStore {
	return &HistoryStore{repo: repo}
}

// Begin opens a per-subject transaction
func (s *HistoryStore) Begin(ctx context.Context) (synth.Tx, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}
