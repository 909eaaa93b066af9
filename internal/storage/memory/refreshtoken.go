package memory

import (
	"context"
	"sync"
	"time"

	"github.com/junekoh/mealmeet/internal/models"
	"github.com/junekoh/mealmeet/internal/storage"
)

// RefreshTokenStore is an in-memory storage.RefreshTokenRepository. The
// single mutex gives it the same rotate-wins-once behavior the conditional
// UPDATE gives the postgres version.
type RefreshTokenStore struct {
	mu      sync.Mutex
	records map[int64]models.RefreshTokenRecord
}

func NewRefreshTokenStore() *RefreshTokenStore {
	return &RefreshTokenStore{
		records: make(map[int64]models.RefreshTokenRecord),
	}
}

func (m *RefreshTokenStore) GetRefreshToken(ctx context.Context, userID int64) (*models.RefreshTokenRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[userID]
	if !ok {
		return nil, storage.ErrRefreshTokenNotFound
	}
	return &record, nil
}

func (m *RefreshTokenStore) UpsertRefreshToken(ctx context.Context, record models.RefreshTokenRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record.UpdatedAt = time.Now()
	m.records[record.UserID] = record
	return nil
}

func (m *RefreshTokenStore) RotateRefreshToken(ctx context.Context, userID int64, presented, next string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[userID]
	if !ok || record.Token != presented {
		return storage.ErrRefreshTokenMismatch
	}
	record.Token = next
	record.UpdatedAt = time.Now()
	m.records[userID] = record
	return nil
}
