package mocks

import (
	"context"
	"sync"

	"github.com/user/logging-api/internal/domain"
)

// MockLogStore is a mock implementation of domain.LogStore for testing.
type MockLogStore struct {
	mu              sync.Mutex
	InsertedEntries []domain.LogEntry
	RecentResult    []*domain.LogEntry
	SearchResult    []*domain.LogEntry
	SearchQueries   []domain.SearchQuery
	AggregateResult domain.AggregateCounts
	HealthResult    *domain.StoreHealth
	InsertErr       error
	RecentErr       error
	SearchErr       error
	AggregateErr    error
	HealthErr       error
}

func (m *MockLogStore) Insert(ctx context.Context, entry *domain.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.InsertedEntries = append(m.InsertedEntries, *entry)
	return nil
}

func (m *MockLogStore) Recent(ctx context.Context, limit int) ([]*domain.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RecentErr != nil {
		return nil, m.RecentErr
	}
	if limit < len(m.RecentResult) {
		return m.RecentResult[:limit], nil
	}
	return m.RecentResult, nil
}

func (m *MockLogStore) Search(ctx context.Context, q domain.SearchQuery) ([]*domain.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SearchQueries = append(m.SearchQueries, q)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	return m.SearchResult, nil
}

func (m *MockLogStore) Aggregate(ctx context.Context) (domain.AggregateCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AggregateErr != nil {
		return domain.AggregateCounts{}, m.AggregateErr
	}
	return m.AggregateResult, nil
}

func (m *MockLogStore) Health(ctx context.Context) (*domain.StoreHealth, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.HealthErr != nil {
		return nil, m.HealthErr
	}
	return m.HealthResult, nil
}

// Inserted returns a copy of the entries written so far.
func (m *MockLogStore) Inserted() []domain.LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.LogEntry, len(m.InsertedEntries))
	copy(out, m.InsertedEntries)
	return out
}
