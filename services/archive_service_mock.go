package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/maribel-ponce/comanda-api/models"
)

// MockArchiveService is a mock implementation of ArchiveService for testing
type MockArchiveService struct {
	archived map[string][]byte // map of object key to ticket JSON
	mu       sync.RWMutex
}

// NewMockArchiveService creates a new mock archive service
func NewMockArchiveService() *MockArchiveService {
	return &MockArchiveService{
		archived: make(map[string][]byte),
	}
}

// SetAsMockForTesting sets this mock as the global archive service instance
func (m *MockArchiveService) SetAsMockForTesting() {
	SetArchiveService(m)
}

// ArchiveTicket records the ticket JSON in memory
func (m *MockArchiveService) ArchiveTicket(order *models.Order) (string, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return "", fmt.Errorf("failed to marshal ticket: %w", err)
	}

	key := fmt.Sprintf("tickets/%d/%d.json", order.RestaurantID, order.ID)

	m.mu.Lock()
	m.archived[key] = body
	m.mu.Unlock()

	return key, nil
}

// ArchivedKeys returns the keys of all archived tickets
func (m *MockArchiveService) ArchivedKeys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.archived))
	for k := range m.archived {
		keys = append(keys, k)
	}
	return keys
}

// ArchivedTicket returns the stored ticket JSON for a key, if present
func (m *MockArchiveService) ArchivedTicket(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	body, ok := m.archived[key]
	return body, ok
}
