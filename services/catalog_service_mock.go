package services

import (
	"context"
	"sync"
)

// MockCatalogService is an in-memory CatalogGateway for testing
type MockCatalogService struct {
	items          map[uint]CatalogItem
	modifiers      map[uint]CatalogModifier
	inactiveTables map[[2]uint]bool
	lookupErr      error
	mu             sync.RWMutex
}

// NewMockCatalogService creates an empty mock catalog
func NewMockCatalogService() *MockCatalogService {
	return &MockCatalogService{
		items:          make(map[uint]CatalogItem),
		modifiers:      make(map[uint]CatalogModifier),
		inactiveTables: make(map[[2]uint]bool),
	}
}

// SetAsMockForTesting sets this mock as the global catalog gateway instance
func (m *MockCatalogService) SetAsMockForTesting() {
	SetCatalogService(m)
}

// AddItem registers a menu item in the mock catalog
func (m *MockCatalogService) AddItem(item CatalogItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
}

// AddModifier registers a modifier option in the mock catalog
func (m *MockCatalogService) AddModifier(modifier CatalogModifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modifiers[modifier.ID] = modifier
}

// SetTableInactive marks a table as inactive
func (m *MockCatalogService) SetTableInactive(restaurantID, tableID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inactiveTables[[2]uint{restaurantID, tableID}] = true
}

// FailLookupsWith makes every lookup return the given error (e.g. a timeout)
func (m *MockCatalogService) FailLookupsWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookupErr = err
}

// LookupItem returns the registered item or ErrCatalogNotFound
func (m *MockCatalogService) LookupItem(ctx context.Context, menuItemID uint) (*CatalogItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	item, ok := m.items[menuItemID]
	if !ok {
		return nil, ErrCatalogNotFound
	}
	return &item, nil
}

// LookupModifierOption returns the registered modifier or ErrCatalogNotFound
func (m *MockCatalogService) LookupModifierOption(ctx context.Context, modifierOptionID uint) (*CatalogModifier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	modifier, ok := m.modifiers[modifierOptionID]
	if !ok {
		return nil, ErrCatalogNotFound
	}
	return &modifier, nil
}

// TableActive reports true unless the table was marked inactive
func (m *MockCatalogService) TableActive(ctx context.Context, restaurantID, tableID uint) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lookupErr != nil {
		return false, m.lookupErr
	}
	return !m.inactiveTables[[2]uint{restaurantID, tableID}], nil
}
