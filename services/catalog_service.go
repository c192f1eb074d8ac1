package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/maribel-ponce/comanda-api/config"
)

// CatalogItem is the priced-item view returned by the catalog collaborator
type CatalogItem struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	BasePrice int64  `json:"base_price"`
	Available bool   `json:"available"`
}

// CatalogModifier is a priced modifier option from the catalog collaborator
type CatalogModifier struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	PriceAdjustment int64  `json:"price_adjustment"`
	Available       bool   `json:"available"`
}

// CatalogGateway defines the read-only catalog collaborator the order core
// depends on. All calls carry the caller's context so lookups stay bounded.
type CatalogGateway interface {
	LookupItem(ctx context.Context, menuItemID uint) (*CatalogItem, error)
	LookupModifierOption(ctx context.Context, modifierOptionID uint) (*CatalogModifier, error)
	TableActive(ctx context.Context, restaurantID, tableID uint) (bool, error)
}

// CatalogService calls the external catalog HTTP API
type CatalogService struct {
	baseURL    string
	httpClient *http.Client
}

var catalogServiceInstance CatalogGateway

// NewCatalogService creates a catalog client against the configured base URL
func NewCatalogService(cfg *config.Config) *CatalogService {
	return &CatalogService{
		baseURL: strings.TrimRight(cfg.CatalogBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// InitCatalogService initializes the global catalog gateway instance
func InitCatalogService(cfg *config.Config) CatalogGateway {
	catalogServiceInstance = NewCatalogService(cfg)
	return catalogServiceInstance
}

// GetCatalogService returns the initialized catalog gateway instance
func GetCatalogService() CatalogGateway {
	return catalogServiceInstance
}

// SetCatalogService sets the catalog gateway instance (primarily for testing)
func SetCatalogService(gateway CatalogGateway) {
	catalogServiceInstance = gateway
}

// LookupItem fetches a menu item's name, price and availability
func (s *CatalogService) LookupItem(ctx context.Context, menuItemID uint) (*CatalogItem, error) {
	url := fmt.Sprintf("%s/catalog/items/%d", s.baseURL, menuItemID)

	var item CatalogItem
	if err := s.getJSON(ctx, url, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// LookupModifierOption fetches a modifier option's name, adjustment and availability
func (s *CatalogService) LookupModifierOption(ctx context.Context, modifierOptionID uint) (*CatalogModifier, error) {
	url := fmt.Sprintf("%s/catalog/modifier-options/%d", s.baseURL, modifierOptionID)

	var modifier CatalogModifier
	if err := s.getJSON(ctx, url, &modifier); err != nil {
		return nil, err
	}
	return &modifier, nil
}

// TableActive reports whether a table is registered and currently active
func (s *CatalogService) TableActive(ctx context.Context, restaurantID, tableID uint) (bool, error) {
	url := fmt.Sprintf("%s/restaurants/%d/tables/%d", s.baseURL, restaurantID, tableID)

	var table struct {
		Active bool `json:"active"`
	}
	if err := s.getJSON(ctx, url, &table); err != nil {
		return false, err
	}
	return table.Active, nil
}

// getJSON performs a GET request and decodes the JSON response body.
// A 404 from the catalog is reported as ErrCatalogNotFound so callers can
// distinguish "unknown reference" from transport failures.
func (s *CatalogService) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrCatalogNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("catalog returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return nil
}

// ErrCatalogNotFound indicates the catalog has no record for the reference
var ErrCatalogNotFound = fmt.Errorf("catalog reference not found")
