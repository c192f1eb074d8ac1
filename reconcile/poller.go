// Package reconcile implements the client-side polling contract that
// backstops the broadcast stream. Push events give latency; the periodic
// snapshot poll gives correctness: any order present locally but absent
// from the snapshot has transitioned away and is removed from the local
// view even if the corresponding event was never seen.
package reconcile

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/maribel-ponce/comanda-api/models"
)

// DefaultInterval matches the observed client polling interval
const DefaultInterval = 5 * time.Second

// SnapshotSource is the server-side snapshot query the poller fetches from
type SnapshotSource interface {
	ListActiveOrders(ctx context.Context, restaurantID uint, statuses []string) ([]models.Order, error)
}

// View is the client-local order state the poller keeps consistent
type View interface {
	ActiveOrderIDs() []uint
	ApplySnapshot(orders []models.Order)
	Remove(orderID uint)
}

// Poller periodically re-fetches the active-order snapshot and heals the
// local view. Fetch failures (including timeouts) are logged and retried
// on the next tick; the poller never gives up on its own.
type Poller struct {
	Source       SnapshotSource
	View         View
	RestaurantID uint
	Statuses     []string
	Interval     time.Duration
	Timeout      time.Duration
}

// NewPoller creates a poller with the default interval and timeout
func NewPoller(source SnapshotSource, view View, restaurantID uint) *Poller {
	return &Poller{
		Source:       source,
		View:         view,
		RestaurantID: restaurantID,
		Interval:     DefaultInterval,
		Timeout:      DefaultInterval,
	}
}

// Run polls until the context is cancelled
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.PollOnce(ctx); err != nil {
				log.Printf("reconcile: snapshot poll failed, retrying next tick: %v", err)
			}
		}
	}
}

// PollOnce fetches one snapshot and reconciles the view against it
func (p *Poller) PollOnce(ctx context.Context) error {
	fetchCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	orders, err := p.Source.ListActiveOrders(fetchCtx, p.RestaurantID, p.Statuses)
	if err != nil {
		return err
	}

	present := make(map[uint]bool, len(orders))
	for i := range orders {
		present[orders[i].ID] = true
	}

	// Orders held locally but missing from the snapshot have transitioned
	// away (typically to completed) without us seeing the event.
	for _, id := range p.View.ActiveOrderIDs() {
		if !present[id] {
			p.View.Remove(id)
		}
	}

	p.View.ApplySnapshot(orders)
	return nil
}

// MemoryView is the reference View implementation: a concurrency-safe map
// of active orders keyed by id.
type MemoryView struct {
	mu     sync.RWMutex
	orders map[uint]models.Order
}

// NewMemoryView creates an empty view
func NewMemoryView() *MemoryView {
	return &MemoryView{orders: make(map[uint]models.Order)}
}

// ActiveOrderIDs returns the ids of all locally held orders
func (v *MemoryView) ActiveOrderIDs() []uint {
	v.mu.RLock()
	defer v.mu.RUnlock()
	ids := make([]uint, 0, len(v.orders))
	for id := range v.orders {
		ids = append(ids, id)
	}
	return ids
}

// ApplySnapshot upserts every snapshot order into the view
func (v *MemoryView) ApplySnapshot(orders []models.Order) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range orders {
		v.orders[orders[i].ID] = orders[i]
	}
}

// Apply idempotently applies a pushed order state. Stale pushes are safe:
// the payload carries the full new state, so applying twice or out of
// order converges on the same view, and terminal states remove the order.
func (v *MemoryView) Apply(order models.Order) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if order.IsTerminal() {
		delete(v.orders, order.ID)
		return
	}
	v.orders[order.ID] = order
}

// Remove drops an order from the view
func (v *MemoryView) Remove(orderID uint) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.orders, orderID)
}

// Get returns the locally held order, if present
func (v *MemoryView) Get(orderID uint) (models.Order, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	order, ok := v.orders[orderID]
	return order, ok
}

// Len returns the number of locally held orders
func (v *MemoryView) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.orders)
}
