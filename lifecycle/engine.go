package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/maribel-ponce/comanda-api/hub"
	"github.com/maribel-ponce/comanda-api/models"
	"github.com/maribel-ponce/comanda-api/services"
)

// DefaultOpTimeout bounds catalog lookups and store writes so no operation
// hangs a connection.
const DefaultOpTimeout = 5 * time.Second

// Requester is the opaque identity the auth collaborator supplies with
// every mutating call.
type Requester struct {
	ID   string
	Role string
}

// NewItemInput describes one requested line of a new order
type NewItemInput struct {
	MenuItemID        uint    `json:"menu_item_id" binding:"required"`
	Quantity          int     `json:"quantity" binding:"required,gt=0"`
	Note              *string `json:"note"`
	ModifierOptionIDs []uint  `json:"modifier_option_ids"`
}

// CreateOrderInput carries everything CreateOrder needs
type CreateOrderInput struct {
	RestaurantID uint
	TableID      uint
	GuestCount   int
	Note         string
	Items        []NewItemInput
	Requester    Requester
}

// ConfirmationRequired is returned when a non-terminal order already exists
// for the table. It is a decision point, not an error: the caller must
// explicitly merge into the existing order or reject the new submission.
type ConfirmationRequired struct {
	ExistingOrderID   uint               `json:"existing_order_id"`
	ExistingItemCount int                `json:"existing_item_count"`
	ExistingTotal     int64              `json:"existing_total"`
	ProposedItems     []models.OrderItem `json:"proposed_items"`
}

// CreateResult holds either the created order or a confirmation request
type CreateResult struct {
	Order        *models.Order
	Confirmation *ConfirmationRequired
}

// AcceptResult holds either the accepted (or merge-target) order or a
// confirmation request when the table holds a second awaiting order.
type AcceptResult struct {
	Order        *models.Order
	Confirmation *ConfirmationRequired
}

// Engine enforces the order and item state machines and the one-active-
// order-per-table invariant. It is the only writer to the ticket store.
type Engine struct {
	db        *gorm.DB
	catalog   services.CatalogGateway
	publisher hub.Publisher
	OpTimeout time.Duration

	orderLocks keyedMutex
	tableLocks keyedMutex
}

// NewEngine creates a lifecycle engine over the given store, catalog
// gateway and event publisher.
func NewEngine(db *gorm.DB, catalog services.CatalogGateway, publisher hub.Publisher) *Engine {
	return &Engine{
		db:        db,
		catalog:   catalog,
		publisher: publisher,
		OpTimeout: DefaultOpTimeout,
	}
}

// CreateOrder validates the submission against the catalog, snapshots
// prices, and creates the order with all items queued. If a non-terminal
// order already exists for the table it returns a ConfirmationRequired
// result instead of creating anything.
func (e *Engine) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateResult, error) {
	if len(input.Items) == 0 {
		return nil, &CatalogMismatchError{Reason: "order must contain at least one item"}
	}

	// Catalog resolution happens before any lock is taken: lookups may
	// block on external I/O and must not hold the mutation boundary.
	items, err := e.resolveItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	lookupCtx, cancel := context.WithTimeout(ctx, e.OpTimeout)
	active, err := e.catalog.TableActive(lookupCtx, input.RestaurantID, input.TableID)
	cancel()
	if err != nil {
		return nil, e.classifyExternal("table lookup", err)
	}
	if !active {
		return nil, &CatalogMismatchError{Reason: fmt.Sprintf("table %d is not active", input.TableID)}
	}

	unlock := e.tableLocks.lock(fmt.Sprintf("%d:%d", input.RestaurantID, input.TableID))
	defer unlock()

	// Table-session invariant: at most one non-terminal order per table.
	var existing models.Order
	err = e.db.WithContext(ctx).
		Preload("Items.Modifiers").
		Where("restaurant_id = ? AND table_id = ? AND status IN ?",
			input.RestaurantID, input.TableID, models.NonTerminalOrderStatuses()).
		First(&existing).Error
	if err == nil {
		return &CreateResult{Confirmation: &ConfirmationRequired{
			ExistingOrderID:   existing.ID,
			ExistingItemCount: len(existing.Items),
			ExistingTotal:     existing.TotalAmount,
			ProposedItems:     items,
		}}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check active orders: %w", err)
	}

	order := models.Order{
		RestaurantID: input.RestaurantID,
		TableID:      input.TableID,
		Status:       models.OrderStatusPendingReview,
		GuestCount:   input.GuestCount,
		Note:         input.Note,
		Items:        items,
	}
	if order.GuestCount <= 0 {
		order.GuestCount = 1
	}
	switch input.Requester.Role {
	case "customer":
		id := input.Requester.ID
		order.CustomerID = &id
	case "waiter":
		id := input.Requester.ID
		order.WaiterID = &id
	}
	order.TotalAmount = order.ComputeTotal()

	writeCtx, cancelWrite := context.WithTimeout(ctx, e.OpTimeout)
	err = e.db.WithContext(writeCtx).Create(&order).Error
	cancelWrite()
	if err != nil {
		return nil, e.classifyExternal("create order", err)
	}

	created, err := e.loadOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	e.publish(hub.Event{Type: hub.EventOrderCreated, Order: created, NewStatus: created.Status},
		e.orderScopes(created)...)

	return &CreateResult{Order: created}, nil
}

// AcceptOrder transitions an awaiting order to in_progress and assigns the
// waiter. With mergeIntoOrderID set it instead re-parents the order's items
// into the target order for the same table, cancels the source with reason
// merged, and emits OrderMerged. If the table holds another non-terminal
// order, accepting without a merge target returns a ConfirmationRequired
// result: the waiter must explicitly merge or reject.
func (e *Engine) AcceptOrder(ctx context.Context, orderID uint, waiterID string, mergeIntoOrderID *uint) (*AcceptResult, error) {
	if mergeIntoOrderID != nil {
		merged, err := e.mergeOrders(ctx, orderID, *mergeIntoOrderID, waiterID)
		if err != nil {
			return nil, err
		}
		return &AcceptResult{Order: merged}, nil
	}

	unlock := e.orderLocks.lock(fmt.Sprintf("%d", orderID))
	defer unlock()

	order, err := e.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canTransition(orderTransitions, order.Status, models.OrderStatusInProgress) {
		return nil, &InvalidTransitionError{Entity: "order", From: order.Status, To: models.OrderStatusInProgress}
	}

	// A second awaiting order for the same table (e.g. created by another
	// node before this one saw it) is a decision point, not an error.
	var other models.Order
	err = e.db.WithContext(ctx).
		Preload("Items.Modifiers").
		Where("restaurant_id = ? AND table_id = ? AND id <> ? AND status IN ?",
			order.RestaurantID, order.TableID, order.ID, models.NonTerminalOrderStatuses()).
		First(&other).Error
	if err == nil {
		return &AcceptResult{Confirmation: &ConfirmationRequired{
			ExistingOrderID:   other.ID,
			ExistingItemCount: len(other.Items),
			ExistingTotal:     other.TotalAmount,
			ProposedItems:     order.Items,
		}}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check active orders: %w", err)
	}

	writeCtx, cancelWrite := context.WithTimeout(ctx, e.OpTimeout)
	res := e.db.WithContext(writeCtx).Model(&models.Order{}).
		Where("id = ? AND status IN ?", orderID,
			sourcesFor(orderTransitions, models.OrderStatusInProgress)).
		Updates(map[string]interface{}{
			"status":    models.OrderStatusInProgress,
			"waiter_id": waiterID,
		})
	cancelWrite()
	if res.Error != nil {
		return nil, e.classifyExternal("accept order", res.Error)
	}
	if res.RowsAffected == 0 {
		current, _ := e.loadOrder(ctx, orderID)
		from := order.Status
		if current != nil {
			from = current.Status
		}
		return nil, &InvalidTransitionError{Entity: "order", From: from, To: models.OrderStatusInProgress}
	}

	accepted, err := e.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	e.publish(hub.Event{
		Type:           hub.EventOrderAccepted,
		Order:          accepted,
		PreviousStatus: order.Status,
		NewStatus:      accepted.Status,
	}, e.orderScopes(accepted)...)

	return &AcceptResult{Order: accepted}, nil
}

// mergeOrders folds the source order's items into the target order
func (e *Engine) mergeOrders(ctx context.Context, sourceID, targetID uint, waiterID string) (*models.Order, error) {
	if sourceID == targetID {
		return nil, &InvariantViolationError{Message: "cannot merge an order into itself"}
	}

	// Lock both orders in id order so two concurrent merges cannot deadlock
	first, second := sourceID, targetID
	if first > second {
		first, second = second, first
	}
	unlockFirst := e.orderLocks.lock(fmt.Sprintf("%d", first))
	defer unlockFirst()
	unlockSecond := e.orderLocks.lock(fmt.Sprintf("%d", second))
	defer unlockSecond()

	source, err := e.loadOrder(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	target, err := e.loadOrder(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if target.IsTerminal() {
		return nil, &InvalidTransitionError{Entity: "order", From: target.Status, To: target.Status}
	}
	if source.IsTerminal() {
		return nil, &InvalidTransitionError{Entity: "order", From: source.Status, To: models.OrderStatusCancelled}
	}
	if source.RestaurantID != target.RestaurantID || source.TableID != target.TableID {
		return nil, &InvariantViolationError{
			Message: fmt.Sprintf("orders %d and %d belong to different tables", sourceID, targetID),
		}
	}

	writeCtx, cancelWrite := context.WithTimeout(ctx, e.OpTimeout)
	defer cancelWrite()

	reason := models.CancelReasonMerged
	err = e.db.WithContext(writeCtx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.OrderItem{}).
			Where("order_id = ?", source.ID).
			Update("order_id", target.ID).Error; err != nil {
			return fmt.Errorf("failed to re-parent items: %w", err)
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", source.ID).
			Updates(map[string]interface{}{
				"status":        models.OrderStatusCancelled,
				"cancel_reason": reason,
				"total_amount":  0,
			}).Error; err != nil {
			return fmt.Errorf("failed to cancel source order: %w", err)
		}

		var merged models.Order
		if err := tx.Preload("Items.Modifiers").First(&merged, target.ID).Error; err != nil {
			return fmt.Errorf("failed to reload target order: %w", err)
		}
		return tx.Model(&models.Order{}).Where("id = ?", target.ID).
			Updates(map[string]interface{}{
				"total_amount": merged.ComputeTotal(),
				"waiter_id":    waiterID,
			}).Error
	})
	if err != nil {
		return nil, e.classifyExternal("merge orders", err)
	}

	mergedTarget, err := e.loadOrder(ctx, targetID)
	if err != nil {
		return nil, err
	}

	e.publish(hub.Event{
		Type:          hub.EventOrderMerged,
		Order:         mergedTarget,
		SourceOrderID: sourceID,
		TargetOrderID: targetID,
		NewStatus:     mergedTarget.Status,
	}, e.orderScopes(mergedTarget)...)

	return mergedTarget, nil
}

// RejectOrder cancels a non-terminal order, whether still awaiting or
// already in progress. Rejecting an already-terminal order fails with
// InvalidTransition rather than double-emitting.
func (e *Engine) RejectOrder(ctx context.Context, orderID uint, waiterID string, reason *string) (*models.Order, error) {
	unlock := e.orderLocks.lock(fmt.Sprintf("%d", orderID))
	defer unlock()

	order, err := e.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canTransition(orderTransitions, order.Status, models.OrderStatusCancelled) {
		return nil, &InvalidTransitionError{Entity: "order", From: order.Status, To: models.OrderStatusCancelled}
	}

	updates := map[string]interface{}{
		"status":    models.OrderStatusCancelled,
		"waiter_id": waiterID,
	}
	if reason != nil {
		updates["cancel_reason"] = *reason
	}
	writeCtx, cancelWrite := context.WithTimeout(ctx, e.OpTimeout)
	res := e.db.WithContext(writeCtx).Model(&models.Order{}).
		Where("id = ? AND status IN ?", orderID,
			sourcesFor(orderTransitions, models.OrderStatusCancelled)).
		Updates(updates)
	cancelWrite()
	if res.Error != nil {
		return nil, e.classifyExternal("reject order", res.Error)
	}
	if res.RowsAffected == 0 {
		current, _ := e.loadOrder(ctx, orderID)
		from := order.Status
		if current != nil {
			from = current.Status
		}
		return nil, &InvalidTransitionError{Entity: "order", From: from, To: models.OrderStatusCancelled}
	}

	rejected, err := e.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	e.publish(hub.Event{
		Type:           hub.EventOrderRejected,
		Order:          rejected,
		PreviousStatus: order.Status,
		NewStatus:      rejected.Status,
	}, e.orderScopes(rejected)...)

	return rejected, nil
}

// StartItem moves a queued item into preparation
func (e *Engine) StartItem(ctx context.Context, orderID, itemID uint) (*models.Order, error) {
	return e.transitionItem(ctx, orderID, itemID, models.ItemStatusPreparing)
}

// ReadyItem marks a preparing item ready and notifies waiters
func (e *Engine) ReadyItem(ctx context.Context, orderID, itemID uint) (*models.Order, error) {
	return e.transitionItem(ctx, orderID, itemID, models.ItemStatusReady)
}

// ServeItem marks a ready item served. Partial serving is supported: this
// never requires the order's other items to be ready.
func (e *Engine) ServeItem(ctx context.Context, orderID, itemID uint) (*models.Order, error) {
	return e.transitionItem(ctx, orderID, itemID, models.ItemStatusServed)
}

// CancelItem cancels a queued or preparing item and recomputes the total
func (e *Engine) CancelItem(ctx context.Context, orderID, itemID uint) (*models.Order, error) {
	return e.transitionItem(ctx, orderID, itemID, models.ItemStatusCancelled)
}

// transitionItem applies one item state-table transition under the order
// lock. The status update is a compare-and-set: a concurrent racer that
// already moved the item makes this call lose with InvalidTransition.
func (e *Engine) transitionItem(ctx context.Context, orderID, itemID uint, to string) (*models.Order, error) {
	unlock := e.orderLocks.lock(fmt.Sprintf("%d", orderID))
	defer unlock()

	order, err := e.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsTerminal() {
		return nil, &InvalidTransitionError{Entity: "order item", From: order.Status, To: to}
	}

	var item *models.OrderItem
	for i := range order.Items {
		if order.Items[i].ID == itemID {
			item = &order.Items[i]
			break
		}
	}
	if item == nil {
		return nil, &NotFoundError{Entity: "order item", ID: itemID}
	}

	previous := item.Status
	if !canTransition(itemTransitions, previous, to) {
		return nil, &InvalidTransitionError{Entity: "order item", From: previous, To: to}
	}

	writeCtx, cancelWrite := context.WithTimeout(ctx, e.OpTimeout)
	defer cancelWrite()

	res := e.db.WithContext(writeCtx).Model(&models.OrderItem{}).
		Where("id = ? AND status IN ?", itemID, sourcesFor(itemTransitions, to)).
		Update("status", to)
	if res.Error != nil {
		return nil, e.classifyExternal("update item status", res.Error)
	}
	if res.RowsAffected == 0 {
		var current models.OrderItem
		from := previous
		if err := e.db.WithContext(ctx).First(&current, itemID).Error; err == nil {
			from = current.Status
		}
		return nil, &InvalidTransitionError{Entity: "order item", From: from, To: to}
	}

	if to == models.ItemStatusCancelled {
		var fresh models.Order
		if err := e.db.WithContext(writeCtx).Preload("Items.Modifiers").First(&fresh, orderID).Error; err != nil {
			return nil, e.classifyExternal("reload order", err)
		}
		if err := e.db.WithContext(writeCtx).Model(&models.Order{}).
			Where("id = ?", orderID).
			Update("total_amount", fresh.ComputeTotal()).Error; err != nil {
			return nil, e.classifyExternal("recompute total", err)
		}
	}

	updated, err := e.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var updatedItem *models.OrderItem
	for i := range updated.Items {
		if updated.Items[i].ID == itemID {
			updatedItem = &updated.Items[i]
			break
		}
	}

	e.publish(hub.Event{
		Type:           hub.EventOrderItemStatusChanged,
		Order:          updated,
		Item:           updatedItem,
		PreviousStatus: previous,
		NewStatus:      to,
	}, e.orderScopes(updated)...)

	if to == models.ItemStatusReady {
		// Ready is the trigger waiters act on, so it also goes out as a
		// dedicated notification on the waiter-facing scopes.
		scopes := []hub.Scope{hub.RestaurantScope(updated.RestaurantID)}
		if updated.WaiterID != nil {
			scopes = append(scopes, hub.WaiterScope(*updated.WaiterID))
		}
		e.publish(hub.Event{
			Type:      hub.EventOrderItemReady,
			Order:     updated,
			Item:      updatedItem,
			NewStatus: to,
			Message:   fmt.Sprintf("%s is ready for table %d", itemName(updatedItem), updated.TableID),
		}, scopes...)
	}

	return updated, nil
}

// BumpOrder serves every currently-ready item of the order in one action.
// Calling it when nothing is ready is a no-op, not an error.
func (e *Engine) BumpOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	unlock := e.orderLocks.lock(fmt.Sprintf("%d", orderID))
	defer unlock()

	order, err := e.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var bumped []uint
	for i := range order.Items {
		if order.Items[i].Status == models.ItemStatusReady {
			bumped = append(bumped, order.Items[i].ID)
		}
	}
	if len(bumped) == 0 {
		return order, nil
	}

	writeCtx, cancelWrite := context.WithTimeout(ctx, e.OpTimeout)
	err = e.db.WithContext(writeCtx).Model(&models.OrderItem{}).
		Where("id IN ? AND status = ?", bumped, models.ItemStatusReady).
		Update("status", models.ItemStatusServed).Error
	cancelWrite()
	if err != nil {
		return nil, e.classifyExternal("bump order", err)
	}

	updated, err := e.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	for i := range updated.Items {
		for _, id := range bumped {
			if updated.Items[i].ID == id {
				e.publish(hub.Event{
					Type:           hub.EventOrderItemStatusChanged,
					Order:          updated,
					Item:           &updated.Items[i],
					PreviousStatus: models.ItemStatusReady,
					NewStatus:      models.ItemStatusServed,
				}, e.orderScopes(updated)...)
			}
		}
	}

	return updated, nil
}

// CompleteOrder consumes the PaymentCompleted signal: records the payment,
// transitions the order to completed, and emits both the status change and
// a payment notification so waiter views drop the order even if one event
// is missed. The completed ticket is archived best-effort.
func (e *Engine) CompleteOrder(ctx context.Context, orderID uint, amount int64, method string) (*models.Order, error) {
	unlock := e.orderLocks.lock(fmt.Sprintf("%d", orderID))
	defer unlock()

	order, err := e.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canTransition(orderTransitions, order.Status, models.OrderStatusCompleted) {
		return nil, &InvalidTransitionError{Entity: "order", From: order.Status, To: models.OrderStatusCompleted}
	}

	if amount == 0 {
		amount = order.TotalAmount
	}

	writeCtx, cancelWrite := context.WithTimeout(ctx, e.OpTimeout)
	defer cancelWrite()

	err = e.db.WithContext(writeCtx).Transaction(func(tx *gorm.DB) error {
		payment := models.Payment{
			OrderID: orderID,
			Amount:  amount,
			Method:  method,
			Status:  models.PaymentStatusCompleted,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, models.OrderStatusInProgress).
			Update("status", models.OrderStatusCompleted)
		if res.Error != nil {
			return fmt.Errorf("failed to complete order: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return &InvalidTransitionError{Entity: "order", From: order.Status, To: models.OrderStatusCompleted}
		}
		return nil
	})
	if err != nil {
		var invalid *InvalidTransitionError
		if errors.As(err, &invalid) {
			return nil, err
		}
		return nil, e.classifyExternal("complete order", err)
	}

	completed, err := e.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	scopes := e.orderScopes(completed)
	e.publish(hub.Event{
		Type:           hub.EventOrderStatusChanged,
		Order:          completed,
		PreviousStatus: order.Status,
		NewStatus:      completed.Status,
	}, scopes...)
	e.publish(hub.Event{
		Type:    hub.EventNotification,
		Order:   completed,
		Message: fmt.Sprintf("Payment completed for table %d", completed.TableID),
	}, scopes...)

	if archiver := services.GetArchiveService(); archiver != nil {
		if key, err := archiver.ArchiveTicket(completed); err != nil {
			log.Printf("Failed to archive ticket for order %d: %v", orderID, err)
		} else {
			log.Printf("Archived ticket for order %d at %s", orderID, key)
		}
	}

	return completed, nil
}

// RequestBill emits the request-to-pay signal for an in-progress order
func (e *Engine) RequestBill(ctx context.Context, orderID uint) (*models.Order, error) {
	order, err := e.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsTerminal() {
		return nil, &InvalidTransitionError{Entity: "order", From: order.Status, To: order.Status}
	}

	scopes := []hub.Scope{hub.RestaurantScope(order.RestaurantID)}
	if order.WaiterID != nil {
		scopes = append(scopes, hub.WaiterScope(*order.WaiterID))
	}
	e.publish(hub.Event{
		Type:    hub.EventRequestBill,
		Order:   order,
		Message: fmt.Sprintf("Table %d requests the bill", order.TableID),
	}, scopes...)

	return order, nil
}

// ListActiveOrders is the snapshot query clients poll to heal missed
// events. With no filter it returns the three non-terminal statuses.
func (e *Engine) ListActiveOrders(ctx context.Context, restaurantID uint, statuses []string) ([]models.Order, error) {
	if len(statuses) == 0 {
		statuses = models.NonTerminalOrderStatuses()
	}

	queryCtx, cancel := context.WithTimeout(ctx, e.OpTimeout)
	defer cancel()

	var orders []models.Order
	err := e.db.WithContext(queryCtx).
		Preload("Items.Modifiers").
		Preload("Payment").
		Where("restaurant_id = ? AND status IN ?", restaurantID, statuses).
		Order("created_at asc").
		Find(&orders).Error
	if err != nil {
		return nil, e.classifyExternal("snapshot query", err)
	}
	return orders, nil
}

// GetOrder fetches one order with its items, modifiers and payment
func (e *Engine) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	return e.loadOrder(ctx, orderID)
}

// resolveItems looks every requested item and modifier up in the catalog
// and snapshots names and prices. Later catalog changes never affect the
// created order.
func (e *Engine) resolveItems(ctx context.Context, inputs []NewItemInput) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		if in.Quantity < 1 {
			return nil, &CatalogMismatchError{MenuItemID: in.MenuItemID, Reason: "quantity must be at least 1"}
		}

		lookupCtx, cancel := context.WithTimeout(ctx, e.OpTimeout)
		catalogItem, err := e.catalog.LookupItem(lookupCtx, in.MenuItemID)
		cancel()
		if err != nil {
			if errors.Is(err, services.ErrCatalogNotFound) {
				return nil, &CatalogMismatchError{MenuItemID: in.MenuItemID, Reason: "unknown menu item"}
			}
			return nil, e.classifyExternal("catalog lookup", err)
		}
		if !catalogItem.Available {
			return nil, &CatalogMismatchError{MenuItemID: in.MenuItemID, Reason: "menu item unavailable"}
		}

		item := models.OrderItem{
			MenuItemID:   in.MenuItemID,
			Name:         catalogItem.Name,
			Quantity:     in.Quantity,
			PricePerUnit: catalogItem.BasePrice,
			Status:       models.ItemStatusQueued,
			Note:         in.Note,
		}

		for _, optionID := range in.ModifierOptionIDs {
			lookupCtx, cancel := context.WithTimeout(ctx, e.OpTimeout)
			option, err := e.catalog.LookupModifierOption(lookupCtx, optionID)
			cancel()
			if err != nil {
				if errors.Is(err, services.ErrCatalogNotFound) {
					return nil, &CatalogMismatchError{ModifierOptionID: optionID, Reason: "unknown modifier option"}
				}
				return nil, e.classifyExternal("catalog lookup", err)
			}
			if !option.Available {
				return nil, &CatalogMismatchError{ModifierOptionID: optionID, Reason: "modifier option unavailable"}
			}

			id := optionID
			item.Modifiers = append(item.Modifiers, models.OrderItemModifier{
				ModifierOptionID: &id,
				ModifierName:     option.Name,
				PriceAdjustment:  option.PriceAdjustment,
			})
		}

		items = append(items, item)
	}
	return items, nil
}

// loadOrder fetches an order with items, modifiers and payment
func (e *Engine) loadOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := e.db.WithContext(ctx).
		Preload("Items.Modifiers").
		Preload("Payment").
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "order", ID: orderID}
		}
		return nil, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	return &order, nil
}

// classifyExternal maps deadline errors from external calls to the typed
// Timeout failure; everything else passes through wrapped.
func (e *Engine) classifyExternal(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Op: op}
	}
	return fmt.Errorf("%s failed: %w", op, err)
}

// orderScopes lists the broadcast scopes an order's events fan out to
func (e *Engine) orderScopes(order *models.Order) []hub.Scope {
	scopes := []hub.Scope{
		hub.RestaurantScope(order.RestaurantID),
		hub.TableScope(order.RestaurantID, order.TableID),
		hub.KitchenScope(order.RestaurantID),
	}
	if order.WaiterID != nil {
		scopes = append(scopes, hub.WaiterScope(*order.WaiterID))
	}
	return scopes
}

// publish emits the event if a publisher is wired
func (e *Engine) publish(event hub.Event, scopes ...hub.Scope) {
	if e.publisher == nil {
		return
	}
	e.publisher.Publish(event, scopes...)
}

func itemName(item *models.OrderItem) string {
	if item == nil {
		return "item"
	}
	return item.Name
}
