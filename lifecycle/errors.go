package lifecycle

import "fmt"

// NotFoundError indicates an unknown order or item reference
type NotFoundError struct {
	Entity string // "order" or "order item"
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// InvalidTransitionError indicates an attempted transition not present in
// the state table, including the loser of a concurrent transition race.
// From and To carry the attempted pair for diagnostics.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition from %q to %q", e.Entity, e.From, e.To)
}

// CatalogMismatchError indicates a creation-time catalog reference that is
// unknown or unavailable.
type CatalogMismatchError struct {
	MenuItemID       uint
	ModifierOptionID uint
	Reason           string
}

func (e *CatalogMismatchError) Error() string {
	if e.ModifierOptionID != 0 {
		return fmt.Sprintf("modifier option %d: %s", e.ModifierOptionID, e.Reason)
	}
	if e.MenuItemID != 0 {
		return fmt.Sprintf("menu item %d: %s", e.MenuItemID, e.Reason)
	}
	return e.Reason
}

// TimeoutError indicates a bounded external call exceeded its deadline
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out", e.Op)
}

// InvariantViolationError reports a state the engine cannot act on, e.g.
// merging orders that belong to different tables.
type InvariantViolationError struct {
	Message string
}

func (e *InvariantViolationError) Error() string {
	return e.Message
}
