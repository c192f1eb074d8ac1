package lifecycle

import "github.com/maribel-ponce/comanda-api/models"

// orderTransitions is the order state table. Any (from, to) pair not listed
// here is rejected with InvalidTransitionError; completed and cancelled
// accept no further transitions.
var orderTransitions = map[string][]string{
	models.OrderStatusPendingReview: {models.OrderStatusInProgress, models.OrderStatusCancelled},
	models.OrderStatusPending:       {models.OrderStatusInProgress, models.OrderStatusCancelled},
	models.OrderStatusInProgress:    {models.OrderStatusCompleted, models.OrderStatusCancelled},
}

// itemTransitions is the order-item state table. served and cancelled are
// terminal.
var itemTransitions = map[string][]string{
	models.ItemStatusQueued:    {models.ItemStatusPreparing, models.ItemStatusCancelled},
	models.ItemStatusPreparing: {models.ItemStatusReady, models.ItemStatusCancelled},
	models.ItemStatusReady:     {models.ItemStatusServed},
}

// canTransition reports whether the state table allows from -> to
func canTransition(table map[string][]string, from, to string) bool {
	for _, allowed := range table[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// sourcesFor lists the statuses from which the given state table allows
// reaching to. Used for the compare-and-set guard on status updates.
func sourcesFor(table map[string][]string, to string) []string {
	var sources []string
	for from, tos := range table {
		for _, allowed := range tos {
			if allowed == to {
				sources = append(sources, from)
			}
		}
	}
	return sources
}
