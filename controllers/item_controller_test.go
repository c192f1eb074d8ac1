package controllers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newItemRouter(userID, role string) *routerFixture {
	router := setupTestRouter()
	auth := mockAuthMiddleware(userID, role)
	router.POST("/orders", auth, CreateOrder)
	router.POST("/orders/:id/accept", auth, AcceptOrder)
	router.POST("/orders/:id/bump", auth, BumpOrder)
	router.POST("/orders/:id/items/:itemId/start", auth, StartItem)
	router.POST("/orders/:id/items/:itemId/ready", auth, ReadyItem)
	router.POST("/orders/:id/items/:itemId/serve", auth, ServeItem)
	router.POST("/orders/:id/items/:itemId/cancel", auth, CancelItem)
	return &routerFixture{router}
}

// seedAcceptedOrder creates and accepts a two-item order on table 7
func seedAcceptedOrder(t *testing.T, fixture *routerFixture) {
	t.Helper()

	w, _ := doJSON(t, fixture.Engine, http.MethodPost, "/orders", map[string]interface{}{
		"restaurant_id": 1,
		"table_id":      7,
		"items": []map[string]interface{}{
			{"menu_item_id": 101, "quantity": 2},
			{"menu_item_id": 102, "quantity": 1},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = doJSON(t, fixture.Engine, http.MethodPost, "/orders/1/accept", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func itemStatus(t *testing.T, response map[string]interface{}, index int) string {
	t.Helper()
	data := response["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	return items[index].(map[string]interface{})["status"].(string)
}

func TestItemTransitionEndpoints(t *testing.T) {
	setupControllerTest(t)
	kitchen := newItemRouter("auth0|kitchen1", "kitchen")
	seedAcceptedOrder(t, kitchen)

	// queued -> preparing
	w, response := doJSON(t, kitchen.Engine, http.MethodPost, "/orders/1/items/1/start", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "preparing", itemStatus(t, response, 0))

	// preparing -> ready
	w, response = doJSON(t, kitchen.Engine, http.MethodPost, "/orders/1/items/1/ready", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", itemStatus(t, response, 0))

	// ready -> served
	w, response = doJSON(t, kitchen.Engine, http.MethodPost, "/orders/1/items/1/serve", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "served", itemStatus(t, response, 0))

	// served is terminal
	w, response = doJSON(t, kitchen.Engine, http.MethodPost, "/orders/1/items/1/cancel", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(response))

	// Unknown item
	w, response = doJSON(t, kitchen.Engine, http.MethodPost, "/orders/1/items/42/start", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(response))
}

func TestItemTransitionEndpoints_SkippingStatesRejected(t *testing.T) {
	setupControllerTest(t)
	kitchen := newItemRouter("auth0|kitchen1", "kitchen")
	seedAcceptedOrder(t, kitchen)

	// Serving a queued item skips preparing/ready
	w, response := doJSON(t, kitchen.Engine, http.MethodPost, "/orders/1/items/1/serve", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(response))

	errData := response["error"].(map[string]interface{})
	assert.Equal(t, "queued", errData["from"])
	assert.Equal(t, "served", errData["to"])
}

func TestBumpOrderEndpoint(t *testing.T) {
	setupControllerTest(t)
	kitchen := newItemRouter("auth0|kitchen1", "kitchen")
	seedAcceptedOrder(t, kitchen)

	// Ready both items
	for _, item := range []string{"1", "2"} {
		w, _ := doJSON(t, kitchen.Engine, http.MethodPost, "/orders/1/items/"+item+"/start", nil)
		require.Equal(t, http.StatusOK, w.Code)
		w, _ = doJSON(t, kitchen.Engine, http.MethodPost, "/orders/1/items/"+item+"/ready", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	// One bump clears the whole ticket
	w, response := doJSON(t, kitchen.Engine, http.MethodPost, "/orders/1/bump", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "served", itemStatus(t, response, 0))
	assert.Equal(t, "served", itemStatus(t, response, 1))

	// Bumping again is a harmless no-op
	w, _ = doJSON(t, kitchen.Engine, http.MethodPost, "/orders/1/bump", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
