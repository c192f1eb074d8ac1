package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maribel-ponce/comanda-api/hub"
	"github.com/maribel-ponce/comanda-api/middleware"
)

// StreamEvents handles GET /api/v1/events/stream - the Server-Sent Events
// feed. The caller joins scopes derived from its role and query parameters
// and receives every lifecycle event published to them until it
// disconnects. Delivery is at-least-once and unordered-safe; clients
// reconcile through the snapshot poll.
func StreamEvents(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return
	}
	role, _ := middleware.GetRole(c)

	restaurantID, ok := parseUintQuery(c, "restaurant_id")
	if !ok {
		return
	}

	var scopes []hub.Scope
	switch role {
	case middleware.RoleWaiter:
		scopes = append(scopes, hub.RestaurantScope(restaurantID), hub.WaiterScope(userID))
	case middleware.RoleKitchen:
		scopes = append(scopes, hub.RestaurantScope(restaurantID), hub.KitchenScope(restaurantID))
	case middleware.RoleCustomer:
		tableID, ok := parseUintQuery(c, "table_id")
		if !ok {
			return
		}
		scopes = append(scopes, hub.TableScope(restaurantID, tableID))
	default:
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Unknown role for event stream",
			},
		})
		return
	}

	sub := eventHub.Subscribe(scopes...)
	defer eventHub.Unsubscribe(sub)

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, open := <-sub.C:
			if !open {
				return false
			}
			c.SSEvent(string(event.Type), event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
