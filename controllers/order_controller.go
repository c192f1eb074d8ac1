package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/maribel-ponce/comanda-api/lifecycle"
	"github.com/maribel-ponce/comanda-api/middleware"
)

// CreateOrderRequest represents the request body for creating an order
type CreateOrderRequest struct {
	RestaurantID uint                     `json:"restaurant_id" binding:"required"`
	TableID      uint                     `json:"table_id" binding:"required"`
	GuestCount   int                      `json:"guest_count"`
	Note         string                   `json:"note"`
	Items        []lifecycle.NewItemInput `json:"items" binding:"required,min=1,dive"`
}

// CreateOrder handles POST /api/v1/orders - submits a new order for a table.
// If the table already has an active order the response is a 409 carrying
// enough data for a human to decide merge vs. reject.
func CreateOrder(c *gin.Context) {
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

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	result, err := engine.CreateOrder(c.Request.Context(), lifecycle.CreateOrderInput{
		RestaurantID: req.RestaurantID,
		TableID:      req.TableID,
		GuestCount:   req.GuestCount,
		Note:         req.Note,
		Items:        req.Items,
		Requester:    lifecycle.Requester{ID: userID, Role: role},
	})
	if err != nil {
		handleEngineError(c, err)
		return
	}

	if result.Confirmation != nil {
		c.JSON(http.StatusConflict, gin.H{
			"success":               false,
			"confirmation_required": true,
			"error": gin.H{
				"code":    "NEEDS_CONFIRMATION",
				"message": "An active order already exists for this table",
			},
			"data": result.Confirmation,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    result.Order,
	})
}

// ListOrders handles GET /api/v1/orders - the snapshot query clients poll
// to reconcile their local view.
func ListOrders(c *gin.Context) {
	restaurantID, ok := parseUintQuery(c, "restaurant_id")
	if !ok {
		return
	}

	var statuses []string
	if raw := c.Query("status"); raw != "" {
		statuses = strings.Split(raw, ",")
	}

	orders, err := engine.ListActiveOrders(c.Request.Context(), restaurantID, statuses)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// GetOrder handles GET /api/v1/orders/:id - fetches one ticket
func GetOrder(c *gin.Context) {
	orderID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	order, err := engine.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// AcceptOrderRequest represents the request body for accepting an order
type AcceptOrderRequest struct {
	MergeIntoOrderID *uint `json:"merge_into_order_id"`
}

// AcceptOrder handles POST /api/v1/orders/:id/accept - waiter accepts an
// awaiting order, optionally merging it into the table's existing order.
func AcceptOrder(c *gin.Context) {
	orderID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	waiterID, err := middleware.GetUserID(c)
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

	var req AcceptOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Invalid request data",
					"details": err.Error(),
				},
			})
			return
		}
	}

	result, err := engine.AcceptOrder(c.Request.Context(), orderID, waiterID, req.MergeIntoOrderID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	if result.Confirmation != nil {
		c.JSON(http.StatusConflict, gin.H{
			"success":               false,
			"confirmation_required": true,
			"error": gin.H{
				"code":    "NEEDS_CONFIRMATION",
				"message": "Another active order exists for this table",
			},
			"data": result.Confirmation,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Order,
	})
}

// RejectOrderRequest represents the request body for rejecting an order
type RejectOrderRequest struct {
	Reason *string `json:"reason"`
}

// RejectOrder handles POST /api/v1/orders/:id/reject
func RejectOrder(c *gin.Context) {
	orderID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	waiterID, err := middleware.GetUserID(c)
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

	var req RejectOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Invalid request data",
					"details": err.Error(),
				},
			})
			return
		}
	}

	order, err := engine.RejectOrder(c.Request.Context(), orderID, waiterID, req.Reason)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// CompleteOrderRequest is the inbound PaymentCompleted signal
type CompleteOrderRequest struct {
	Amount int64  `json:"amount"`
	Method string `json:"method" binding:"required,oneof=cash card e_wallet"`
}

// CompleteOrder handles POST /api/v1/orders/:id/complete
func CompleteOrder(c *gin.Context) {
	orderID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req CompleteOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	order, err := engine.CompleteOrder(c.Request.Context(), orderID, req.Amount, req.Method)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// BumpOrder handles POST /api/v1/orders/:id/bump - serves every ready item
// of the order in one kitchen-display action.
func BumpOrder(c *gin.Context) {
	orderID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	order, err := engine.BumpOrder(c.Request.Context(), orderID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// RequestBill handles POST /api/v1/orders/:id/request-bill
func RequestBill(c *gin.Context) {
	orderID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	order, err := engine.RequestBill(c.Request.Context(), orderID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// parseUintQuery parses a required unsigned query parameter
func parseUintQuery(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": name + " query parameter is required",
			},
		})
		return 0, false
	}

	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || value == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid " + name + " parameter",
			},
		})
		return 0, false
	}
	return uint(value), true
}
