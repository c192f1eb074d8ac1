package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maribel-ponce/comanda-api/models"
)

// StartItem handles POST /api/v1/orders/:id/items/:itemId/start - kitchen
// begins preparing a queued item.
func StartItem(c *gin.Context) {
	transitionItemHandler(c, engine.StartItem)
}

// ReadyItem handles POST /api/v1/orders/:id/items/:itemId/ready
func ReadyItem(c *gin.Context) {
	transitionItemHandler(c, engine.ReadyItem)
}

// ServeItem handles POST /api/v1/orders/:id/items/:itemId/serve - serving a
// single ready item; never requires the rest of the order to be ready.
func ServeItem(c *gin.Context) {
	transitionItemHandler(c, engine.ServeItem)
}

// CancelItem handles POST /api/v1/orders/:id/items/:itemId/cancel
func CancelItem(c *gin.Context) {
	transitionItemHandler(c, engine.CancelItem)
}

// transitionItemHandler shares the parse/respond shape of the four item
// transition endpoints.
func transitionItemHandler(c *gin.Context, op func(ctx context.Context, orderID, itemID uint) (*models.Order, error)) {
	orderID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseUintParam(c, "itemId")
	if !ok {
		return
	}

	order, err := op(c.Request.Context(), orderID, itemID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}
