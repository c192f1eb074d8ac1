package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/maribel-ponce/comanda-api/hub"
	"github.com/maribel-ponce/comanda-api/lifecycle"
)

var (
	engine   *lifecycle.Engine
	eventHub *hub.Hub
)

// Init wires the controllers to the lifecycle engine and broadcast hub.
// Tests call this with per-test instances.
func Init(e *lifecycle.Engine, h *hub.Hub) {
	engine = e
	eventHub = h
}

// parseUintParam parses a URL path parameter as an unsigned id
func parseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
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

// handleEngineError maps the engine's typed failures onto the response
// envelope. Every failure surfaces synchronously with its typed reason.
func handleEngineError(c *gin.Context, err error) {
	var notFound *lifecycle.NotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": notFound.Error(),
			},
		})
		return
	}

	var invalid *lifecycle.InvalidTransitionError
	if errors.As(err, &invalid) {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_TRANSITION",
				"message": invalid.Error(),
				"from":    invalid.From,
				"to":      invalid.To,
			},
		})
		return
	}

	var mismatch *lifecycle.CatalogMismatchError
	if errors.As(err, &mismatch) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CATALOG_MISMATCH",
				"message": mismatch.Error(),
			},
		})
		return
	}

	var timeout *lifecycle.TimeoutError
	if errors.As(err, &timeout) {
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "TIMEOUT",
				"message": timeout.Error(),
			},
		})
		return
	}

	var invariant *lifecycle.InvariantViolationError
	if errors.As(err, &invariant) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVARIANT_VIOLATION",
				"message": invariant.Error(),
			},
		})
		return
	}

	log.Printf("Unexpected engine error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "An unexpected error occurred",
		},
	})
}
