package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/maribel-ponce/comanda-api/config"
	"github.com/maribel-ponce/comanda-api/hub"
	"github.com/maribel-ponce/comanda-api/lifecycle"
	"github.com/maribel-ponce/comanda-api/models"
	"github.com/maribel-ponce/comanda-api/services"
)

func setupControllerTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Order{},
		&models.OrderItem{},
		&models.OrderItemModifier{},
		&models.Payment{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// setupControllerTest wires a fresh database, mock catalog, hub and engine
// and returns the hub for event assertions.
func setupControllerTest(t *testing.T) *hub.Hub {
	t.Helper()

	db := setupControllerTestDB(t)
	config.SetDB(db)

	catalog := services.NewMockCatalogService()
	catalog.AddItem(services.CatalogItem{ID: 101, Name: "Nasi Goreng", BasePrice: 50000, Available: true})
	catalog.AddItem(services.CatalogItem{ID: 102, Name: "Es Teh", BasePrice: 30000, Available: true})
	catalog.SetAsMockForTesting()

	eventHub := hub.NewHub()
	Init(lifecycle.NewEngine(db, catalog, eventHub), eventHub)
	return eventHub
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router
}

// mockAuthMiddleware simulates the JWT middleware for testing. It sets up
// the context exactly as the real EnsureValidToken middleware does.
func mockAuthMiddleware(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("user_role", role)
		c.Next()
	}
}

// doJSON performs a JSON request against the router and parses the response
func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Response is not valid JSON: %v", err)
		}
	}
	return w, response
}

// errorCode extracts error.code from a response envelope
func errorCode(response map[string]interface{}) string {
	errData, ok := response["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := errData["code"].(string)
	return code
}
