package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/foodcafeshop/food-cafe/config"
	"github.com/foodcafeshop/food-cafe/database"
	"github.com/foodcafeshop/food-cafe/models"
	"github.com/foodcafeshop/food-cafe/realtime"
	"github.com/foodcafeshop/food-cafe/router"
	"github.com/foodcafeshop/food-cafe/services"
	"github.com/foodcafeshop/food-cafe/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const shopID uint = 1

type apiResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	deps   *router.Deps
}

// setupTestDB menggunakan SQLite in-memory, satu koneksi per test
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(database.Models()...))
	return db
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.InitLogger()

	db := setupTestDB(t)
	defaults := config.Default().Defaults
	defaults.Currency = "USD"
	defaults.TaxRate = 10

	deps := router.NewDeps(db, realtime.NewHub(), services.NewSettingsProvider(db, defaults))
	deps.JoinRatePerMinute = 1000
	return &testServer{t: t, db: db, router: router.SetupRouter(deps), deps: deps}
}

func (s *testServer) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func decode(t *testing.T, raw json.RawMessage, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, out), string(raw))
}

// token membuat user langsung di DB lalu menerbitkan JWT untuknya
func (s *testServer) token(role string) string {
	s.t.Helper()
	var n int64
	s.db.Model(&models.User{}).Count(&n)
	user := models.User{
		ShopID:   shopID,
		Name:     role,
		Email:    fmt.Sprintf("%s%d@cafe.test", role, n),
		Password: "x",
		Role:     role,
	}
	require.NoError(s.t, s.db.Create(&user).Error)
	token, err := utils.GenerateToken(user.ID, user.ShopID, user.Role)
	require.NoError(s.t, err)
	return token
}

func (s *testServer) menuItem(name string, price float64, available bool) models.MenuItem {
	s.t.Helper()
	item := models.MenuItem{ShopID: shopID, Name: name, Price: price, IsAvailable: available}
	require.NoError(s.t, s.db.Create(&item).Error)
	return item
}

// createTable membuat meja lewat API dan mengembalikan id + OTP
func (s *testServer) createTable(token, label string) (uint, string) {
	s.t.Helper()
	w, resp := s.do(http.MethodPost, "/admin/tables", token, gin.H{"label": label, "seats": 4})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var table struct {
		ID  uint   `json:"id"`
		OTP string `json:"otp"`
	}
	decode(s.t, resp.Data, &table)
	return table.ID, table.OTP
}
