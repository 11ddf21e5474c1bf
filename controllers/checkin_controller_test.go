package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bidmarket/checkin-service/middleware"
	"github.com/bidmarket/checkin-service/models"
	"github.com/bidmarket/checkin-service/services"
	"github.com/bidmarket/checkin-service/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "controller-test-secret")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.CheckinRecord{}))

	schedule, err := services.NewRewardSchedule(
		[]int{5, 10, 15, 20, 25, 30, 40},
		[]int{7, 15, 30, 60, 100, 365},
		[]int{50, 100, 200, 500, 1000, 5000},
	)
	require.NoError(t, err)
	svc := services.NewCheckinService(db, services.NewDayClock(0, nil), schedule)

	r := gin.New()
	controller := NewCheckinController(svc)
	r.GET("/api/v1/checkin/rewards", controller.RewardTable)
	grp := r.Group("/api/v1/checkin")
	grp.Use(middleware.AuthRequired())
	grp.GET("/status", controller.Status)
	grp.POST("/daily", controller.Daily)
	grp.GET("/history", controller.History)
	grp.GET("/statistics", controller.Statistics)
	grp.GET("/calendar", controller.Calendar)
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path, token string) (*httptest.ResponseRecorder, utils.JSONResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body utils.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func mintToken(t *testing.T, userID uint) string {
	t.Helper()
	token, err := utils.GenerateToken(userID, "bidder", time.Hour)
	require.NoError(t, err)
	return token
}

func TestAuthRequired(t *testing.T) {
	r := newTestRouter(t)

	w, body := doRequest(t, r, http.MethodGet, "/api/v1/checkin/status", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40101, body.Code)

	w, body = doRequest(t, r, http.MethodGet, "/api/v1/checkin/status", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40105, body.Code)
}

func TestHistoryPaginationBounds(t *testing.T) {
	r := newTestRouter(t)
	token := mintToken(t, 7)

	for _, q := range []string{
		"page_size=101",
		"page_size=0",
		"page_size=abc",
		"page=0",
		"page=-2",
	} {
		w, body := doRequest(t, r, http.MethodGet, "/api/v1/checkin/history?"+q, token)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Equal(t, 40031, body.Code, q)
	}

	w, body := doRequest(t, r, http.MethodGet, "/api/v1/checkin/history?page=1&page_size=100", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, body.Code)
}

func TestCalendarBounds(t *testing.T) {
	r := newTestRouter(t)
	token := mintToken(t, 7)

	for _, q := range []string{
		"year=2026&month=13",
		"year=2026&month=0",
		"year=1999&month=5",
		"year=3000&month=5",
		"month=5",
		"year=2026",
	} {
		w, body := doRequest(t, r, http.MethodGet, "/api/v1/checkin/calendar?"+q, token)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Equal(t, 40032, body.Code, q)
	}

	w, body := doRequest(t, r, http.MethodGet, "/api/v1/checkin/calendar?year=2026&month=5", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, body.Code)
}

func TestDailyCheckinOncePerDay(t *testing.T) {
	r := newTestRouter(t)
	token := mintToken(t, 42)

	w, body := doRequest(t, r, http.MethodPost, "/api/v1/checkin/daily", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, body.Code)
	assert.Equal(t, "check-in successful", body.Message)

	w, body = doRequest(t, r, http.MethodPost, "/api/v1/checkin/daily", token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40030, body.Code)
}

func TestRewardTableIsPublic(t *testing.T) {
	r := newTestRouter(t)

	w, body := doRequest(t, r, http.MethodGet, "/api/v1/checkin/rewards", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, body.Code)

	data, err := json.Marshal(body.Data)
	require.NoError(t, err)
	var payload struct {
		DailyPoints []int                      `json:"daily_points"`
		Milestones  []services.MilestoneReward `json:"milestones"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Len(t, payload.DailyPoints, 7)
	require.Len(t, payload.Milestones, 6)
	assert.Equal(t, 7, payload.Milestones[0].Days)
}
