package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bidmarket/checkin-service/config"
	"github.com/bidmarket/checkin-service/middleware"
	"github.com/bidmarket/checkin-service/services"
	"github.com/bidmarket/checkin-service/utils"
)

// CheckinController exposes the daily check-in endpoints. Input validation
// happens here, before any ledger access; domain failures from the service
// are translated into the uniform response codes.
type CheckinController struct {
	svc          *services.CheckinService
	minYear      int
	maxYear      int
	maxPageSize  int
	viewCacheTTL time.Duration
}

// NewCheckinController creates a new controller instance.
func NewCheckinController(svc *services.CheckinService) *CheckinController {
	cfg := config.Get()
	return &CheckinController{
		svc:          svc,
		minYear:      cfg.CalendarMinYear,
		maxYear:      cfg.CalendarMaxYear,
		maxPageSize:  cfg.MaxPageSize,
		viewCacheTTL: time.Duration(cfg.ViewCacheTTLSec) * time.Second,
	}
}

// Daily records today's check-in for the authenticated user.
func (c *CheckinController) Daily(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	result, err := c.svc.Checkin(ctx.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyCheckedIn) {
			utils.Error(ctx, http.StatusBadRequest, 40030, "already checked in today")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to record check-in")
		return
	}

	utils.InvalidateByPrefix(viewCachePrefix(userID))
	utils.SuccessMessage(ctx, "check-in successful", result)
}

// Status returns the live check-in view for the authenticated user.
func (c *CheckinController) Status(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	// keyed by calendar day so a rollover never serves yesterday's view
	key := fmt.Sprintf("%sstatus:%s", viewCachePrefix(userID), c.svc.Clock().Today().Format("2006-01-02"))
	if b, hit := utils.CacheGetBytes(key); hit {
		utils.Success(ctx, json.RawMessage(b))
		return
	}

	view, err := c.svc.Status(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load check-in status")
		return
	}

	utils.CacheSetJSON(key, view, c.viewCacheTTL)
	utils.Success(ctx, view)
}

// History returns a page of the user's check-in records, most recent first.
func (c *CheckinController) History(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	page, pageSize, ok := c.parsePagination(ctx)
	if !ok {
		return
	}

	result, err := c.svc.History(ctx.Request.Context(), userID, page, pageSize)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load check-in history")
		return
	}

	utils.Success(ctx, result)
}

// Statistics returns whole-ledger aggregates for the authenticated user.
func (c *CheckinController) Statistics(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	key := fmt.Sprintf("%sstats:%s", viewCachePrefix(userID), c.svc.Clock().Today().Format("2006-01-02"))
	if b, hit := utils.CacheGetBytes(key); hit {
		utils.Success(ctx, json.RawMessage(b))
		return
	}

	view, err := c.svc.Statistics(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to load check-in statistics")
		return
	}

	utils.CacheSetJSON(key, view, c.viewCacheTTL)
	utils.Success(ctx, view)
}

// Calendar returns the month view for the requested year and month.
func (c *CheckinController) Calendar(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	year, err := strconv.Atoi(ctx.Query("year"))
	if err != nil || year < c.minYear || year > c.maxYear {
		utils.Error(ctx, http.StatusBadRequest, 40032,
			fmt.Sprintf("year must be an integer between %d and %d", c.minYear, c.maxYear))
		return
	}
	month, err := strconv.Atoi(ctx.Query("month"))
	if err != nil || month < 1 || month > 12 {
		utils.Error(ctx, http.StatusBadRequest, 40032, "month must be an integer between 1 and 12")
		return
	}

	key := fmt.Sprintf("%scalendar:%04d-%02d", viewCachePrefix(userID), year, month)
	if b, hit := utils.CacheGetBytes(key); hit {
		utils.Success(ctx, json.RawMessage(b))
		return
	}

	view, err := c.svc.Calendar(ctx.Request.Context(), userID, year, month)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to load check-in calendar")
		return
	}

	utils.CacheSetJSON(key, view, c.viewCacheTTL)
	utils.Success(ctx, view)
}

// RewardTable echoes the configured reward policy so clients can render it.
func (c *CheckinController) RewardTable(ctx *gin.Context) {
	schedule := c.svc.Schedule()
	utils.Success(ctx, gin.H{
		"daily_points": schedule.DailyTable(),
		"milestones":   schedule.Milestones(),
	})
}

// parsePagination reads page/page_size with defaults, rejecting out-of-range
// values before the ledger is touched. Writes the error response itself.
func (c *CheckinController) parsePagination(ctx *gin.Context) (int, int, bool) {
	page := 1
	pageSize := 20

	if raw := ctx.Query("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 {
			utils.Error(ctx, http.StatusBadRequest, 40031, "page must be a positive integer")
			return 0, 0, false
		}
		page = p
	}
	if raw := ctx.Query("page_size"); raw != "" {
		s, err := strconv.Atoi(raw)
		if err != nil || s < 1 || s > c.maxPageSize {
			utils.Error(ctx, http.StatusBadRequest, 40031,
				fmt.Sprintf("page_size must be between 1 and %d", c.maxPageSize))
			return 0, 0, false
		}
		pageSize = s
	}
	return page, pageSize, true
}

func viewCachePrefix(userID uint) string {
	return fmt.Sprintf("checkin:view:%d:", userID)
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}
