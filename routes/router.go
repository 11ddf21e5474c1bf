package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/bidmarket/checkin-service/config"
	"github.com/bidmarket/checkin-service/controllers"
	"github.com/bidmarket/checkin-service/middleware"
	"github.com/bidmarket/checkin-service/services"
	"github.com/bidmarket/checkin-service/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(svc *services.CheckinService) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())

	// Access and recovery logs go to their own rolling file, not the app log
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	checkinController := controllers.NewCheckinController(svc)

	api := r.Group("/api/v1")

	// Public reward policy, no identity needed
	api.GET("/checkin/rewards", checkinController.RewardTable)

	checkin := api.Group("/checkin")
	checkin.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	checkin.GET("/status", checkinController.Status)
	checkin.POST("/daily", checkinController.Daily)
	checkin.GET("/history", checkinController.History)
	checkin.GET("/statistics", checkinController.Statistics)
	checkin.GET("/calendar", checkinController.Calendar)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
