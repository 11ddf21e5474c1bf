package main

import (
	"github.com/bidmarket/checkin-service/config"
	"github.com/bidmarket/checkin-service/models"
	"github.com/bidmarket/checkin-service/routes"
	"github.com/bidmarket/checkin-service/services"
	"github.com/bidmarket/checkin-service/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.CheckinRecord{})

	schedule, err := services.NewRewardSchedule(cfg.DailyRewardPoints, cfg.MilestoneDays, cfg.MilestonePoints)
	if err != nil {
		utils.Sugar.Fatalf("invalid reward schedule configuration: %v", err)
	}
	clock := services.NewDayClock(cfg.DayBoundaryUTCOffsetMin, nil)
	svc := services.NewCheckinService(db, clock, schedule)

	r := routes.SetupRouter(svc)

	utils.Sugar.Infof("Starting check-in service on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
