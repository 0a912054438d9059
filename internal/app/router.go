package app

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sma-timetable-sync/api/swagger"
	"github.com/noah-isme/sma-timetable-sync/internal/handler"
	"github.com/noah-isme/sma-timetable-sync/internal/middleware"
	"github.com/noah-isme/sma-timetable-sync/internal/service"
	"github.com/noah-isme/sma-timetable-sync/pkg/config"
	"github.com/noah-isme/sma-timetable-sync/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-sync/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-sync/pkg/middleware/requestid"
)

// Router builds the gin engine with every route mounted.
func (a *App) Router() *gin.Engine {
	if a.Config.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(a.Logger))
	r.Use(corsmiddleware.New(a.Config.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(a.Metrics, "/metrics", "/health", "/ready"))

	ops := handler.NewMetricsHandler(a.Metrics, a.Schedules)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	if a.Metrics != nil {
		r.GET("/metrics", ops.Prometheus)
	}
	if a.Config.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	schedules := handler.NewScheduleHandler(a.Sync, a.Schedules, service.NewValidator())
	personnel := handler.NewPersonnelHandler(a.Personnel, a.Sync)

	api := r.Group(a.Config.APIPrefix)
	api.POST("/schedule-entries", schedules.CreateEntry)
	api.PUT("/schedule-entries/:id", schedules.UpdateEntry)
	api.DELETE("/schedule-entries/:id", schedules.DeleteEntry)
	api.DELETE("/schedules", schedules.ClearAll)

	api.GET("/personnel-schedules", schedules.ListPersonnelSchedules)
	api.GET("/personnel-schedules/:code", schedules.GetPersonnelSchedule)
	api.GET("/personnel-schedules/:code/conflicts", schedules.PersonnelConflicts)
	api.GET("/class-schedules", schedules.ListClassSchedules)
	api.GET("/class-schedules/:grade/:classNumber/:field", schedules.GetClassSchedule)
	api.GET("/conflicts", schedules.ConflictReport)
	api.GET("/level", schedules.Level)

	api.GET("/personnel", personnel.Search)
	api.GET("/personnel/:code", personnel.Get)
	api.POST("/personnel", personnel.Register)

	return r
}
