package handlers

import (
	"fmt"
	"log"
	"net/http"

	config "tourism-dashboard-api/configs"
	"tourism-dashboard-api/pkg/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Dependencies はルーターが使うサービスの集まりです。
type Dependencies struct {
	Reference   *services.ReferenceData
	DataSources *services.DataSourceService
	Sessions    *services.SessionService
	Dashboards  *services.DashboardService
	Exports     *services.ExportService
	Charts      *services.ChartService
	Monitoring  *services.MonitoringService
}

// NewDependencies は設定からサービスを初期化します。
// REFERENCE_DATA_FILE が指定されていればその参照テーブルを使います。
func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	ref := services.DefaultReferenceData()
	if cfg.ReferenceDataFile != "" {
		file, err := config.LoadReferenceFile(cfg.ReferenceDataFile)
		if err != nil {
			return nil, err
		}
		ref, err = services.ReferenceDataFromFile(file)
		if err != nil {
			return nil, fmt.Errorf("参照テーブル %s が不正です: %w", cfg.ReferenceDataFile, err)
		}
		log.Printf("✅ Reference tables loaded from %s (%d entities)", cfg.ReferenceDataFile, len(ref.Entities))
	}

	generator := services.NewDatasetGenerator(ref)
	return &Dependencies{
		Reference:   ref,
		DataSources: services.NewDataSourceService(cfg, generator, nil, services.DefaultDataSourceSettings()),
		Sessions:    services.NewSessionService(cfg.SessionTTL),
		Dashboards:  services.NewDashboardService(),
		Exports:     services.NewExportService(),
		Charts:      services.NewChartService(),
		Monitoring:  services.NewMonitoringService(),
	}, nil
}

// authMiddleware は API_KEY が設定されている場合に X-API-KEY ヘッダーを検証します。
// 未設定またはプレースホルダー値のままなら認証しません。
func authMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" || apiKey == "default_secret_key" {
			c.Next()
			return
		}
		if c.GetHeader("X-API-KEY") != apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// NewRouter は cmd/server と api/index.go で共有する Gin エンジンを組み立てます。
func NewRouter(cfg *config.Config, deps *Dependencies) *gin.Engine {
	r := gin.Default()

	sessionHandler := NewSessionHandler(deps.DataSources, deps.Sessions)
	dashboardHandler := NewDashboardHandler(deps.Sessions, deps.Dashboards)
	analyticsHandler := NewAnalyticsHandler(deps.Sessions)
	exportHandler := NewExportHandler(deps.Sessions, deps.Exports, deps.Charts)
	referenceHandler := NewReferenceHandler(deps.Reference)
	adminHandler := NewAdminHandler(cfg, deps.Sessions, deps.DataSources)
	monitoringHandler := NewMonitoringHandler(deps.Monitoring)

	r.Use(deps.Monitoring.LoggingMiddleware())
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "X-API-KEY")
	corsConfig.ExposeHeaders = []string{"Content-Disposition"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", adminHandler.HealthCheck)

	v1 := r.Group("/api/v1")
	v1.Use(authMiddleware(cfg.APIKey))
	{
		reference := v1.Group("/reference")
		{
			reference.GET("/entities", referenceHandler.GetEntities)
			reference.GET("/regions", referenceHandler.GetRegions)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", sessionHandler.CreateSession)
			sessions.GET("", sessionHandler.ListSessions)
			sessions.GET("/:id", sessionHandler.GetSession)
			sessions.DELETE("/:id", sessionHandler.DeleteSession)
			sessions.GET("/:id/records", sessionHandler.GetRecords)
			sessions.GET("/:id/dashboard", dashboardHandler.GetDashboard)

			analytics := sessions.Group("/:id/analytics")
			{
				analytics.GET("/group", analyticsHandler.Group)
				analytics.GET("/top", analyticsHandler.Top)
				analytics.GET("/correlation", analyticsHandler.Correlation)
				analytics.GET("/growth", analyticsHandler.Growth)
				analytics.GET("/peaks", analyticsHandler.Peaks)
				analytics.GET("/forecast", analyticsHandler.Forecast)
				analytics.GET("/funding-impact", analyticsHandler.FundingImpact)
				analytics.GET("/funding-per-visitor", analyticsHandler.FundingPerVisitor)
			}

			sessions.GET("/:id/export/csv", exportHandler.ExportCSV)
			sessions.GET("/:id/export/excel", exportHandler.ExportExcel)
			sessions.GET("/:id/charts/:kind", exportHandler.Chart)
		}

		// 管理者向けAPI
		admin := v1.Group("/admin")
		{
			admin.GET("/health-status", adminHandler.GetHealthStatus)
			admin.POST("/maintenance/start", adminHandler.StartMaintenance)
			admin.POST("/maintenance/stop", adminHandler.StopMaintenance)
		}

		monitoring := v1.Group("/monitoring")
		{
			monitoring.GET("/logs", monitoringHandler.GetLogs)
		}
	}

	return r
}
