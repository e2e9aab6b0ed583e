package handlers

import (
	"net/http"

	"tourism-dashboard-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// MonitoringHandler はリクエストログの集計を返します。
type MonitoringHandler struct {
	Service *services.MonitoringService
}

// NewMonitoringHandler は新しいMonitoringHandlerを生成します。
func NewMonitoringHandler(service *services.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{
		Service: service,
	}
}

// GetLogs は period（1h, 24h, 7d）の範囲で集計したログを返します。
func (h *MonitoringHandler) GetLogs(c *gin.Context) {
	hours, err := services.ParsePeriod(c.Query("period"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.Service.GetDashboardData(hours))
}
