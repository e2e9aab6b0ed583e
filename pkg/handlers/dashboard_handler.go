package handlers

import (
	"tourism-dashboard-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// DashboardHandler はダッシュボード全体を組み立てて返します。
type DashboardHandler struct {
	Sessions   *services.SessionService
	Dashboards *services.DashboardService
}

// NewDashboardHandler は新しいDashboardHandlerを生成します。
func NewDashboardHandler(sessions *services.SessionService, dashboards *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		Sessions:   sessions,
		Dashboards: dashboards,
	}
}

// GetDashboard は year, regions, months, entity の選択でダッシュボードを計算します。
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	session, err := h.Sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	q, err := parseSelection(c)
	if err != nil {
		respondError(c, err)
		return
	}

	dashboard, err := h.Dashboards.Build(c.Request.Context(), session.Records, q)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, dashboard)
}
