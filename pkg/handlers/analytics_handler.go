package handlers

import (
	"fmt"
	"strings"

	"tourism-dashboard-api/pkg/models"
	"tourism-dashboard-api/pkg/services"

	"github.com/gin-gonic/gin"
)

const defaultTopN = 10

// AnalyticsHandler は個別の分析 API のハンドラです。
// どのエンドポイントも year, regions, months, entities で事前に絞り込めます。
type AnalyticsHandler struct {
	Sessions *services.SessionService
}

// NewAnalyticsHandler は新しいAnalyticsHandlerを生成します。
func NewAnalyticsHandler(sessions *services.SessionService) *AnalyticsHandler {
	return &AnalyticsHandler{Sessions: sessions}
}

// filtered はセッションのテーブルにクエリのフィルターを適用します。
func (h *AnalyticsHandler) filtered(c *gin.Context) ([]models.Record, error) {
	session, err := h.Sessions.Get(c.Param("id"))
	if err != nil {
		return nil, err
	}
	filter, err := parseFilter(c)
	if err != nil {
		return nil, err
	}
	return services.FilterRecords(session.Records, filter), nil
}

// singleYear は year を1つの年として解釈します。未指定なら最新の年です。
func (h *AnalyticsHandler) singleYear(c *gin.Context) ([]models.Record, int, error) {
	session, err := h.Sessions.Get(c.Param("id"))
	if err != nil {
		return nil, 0, err
	}
	filter, err := parseFilter(c)
	if err != nil {
		return nil, 0, err
	}
	year, err := queryInt(c, "year", 0)
	if err != nil {
		return nil, 0, err
	}
	year, err = services.ResolveYear(session.Records, year)
	if err != nil {
		return nil, 0, err
	}
	filter.Years = nil
	return services.FilterRecords(session.Records, filter), year, nil
}

// Group は by で指定した列ごとの合計を返します。
func (h *AnalyticsHandler) Group(c *gin.Context) {
	records, err := h.filtered(c)
	if err != nil {
		respondError(c, err)
		return
	}
	fields, err := services.ParseFields(c.DefaultQuery("by", "entity"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, services.GroupSum(records, fields...))
}

// Top は by の列で合計し、measure で並べた上位（order=asc なら下位）n 件を返します。
func (h *AnalyticsHandler) Top(c *gin.Context) {
	records, err := h.filtered(c)
	if err != nil {
		respondError(c, err)
		return
	}
	fields, err := services.ParseFields(c.DefaultQuery("by", "entity"))
	if err != nil {
		respondError(c, err)
		return
	}
	measure, err := services.ParseMeasure(c.Query("measure"))
	if err != nil {
		respondError(c, err)
		return
	}
	n, err := queryInt(c, "n", defaultTopN)
	if err != nil {
		respondError(c, err)
		return
	}

	var descending bool
	switch strings.ToLower(c.DefaultQuery("order", "desc")) {
	case "desc":
		descending = true
	case "asc":
		descending = false
	default:
		respondError(c, fmt.Errorf("order must be asc or desc: %w", services.ErrInvalidRange))
		return
	}
	if n < 1 {
		respondError(c, fmt.Errorf("n must be positive, got %d: %w", n, services.ErrInvalidRange))
		return
	}

	respondOK(c, services.TopN(services.GroupSum(records, fields...), measure, n, descending))
}

// Correlation は州ごとの訪問者数と予算の相関を返します。
func (h *AnalyticsHandler) Correlation(c *gin.Context) {
	records, err := h.filtered(c)
	if err != nil {
		respondError(c, err)
		return
	}
	insight, err := services.EntityCorrelation(records)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, insight)
}

// Growth は年ごとの前年比成長率を返します。
func (h *AnalyticsHandler) Growth(c *gin.Context) {
	records, err := h.filtered(c)
	if err != nil {
		respondError(c, err)
		return
	}
	growth, err := services.YearOverYearGrowth(services.YearlyTotals(records))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, growth)
}

// Peaks は指定年の地域ごとのピーク月を返します。
func (h *AnalyticsHandler) Peaks(c *gin.Context) {
	records, year, err := h.singleYear(c)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, services.SeasonalPeaks(records, year))
}

// Forecast は年合計の線形トレンドと horizon 年分の予測を返します。
func (h *AnalyticsHandler) Forecast(c *gin.Context) {
	records, err := h.filtered(c)
	if err != nil {
		respondError(c, err)
		return
	}
	horizon, err := queryInt(c, "horizon", 3)
	if err != nil {
		respondError(c, err)
		return
	}
	result, err := services.LinearForecast(services.YearlyTotals(records), horizon)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// FundingImpact は前年予算と当年の成長率の関係を返します。
func (h *AnalyticsHandler) FundingImpact(c *gin.Context) {
	records, year, err := h.singleYear(c)
	if err != nil {
		respondError(c, err)
		return
	}
	impact, err := services.FundingImpact(records, year)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, impact)
}

// FundingPerVisitor は by の列ごとの訪問者1人あたり予算を返します。
func (h *AnalyticsHandler) FundingPerVisitor(c *gin.Context) {
	records, err := h.filtered(c)
	if err != nil {
		respondError(c, err)
		return
	}
	field, err := services.ParseField(c.DefaultQuery("by", "entity"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, services.FundingPerVisitorBy(records, field))
}
