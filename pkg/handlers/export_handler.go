package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"tourism-dashboard-api/pkg/models"
	"tourism-dashboard-api/pkg/services"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler は CSV・Excel・PNG のダウンロードを扱います。
type ExportHandler struct {
	Sessions *services.SessionService
	Exports  *services.ExportService
	Charts   *services.ChartService
}

// NewExportHandler は新しいExportHandlerを生成します。
func NewExportHandler(sessions *services.SessionService, exports *services.ExportService, charts *services.ChartService) *ExportHandler {
	return &ExportHandler{
		Sessions: sessions,
		Exports:  exports,
		Charts:   charts,
	}
}

// attachment はファイルとして返します。書き込みに失敗した場合に備え、先にバッファへ出力しておくこと。
func attachment(c *gin.Context, contentType, filename string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, body)
}

// ExportCSV はフィルター済みのレコードを CSV で返します。
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	session, err := h.Sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.Exports.WriteCSV(&buf, services.FilterRecords(session.Records, filter)); err != nil {
		respondError(c, err)
		return
	}

	year := 0
	if len(filter.Years) == 1 {
		year = filter.Years[0]
	}
	attachment(c, "text/csv; charset=utf-8", services.ExportFileName("data", year, "csv"), buf.Bytes())
}

// ExportExcel は選択中の年・地域・月の Excel レポートを返します。
func (h *ExportHandler) ExportExcel(c *gin.Context) {
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
	year, err := services.ResolveYear(session.Records, q.Year)
	if err != nil {
		respondError(c, err)
		return
	}

	filtered := services.FilterRecords(session.Records, models.RecordFilter{
		Years:   []int{year},
		Regions: q.Regions,
		Months:  q.Months,
	})

	var buf bytes.Buffer
	err = h.Exports.BuildReport(&buf, services.ReportInput{
		All:      session.Records,
		Filtered: filtered,
		Year:     year,
		Horizon:  q.Horizon,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	attachment(c, xlsxContentType, services.ExportFileName("report", year, "xlsx"), buf.Bytes())
}

// Chart は :kind のグラフを PNG で返します。
func (h *ExportHandler) Chart(c *gin.Context) {
	session, err := h.Sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	kind, err := services.ParseChartKind(c.Param("kind"))
	if err != nil {
		respondError(c, err)
		return
	}
	q, err := parseSelection(c)
	if err != nil {
		respondError(c, err)
		return
	}
	n, err := queryInt(c, "n", 0)
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	err = h.Charts.Render(&buf, kind, session.Records, services.ChartQuery{
		Year:    q.Year,
		Regions: q.Regions,
		Months:  q.Months,
		Entity:  q.Entity,
		N:       n,
		Horizon: q.Horizon,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
