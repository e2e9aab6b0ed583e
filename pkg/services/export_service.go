package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"tourism-dashboard-api/pkg/models"

	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary   = "Summary"
	sheetData      = "Data"
	sheetTopStates = "Top States"
	sheetGrowth    = "Yearly Growth"
	sheetForecast  = "Forecast"
)

// ReportSheets is the sheet order of the Excel report.
var ReportSheets = []string{sheetSummary, sheetData, sheetTopStates, sheetGrowth, sheetForecast}

// ExportService はテーブルを CSV と Excel レポートに書き出します。
type ExportService struct{}

// NewExportService は新しいExportServiceを生成します。
func NewExportService() *ExportService {
	return &ExportService{}
}

// ExportFileName は "india_tourism_data_2024.csv" のようなファイル名を返します。年が0なら "all" です。
func ExportFileName(kind string, year int, ext string) string {
	label := "all"
	if year != 0 {
		label = strconv.Itoa(year)
	}
	return fmt.Sprintf("india_tourism_%s_%s.%s", kind, label, ext)
}

// WriteCSV はヘッダー行つきの UTF-8 CSV を書き出します。
func (s *ExportService) WriteCSV(w io.Writer, records []models.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.RecordColumns); err != nil {
		return fmt.Errorf("CSVヘッダーの書き込みに失敗: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(recordFields(r)); err != nil {
			return fmt.Errorf("CSV行の書き込みに失敗: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func recordFields(r models.Record) []string {
	return []string{
		r.Entity,
		r.Activity,
		strconv.FormatInt(r.Visits, 10),
		strconv.Itoa(r.Month),
		strconv.Itoa(r.Year),
		r.Region,
		strconv.FormatInt(r.Funding, 10),
		strconv.FormatFloat(r.Latitude, 'f', -1, 64),
		strconv.FormatFloat(r.Longitude, 'f', -1, 64),
	}
}

// ReportInput Excel レポートの入力。Filtered は選択中の年・地域・月で絞り込んだ行です。
type ReportInput struct {
	All      []models.Record
	Filtered []models.Record
	Year     int
	Horizon  int
}

// BuildReport は Summary / Data / Top States / Yearly Growth / Forecast の5シートを持つ
// Excel ブックを書き出します。計算できないシートには理由を1行だけ記載します。
func (s *ExportService) BuildReport(w io.Writer, in ReportInput) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("シート名の設定に失敗: %w", err)
	}
	for _, name := range ReportSheets[1:] {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("シート %s の作成に失敗: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FF9933"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("スタイルの作成に失敗: %w", err)
	}

	steps := []func(*excelize.File, int, ReportInput) error{
		writeSummarySheet,
		writeDataSheet,
		writeTopStatesSheet,
		writeGrowthSheet,
		writeForecastSheet,
	}
	for _, step := range steps {
		if err := step(f, header, in); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("Excelファイルの書き込みに失敗: %w", err)
	}
	return nil
}

// writeRows は1行目をヘッダーとして A1 から行を書き込みます。
func writeRows(f *excelize.File, sheet string, header int, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s の書き込みに失敗: %w", sheet, err)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
		return err
	}
	lastCol, _, err := excelize.SplitCellName(last)
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 18)
}

func writeNote(f *excelize.File, sheet string, err error) error {
	return f.SetCellValue(sheet, "A1", fmt.Sprintf("Not available: %v", err))
}

func writeSummarySheet(f *excelize.File, header int, in ReportInput) error {
	m := KeyMetrics(in.Filtered)
	year := "all"
	if in.Year != 0 {
		year = strconv.Itoa(in.Year)
	}
	return writeRows(f, sheetSummary, header, [][]any{
		{"Metric", "Value"},
		{"Year", year},
		{"Total Tourist Visits", m.TotalVisits},
		{"States Covered", m.Entities},
		{"Art Forms", m.Activities},
		{"Total Funding (₹)", m.TotalFunding},
		{"Total Funding (₹ Cr)", m.TotalFundingCrore},
	})
}

func writeDataSheet(f *excelize.File, header int, in ReportInput) error {
	rows := make([][]any, 0, len(in.Filtered)+1)
	head := make([]any, len(models.RecordColumns))
	for i, c := range models.RecordColumns {
		head[i] = c
	}
	rows = append(rows, head)
	for _, r := range in.Filtered {
		rows = append(rows, []any{r.Entity, r.Activity, r.Visits, r.Month, r.Year, r.Region, r.Funding, r.Latitude, r.Longitude})
	}
	return writeRows(f, sheetData, header, rows)
}

func writeTopStatesSheet(f *excelize.File, header int, in ReportInput) error {
	top := TopN(GroupSum(in.Filtered, FieldEntity), MeasureVisits, defaultTopEntities, true)
	rows := [][]any{{"State", "Tourist Visits", "Funding (₹)"}}
	for _, row := range top {
		rows = append(rows, []any{row.Key.Entity, row.Visits, row.Funding})
	}
	if err := writeRows(f, sheetTopStates, header, rows); err != nil {
		return err
	}
	if len(top) == 0 {
		return nil
	}
	return f.AddChart(sheetTopStates, "E2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$B$1", sheetTopStates),
			Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", sheetTopStates, len(top)+1),
			Values:     fmt.Sprintf("'%s'!$B$2:$B$%d", sheetTopStates, len(top)+1),
		}},
	})
}

func writeGrowthSheet(f *excelize.File, header int, in ReportInput) error {
	growth, err := YearOverYearGrowth(YearlyTotals(in.All))
	if err != nil {
		if errors.Is(err, ErrInsufficientData) {
			return writeNote(f, sheetGrowth, err)
		}
		return err
	}

	rows := [][]any{{"Year", "Tourist Visits", "Growth (%)"}}
	for _, g := range growth {
		var pct any = "n/a"
		if g.GrowthPct != nil {
			pct = *g.GrowthPct
		}
		rows = append(rows, []any{g.Year, g.Visits, pct})
	}
	if err := writeRows(f, sheetGrowth, header, rows); err != nil {
		return err
	}
	return f.AddChart(sheetGrowth, "E2", &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$B$1", sheetGrowth),
			Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", sheetGrowth, len(growth)+1),
			Values:     fmt.Sprintf("'%s'!$B$2:$B$%d", sheetGrowth, len(growth)+1),
		}},
	})
}

func writeForecastSheet(f *excelize.File, header int, in ReportInput) error {
	horizon := in.Horizon
	if horizon == 0 {
		horizon = defaultHorizon
	}
	result, err := LinearForecast(YearlyTotals(in.All), horizon)
	if err != nil {
		if errors.Is(err, ErrInsufficientData) {
			return writeNote(f, sheetForecast, err)
		}
		return err
	}

	rows := [][]any{{"Year", "Tourist Visits", "Type"}}
	for _, a := range result.Actual {
		rows = append(rows, []any{a.Year, a.Visits, "Actual"})
	}
	for _, p := range result.Forecast {
		rows = append(rows, []any{p.Year, p.PredictedVisits, "Forecast"})
	}
	rows = append(rows,
		[]any{},
		[]any{"Slope", result.Trend.Slope},
		[]any{"Intercept", result.Trend.Intercept},
		[]any{"R²", result.Trend.RSquared},
	)
	if err := writeRows(f, sheetForecast, header, rows); err != nil {
		return err
	}

	points := len(result.Actual) + len(result.Forecast)
	return f.AddChart(sheetForecast, "E2", &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$B$1", sheetForecast),
			Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", sheetForecast, points+1),
			Values:     fmt.Sprintf("'%s'!$B$2:$B$%d", sheetForecast, points+1),
		}},
	})
}
