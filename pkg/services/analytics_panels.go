package services

import (
	"fmt"

	"tourism-dashboard-api/pkg/models"

	"github.com/shopspring/decimal"
)

// rupeesPerCrore 1 crore = 10,000,000 ルピー
var rupeesPerCrore = decimal.NewFromInt(10_000_000)

// mapMaxMarkerSize 地図上のバブルの最大サイズ
const mapMaxMarkerSize = 30.0

// ToCrore はルピー金額を crore 単位の文字列（小数2桁）に変換します。
func ToCrore(rupees int64) string {
	return decimal.NewFromInt(rupees).Div(rupeesPerCrore).StringFixed(2)
}

// KeyMetrics 主要指標（訪問者合計、州の数、芸術形式の数、予算合計）
func KeyMetrics(records []models.Record) models.KeyMetrics {
	entities := make(map[string]bool)
	activities := make(map[string]bool)
	var visits, funding int64
	for _, r := range records {
		visits += r.Visits
		funding += r.Funding
		entities[r.Entity] = true
		activities[r.Activity] = true
	}
	return models.KeyMetrics{
		TotalVisits:       visits,
		Entities:          len(entities),
		Activities:        len(activities),
		TotalFunding:      funding,
		TotalFundingCrore: ToCrore(funding),
	}
}

// MapPoints 州ごとの訪問者数を地図用のバブルに変換します。
// サイズは最大値を30とした比率です。
func MapPoints(records []models.Record) []models.MapPoint {
	rows := GroupSum(records, FieldEntity, FieldCoordinates)

	var max int64
	for _, row := range rows {
		if row.Visits > max {
			max = row.Visits
		}
	}

	points := make([]models.MapPoint, len(rows))
	for i, row := range rows {
		size := 0.0
		if max > 0 {
			size = float64(row.Visits) / float64(max) * mapMaxMarkerSize
		}
		points[i] = models.MapPoint{
			Entity:    row.Key.Entity,
			Latitude:  row.Key.Latitude,
			Longitude: row.Key.Longitude,
			Visits:    row.Visits,
			Size:      size,
		}
	}
	return points
}

// ratioRow 1人あたり予算が未定義（訪問者0）の場合は nil のまま
func ratioRow(name string, row models.AggregateRow) models.RatioRow {
	out := models.RatioRow{Name: name, Visits: row.Visits, Funding: row.Funding}
	if v, err := FundingPerVisitor(row.Visits, row.Funding); err == nil {
		out.FundingPerVisitor = &v
	}
	return out
}

// FundingPerVisitorBy は指定した列でグループ化し、各グループの1人あたり予算を返します。
func FundingPerVisitorBy(records []models.Record, field Field) []models.RatioRow {
	rows := GroupSum(records, field)
	out := make([]models.RatioRow, len(rows))
	for i, row := range rows {
		out[i] = ratioRow(keyLabel(row.Key, field), row)
	}
	return out
}

func keyLabel(k models.GroupKey, field Field) string {
	switch field {
	case FieldEntity:
		return k.Entity
	case FieldActivity:
		return k.Activity
	case FieldRegion:
		return k.Region
	case FieldMonth:
		return MonthName(k.Month)
	case FieldYear:
		return fmt.Sprintf("%d", k.Year)
	case FieldCoordinates:
		return fmt.Sprintf("%.4f,%.4f", k.Latitude, k.Longitude)
	}
	return ""
}

// ActivityShowcase 訪問者の多い芸術形式の上位 n 件と、その1人あたり予算
func ActivityShowcase(records []models.Record, n int) []models.RatioRow {
	top := TopN(GroupSum(records, FieldActivity), MeasureVisits, n, true)
	out := make([]models.RatioRow, len(top))
	for i, row := range top {
		out[i] = ratioRow(row.Key.Activity, row)
	}
	return out
}

// YearlyByRegion 年×地域の訪問者合計
func YearlyByRegion(records []models.Record) []models.SeriesPoint {
	rows := GroupSum(records, FieldYear, FieldRegion)
	out := make([]models.SeriesPoint, len(rows))
	for i, row := range rows {
		out[i] = models.SeriesPoint{Series: row.Key.Region, Period: row.Key.Year, Visits: row.Visits}
	}
	return out
}

// MonthlyByRegion 指定年の月×地域の訪問者合計
func MonthlyByRegion(records []models.Record, year int) []models.SeriesPoint {
	rows := GroupSum(FilterRecords(records, models.RecordFilter{Years: []int{year}}), FieldMonth, FieldRegion)
	out := make([]models.SeriesPoint, len(rows))
	for i, row := range rows {
		out[i] = models.SeriesPoint{Series: row.Key.Region, Period: row.Key.Month, Visits: row.Visits}
	}
	return out
}

// SeasonalPeaks 指定年の地域ごとのピーク月
func SeasonalPeaks(records []models.Record, year int) []models.PeakPeriod {
	rows := GroupSum(FilterRecords(records, models.RecordFilter{Years: []int{year}}), FieldRegion, FieldMonth)
	return PeakPeriods(rows)
}

// MonthlyTrend 州・年の月次推移（月の昇順）
func MonthlyTrend(records []models.Record, entity string, year int) []models.MonthlyPoint {
	subset := FilterRecords(records, models.RecordFilter{Years: []int{year}, Entities: []string{entity}})
	rows := GroupSum(subset, FieldMonth)
	out := make([]models.MonthlyPoint, len(rows))
	for i, row := range rows {
		out[i] = models.MonthlyPoint{Month: row.Key.Month, MonthName: MonthName(row.Key.Month), Visits: row.Visits}
	}
	return out
}

// EntityCorrelation 州ごとの訪問者合計と予算合計の相関
func EntityCorrelation(records []models.Record) (*models.CorrelationInsight, error) {
	rows := GroupSum(records, FieldEntity)
	visits := make([]float64, len(rows))
	funding := make([]float64, len(rows))
	for i, row := range rows {
		visits[i] = float64(row.Visits)
		funding[i] = float64(row.Funding)
	}

	r, err := Correlation(visits, funding)
	if err != nil {
		return nil, err
	}
	insight := InterpretCorrelation(r, len(rows))
	return &insight, nil
}

// BuildEntityDetail は州ごとの詳細（芸術形式の内訳、月次推移、同じ地域内の比較）を作成します。
// 芸術形式と地域比較はフィルター後のデータ、月次推移はフィルター前のデータを使います。
func BuildEntityDetail(all, filtered []models.Record, entity string, year int) (*models.EntityDetail, error) {
	region := ""
	regionEntities := make(map[string]bool)
	for _, r := range all {
		if r.Entity == entity && region == "" {
			region = r.Region
		}
	}
	if region == "" {
		return nil, fmt.Errorf("no data for %s: %w", entity, ErrInsufficientData)
	}
	for _, r := range all {
		if r.Region == region {
			regionEntities[r.Entity] = true
		}
	}

	own := FilterRecords(filtered, models.RecordFilter{Entities: []string{entity}})
	if len(own) == 0 {
		return nil, fmt.Errorf("no data for %s with the current filters: %w", entity, ErrInsufficientData)
	}

	detail := &models.EntityDetail{
		Entity:       entity,
		Region:       region,
		Year:         year,
		Activities:   FundingPerVisitorBy(own, FieldActivity),
		MonthlyTrend: MonthlyTrend(all, entity, year),
	}

	var peers []models.Record
	for _, r := range filtered {
		if regionEntities[r.Entity] {
			peers = append(peers, r)
		}
	}
	detail.RegionalComparison = FundingPerVisitorBy(peers, FieldEntity)
	return detail, nil
}

// FundingImpact は前年の1人あたり予算と、翌年の訪問者成長率の関係を分析します。
// 両方の年にデータがある州だけを対象とし、前年の訪問者が0の州は除外して数えます。
func FundingImpact(records []models.Record, year int) (*models.FundingImpact, error) {
	prevYear := year - 1
	current := GroupSum(FilterRecords(records, models.RecordFilter{Years: []int{year}}), FieldEntity)
	previous := GroupSum(FilterRecords(records, models.RecordFilter{Years: []int{prevYear}}), FieldEntity)
	if len(current) == 0 || len(previous) == 0 {
		return nil, fmt.Errorf("cannot compare %d and %d: %w", prevYear, year, ErrInsufficientData)
	}

	prevByEntity := make(map[string]models.AggregateRow, len(previous))
	for _, row := range previous {
		prevByEntity[row.Key.Entity] = row
	}

	result := &models.FundingImpact{PreviousYear: prevYear, Year: year, Rows: []models.FundingImpactRow{}}
	var perVisitor, growth []float64
	for _, cur := range current {
		prev, ok := prevByEntity[cur.Key.Entity]
		if !ok {
			continue
		}
		fpv, err := FundingPerVisitor(prev.Visits, prev.Funding)
		if err != nil {
			result.Skipped++
			continue
		}
		pct, _ := percentChange(float64(prev.Visits), float64(cur.Visits))
		result.Rows = append(result.Rows, models.FundingImpactRow{
			Entity:                cur.Key.Entity,
			PrevVisits:            prev.Visits,
			CurrentVisits:         cur.Visits,
			PrevFundingPerVisitor: fpv,
			VisitGrowthPct:        pct,
		})
		perVisitor = append(perVisitor, fpv)
		growth = append(growth, pct)
	}

	if r, err := Correlation(perVisitor, growth); err == nil {
		insight := InterpretCorrelation(r, len(perVisitor))
		result.Correlation = &insight
	}
	return result, nil
}
