package services

import (
	"fmt"
	"math"
	"sort"

	"tourism-dashboard-api/pkg/models"

	"gonum.org/v1/gonum/stat"
)

// Correlation 2つの系列のピアソン相関係数を計算します。結果は [-1, 1] に収まります。
func Correlation(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("correlation of %d and %d points: %w", len(a), len(b), ErrLengthMismatch)
	}
	if len(a) < 2 {
		return 0, fmt.Errorf("correlation needs at least 2 points, got %d: %w", len(a), ErrInsufficientData)
	}
	if stat.Variance(a, nil) == 0 || stat.Variance(b, nil) == 0 {
		return 0, fmt.Errorf("correlation of a constant series: %w", ErrInsufficientData)
	}

	r := stat.Correlation(a, b, nil)
	if math.IsNaN(r) {
		return 0, fmt.Errorf("correlation is undefined: %w", ErrInsufficientData)
	}
	return math.Max(-1, math.Min(1, r)), nil
}

// InterpretCorrelation 相関係数の強さと向きを判定
func InterpretCorrelation(r float64, sampleSize int) models.CorrelationInsight {
	strength := "weak"
	switch abs := math.Abs(r); {
	case abs > 0.7:
		strength = "strong"
	case abs > 0.4:
		strength = "moderate"
	}

	direction := "negative"
	if r > 0 {
		direction = "positive"
	}

	return models.CorrelationInsight{
		Coefficient: r,
		Strength:    strength,
		Direction:   direction,
		Summary:     fmt.Sprintf("The correlation coefficient of %.2f suggests a %s %s relationship", r, strength, direction),
		SampleSize:  sampleSize,
	}
}

// mergeYearTotals は同じ年の合計をまとめ、年の昇順に並べます。
func mergeYearTotals(totals []models.YearTotal) []models.YearTotal {
	byYear := make(map[int]int64, len(totals))
	for _, t := range totals {
		byYear[t.Year] += t.Visits
	}
	merged := make([]models.YearTotal, 0, len(byYear))
	for year, visits := range byYear {
		merged = append(merged, models.YearTotal{Year: year, Visits: visits})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Year < merged[j].Year })
	return merged
}

// YearOverYearGrowth 前年比の成長率（%）。最初の年は0%です。
// 前年合計が0の年は GrowthPct が nil（未定義）になります。
func YearOverYearGrowth(totals []models.YearTotal) ([]models.YearGrowth, error) {
	merged := mergeYearTotals(totals)
	if len(merged) < 2 {
		return nil, fmt.Errorf("year-over-year growth needs at least 2 years, got %d: %w", len(merged), ErrInsufficientData)
	}

	growth := make([]models.YearGrowth, len(merged))
	zero := 0.0
	growth[0] = models.YearGrowth{Year: merged[0].Year, Visits: merged[0].Visits, GrowthPct: &zero}

	for i := 1; i < len(merged); i++ {
		g := models.YearGrowth{Year: merged[i].Year, Visits: merged[i].Visits}
		if pct, err := percentChange(float64(merged[i-1].Visits), float64(merged[i].Visits)); err == nil {
			g.GrowthPct = &pct
		}
		growth[i] = g
	}
	return growth, nil
}

func percentChange(previous, current float64) (float64, error) {
	if previous == 0 {
		return 0, ErrDivisionByZero
	}
	return (current - previous) / previous * 100, nil
}

// PeakPeriods は (地域, 月) で集計した行から、地域ごとに訪問者が最大の月を選びます。
// 同値の場合は早い月を採用します。
func PeakPeriods(rows []models.AggregateRow) []models.PeakPeriod {
	byRegion := make(map[string][]models.AggregateRow)
	for _, row := range rows {
		byRegion[row.Key.Region] = append(byRegion[row.Key.Region], row)
	}

	regions := make([]string, 0, len(byRegion))
	for region := range byRegion {
		regions = append(regions, region)
	}
	sort.Strings(regions)

	peaks := make([]models.PeakPeriod, 0, len(regions))
	for _, region := range regions {
		group := byRegion[region]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Key.Month < group[j].Key.Month })

		best := group[0]
		for _, row := range group[1:] {
			if row.Visits > best.Visits {
				best = row
			}
		}
		peaks = append(peaks, models.PeakPeriod{
			Region:    region,
			Month:     best.Key.Month,
			MonthName: MonthName(best.Key.Month),
			Visits:    best.Visits,
		})
	}
	return peaks
}

// LinearForecast は年ごとの合計に最小二乗直線を当てはめ、最終年の翌年から horizon 年分を予測します。
func LinearForecast(totals []models.YearTotal, horizon int) (*models.ForecastResult, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("forecast horizon %d: %w", horizon, ErrInvalidRange)
	}
	merged := mergeYearTotals(totals)
	if len(merged) < 2 {
		return nil, fmt.Errorf("forecast needs at least 2 distinct years, got %d: %w", len(merged), ErrInsufficientData)
	}

	xs := make([]float64, len(merged))
	ys := make([]float64, len(merged))
	for i, t := range merged {
		xs[i] = float64(t.Year)
		ys[i] = float64(t.Visits)
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	rSquared := stat.RSquared(xs, ys, nil, intercept, slope)
	if math.IsNaN(rSquared) {
		// 全年同じ値なら水平線が完全に当てはまる
		rSquared = 1
	}
	trend := models.Trend{Slope: slope, Intercept: intercept, RSquared: rSquared}

	last := merged[len(merged)-1]
	forecast := make([]models.ForecastPoint, horizon)
	for i := 0; i < horizon; i++ {
		year := last.Year + i + 1
		p := models.ForecastPoint{Year: year, PredictedVisits: trend.Predict(year)}
		if pct, err := percentChange(float64(last.Visits), p.PredictedVisits); err == nil {
			p.ChangePct = &pct
		}
		forecast[i] = p
	}

	return &models.ForecastResult{Trend: trend, Actual: merged, Forecast: forecast}, nil
}

// FundingPerVisitor 訪問者1人あたりの予算
func FundingPerVisitor(visits, funding int64) (float64, error) {
	if visits == 0 {
		return 0, fmt.Errorf("funding per visitor with zero visits: %w", ErrDivisionByZero)
	}
	return float64(funding) / float64(visits), nil
}
