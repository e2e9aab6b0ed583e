package services

import (
	"errors"
	"testing"

	"tourism-dashboard-api/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleRecords 小さな手書きのテーブル
func sampleRecords() []models.Record {
	return []models.Record{
		{Entity: "Kerala", Activity: "Kathakali", Visits: 100, Month: 1, Year: 2023, Region: "South", Funding: 150, Latitude: 10.85, Longitude: 76.27},
		{Entity: "Kerala", Activity: "Mohiniyattam", Visits: 300, Month: 2, Year: 2023, Region: "South", Funding: 200, Latitude: 10.85, Longitude: 76.27},
		{Entity: "Goa", Activity: "Fugdi Dance", Visits: 50, Month: 1, Year: 2023, Region: "West", Funding: 40, Latitude: 15.30, Longitude: 74.12},
		{Entity: "Goa", Activity: "Fugdi Dance", Visits: 70, Month: 2, Year: 2023, Region: "West", Funding: 90, Latitude: 15.30, Longitude: 74.12},
		{Entity: "Kerala", Activity: "Kathakali", Visits: 200, Month: 1, Year: 2024, Region: "South", Funding: 260, Latitude: 10.85, Longitude: 76.27},
		{Entity: "Kerala", Activity: "Kathakali", Visits: 400, Month: 2, Year: 2024, Region: "South", Funding: 380, Latitude: 10.85, Longitude: 76.27},
		{Entity: "Goa", Activity: "Dekni Dance", Visits: 90, Month: 1, Year: 2024, Region: "West", Funding: 95, Latitude: 15.30, Longitude: 74.12},
		{Entity: "Goa", Activity: "Goan Lacework", Visits: 90, Month: 2, Year: 2024, Region: "West", Funding: 70, Latitude: 15.30, Longitude: 74.12},
		{Entity: "Tamil Nadu", Activity: "Bharatanatyam", Visits: 0, Month: 1, Year: 2023, Region: "South", Funding: 0, Latitude: 11.13, Longitude: 78.66},
		{Entity: "Tamil Nadu", Activity: "Bharatanatyam", Visits: 500, Month: 1, Year: 2024, Region: "South", Funding: 450, Latitude: 11.13, Longitude: 78.66},
	}
}

func sumVisits(records []models.Record) int64 {
	var total int64
	for _, r := range records {
		total += r.Visits
	}
	return total
}

func TestGroupSumPartitionLaw(t *testing.T) {
	records := sampleRecords()
	gen := NewDatasetGenerator(nil)
	result, err := gen.Generate(GenerateOptions{StartYear: 2022, EndYear: 2024, Seed: seedPtr(11)})
	require.NoError(t, err)

	filters := []models.RecordFilter{
		{},
		{Years: []int{2024}},
		{Regions: []string{"North", "Northeast"}, Months: []int{11, 12}},
	}
	for _, f := range filters {
		subset := FilterRecords(result.Records, f)
		var grouped int64
		for _, row := range GroupSum(subset, FieldEntity) {
			grouped += row.Visits
		}
		assert.Equal(t, sumVisits(subset), grouped)
	}

	var total int64
	for _, row := range GroupSum(records, FieldEntity, FieldYear) {
		total += row.Visits
	}
	assert.Equal(t, sumVisits(records), total)
}

func TestGroupSumOneRowPerKeySorted(t *testing.T) {
	rows := GroupSum(sampleRecords(), FieldRegion, FieldYear)

	require.Len(t, rows, 4)
	assert.Equal(t, models.GroupKey{Region: "South", Year: 2023}, rows[0].Key)
	assert.Equal(t, int64(400), rows[0].Visits)
	assert.Equal(t, 3, rows[0].Records)
	assert.Equal(t, models.GroupKey{Region: "South", Year: 2024}, rows[1].Key)
	assert.Equal(t, int64(1100), rows[1].Visits)
	assert.Equal(t, int64(1090), rows[1].Funding)
	assert.Equal(t, models.GroupKey{Region: "West", Year: 2023}, rows[2].Key)
	assert.Equal(t, models.GroupKey{Region: "West", Year: 2024}, rows[3].Key)

	assert.Empty(t, GroupSum(nil, FieldEntity))
}

func TestTopNStableTieBreak(t *testing.T) {
	rows := []models.AggregateRow{
		{Key: models.GroupKey{Entity: "A"}, Visits: 5},
		{Key: models.GroupKey{Entity: "B"}, Visits: 10},
		{Key: models.GroupKey{Entity: "C"}, Visits: 10},
	}

	top := TopN(rows, MeasureVisits, 2, true)
	require.Len(t, top, 2)
	assert.Equal(t, "B", top[0].Key.Entity)
	assert.Equal(t, "C", top[1].Key.Entity)

	asc := TopN(rows, MeasureVisits, 0, false)
	assert.Equal(t, []string{"A", "B", "C"}, []string{asc[0].Key.Entity, asc[1].Key.Entity, asc[2].Key.Entity})

	// 入力は変更しない
	assert.Equal(t, "A", rows[0].Key.Entity)
}

func TestCorrelation(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{2, 4, 5, 4, 5}

	r, err := Correlation(a, a)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r, 1e-12)

	r, err = Correlation(a, b)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, r, -1.0)
	assert.LessOrEqual(t, r, 1.0)
	assert.InDelta(t, 0.7746, r, 1e-4)

	r, err = Correlation(a, []float64{5, 4, 3, 2, 1})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, r, 1e-12)

	_, err = Correlation([]float64{1}, []float64{2})
	assert.True(t, errors.Is(err, ErrInsufficientData))

	_, err = Correlation(a, []float64{3, 3, 3, 3, 3})
	assert.True(t, errors.Is(err, ErrInsufficientData))

	_, err = Correlation(a, b[:3])
	assert.True(t, errors.Is(err, ErrLengthMismatch))
}

func TestInterpretCorrelation(t *testing.T) {
	tests := []struct {
		r         float64
		strength  string
		direction string
	}{
		{0.85, "strong", "positive"},
		{-0.75, "strong", "negative"},
		{0.5, "moderate", "positive"},
		{0.4, "weak", "positive"},
		{0, "weak", "negative"},
	}
	for _, tt := range tests {
		got := InterpretCorrelation(tt.r, 10)
		assert.Equal(t, tt.strength, got.Strength, "r=%v", tt.r)
		assert.Equal(t, tt.direction, got.Direction, "r=%v", tt.r)
		assert.Equal(t, 10, got.SampleSize)
	}
}

func TestYearOverYearGrowth(t *testing.T) {
	growth, err := YearOverYearGrowth([]models.YearTotal{{Year: 2021, Visits: 150}, {Year: 2020, Visits: 100}})
	require.NoError(t, err)
	require.Len(t, growth, 2)

	assert.Equal(t, 2020, growth[0].Year)
	require.NotNil(t, growth[0].GrowthPct)
	assert.Equal(t, 0.0, *growth[0].GrowthPct)
	assert.Equal(t, 2021, growth[1].Year)
	require.NotNil(t, growth[1].GrowthPct)
	assert.InDelta(t, 50.0, *growth[1].GrowthPct, 1e-9)
}

func TestYearOverYearGrowthZeroBaseline(t *testing.T) {
	growth, err := YearOverYearGrowth([]models.YearTotal{{Year: 2020, Visits: 0}, {Year: 2021, Visits: 10}, {Year: 2022, Visits: 5}})
	require.NoError(t, err)

	assert.Nil(t, growth[1].GrowthPct)
	require.NotNil(t, growth[2].GrowthPct)
	assert.InDelta(t, -50.0, *growth[2].GrowthPct, 1e-9)
}

func TestYearOverYearGrowthInsufficient(t *testing.T) {
	_, err := YearOverYearGrowth([]models.YearTotal{{Year: 2020, Visits: 10}, {Year: 2020, Visits: 5}})
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestPeakPeriodsTieUsesFirstMonth(t *testing.T) {
	rows := []models.AggregateRow{
		{Key: models.GroupKey{Region: "West", Month: 3}, Visits: 90},
		{Key: models.GroupKey{Region: "South", Month: 2}, Visits: 10},
		{Key: models.GroupKey{Region: "West", Month: 1}, Visits: 90},
		{Key: models.GroupKey{Region: "South", Month: 12}, Visits: 30},
		{Key: models.GroupKey{Region: "West", Month: 2}, Visits: 20},
	}

	peaks := PeakPeriods(rows)
	require.Len(t, peaks, 2)
	assert.Equal(t, models.PeakPeriod{Region: "South", Month: 12, MonthName: "December", Visits: 30}, peaks[0])
	assert.Equal(t, models.PeakPeriod{Region: "West", Month: 1, MonthName: "January", Visits: 90}, peaks[1])
}

func TestSeasonalPeaks(t *testing.T) {
	peaks := SeasonalPeaks(sampleRecords(), 2024)
	require.Len(t, peaks, 2)
	assert.Equal(t, "South", peaks[0].Region)
	assert.Equal(t, 1, peaks[0].Month)
	assert.Equal(t, int64(700), peaks[0].Visits)
	assert.Equal(t, "West", peaks[1].Region)
	assert.Equal(t, 1, peaks[1].Month)
}

func TestLinearForecast(t *testing.T) {
	totals := []models.YearTotal{{Year: 2020, Visits: 100}, {Year: 2021, Visits: 200}, {Year: 2022, Visits: 300}}

	result, err := LinearForecast(totals, 3)
	require.NoError(t, err)

	assert.InDelta(t, 100.0, result.Trend.Slope, 1e-6)
	assert.InDelta(t, 1.0, result.Trend.RSquared, 1e-9)
	require.Len(t, result.Forecast, 3)
	assert.Equal(t, 2023, result.Forecast[0].Year)
	assert.InDelta(t, 400.0, result.Forecast[0].PredictedVisits, 1e-6)
	assert.Equal(t, 2025, result.Forecast[2].Year)
	require.NotNil(t, result.Forecast[0].ChangePct)
	assert.InDelta(t, 33.333, *result.Forecast[0].ChangePct, 1e-3)
}

func TestLinearForecastContinuity(t *testing.T) {
	totals := []models.YearTotal{{Year: 2020, Visits: 120}, {Year: 2021, Visits: 90}, {Year: 2022, Visits: 300}, {Year: 2023, Visits: 310}}

	result, err := LinearForecast(totals, 1)
	require.NoError(t, err)

	fitted := result.Trend.Slope*2023 + result.Trend.Intercept
	assert.InDelta(t, fitted, result.Trend.Predict(2023), 1e-9)
	assert.InDelta(t, result.Trend.Predict(2024), result.Forecast[0].PredictedVisits, 1e-9)
}

func TestLinearForecastEdgeCases(t *testing.T) {
	_, err := LinearForecast([]models.YearTotal{{Year: 2020, Visits: 100}}, 3)
	assert.True(t, errors.Is(err, ErrInsufficientData))

	_, err = LinearForecast([]models.YearTotal{{Year: 2020, Visits: 100}, {Year: 2021, Visits: 100}}, 0)
	assert.True(t, errors.Is(err, ErrInvalidRange))

	flat, err := LinearForecast([]models.YearTotal{{Year: 2020, Visits: 100}, {Year: 2021, Visits: 100}}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, flat.Trend.Slope, 1e-9)
	assert.InDelta(t, 100.0, flat.Forecast[1].PredictedVisits, 1e-6)

	zeroLast, err := LinearForecast([]models.YearTotal{{Year: 2020, Visits: 10}, {Year: 2021, Visits: 0}}, 1)
	require.NoError(t, err)
	assert.Nil(t, zeroLast.Forecast[0].ChangePct)
}

func TestFundingPerVisitor(t *testing.T) {
	v, err := FundingPerVisitor(200, 300)
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)

	_, err = FundingPerVisitor(0, 300)
	assert.True(t, errors.Is(err, ErrDivisionByZero))
}

func TestFilterRecords(t *testing.T) {
	records := sampleRecords()

	assert.Len(t, FilterRecords(records, models.RecordFilter{}), len(records))
	assert.Len(t, FilterRecords(records, models.RecordFilter{Years: []int{2023}, Regions: []string{"West"}}), 2)
	assert.Len(t, FilterRecords(records, models.RecordFilter{Months: []int{2}, Entities: []string{"Kerala"}}), 2)
	assert.Empty(t, FilterRecords(records, models.RecordFilter{Regions: []string{"North"}}))
}

func TestParseFields(t *testing.T) {
	fields, err := ParseFields("region, month")
	require.NoError(t, err)
	assert.Equal(t, []Field{FieldRegion, FieldMonth}, fields)

	_, err = ParseFields("planet")
	assert.True(t, errors.Is(err, ErrInvalidRange))

	_, err = ParseFields("")
	assert.True(t, errors.Is(err, ErrInvalidRange))

	m, err := ParseMeasure("funding")
	require.NoError(t, err)
	assert.Equal(t, MeasureFunding, m)
}

func TestKeyMetrics(t *testing.T) {
	records := []models.Record{
		{Entity: "A", Activity: "x", Visits: 10, Funding: 125_000_000},
		{Entity: "A", Activity: "y", Visits: 5, Funding: 5_000_000},
		{Entity: "B", Activity: "x", Visits: 1, Funding: 0},
	}
	m := KeyMetrics(records)

	assert.Equal(t, int64(16), m.TotalVisits)
	assert.Equal(t, 2, m.Entities)
	assert.Equal(t, 2, m.Activities)
	assert.Equal(t, int64(130_000_000), m.TotalFunding)
	assert.Equal(t, "13.00", m.TotalFundingCrore)
}

func TestMapPoints(t *testing.T) {
	points := MapPoints(FilterRecords(sampleRecords(), models.RecordFilter{Years: []int{2024}}))
	require.Len(t, points, 3)

	assert.Equal(t, "Goa", points[0].Entity)
	assert.Equal(t, "Kerala", points[1].Entity)
	assert.Equal(t, int64(600), points[1].Visits)
	assert.InDelta(t, 30.0, points[1].Size, 1e-9)
	assert.InDelta(t, 180.0/600.0*30, points[0].Size, 1e-9)
	assert.Equal(t, 10.85, points[1].Latitude)

	zero := MapPoints([]models.Record{{Entity: "A"}})
	assert.Equal(t, 0.0, zero[0].Size)
}

func TestEntityCorrelation(t *testing.T) {
	insight, err := EntityCorrelation(sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, 3, insight.SampleSize)
	assert.Equal(t, "positive", insight.Direction)

	_, err = EntityCorrelation(sampleRecords()[:1])
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestBuildEntityDetail(t *testing.T) {
	all := sampleRecords()
	filtered := FilterRecords(all, models.RecordFilter{Years: []int{2024}, Months: []int{1}})

	detail, err := BuildEntityDetail(all, filtered, "Kerala", 2024)
	require.NoError(t, err)

	assert.Equal(t, "South", detail.Region)
	require.Len(t, detail.Activities, 1)
	assert.Equal(t, "Kathakali", detail.Activities[0].Name)
	// 月次推移はフィルター前のデータを使う
	require.Len(t, detail.MonthlyTrend, 2)
	assert.Equal(t, int64(400), detail.MonthlyTrend[1].Visits)
	assert.Equal(t, "February", detail.MonthlyTrend[1].MonthName)

	require.Len(t, detail.RegionalComparison, 2)
	assert.Equal(t, "Kerala", detail.RegionalComparison[0].Name)
	assert.Equal(t, "Tamil Nadu", detail.RegionalComparison[1].Name)
	require.NotNil(t, detail.RegionalComparison[1].FundingPerVisitor)
	assert.InDelta(t, 0.9, *detail.RegionalComparison[1].FundingPerVisitor, 1e-9)

	_, err = BuildEntityDetail(all, filtered, "Atlantis", 2024)
	assert.True(t, errors.Is(err, ErrInsufficientData))

	_, err = BuildEntityDetail(all, FilterRecords(all, models.RecordFilter{Regions: []string{"West"}}), "Kerala", 2024)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestFundingPerVisitorByUndefined(t *testing.T) {
	rows := FundingPerVisitorBy(FilterRecords(sampleRecords(), models.RecordFilter{Years: []int{2023}}), FieldEntity)
	require.Len(t, rows, 3)
	assert.Equal(t, "Tamil Nadu", rows[2].Name)
	assert.Nil(t, rows[2].FundingPerVisitor)
}

func TestActivityShowcase(t *testing.T) {
	rows := ActivityShowcase(sampleRecords(), 2)
	require.Len(t, rows, 2)
	assert.Equal(t, "Kathakali", rows[0].Name)
	assert.Equal(t, int64(700), rows[0].Visits)
	assert.Equal(t, "Bharatanatyam", rows[1].Name)
}

func TestFundingImpact(t *testing.T) {
	impact, err := FundingImpact(sampleRecords(), 2024)
	require.NoError(t, err)

	assert.Equal(t, 2023, impact.PreviousYear)
	// Tamil Nadu は前年の訪問者が0なので除外
	assert.Equal(t, 1, impact.Skipped)
	require.Len(t, impact.Rows, 2)
	assert.Equal(t, "Goa", impact.Rows[0].Entity)
	assert.InDelta(t, 50.0, impact.Rows[0].VisitGrowthPct, 1e-9)
	assert.InDelta(t, 130.0/120.0, impact.Rows[0].PrevFundingPerVisitor, 1e-9)
	assert.Equal(t, "Kerala", impact.Rows[1].Entity)
	assert.InDelta(t, 50.0, impact.Rows[1].VisitGrowthPct, 1e-9)
	// 成長率が同じなので相関は未定義
	assert.Nil(t, impact.Correlation)

	_, err = FundingImpact(sampleRecords(), 2023)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestYearlyAndMonthlyByRegion(t *testing.T) {
	yearly := YearlyByRegion(sampleRecords())
	require.Len(t, yearly, 4)
	assert.Equal(t, models.SeriesPoint{Series: "South", Period: 2023, Visits: 400}, yearly[0])

	monthly := MonthlyByRegion(sampleRecords(), 2023)
	require.Len(t, monthly, 4)
	assert.Equal(t, models.SeriesPoint{Series: "South", Period: 1, Visits: 100}, monthly[0])
	assert.Equal(t, models.SeriesPoint{Series: "West", Period: 2, Visits: 70}, monthly[3])

	assert.Equal(t, []int{2023, 2024}, DistinctYears(sampleRecords()))
	assert.Equal(t, []string{"South", "West"}, DistinctRegions(sampleRecords()))
	assert.Equal(t, []models.YearTotal{{Year: 2023, Visits: 520}, {Year: 2024, Visits: 1280}}, YearlyTotals(sampleRecords()))
}
