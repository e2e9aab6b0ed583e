package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"tourism-dashboard-api/pkg/models"

	"golang.org/x/sync/errgroup"
)

const (
	defaultTopEntities   = 10
	defaultTopActivities = 10
	defaultHorizon       = 3
)

// DashboardQuery ダッシュボードの選択条件。Year が0なら最新の年を使います。
type DashboardQuery struct {
	Year    int
	Regions []string
	Months  []int
	// Entity が空なら州の詳細パネルは作成しない
	Entity  string
	Horizon int
}

// DashboardService はフィルター選択ごとにすべてのパネルを組み立てます。
type DashboardService struct{}

// NewDashboardService は新しいDashboardServiceを生成します。
func NewDashboardService() *DashboardService {
	return &DashboardService{}
}

// ResolveYear は指定年がテーブルに存在するか確認し、0なら最新の年を返します。
func ResolveYear(records []models.Record, year int) (int, error) {
	years := DistinctYears(records)
	if len(years) == 0 {
		return 0, fmt.Errorf("the table is empty: %w", ErrInsufficientData)
	}
	if year == 0 {
		return years[len(years)-1], nil
	}
	for _, y := range years {
		if y == year {
			return year, nil
		}
	}
	return 0, fmt.Errorf("year %d is not in the table (%d-%d): %w", year, years[0], years[len(years)-1], ErrInvalidRange)
}

// Build は各パネルを並行に計算します。
// データ不足や0除算で計算できないパネルは省略し、Notices に理由を残します。
func (s *DashboardService) Build(ctx context.Context, records []models.Record, q DashboardQuery) (*models.Dashboard, error) {
	year, err := ResolveYear(records, q.Year)
	if err != nil {
		return nil, err
	}
	horizon := q.Horizon
	if horizon == 0 {
		horizon = defaultHorizon
	}

	filter := models.RecordFilter{Years: []int{year}, Regions: q.Regions, Months: q.Months}
	filtered := FilterRecords(records, filter)

	d := &models.Dashboard{Filter: filter, Year: year}

	// パネルごとの通知枠。順序を固定するため goroutine ごとに別の要素へ書き込む
	const panels = 6
	notices := make([]string, panels)
	optional := func(slot int, panel string, err error) error {
		if errors.Is(err, ErrInsufficientData) || errors.Is(err, ErrDivisionByZero) || errors.Is(err, ErrLengthMismatch) {
			notices[slot] = fmt.Sprintf("%s: %v", panel, err)
			return nil
		}
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d.Metrics = KeyMetrics(filtered)
		d.Map = MapPoints(filtered)
		d.TopEntities = TopN(GroupSum(filtered, FieldEntity), MeasureVisits, defaultTopEntities, true)
		d.TopActivities = ActivityShowcase(filtered, defaultTopActivities)
		if len(filtered) == 0 {
			notices[0] = "filters: no records match the current selection"
		}
		return ctx.Err()
	})

	g.Go(func() error {
		if q.Entity == "" {
			return nil
		}
		detail, err := BuildEntityDetail(records, filtered, q.Entity, year)
		if err != nil {
			return optional(1, "entity detail", err)
		}
		d.EntityDetail = detail
		return nil
	})

	g.Go(func() error {
		d.YearlyByRegion = YearlyByRegion(records)
		growth, err := YearOverYearGrowth(YearlyTotals(records))
		if err != nil {
			return optional(2, "year-over-year growth", err)
		}
		d.Growth = growth
		return nil
	})

	g.Go(func() error {
		d.MonthlyByRegion = MonthlyByRegion(records, year)
		d.Peaks = SeasonalPeaks(records, year)
		return ctx.Err()
	})

	g.Go(func() error {
		corr, err := EntityCorrelation(filtered)
		if err != nil {
			return optional(3, "correlation", err)
		}
		d.Correlation = corr
		return nil
	})

	g.Go(func() error {
		impact, err := FundingImpact(records, year)
		if err != nil {
			return optional(4, "funding impact", err)
		}
		d.FundingImpact = impact
		if impact.Correlation == nil && len(impact.Rows) > 0 {
			notices[4] = "funding impact: correlation is undefined for the current data"
		}
		return nil
	})

	g.Go(func() error {
		result, err := LinearForecast(YearlyTotals(records), horizon)
		if err != nil {
			return optional(5, "forecast", err)
		}
		d.Forecast = result
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard build failed: %w", err)
	}

	for _, n := range notices {
		if n != "" {
			d.Notices = append(d.Notices, n)
		}
	}
	if len(d.Notices) > 0 {
		log.Printf("📊 Dashboard for %d built with %d notice(s)", year, len(d.Notices))
	}
	return d, nil
}
