package models

import "time"

// Record は1件の観光・文化予算の観測値（州×月×年）です。
type Record struct {
	Entity    string  `json:"entity" db:"entity"`
	Activity  string  `json:"activity" db:"activity"`
	Visits    int64   `json:"visits" db:"visits"`
	Month     int     `json:"month" db:"month"`
	Year      int     `json:"year" db:"year"`
	Region    string  `json:"region" db:"region"`
	Funding   int64   `json:"funding" db:"funding"`
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// RecordColumns is the exact column order used for CSV export and bulk loads.
var RecordColumns = []string{"entity", "activity", "visits", "month", "year", "region", "funding", "latitude", "longitude"}

// Coordinate 州の代表座標
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RecordFilter ダッシュボードのフィルター条件。空のスライスは「制約なし」を意味します。
type RecordFilter struct {
	Years    []int    `json:"years,omitempty"`
	Regions  []string `json:"regions,omitempty"`
	Months   []int    `json:"months,omitempty"`
	Entities []string `json:"entities,omitempty"`
}

// GroupKey はグループ化キーです。キーに含まれないフィールドはゼロ値のままです。
type GroupKey struct {
	Entity    string  `json:"entity,omitempty"`
	Activity  string  `json:"activity,omitempty"`
	Region    string  `json:"region,omitempty"`
	Month     int     `json:"month,omitempty"`
	Year      int     `json:"year,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// AggregateRow グループごとの合計
type AggregateRow struct {
	Key     GroupKey `json:"key"`
	Visits  int64    `json:"visits"`
	Funding int64    `json:"funding"`
	Records int      `json:"records"`
}

// YearTotal 年ごとの訪問者合計
type YearTotal struct {
	Year   int   `json:"year"`
	Visits int64 `json:"visits"`
}

// YearGrowth 前年比成長率。前年合計が0の場合 GrowthPct は nil（未定義）です。
type YearGrowth struct {
	Year      int      `json:"year"`
	Visits    int64    `json:"visits"`
	GrowthPct *float64 `json:"growth_pct"`
}

// PeakPeriod 地域ごとのピーク月
type PeakPeriod struct {
	Region    string `json:"region"`
	Month     int    `json:"month"`
	MonthName string `json:"month_name"`
	Visits    int64  `json:"visits"`
}

// Trend 最小二乗法で当てはめた直線 visits = Slope*year + Intercept
type Trend struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`
}

// Predict evaluates the fitted line at year.
func (t Trend) Predict(year int) float64 {
	return t.Slope*float64(year) + t.Intercept
}

// ForecastPoint 予測値。ChangePct は最終実績年との比較（実績が0なら nil）。
type ForecastPoint struct {
	Year            int      `json:"year"`
	PredictedVisits float64  `json:"predicted_visits"`
	ChangePct       *float64 `json:"change_pct"`
}

// ForecastResult 線形トレンド予測の結果
type ForecastResult struct {
	Trend    Trend           `json:"trend"`
	Actual   []YearTotal     `json:"actual"`
	Forecast []ForecastPoint `json:"forecast"`
}

// CorrelationInsight 相関係数とその解釈
type CorrelationInsight struct {
	Coefficient float64 `json:"coefficient"`
	Strength    string  `json:"strength"`
	Direction   string  `json:"direction"`
	Summary     string  `json:"summary"`
	SampleSize  int     `json:"sample_size"`
}

// KeyMetrics ダッシュボード上部の主要指標
type KeyMetrics struct {
	TotalVisits       int64  `json:"total_visits"`
	Entities          int    `json:"entities"`
	Activities        int    `json:"activities"`
	TotalFunding      int64  `json:"total_funding"`
	TotalFundingCrore string `json:"total_funding_crore"`
}

// MapPoint 地図用のバブル
type MapPoint struct {
	Entity    string  `json:"entity"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Visits    int64   `json:"visits"`
	Size      float64 `json:"size"`
}

// RatioRow 訪問者1人あたりの予算を含む集計行。訪問者0の場合 FundingPerVisitor は nil。
type RatioRow struct {
	Name              string   `json:"name"`
	Visits            int64    `json:"visits"`
	Funding           int64    `json:"funding"`
	FundingPerVisitor *float64 `json:"funding_per_visitor"`
}

// MonthlyPoint 月次の訪問者数
type MonthlyPoint struct {
	Month     int    `json:"month"`
	MonthName string `json:"month_name"`
	Visits    int64  `json:"visits"`
}

// SeriesPoint 系列（地域など）ごとの時系列点
type SeriesPoint struct {
	Series string `json:"series"`
	Period int    `json:"period"`
	Visits int64  `json:"visits"`
}

// EntityDetail 州ごとの詳細分析
type EntityDetail struct {
	Entity             string         `json:"entity"`
	Region             string         `json:"region"`
	Year               int            `json:"year"`
	Activities         []RatioRow     `json:"activities"`
	MonthlyTrend       []MonthlyPoint `json:"monthly_trend"`
	RegionalComparison []RatioRow     `json:"regional_comparison"`
}

// FundingImpactRow 前年の1人あたり予算と訪問者成長率
type FundingImpactRow struct {
	Entity                string  `json:"entity"`
	PrevVisits            int64   `json:"prev_visits"`
	CurrentVisits         int64   `json:"current_visits"`
	PrevFundingPerVisitor float64 `json:"prev_funding_per_visitor"`
	VisitGrowthPct        float64 `json:"visit_growth_pct"`
}

// FundingImpact 予算が翌年の観光成長に与える影響
type FundingImpact struct {
	PreviousYear int                 `json:"previous_year"`
	Year         int                 `json:"year"`
	Rows         []FundingImpactRow  `json:"rows"`
	Skipped      int                 `json:"skipped"`
	Correlation  *CorrelationInsight `json:"correlation"`
}

// Dashboard 1つのフィルター選択に対するすべてのパネル
type Dashboard struct {
	Filter          RecordFilter        `json:"filter"`
	Year            int                 `json:"year"`
	Metrics         KeyMetrics          `json:"metrics"`
	Map             []MapPoint          `json:"map"`
	TopEntities     []AggregateRow      `json:"top_entities"`
	EntityDetail    *EntityDetail       `json:"entity_detail,omitempty"`
	YearlyByRegion  []SeriesPoint       `json:"yearly_by_region"`
	Growth          []YearGrowth        `json:"growth,omitempty"`
	TopActivities   []RatioRow          `json:"top_activities"`
	MonthlyByRegion []SeriesPoint       `json:"monthly_by_region"`
	Peaks           []PeakPeriod        `json:"peaks"`
	Correlation     *CorrelationInsight `json:"correlation,omitempty"`
	FundingImpact   *FundingImpact      `json:"funding_impact,omitempty"`
	Forecast        *ForecastResult     `json:"forecast,omitempty"`
	Notices         []string            `json:"notices,omitempty"`
}

// WarehouseParams セッション作成時に指定するウェアハウス接続パラメータ
type WarehouseParams struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	Schema   string `json:"schema"`
	Name     string `json:"warehouse"`
	Table    string `json:"table"`
}

// CreateSessionRequest セッション作成リクエスト
type CreateSessionRequest struct {
	Source    string           `json:"source" binding:"omitempty,oneof=synthetic warehouse"`
	Seed      *uint64          `json:"seed,omitempty"`
	StartYear int              `json:"start_year,omitempty" binding:"omitempty,min=1900,max=2100"`
	EndYear   int              `json:"end_year,omitempty" binding:"omitempty,min=1900,max=2100"`
	Warehouse *WarehouseParams `json:"warehouse,omitempty"`
}

// SessionInfo セッションのメタデータ（テーブル本体は含まない）
type SessionInfo struct {
	ID             string    `json:"id"`
	Source         string    `json:"source"`
	Seed           *uint64   `json:"seed,omitempty"`
	Records        int       `json:"records"`
	Years          []int     `json:"years"`
	Regions        []string  `json:"regions"`
	Warnings       []string  `json:"warnings,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}
