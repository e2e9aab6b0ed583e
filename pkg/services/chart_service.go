package services

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"strings"

	"tourism-dashboard-api/pkg/models"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ChartKind は描画できるグラフの種類です。
type ChartKind string

const (
	ChartMap      ChartKind = "map"
	ChartTop      ChartKind = "top"
	ChartMonthly  ChartKind = "monthly"
	ChartForecast ChartKind = "forecast"
)

// ParseChartKind は "map", "top", "monthly", "forecast" のいずれかを受け付けます。
func ParseChartKind(s string) (ChartKind, error) {
	switch k := ChartKind(strings.ToLower(strings.TrimSpace(s))); k {
	case ChartMap, ChartTop, ChartMonthly, ChartForecast:
		return k, nil
	}
	return "", fmt.Errorf("unknown chart kind %q: %w", s, ErrInvalidRange)
}

// ChartQuery グラフ描画の選択条件。Year が0なら最新の年です。
type ChartQuery struct {
	Year    int
	Regions []string
	Months  []int
	Entity  string
	N       int
	Horizon int
}

var (
	saffron   = color.RGBA{R: 255, G: 153, B: 51, A: 255}
	indiaNavy = color.RGBA{R: 0, G: 0, B: 128, A: 255}
	indiaTeal = color.RGBA{R: 19, G: 136, B: 8, A: 255}
)

// ChartService は gonum/plot でダッシュボードのグラフを PNG として描画します。
type ChartService struct {
	width  vg.Length
	height vg.Length
}

// NewChartService は新しいChartServiceを生成します。
func NewChartService() *ChartService {
	return &ChartService{width: 10 * vg.Inch, height: 6 * vg.Inch}
}

// Render は種類に応じてテーブルからパネルを計算し、PNG を w に書き出します。
func (s *ChartService) Render(w io.Writer, kind ChartKind, records []models.Record, q ChartQuery) error {
	year, err := ResolveYear(records, q.Year)
	if err != nil {
		return err
	}
	filtered := FilterRecords(records, models.RecordFilter{Years: []int{year}, Regions: q.Regions, Months: q.Months})

	switch kind {
	case ChartMap:
		return s.MapChart(w, year, MapPoints(filtered))
	case ChartTop:
		n := q.N
		if n <= 0 {
			n = defaultTopEntities
		}
		return s.TopChart(w, year, TopN(GroupSum(filtered, FieldEntity), MeasureVisits, n, true))
	case ChartMonthly:
		if q.Entity == "" {
			return fmt.Errorf("monthly chart needs an entity: %w", ErrInvalidRange)
		}
		return s.MonthlyChart(w, q.Entity, year, MonthlyTrend(records, q.Entity, year))
	case ChartForecast:
		horizon := q.Horizon
		if horizon == 0 {
			horizon = defaultHorizon
		}
		result, err := LinearForecast(YearlyTotals(records), horizon)
		if err != nil {
			return err
		}
		return s.ForecastChart(w, result)
	}
	return fmt.Errorf("unknown chart kind %q: %w", kind, ErrInvalidRange)
}

// MapChart 経度・緯度上に訪問者数のバブルを描画します。
func (s *ChartService) MapChart(w io.Writer, year int, points []models.MapPoint) error {
	if len(points) == 0 {
		return fmt.Errorf("map chart: %w", ErrInsufficientData)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Tourist Visits by State (%d)", year)
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"

	xys := make(plotter.XYs, len(points))
	labels := make([]string, len(points))
	for i, pt := range points {
		xys[i].X = pt.Longitude
		xys[i].Y = pt.Latitude
		labels[i] = pt.Entity

		bubble, err := plotter.NewScatter(plotter.XYs{xys[i]})
		if err != nil {
			return err
		}
		bubble.GlyphStyle.Color = color.RGBA{R: saffron.R, G: saffron.G, B: saffron.B, A: 180}
		bubble.GlyphStyle.Radius = vg.Points(math.Max(2, pt.Size/2))
		bubble.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(bubble)
	}

	labelPoints, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return err
	}
	p.Add(labelPoints)
	p.Add(plotter.NewGrid())

	return s.write(w, p)
}

// TopChart 訪問者数の多い州を横棒グラフで描画します。最大の州が一番上です。
func (s *ChartService) TopChart(w io.Writer, year int, rows []models.AggregateRow) error {
	if len(rows) == 0 {
		return fmt.Errorf("top chart: %w", ErrInsufficientData)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Top %d States by Tourist Visits (%d)", len(rows), year)
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "Tourist Visits"

	values := make(plotter.Values, len(rows))
	names := make([]string, len(rows))
	for i, row := range rows {
		j := len(rows) - 1 - i
		values[j] = float64(row.Visits)
		names[j] = row.Key.Entity
	}

	bars, err := plotter.NewBarChart(values, vg.Points(16))
	if err != nil {
		return err
	}
	bars.Horizontal = true
	bars.Color = saffron
	bars.LineStyle.Width = vg.Length(0)

	p.Add(bars)
	p.NominalY(names...)
	p.X.Min = 0
	p.Add(plotter.NewGrid())

	return s.write(w, p)
}

// MonthlyChart 州の月次推移を折れ線で描画します。
func (s *ChartService) MonthlyChart(w io.Writer, entity string, year int, trend []models.MonthlyPoint) error {
	if len(trend) == 0 {
		return fmt.Errorf("monthly chart for %s: %w", entity, ErrInsufficientData)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Monthly Tourist Visits in %s (%d)", entity, year)
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.Y.Label.Text = "Tourist Visits"

	xys := make(plotter.XYs, len(trend))
	ticks := make([]plot.Tick, len(trend))
	for i, m := range trend {
		xys[i].X = float64(m.Month)
		xys[i].Y = float64(m.Visits)
		label := fmt.Sprintf("%d", m.Month)
		if len(m.MonthName) >= 3 {
			label = m.MonthName[:3]
		}
		ticks[i] = plot.Tick{Value: float64(m.Month), Label: label}
	}

	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return err
	}
	line.Color = indiaNavy
	line.Width = vg.Points(2)
	points.GlyphStyle.Color = indiaNavy

	p.Add(line, points, plotter.NewGrid())
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	p.Y.Min = 0

	return s.write(w, p)
}

// ForecastChart 実績と予測を2本の折れ線で描画します。予測線は最終実績年から始まります。
func (s *ChartService) ForecastChart(w io.Writer, result *models.ForecastResult) error {
	if result == nil || len(result.Actual) == 0 {
		return fmt.Errorf("forecast chart: %w", ErrInsufficientData)
	}

	p := plot.New()
	p.Title.Text = "Tourism Growth Forecast"
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "Total Tourist Visits"

	actual := make(plotter.XYs, len(result.Actual))
	for i, a := range result.Actual {
		actual[i].X = float64(a.Year)
		actual[i].Y = float64(a.Visits)
	}
	last := actual[len(actual)-1]
	forecast := plotter.XYs{last}
	for _, f := range result.Forecast {
		forecast = append(forecast, plotter.XY{X: float64(f.Year), Y: f.PredictedVisits})
	}

	actualLine, actualPoints, err := plotter.NewLinePoints(actual)
	if err != nil {
		return err
	}
	actualLine.Color = indiaNavy
	actualLine.Width = vg.Points(2)
	actualPoints.GlyphStyle.Color = indiaNavy

	forecastLine, forecastPoints, err := plotter.NewLinePoints(forecast)
	if err != nil {
		return err
	}
	forecastLine.Color = indiaTeal
	forecastLine.Width = vg.Points(2)
	forecastLine.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
	forecastPoints.GlyphStyle.Color = indiaTeal

	p.Add(actualLine, actualPoints, forecastLine, forecastPoints, plotter.NewGrid())
	p.Legend.Add("Actual", actualLine, actualPoints)
	p.Legend.Add("Forecast", forecastLine, forecastPoints)
	p.Legend.Top = true

	ticks := make([]plot.Tick, 0, len(forecast)+len(actual))
	for _, xy := range append(actual, forecast[1:]...) {
		ticks = append(ticks, plot.Tick{Value: xy.X, Label: fmt.Sprintf("%d", int(xy.X))})
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)

	return s.write(w, p)
}

func (s *ChartService) write(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(s.width, s.height, "png")
	if err != nil {
		return fmt.Errorf("グラフの描画に失敗: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("グラフの書き込みに失敗: %w", err)
	}
	return nil
}
