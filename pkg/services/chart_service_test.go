package services

import (
	"bytes"
	"errors"
	"image/png"
	"testing"

	"tourism-dashboard-api/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChartKind(t *testing.T) {
	for _, name := range []string{"map", "top", "monthly", "Forecast"} {
		_, err := ParseChartKind(name)
		assert.NoError(t, err, name)
	}

	_, err := ParseChartKind("pie")
	assert.True(t, errors.Is(err, ErrInvalidRange))
}

func TestChartRenderProducesPNG(t *testing.T) {
	svc := NewChartService()
	records := sampleRecords()

	tests := []struct {
		kind ChartKind
		q    ChartQuery
	}{
		{ChartMap, ChartQuery{}},
		{ChartTop, ChartQuery{N: 2}},
		{ChartMonthly, ChartQuery{Entity: "Kerala"}},
		{ChartForecast, ChartQuery{Horizon: 2}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, svc.Render(&buf, tt.kind, records, tt.q))

			img, err := png.Decode(&buf)
			require.NoError(t, err)
			assert.Greater(t, img.Bounds().Dx(), 0)
		})
	}
}

func TestChartRenderErrors(t *testing.T) {
	svc := NewChartService()
	records := sampleRecords()
	var buf bytes.Buffer

	err := svc.Render(&buf, ChartMonthly, records, ChartQuery{})
	assert.True(t, errors.Is(err, ErrInvalidRange))

	err = svc.Render(&buf, ChartMonthly, records, ChartQuery{Entity: "Atlantis"})
	assert.True(t, errors.Is(err, ErrInsufficientData))

	err = svc.Render(&buf, ChartMap, records, ChartQuery{Regions: []string{"North"}})
	assert.True(t, errors.Is(err, ErrInsufficientData))

	single := FilterRecords(records, models.RecordFilter{Years: []int{2024}})
	err = svc.Render(&buf, ChartForecast, single, ChartQuery{})
	assert.True(t, errors.Is(err, ErrInsufficientData))

	err = svc.Render(&buf, ChartKind("pie"), records, ChartQuery{})
	assert.True(t, errors.Is(err, ErrInvalidRange))

	assert.Zero(t, buf.Len())
}
