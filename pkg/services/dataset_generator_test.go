package services

import (
	"errors"
	"fmt"
	"testing"

	config "tourism-dashboard-api/configs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPtr(v uint64) *uint64 { return &v }

func TestGenerateCompleteness(t *testing.T) {
	gen := NewDatasetGenerator(DefaultReferenceData())

	result, err := gen.Generate(GenerateOptions{StartYear: 2020, EndYear: 2024, Seed: seedPtr(7)})
	require.NoError(t, err)

	entities := len(gen.Reference().Entities)
	assert.Len(t, result.Records, 5*12*entities)
	assert.Equal(t, uint64(7), result.Seed)

	seen := make(map[string]bool, len(result.Records))
	for _, r := range result.Records {
		key := fmt.Sprintf("%s|%d|%d", r.Entity, r.Month, r.Year)
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
}

func TestGenerateNonNegativeAndResolvedFields(t *testing.T) {
	gen := NewDatasetGenerator(nil)
	ref := gen.Reference()

	result, err := gen.Generate(GenerateOptions{StartYear: 2020, EndYear: 2021, Seed: seedPtr(99)})
	require.NoError(t, err)

	for _, r := range result.Records {
		assert.GreaterOrEqual(t, r.Visits, int64(0))
		assert.GreaterOrEqual(t, r.Funding, int64(0))
		assert.Equal(t, ref.RegionOf(r.Entity), r.Region)
		assert.Contains(t, ref.ActivitiesOf(r.Entity), r.Activity)
		coord := ref.CoordinateOf(r.Entity)
		assert.Equal(t, coord.Latitude, r.Latitude)
		assert.Equal(t, coord.Longitude, r.Longitude)
	}
}

func TestGenerateSameSeedIsReproducible(t *testing.T) {
	gen := NewDatasetGenerator(nil)
	opts := GenerateOptions{StartYear: 2023, EndYear: 2024, Months: []int{1, 6}, Seed: seedPtr(2024)}

	a, err := gen.Generate(opts)
	require.NoError(t, err)
	b, err := gen.Generate(opts)
	require.NoError(t, err)

	assert.Equal(t, a.Records, b.Records)

	c, err := gen.Generate(GenerateOptions{StartYear: 2023, EndYear: 2024, Months: []int{1, 6}, Seed: seedPtr(2025)})
	require.NoError(t, err)
	assert.NotEqual(t, a.Records, c.Records)
}

func TestGenerateUnknownEntityUsesNeutralDefaults(t *testing.T) {
	ref := &ReferenceData{Entities: []string{"Atlantis"}}
	gen := NewDatasetGenerator(ref)

	result, err := gen.Generate(GenerateOptions{StartYear: 1999, EndYear: 1999, Months: []int{3}, Seed: seedPtr(1)})
	require.NoError(t, err)
	require.Len(t, result.Records, 1)

	r := result.Records[0]
	assert.Equal(t, "Other", r.Region)
	assert.Equal(t, "Traditional Dance", r.Activity)
	assert.Equal(t, 0.0, r.Latitude)
	assert.Equal(t, 0.0, r.Longitude)
}

func TestGenerateVisitMeanFollowsPopularity(t *testing.T) {
	// shape 10, scale 2.0*10000 の Gamma 分布の平均は 200,000
	ref := &ReferenceData{
		Entities:     []string{"A"},
		RegionGroups: map[string]string{"A": "North"},
		Popularity:   map[string]float64{"A": 2.0},
	}
	gen := NewDatasetGenerator(ref)

	const draws = 10000
	records, err := gen.GenerateFrom(newSource(12345), GenerateOptions{StartYear: 1, EndYear: draws, Months: []int{1}})
	require.NoError(t, err)
	require.Len(t, records, draws)

	var sum float64
	for _, r := range records {
		sum += float64(r.Visits)
	}
	mean := sum / draws
	assert.InDelta(t, 200000, mean, 200000*0.15)
}

func TestGenerateInvalidRanges(t *testing.T) {
	gen := NewDatasetGenerator(nil)

	_, err := gen.Generate(GenerateOptions{StartYear: 2024, EndYear: 2020})
	assert.True(t, errors.Is(err, ErrInvalidRange))

	_, err = gen.Generate(GenerateOptions{StartYear: 2020, EndYear: 2020, Months: []int{0, 13}})
	assert.True(t, errors.Is(err, ErrInvalidRange))
}

func TestGenerateDuplicateMonthsAreIgnored(t *testing.T) {
	gen := NewDatasetGenerator(&ReferenceData{Entities: []string{"A", "B"}})

	result, err := gen.Generate(GenerateOptions{StartYear: 2020, EndYear: 2020, Months: []int{5, 5, 6}, Seed: seedPtr(3)})
	require.NoError(t, err)
	assert.Len(t, result.Records, 4)
}

func TestClampFloor(t *testing.T) {
	assert.Equal(t, int64(0), clampFloor(-12.7))
	assert.Equal(t, int64(0), clampFloor(0.4))
	assert.Equal(t, int64(12), clampFloor(12.9))
}

func TestReferenceDataDefaults(t *testing.T) {
	ref := DefaultReferenceData()

	assert.Len(t, ref.Entities, 30)
	assert.Equal(t, []string{"Central", "East", "North", "Northeast", "South", "West"}, ref.Regions())
	for _, e := range ref.Entities {
		assert.NotEqual(t, UnknownRegion, ref.RegionOf(e), e)
		assert.NotEmpty(t, ref.ActivitiesOf(e), e)
	}
	assert.Equal(t, 1.7, ref.SeasonalMultiplier("North", 12))
	assert.Equal(t, 1.0, ref.SeasonalMultiplier("Other", 12))
	assert.Equal(t, 1.0, ref.GrowthFactor(1990))
	assert.Equal(t, 1.0, ref.PopularityOf("Atlantis"))
	assert.Equal(t, []string{"Goa", "Gujarat", "Maharashtra"}, ref.EntitiesIn("West"))

	// 毎回新しいコピー
	ref.Popularity["Goa"] = 99
	assert.Equal(t, 1.6, DefaultReferenceData().Popularity["Goa"])
}

func TestReferenceDataFromFile(t *testing.T) {
	file, err := config.LoadReferenceFile("../../configs/testdata/reference_small.yaml")
	require.NoError(t, err)

	ref, err := ReferenceDataFromFile(file)
	require.NoError(t, err)

	assert.Equal(t, []string{"Kerala", "Sikkim", "Lakshadweep"}, ref.Entities)
	assert.Equal(t, "South", ref.RegionOf("Kerala"))
	assert.Equal(t, UnknownRegion, ref.RegionOf("Lakshadweep"))
	assert.Equal(t, 1.0, ref.PopularityOf("Sikkim"))
	assert.Equal(t, 1.5, ref.SeasonalMultiplier("South", 12))
	assert.Equal(t, 0.9, ref.GrowthFactor(2023))

	gen := NewDatasetGenerator(ref)
	result, err := gen.Generate(GenerateOptions{StartYear: 2023, EndYear: 2024, Seed: seedPtr(5)})
	require.NoError(t, err)
	assert.Len(t, result.Records, 2*12*3)
}

func TestReferenceDataFromFileRejectsBadCurves(t *testing.T) {
	_, err := ReferenceDataFromFile(nil)
	assert.True(t, errors.Is(err, ErrInvalidRange))

	file := &config.ReferenceFile{
		Entities:       []config.ReferenceEntity{{Name: "Kerala", Region: "South"}},
		SeasonalCurves: map[string][]float64{"South": {1, 2, 3}},
	}

	_, err = ReferenceDataFromFile(file)
	assert.True(t, errors.Is(err, ErrInvalidRange))
}

func TestMonthName(t *testing.T) {
	assert.Equal(t, "January", MonthName(1))
	assert.Equal(t, "December", MonthName(12))
	assert.Equal(t, "", MonthName(13))
}
