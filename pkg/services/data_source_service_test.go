package services

import (
	"context"
	"errors"
	"testing"
	"time"

	config "tourism-dashboard-api/configs"
	"tourism-dashboard-api/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		DataSource:       SourceSynthetic,
		DatasetStartYear: 2020,
		DatasetEndYear:   2024,
		Warehouse: config.WarehouseConfig{
			Host:     "warehouse.internal",
			Port:     5432,
			User:     "analyst",
			Database: "culture",
			Schema:   "public",
			Table:    "tourism_data",
			SSLMode:  "disable",
			Timeout:  time.Second,
		},
	}
}

func testSettings() DataSourceSettings {
	return DataSourceSettings{
		RetryAttempts:    2,
		RetryInterval:    time.Millisecond,
		FailureThreshold: 2,
		BreakerTimeout:   time.Minute,
	}
}

func TestLoadSynthetic(t *testing.T) {
	svc := NewDataSourceService(testConfig(), nil, &fakeQuerier{}, testSettings())

	result, err := svc.Load(context.Background(), LoadRequest{Seed: seedPtr(99), StartYear: 2023})
	require.NoError(t, err)

	assert.Equal(t, SourceSynthetic, result.Source)
	require.NotNil(t, result.Seed)
	assert.Equal(t, uint64(99), *result.Seed)
	assert.Len(t, result.Records, 2*12*30)
	assert.Empty(t, result.Warnings)
	assert.Empty(t, result.FallbackReason)

	again, err := svc.Load(context.Background(), LoadRequest{Seed: seedPtr(99), StartYear: 2023})
	require.NoError(t, err)
	assert.Equal(t, result.Records, again.Records)
}

func TestLoadSyntheticInvalidRange(t *testing.T) {
	svc := NewDataSourceService(testConfig(), nil, &fakeQuerier{}, testSettings())

	_, err := svc.Load(context.Background(), LoadRequest{StartYear: 2025, EndYear: 2020})
	assert.True(t, errors.Is(err, ErrInvalidRange))

	_, err = svc.Load(context.Background(), LoadRequest{Source: "spreadsheet"})
	assert.True(t, errors.Is(err, ErrInvalidRange))
}

func TestLoadWarehouse(t *testing.T) {
	querier := &fakeQuerier{rows: []WarehouseRow{
		{Entity: "Kerala", Activity: "Kathakali", Visits: 10, Month: 1, Year: 2024, Region: "South", Funding: 5},
	}}
	svc := NewDataSourceService(testConfig(), nil, querier, testSettings())

	result, err := svc.Load(context.Background(), LoadRequest{Source: SourceWarehouse, Warehouse: &models.WarehouseParams{Table: "tourism_2024"}})
	require.NoError(t, err)

	assert.Equal(t, SourceWarehouse, result.Source)
	assert.Nil(t, result.Seed)
	assert.Len(t, result.Records, 1)
	assert.Equal(t, "tourism_2024", querier.lastCfg.Table)
}

func TestLoadWarehouseInvalidConfigFallsBack(t *testing.T) {
	querier := &fakeQuerier{}
	svc := NewDataSourceService(testConfig(), nil, querier, testSettings())

	result, err := svc.Load(context.Background(), LoadRequest{
		Source:    SourceWarehouse,
		Seed:      seedPtr(1),
		Warehouse: &models.WarehouseParams{Table: "bad name"},
	})
	require.NoError(t, err)

	assert.Equal(t, SourceSynthetic, result.Source)
	assert.Contains(t, result.FallbackReason, "Table")
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "warehouse unavailable")
	assert.Equal(t, 0, querier.calls)
	assert.NotEmpty(t, result.Records)
}

func TestLoadWarehouseRetriesThenFallsBack(t *testing.T) {
	querier := &fakeQuerier{err: errors.New("connection refused")}
	svc := NewDataSourceService(testConfig(), nil, querier, testSettings())

	result, err := svc.Load(context.Background(), LoadRequest{Source: SourceWarehouse})
	require.NoError(t, err)

	assert.Equal(t, 3, querier.calls)
	assert.Equal(t, SourceSynthetic, result.Source)
	assert.Contains(t, result.FallbackReason, "connection refused")
}

func TestLoadWarehouseEmptyTableIsNotRetried(t *testing.T) {
	querier := &fakeQuerier{}
	svc := NewDataSourceService(testConfig(), nil, querier, testSettings())

	result, err := svc.Load(context.Background(), LoadRequest{Source: SourceWarehouse})
	require.NoError(t, err)

	assert.Equal(t, 1, querier.calls)
	assert.Equal(t, SourceSynthetic, result.Source)
	assert.Contains(t, result.FallbackReason, "empty")
}

func TestLoadWarehouseCircuitBreakerOpens(t *testing.T) {
	querier := &fakeQuerier{err: errors.New("timeout")}
	settings := testSettings()
	settings.RetryAttempts = 0
	svc := NewDataSourceService(testConfig(), nil, querier, settings)

	for i := 0; i < 2; i++ {
		_, err := svc.Load(context.Background(), LoadRequest{Source: SourceWarehouse})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, querier.calls)
	assert.Equal(t, "open", svc.BreakerState())

	result, err := svc.Load(context.Background(), LoadRequest{Source: SourceWarehouse})
	require.NoError(t, err)
	assert.Equal(t, 2, querier.calls)
	assert.Contains(t, result.FallbackReason, "circuit breaker is open")
}

func TestLoadUsesConfiguredDefaults(t *testing.T) {
	cfg := testConfig()
	cfg.DatasetSeed = "5"
	cfg.DatasetStartYear = 2024
	svc := NewDataSourceService(cfg, nil, &fakeQuerier{}, testSettings())

	result, err := svc.Load(context.Background(), LoadRequest{})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), *result.Seed)
	assert.Equal(t, []int{2024}, DistinctYears(result.Records))
}
