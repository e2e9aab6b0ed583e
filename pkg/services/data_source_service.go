package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	config "tourism-dashboard-api/configs"
	"tourism-dashboard-api/pkg/models"

	"github.com/cenkalti/backoff/v4"
	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	SourceSynthetic = "synthetic"
	SourceWarehouse = "warehouse"
)

// RecordSource はテーブル全体を返すデータソースです。
type RecordSource interface {
	FetchRecords(ctx context.Context) ([]models.Record, error)
}

// LoadRequest セッション作成時のデータ読み込み条件。空の項目は設定の既定値を使います。
type LoadRequest struct {
	Source    string
	Seed      *uint64
	StartYear int
	EndYear   int
	Warehouse *models.WarehouseParams
}

// LoadResult 読み込んだテーブルと、実際に使われたデータソース
type LoadResult struct {
	Records        []models.Record
	Source         string
	Seed           *uint64
	Warnings       []string
	FallbackReason string
}

// DataSourceSettings はウェアハウス呼び出しのリトライとサーキットブレーカーの設定です。
type DataSourceSettings struct {
	RetryAttempts    uint64
	RetryInterval    time.Duration
	FailureThreshold uint32
	// BreakerTimeout はオープン状態からハーフオープンに移るまでの時間
	BreakerTimeout time.Duration
}

// DefaultDataSourceSettings returns the production defaults.
func DefaultDataSourceSettings() DataSourceSettings {
	return DataSourceSettings{
		RetryAttempts:    2,
		RetryInterval:    500 * time.Millisecond,
		FailureThreshold: 3,
		BreakerTimeout:   30 * time.Second,
	}
}

// DataSourceService は合成データまたはリモートウェアハウスからテーブルを読み込みます。
// ウェアハウスの失敗は致命的ではなく、警告を付けて合成データに切り替えます。
type DataSourceService struct {
	generator     *DatasetGenerator
	querier       RecordQuerier
	warehouse     WarehouseConfig
	defaultSource string
	startYear     int
	endYear       int
	seed          *uint64
	settings      DataSourceSettings
	breaker       *gobreaker.CircuitBreaker[[]models.Record]
}

// NewDataSourceService は新しいDataSourceServiceを生成します。querier が nil なら pgx で接続します。
func NewDataSourceService(cfg *config.Config, generator *DatasetGenerator, querier RecordQuerier, settings DataSourceSettings) *DataSourceService {
	if generator == nil {
		generator = NewDatasetGenerator(nil)
	}
	if querier == nil {
		querier = PgxQuerier{}
	}

	s := &DataSourceService{
		generator:     generator,
		querier:       querier,
		warehouse:     WarehouseConfigFrom(cfg.Warehouse),
		defaultSource: cfg.DataSource,
		startYear:     cfg.DatasetStartYear,
		endYear:       cfg.DatasetEndYear,
		seed:          cfg.Seed(),
		settings:      settings,
	}

	s.breaker = gobreaker.NewCircuitBreaker[[]models.Record](gobreaker.Settings{
		Name:        "warehouse",
		MaxRequests: 1,
		Timeout:     settings.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("⚠️ Circuit breaker %s: %s -> %s", name, from, to)
		},
	})
	return s
}

// Generator returns the generator used for synthetic tables.
func (s *DataSourceService) Generator() *DatasetGenerator {
	return s.generator
}

// Load はリクエストに応じてテーブルを読み込みます。
func (s *DataSourceService) Load(ctx context.Context, req LoadRequest) (*LoadResult, error) {
	source := req.Source
	if source == "" {
		source = s.defaultSource
	}

	switch source {
	case SourceSynthetic:
		return s.loadSynthetic(req, nil)
	case SourceWarehouse:
		records, err := s.loadWarehouse(ctx, req.Warehouse)
		if err == nil {
			log.Printf("✅ Loaded %d records from the warehouse", len(records))
			return &LoadResult{Records: records, Source: SourceWarehouse}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("⚠️ Warehouse unavailable, falling back to synthetic data: %v", err)
		return s.loadSynthetic(req, err)
	}
	return nil, fmt.Errorf("unknown data source %q: %w", source, ErrInvalidRange)
}

func (s *DataSourceService) loadSynthetic(req LoadRequest, fallbackErr error) (*LoadResult, error) {
	opts := GenerateOptions{StartYear: s.startYear, EndYear: s.endYear, Seed: s.seed}
	if req.StartYear != 0 {
		opts.StartYear = req.StartYear
	}
	if req.EndYear != 0 {
		opts.EndYear = req.EndYear
	}
	if req.Seed != nil {
		opts.Seed = req.Seed
	}

	generated, err := s.generator.Generate(opts)
	if err != nil {
		return nil, err
	}

	seed := generated.Seed
	result := &LoadResult{Records: generated.Records, Source: SourceSynthetic, Seed: &seed}
	if fallbackErr != nil {
		result.FallbackReason = fallbackErr.Error()
		result.Warnings = append(result.Warnings, "warehouse unavailable, using synthetic data: "+fallbackErr.Error())
	}
	return result, nil
}

// loadWarehouse は設定を検証し、サーキットブレーカーの内側でリトライ付きの読み込みを行います。
func (s *DataSourceService) loadWarehouse(ctx context.Context, params *models.WarehouseParams) ([]models.Record, error) {
	client, err := NewWarehouseClient(s.warehouse.WithParams(params), s.querier, s.generator.Reference())
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, client)
}

func (s *DataSourceService) fetch(ctx context.Context, source RecordSource) ([]models.Record, error) {
	return s.breaker.Execute(func() ([]models.Record, error) {
		var records []models.Record
		err := backoff.Retry(
			func() error {
				var fetchErr error
				records, fetchErr = source.FetchRecords(ctx)
				if fetchErr == nil {
					return nil
				}
				var cfgErr *ConfigurationError
				if errors.Is(fetchErr, ErrInsufficientData) || errors.As(fetchErr, &cfgErr) {
					return backoff.Permanent(fetchErr)
				}
				return fetchErr
			},
			backoff.WithContext(
				backoff.WithMaxRetries(backoff.NewConstantBackOff(s.settings.RetryInterval), s.settings.RetryAttempts),
				ctx,
			),
		)
		return records, err
	})
}

// BreakerState はウェアハウス用サーキットブレーカーの現在の状態です。
func (s *DataSourceService) BreakerState() string {
	return s.breaker.State().String()
}
