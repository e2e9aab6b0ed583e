//go:build ignore

package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	config "tourism-dashboard-api/configs"
	"tourism-dashboard-api/pkg/services"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

// 合成データを生成し、WAREHOUSE_* で指定したテーブルへ一括投入します。
//
//	go run scripts/seed_warehouse.go -seed 42 -truncate
func main() {
	seed := flag.Uint64("seed", 42, "random seed")
	truncate := flag.Bool("truncate", false, "empty the table before loading")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}
	cfg := config.LoadConfig()

	wh := services.WarehouseConfigFrom(cfg.Warehouse)
	if err := wh.Validate(); err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Printf("接続先: %s:%d/%s (%s.%s)", wh.Host, wh.Port, wh.Database, wh.Schema, wh.Table)

	generated, err := services.NewDatasetGenerator(nil).Generate(services.GenerateOptions{
		StartYear: cfg.DatasetStartYear,
		EndYear:   cfg.DatasetEndYear,
		Seed:      seed,
	})
	if err != nil {
		log.Fatalf("❌ データ生成に失敗: %v", err)
	}

	connCfg, err := wh.PgxConfig()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	ctx := context.Background()
	conn, err := pgx.ConnectConfig(ctx, connCfg)
	if err != nil {
		log.Fatalf("❌ 接続に失敗: %v", err)
	}
	defer conn.Close(ctx)

	table := pgx.Identifier{wh.Schema, wh.Table}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	state TEXT NOT NULL,
	art_form TEXT NOT NULL,
	tourist_visits BIGINT NOT NULL,
	month INT NOT NULL,
	year INT NOT NULL,
	region TEXT,
	funding_received BIGINT NOT NULL
)`, table.Sanitize())
	if _, err := conn.Exec(ctx, ddl); err != nil {
		log.Fatalf("❌ テーブル作成に失敗: %v", err)
	}
	if *truncate {
		if _, err := conn.Exec(ctx, "TRUNCATE "+table.Sanitize()); err != nil {
			log.Fatalf("❌ TRUNCATE に失敗: %v", err)
		}
	}

	records := generated.Records
	n, err := conn.CopyFrom(ctx, table,
		[]string{"state", "art_form", "tourist_visits", "month", "year", "region", "funding_received"},
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			r := records[i]
			return []any{r.Entity, r.Activity, r.Visits, r.Month, r.Year, r.Region, r.Funding}, nil
		}),
	)
	if err != nil {
		log.Fatalf("❌ 投入に失敗: %v", err)
	}
	log.Printf("✅ %d 行を投入しました (seed %d)", n, generated.Seed)
}
