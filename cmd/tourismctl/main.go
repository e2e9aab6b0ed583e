package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	config "tourism-dashboard-api/configs"
	"tourism-dashboard-api/pkg/models"
	"tourism-dashboard-api/pkg/services"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfg *config.Config

// tableFlags はテーブルの読み込み条件です。どのサブコマンドでも共通です。
type tableFlags struct {
	source    string
	seed      uint64
	startYear int
	endYear   int
}

func (f *tableFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.source, "source", "", "data source (synthetic or warehouse), defaults to DATA_SOURCE")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "random seed for synthetic data (defaults to DATASET_SEED)")
	cmd.Flags().IntVar(&f.startYear, "start-year", 0, "first year to generate (defaults to DATASET_START_YEAR)")
	cmd.Flags().IntVar(&f.endYear, "end-year", 0, "last year to generate (defaults to DATASET_END_YEAR)")
}

// load はフラグに従ってテーブルを読み込みます。ウェアハウス障害時の警告は stderr に出します。
func (f *tableFlags) load(cmd *cobra.Command) (*services.LoadResult, error) {
	ref, err := referenceData()
	if err != nil {
		return nil, err
	}
	dataSources := services.NewDataSourceService(cfg, services.NewDatasetGenerator(ref), nil, services.DefaultDataSourceSettings())

	req := services.LoadRequest{Source: f.source, StartYear: f.startYear, EndYear: f.endYear}
	if cmd.Flags().Changed("seed") {
		seed := f.seed
		req.Seed = &seed
	}

	result, err := dataSources.Load(cmd.Context(), req)
	if err != nil {
		return nil, err
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠️ %s\n", w)
	}
	return result, nil
}

func referenceData() (*services.ReferenceData, error) {
	if cfg.ReferenceDataFile == "" {
		return services.DefaultReferenceData(), nil
	}
	file, err := config.LoadReferenceFile(cfg.ReferenceDataFile)
	if err != nil {
		return nil, err
	}
	return services.ReferenceDataFromFile(file)
}

// selection は単一年の絞り込み条件を読み、対象の年とフィルター済みの行を返します。
func selection(records []models.Record, year int, regions []string, months []int) (int, []models.Record, error) {
	year, err := services.ResolveYear(records, year)
	if err != nil {
		return 0, nil, err
	}
	filtered := services.FilterRecords(records, models.RecordFilter{Years: []int{year}, Regions: regions, Months: months})
	return year, filtered, nil
}

// openOutput は "-" または空なら stdout、それ以外はファイルを作成します。
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, f.Close, nil
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tourismctl",
		Short:         "Generate and analyse the India art, culture and tourism dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env がなくても環境変数だけで動く
			_ = godotenv.Load()
			cfg = config.LoadConfig()
			return nil
		},
	}

	rootCmd.AddCommand(
		generateCmd(),
		reportCmd(),
		forecastCmd(),
		chartCmd(),
	)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	rootCmd := newRootCmd()
	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	stop()
	if err != nil {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}
}
