package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	config "tourism-dashboard-api/configs"
	"tourism-dashboard-api/pkg/models"

	"github.com/Masterminds/squirrel"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
)

const defaultWarehouseTimeout = 10 * time.Second

// identifierPattern はスキーマ名・テーブル名として許可する形式です。
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var warehouseValidate = newWarehouseValidator()

func newWarehouseValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("sqlident", func(fl validator.FieldLevel) bool {
		return identifierPattern.MatchString(fl.Field().String())
	})
	return v
}

// WarehouseConfig はクエリごとに渡すリモートウェアハウスの接続パラメータです。
type WarehouseConfig struct {
	Host      string        `validate:"required"`
	Port      int           `validate:"required,min=1,max=65535"`
	User      string        `validate:"required"`
	Password  string        `validate:"-"`
	Database  string        `validate:"required"`
	Schema    string        `validate:"required,sqlident"`
	Warehouse string        `validate:"omitempty,max=255"`
	Table     string        `validate:"required,sqlident"`
	SSLMode   string        `validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	Timeout   time.Duration `validate:"-"`
}

// WarehouseConfigFrom は環境変数の設定から WarehouseConfig を作成します。
func WarehouseConfigFrom(cfg config.WarehouseConfig) WarehouseConfig {
	return WarehouseConfig{
		Host:      cfg.Host,
		Port:      cfg.Port,
		User:      cfg.User,
		Password:  cfg.Password,
		Database:  cfg.Database,
		Schema:    cfg.Schema,
		Warehouse: cfg.Name,
		Table:     cfg.Table,
		SSLMode:   cfg.SSLMode,
		Timeout:   cfg.Timeout,
	}
}

// WithParams はリクエストで指定された値で上書きした設定を返します。空の項目は元の値のままです。
// 接続先（ホスト・ポート・ユーザー）を変更する場合、設定済みのパスワードは引き継ぎません。
func (c WarehouseConfig) WithParams(p *models.WarehouseParams) WarehouseConfig {
	if p == nil {
		return c
	}
	if p.Host != "" || p.Port != 0 || p.User != "" {
		c.Password = ""
	}
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&c.Host, p.Host)
	override(&c.User, p.User)
	override(&c.Password, p.Password)
	override(&c.Database, p.Database)
	override(&c.Schema, p.Schema)
	override(&c.Warehouse, p.Name)
	override(&c.Table, p.Table)
	if p.Port != 0 {
		c.Port = p.Port
	}
	return c
}

// Validate は必須項目と識別子の形式を検証し、最初の問題を ConfigurationError として返します。
func (c WarehouseConfig) Validate() error {
	err := warehouseValidate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := "is " + fe.Tag()
		switch fe.Tag() {
		case "required":
			reason = "is required"
		case "sqlident":
			reason = fmt.Sprintf("%q is not a valid identifier", fe.Value())
		case "oneof":
			reason = fmt.Sprintf("must be one of: %s", fe.Param())
		case "min", "max":
			reason = fmt.Sprintf("must satisfy %s=%s", fe.Tag(), fe.Param())
		}
		return &ConfigurationError{Field: fe.Field(), Reason: reason}
	}
	return &ConfigurationError{Reason: err.Error()}
}

// PgxConfig は pgx の接続設定を返します。各値は文字列に埋め込まず、そのまま設定します。
func (c WarehouseConfig) PgxConfig() (*pgx.ConnConfig, error) {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	// SSLMode は Validate で列挙値に制限済み
	connCfg, err := pgx.ParseConfig("sslmode=" + sslMode)
	if err != nil {
		return nil, &ConfigurationError{Field: "SSLMode", Reason: err.Error()}
	}

	port := uint16(c.Port)
	connCfg.Host = c.Host
	connCfg.Port = port
	connCfg.User = c.User
	connCfg.Password = c.Password
	connCfg.Database = c.Database
	connCfg.ConnectTimeout = c.timeout()
	if connCfg.TLSConfig != nil {
		connCfg.TLSConfig.ServerName = c.Host
	}
	for _, fb := range connCfg.Fallbacks {
		fb.Host = c.Host
		fb.Port = port
		if fb.TLSConfig != nil {
			fb.TLSConfig.ServerName = c.Host
		}
	}
	if c.Warehouse != "" {
		connCfg.RuntimeParams["application_name"] = c.Warehouse
	}
	return connCfg, nil
}

func (c WarehouseConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultWarehouseTimeout
	}
	return c.Timeout
}

// WarehouseRow はウェアハウスから読み取る1行です。列名は SELECT の別名に対応します。
type WarehouseRow struct {
	Entity   string `db:"entity"`
	Activity string `db:"activity"`
	Visits   int64  `db:"visits"`
	Month    int    `db:"month"`
	Year     int    `db:"year"`
	Region   string `db:"region"`
	Funding  int64  `db:"funding"`
}

// RecordQuerier はウェアハウスに SQL を発行して行を返します。テストではフェイクに置き換えます。
type RecordQuerier interface {
	QueryRows(ctx context.Context, cfg WarehouseConfig, sql string, args ...any) ([]WarehouseRow, error)
}

// PgxQuerier は呼び出しごとに pgx で接続してクエリを実行します。
type PgxQuerier struct{}

// QueryRows connects, runs the query and closes the connection.
func (PgxQuerier) QueryRows(ctx context.Context, cfg WarehouseConfig, sql string, args ...any) ([]WarehouseRow, error) {
	connCfg, err := cfg.PgxConfig()
	if err != nil {
		return nil, err
	}

	conn, err := pgx.ConnectConfig(ctx, connCfg)
	if err != nil {
		return nil, fmt.Errorf("pgx.ConnectConfig: %w", err)
	}
	defer conn.Close(context.Background())

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("conn.Query: %w", err)
	}
	result, err := pgx.CollectRows(rows, pgx.RowToStructByName[WarehouseRow])
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows: %w", err)
	}
	return result, nil
}

// WarehouseClient はリモートウェアハウスからテーブルを読み込む RecordSource です。
type WarehouseClient struct {
	cfg     WarehouseConfig
	querier RecordQuerier
	ref     *ReferenceData
}

// NewWarehouseClient は設定を検証してクライアントを生成します。
func NewWarehouseClient(cfg WarehouseConfig, querier RecordQuerier, ref *ReferenceData) (*WarehouseClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if querier == nil {
		querier = PgxQuerier{}
	}
	if ref == nil {
		ref = DefaultReferenceData()
	}
	return &WarehouseClient{cfg: cfg, querier: querier, ref: ref}, nil
}

// builder は Postgres 形式のプレースホルダーを使う squirrel のビルダーを返します。
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// SelectQuery は元のウェアハウスの列名を Record の列名に対応付ける SELECT 文を組み立てます。
func (w *WarehouseClient) SelectQuery(filter models.RecordFilter) (string, []any, error) {
	query := builder().
		Select(
			"state AS entity",
			"art_form AS activity",
			"tourist_visits AS visits",
			"month",
			"year",
			"region",
			"funding_received AS funding",
		).
		From(pgx.Identifier{w.cfg.Schema, w.cfg.Table}.Sanitize()).
		OrderBy("year", "month", "state")

	if len(filter.Years) > 0 {
		query = query.Where(squirrel.Eq{"year": filter.Years})
	}
	if len(filter.Regions) > 0 {
		query = query.Where(squirrel.Eq{"region": filter.Regions})
	}
	if len(filter.Months) > 0 {
		query = query.Where(squirrel.Eq{"month": filter.Months})
	}
	if len(filter.Entities) > 0 {
		query = query.Where(squirrel.Eq{"state": filter.Entities})
	}
	return query.ToSql()
}

// FetchRecords はテーブル全体を読み込み、座標と欠けている地域を参照データで補います。
func (w *WarehouseClient) FetchRecords(ctx context.Context) ([]models.Record, error) {
	sql, args, err := w.SelectQuery(models.RecordFilter{})
	if err != nil {
		return nil, fmt.Errorf("build warehouse query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, w.cfg.timeout())
	defer cancel()

	rows, err := w.querier.QueryRows(ctx, w.cfg, sql, args...)
	if err != nil {
		return nil, err
	}

	records := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		region := row.Region
		if region == "" {
			region = w.ref.RegionOf(row.Entity)
		}
		coord := w.ref.CoordinateOf(row.Entity)
		records = append(records, models.Record{
			Entity:    row.Entity,
			Activity:  row.Activity,
			Visits:    max(row.Visits, 0),
			Month:     row.Month,
			Year:      row.Year,
			Region:    region,
			Funding:   max(row.Funding, 0),
			Latitude:  coord.Latitude,
			Longitude: coord.Longitude,
		})
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("warehouse table %s.%s is empty: %w", w.cfg.Schema, w.cfg.Table, ErrInsufficientData)
	}
	return records, nil
}
