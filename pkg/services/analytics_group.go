package services

import (
	"cmp"
	"fmt"
	"slices"
	"sort"
	"strings"

	"tourism-dashboard-api/pkg/models"
)

// Field はグループ化キーに使える列です。
type Field int

const (
	FieldEntity Field = iota
	FieldActivity
	FieldRegion
	FieldMonth
	FieldYear
	// FieldCoordinates は緯度・経度の組をひとつのキーとして扱う
	FieldCoordinates
)

var fieldNames = map[string]Field{
	"entity":      FieldEntity,
	"state":       FieldEntity,
	"activity":    FieldActivity,
	"art_form":    FieldActivity,
	"region":      FieldRegion,
	"month":       FieldMonth,
	"year":        FieldYear,
	"coordinates": FieldCoordinates,
}

// ParseField は列名（entity, activity, region, month, year, coordinates）を Field に変換します。
func ParseField(name string) (Field, error) {
	f, ok := fieldNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown group field %q: %w", name, ErrInvalidRange)
	}
	return f, nil
}

// ParseFields parses a comma separated field list such as "region,month".
func ParseFields(list string) ([]Field, error) {
	var fields []Field
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := ParseField(part)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no group fields given: %w", ErrInvalidRange)
	}
	return fields, nil
}

// Measure は合計・並び替えの対象となる数値列です。
type Measure int

const (
	MeasureVisits Measure = iota
	MeasureFunding
)

// ParseMeasure は "visits" または "funding" を Measure に変換します。
func ParseMeasure(name string) (Measure, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "visits", "tourist_visits":
		return MeasureVisits, nil
	case "funding", "funding_received":
		return MeasureFunding, nil
	}
	return 0, fmt.Errorf("unknown measure %q: %w", name, ErrInvalidRange)
}

func (m Measure) of(row models.AggregateRow) int64 {
	if m == MeasureFunding {
		return row.Funding
	}
	return row.Visits
}

func keyOf(r models.Record, keys []Field) models.GroupKey {
	var k models.GroupKey
	for _, f := range keys {
		switch f {
		case FieldEntity:
			k.Entity = r.Entity
		case FieldActivity:
			k.Activity = r.Activity
		case FieldRegion:
			k.Region = r.Region
		case FieldMonth:
			k.Month = r.Month
		case FieldYear:
			k.Year = r.Year
		case FieldCoordinates:
			k.Latitude = r.Latitude
			k.Longitude = r.Longitude
		}
	}
	return k
}

func compareKeys(a, b models.GroupKey, keys []Field) int {
	for _, f := range keys {
		var c int
		switch f {
		case FieldEntity:
			c = strings.Compare(a.Entity, b.Entity)
		case FieldActivity:
			c = strings.Compare(a.Activity, b.Activity)
		case FieldRegion:
			c = strings.Compare(a.Region, b.Region)
		case FieldMonth:
			c = cmp.Compare(a.Month, b.Month)
		case FieldYear:
			c = cmp.Compare(a.Year, b.Year)
		case FieldCoordinates:
			if c = cmp.Compare(a.Latitude, b.Latitude); c == 0 {
				c = cmp.Compare(a.Longitude, b.Longitude)
			}
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// GroupSum はキーの組み合わせごとに訪問者数と予算を合計します。
// 入力に存在するキーごとにちょうど1行を返し、キーの昇順に並べます。
func GroupSum(records []models.Record, keys ...Field) []models.AggregateRow {
	index := make(map[models.GroupKey]int)
	rows := make([]models.AggregateRow, 0)

	for _, r := range records {
		k := keyOf(r, keys)
		i, ok := index[k]
		if !ok {
			i = len(rows)
			index[k] = i
			rows = append(rows, models.AggregateRow{Key: k})
		}
		rows[i].Visits += r.Visits
		rows[i].Funding += r.Funding
		rows[i].Records++
	}

	slices.SortStableFunc(rows, func(a, b models.AggregateRow) int {
		return compareKeys(a.Key, b.Key, keys)
	})
	return rows
}

// TopN は指定した値で安定ソートし、先頭 n 件を返します。同値の行は入力順を保ちます。
// n が0以下または行数より大きい場合はすべての行を返します。
func TopN(rows []models.AggregateRow, by Measure, n int, descending bool) []models.AggregateRow {
	sorted := make([]models.AggregateRow, len(rows))
	copy(sorted, rows)

	sort.SliceStable(sorted, func(i, j int) bool {
		if descending {
			return by.of(sorted[i]) > by.of(sorted[j])
		}
		return by.of(sorted[i]) < by.of(sorted[j])
	})

	if n > 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// FilterRecords はフィルター条件に一致するレコードを新しいスライスで返します。
func FilterRecords(records []models.Record, filter models.RecordFilter) []models.Record {
	years := toSet(filter.Years)
	months := toSet(filter.Months)
	regions := toSet(filter.Regions)
	entities := toSet(filter.Entities)

	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if years != nil && !years[r.Year] {
			continue
		}
		if months != nil && !months[r.Month] {
			continue
		}
		if regions != nil && !regions[r.Region] {
			continue
		}
		if entities != nil && !entities[r.Entity] {
			continue
		}
		out = append(out, r)
	}
	return out
}

func toSet[T comparable](values []T) map[T]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[T]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// YearlyTotals 年ごとの訪問者合計（年の昇順）
func YearlyTotals(records []models.Record) []models.YearTotal {
	rows := GroupSum(records, FieldYear)
	totals := make([]models.YearTotal, len(rows))
	for i, row := range rows {
		totals[i] = models.YearTotal{Year: row.Key.Year, Visits: row.Visits}
	}
	return totals
}

// DistinctYears テーブルに含まれる年（昇順）
func DistinctYears(records []models.Record) []int {
	set := make(map[int]bool)
	for _, r := range records {
		set[r.Year] = true
	}
	years := make([]int, 0, len(set))
	for y := range set {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// DistinctRegions テーブルに含まれる地域（昇順）
func DistinctRegions(records []models.Record) []string {
	set := make(map[string]bool)
	for _, r := range records {
		set[r.Region] = true
	}
	regions := make([]string, 0, len(set))
	for reg := range set {
		regions = append(regions, reg)
	}
	sort.Strings(regions)
	return regions
}
