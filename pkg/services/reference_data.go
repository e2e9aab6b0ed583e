package services

import (
	"fmt"
	"sort"

	config "tourism-dashboard-api/configs"
	"tourism-dashboard-api/pkg/models"
)

const (
	// FallbackActivity 州に芸術形式の登録がない場合に使う値
	FallbackActivity = "Traditional Dance"
	// UnknownRegion 地域マッピングにない州の地域名
	UnknownRegion = "Other"
)

// MonthNames は月番号（1-12）から英語の月名への対応です。
var MonthNames = [13]string{"", "January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December"}

// MonthName returns the English month name, or "" for an out-of-range month.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return MonthNames[month]
}

// ReferenceData はデータ生成に使う固定の参照テーブルです。実行時には変更しません。
type ReferenceData struct {
	Entities       []string
	RegionGroups   map[string]string
	Activities     map[string][]string
	Coordinates    map[string]models.Coordinate
	Popularity     map[string]float64
	SeasonalCurves map[string][12]float64
	YearlyGrowth   map[int]float64
}

// RegionOf 州の地域グループ。未登録なら "Other"。
func (r *ReferenceData) RegionOf(entity string) string {
	if region, ok := r.RegionGroups[entity]; ok {
		return region
	}
	return UnknownRegion
}

// PopularityOf 州の人気係数。未登録なら 1.0。
func (r *ReferenceData) PopularityOf(entity string) float64 {
	if p, ok := r.Popularity[entity]; ok {
		return p
	}
	return 1.0
}

// SeasonalMultiplier 地域の月別係数。曲線がない地域は全月 1.0。
func (r *ReferenceData) SeasonalMultiplier(region string, month int) float64 {
	curve, ok := r.SeasonalCurves[region]
	if !ok || month < 1 || month > 12 {
		return 1.0
	}
	return curve[month-1]
}

// GrowthFactor 年ごとの成長係数。未登録なら 1.0。
func (r *ReferenceData) GrowthFactor(year int) float64 {
	if g, ok := r.YearlyGrowth[year]; ok {
		return g
	}
	return 1.0
}

// ActivitiesOf 州の芸術形式リスト（未登録なら nil）
func (r *ReferenceData) ActivitiesOf(entity string) []string {
	return r.Activities[entity]
}

// CoordinateOf 州の座標。未登録なら原点。
func (r *ReferenceData) CoordinateOf(entity string) models.Coordinate {
	return r.Coordinates[entity]
}

// Regions returns the region groups that have a seasonal curve, sorted.
func (r *ReferenceData) Regions() []string {
	regions := make([]string, 0, len(r.SeasonalCurves))
	for region := range r.SeasonalCurves {
		regions = append(regions, region)
	}
	sort.Strings(regions)
	return regions
}

// EntitiesIn 指定地域に属する州（Entities の順序）
func (r *ReferenceData) EntitiesIn(region string) []string {
	var out []string
	for _, e := range r.Entities {
		if r.RegionOf(e) == region {
			out = append(out, e)
		}
	}
	return out
}

// ReferenceDataFromFile は YAML で定義された参照テーブルを ReferenceData に変換します。
// 季節曲線はちょうど12要素でなければなりません。
func ReferenceDataFromFile(file *config.ReferenceFile) (*ReferenceData, error) {
	if file == nil || len(file.Entities) == 0 {
		return nil, fmt.Errorf("reference file defines no entities: %w", ErrInvalidRange)
	}

	ref := &ReferenceData{
		Entities:       make([]string, 0, len(file.Entities)),
		RegionGroups:   make(map[string]string, len(file.Entities)),
		Activities:     make(map[string][]string, len(file.Entities)),
		Coordinates:    make(map[string]models.Coordinate, len(file.Entities)),
		Popularity:     make(map[string]float64, len(file.Entities)),
		SeasonalCurves: make(map[string][12]float64, len(file.SeasonalCurves)),
		YearlyGrowth:   make(map[int]float64, len(file.YearlyGrowth)),
	}

	for _, e := range file.Entities {
		if e.Name == "" {
			return nil, fmt.Errorf("reference entity without a name: %w", ErrInvalidRange)
		}
		ref.Entities = append(ref.Entities, e.Name)
		if e.Region != "" {
			ref.RegionGroups[e.Name] = e.Region
		}
		if e.Popularity > 0 {
			ref.Popularity[e.Name] = e.Popularity
		}
		if len(e.Activities) > 0 {
			ref.Activities[e.Name] = append([]string(nil), e.Activities...)
		}
		ref.Coordinates[e.Name] = models.Coordinate{Latitude: e.Latitude, Longitude: e.Longitude}
	}

	for region, curve := range file.SeasonalCurves {
		if len(curve) != 12 {
			return nil, fmt.Errorf("seasonal curve for %s has %d entries, want 12: %w", region, len(curve), ErrInvalidRange)
		}
		var c [12]float64
		copy(c[:], curve)
		ref.SeasonalCurves[region] = c
	}

	for year, g := range file.YearlyGrowth {
		ref.YearlyGrowth[year] = g
	}
	return ref, nil
}

// DefaultReferenceData はインドの30州・連邦直轄領の参照テーブルを返します。
// 呼び出しごとに新しいコピーを返します。
func DefaultReferenceData() *ReferenceData {
	regions := map[string][]string{
		"North":     {"Delhi", "Haryana", "Himachal Pradesh", "Jammu and Kashmir", "Punjab", "Rajasthan", "Uttar Pradesh", "Uttarakhand"},
		"South":     {"Andhra Pradesh", "Karnataka", "Kerala", "Tamil Nadu", "Telangana"},
		"East":      {"Bihar", "Jharkhand", "Odisha", "West Bengal"},
		"West":      {"Goa", "Gujarat", "Maharashtra"},
		"Central":   {"Chhattisgarh", "Madhya Pradesh"},
		"Northeast": {"Arunachal Pradesh", "Assam", "Manipur", "Meghalaya", "Mizoram", "Nagaland", "Sikkim", "Tripura"},
	}
	regionGroups := make(map[string]string, 30)
	for region, states := range regions {
		for _, s := range states {
			regionGroups[s] = region
		}
	}

	return &ReferenceData{
		Entities: []string{
			"Andhra Pradesh", "Arunachal Pradesh", "Assam", "Bihar", "Chhattisgarh",
			"Goa", "Gujarat", "Haryana", "Himachal Pradesh", "Jharkhand", "Karnataka",
			"Kerala", "Madhya Pradesh", "Maharashtra", "Manipur", "Meghalaya", "Mizoram",
			"Nagaland", "Odisha", "Punjab", "Rajasthan", "Sikkim", "Tamil Nadu", "Telangana",
			"Tripura", "Uttar Pradesh", "Uttarakhand", "West Bengal", "Delhi", "Jammu and Kashmir",
		},
		RegionGroups: regionGroups,
		Activities: map[string][]string{
			"Andhra Pradesh":    {"Kuchipudi", "Kalamkari", "Budithi Brass Craft"},
			"Arunachal Pradesh": {"Monpa Mask", "Thangka Paintings", "Wancho Wood Carving"},
			"Assam":             {"Bihu Dance", "Sattriya Dance", "Assam Silk Weaving"},
			"Bihar":             {"Madhubani Painting", "Manjusha Art", "Sujni Embroidery"},
			"Chhattisgarh":      {"Panthi Dance", "Godna Art", "Bell Metal Craft"},
			"Goa":               {"Dekni Dance", "Fugdi Dance", "Goan Lacework"},
			"Gujarat":           {"Garba", "Patola Weaving", "Rogan Art"},
			"Haryana":           {"Phag Dance", "Embroidery Craft", "Charpai Weaving"},
			"Himachal Pradesh":  {"Kullu Shawl Weaving", "Chamba Rumal", "Kangra Painting"},
			"Jharkhand":         {"Sohrai Painting", "Chhau Dance", "Dokra Metal Craft"},
			"Karnataka":         {"Yakshagana", "Bidri Ware", "Mysore Painting"},
			"Kerala":            {"Kathakali", "Mohiniyattam", "Aranmula Kannadi"},
			"Madhya Pradesh":    {"Gond Art", "Bagh Print", "Chanderi Weaving"},
			"Maharashtra":       {"Lavani Dance", "Warli Painting", "Paithani Sarees"},
			"Manipur":           {"Manipuri Dance", "Longpi Pottery", "Phanek Weaving"},
			"Meghalaya":         {"Nongkrem Dance", "Bamboo Craft", "Garo Wangala Dance"},
			"Mizoram":           {"Cheraw Dance", "Mizo Bamboo Dance", "Puanchei Textiles"},
			"Nagaland":          {"Hornbill Festival Dances", "Naga Shawl Weaving", "Wood Carving"},
			"Odisha":            {"Odissi Dance", "Pattachitra", "Applique Work"},
			"Punjab":            {"Bhangra", "Phulkari Embroidery", "Jutti Making"},
			"Rajasthan":         {"Ghoomar Dance", "Blue Pottery", "Miniature Painting"},
			"Sikkim":            {"Mask Dance", "Thangka Painting", "Carpet Weaving"},
			"Tamil Nadu":        {"Bharatanatyam", "Tanjore Painting", "Stone Carving"},
			"Telangana":         {"Perini Shivatandavam", "Nirmal Paintings", "Bidri Craft"},
			"Tripura":           {"Hojagiri Dance", "Bamboo Craft", "Risa Textile Weaving"},
			"Uttar Pradesh":     {"Kathak Dance", "Chikankari", "Lucknow Zardozi"},
			"Uttarakhand":       {"Choliya Dance", "Aipan Art", "Ringal Craft"},
			"West Bengal":       {"Durga Puja Art", "Kantha Stitch", "Patachitra"},
			"Delhi":             {"Kathak Dance", "Zardozi Work", "Meenakari Craft"},
			"Jammu and Kashmir": {"Rauf Dance", "Pashmina Weaving", "Walnut Wood Carving"},
		},
		Coordinates: map[string]models.Coordinate{
			"Andhra Pradesh":    {Latitude: 15.9129, Longitude: 79.7400},
			"Arunachal Pradesh": {Latitude: 28.2180, Longitude: 94.7278},
			"Assam":             {Latitude: 26.2006, Longitude: 92.9376},
			"Bihar":             {Latitude: 25.0961, Longitude: 85.3131},
			"Chhattisgarh":      {Latitude: 21.2787, Longitude: 81.8661},
			"Goa":               {Latitude: 15.2993, Longitude: 74.1240},
			"Gujarat":           {Latitude: 22.2587, Longitude: 71.1924},
			"Haryana":           {Latitude: 29.0588, Longitude: 76.0856},
			"Himachal Pradesh":  {Latitude: 31.1048, Longitude: 77.1734},
			"Jharkhand":         {Latitude: 23.6102, Longitude: 85.2799},
			"Karnataka":         {Latitude: 15.3173, Longitude: 75.7139},
			"Kerala":            {Latitude: 10.8505, Longitude: 76.2711},
			"Madhya Pradesh":    {Latitude: 23.4733, Longitude: 77.9470},
			"Maharashtra":       {Latitude: 19.7515, Longitude: 75.7139},
			"Manipur":           {Latitude: 24.6637, Longitude: 93.9063},
			"Meghalaya":         {Latitude: 25.4670, Longitude: 91.3662},
			"Mizoram":           {Latitude: 23.1645, Longitude: 92.9376},
			"Nagaland":          {Latitude: 26.1584, Longitude: 94.5624},
			"Odisha":            {Latitude: 20.9517, Longitude: 85.0985},
			"Punjab":            {Latitude: 31.1471, Longitude: 75.3412},
			"Rajasthan":         {Latitude: 27.0238, Longitude: 74.2179},
			"Sikkim":            {Latitude: 27.5330, Longitude: 88.5122},
			"Tamil Nadu":        {Latitude: 11.1271, Longitude: 78.6569},
			"Telangana":         {Latitude: 18.1124, Longitude: 79.0193},
			"Tripura":           {Latitude: 23.9408, Longitude: 91.9882},
			"Uttar Pradesh":     {Latitude: 26.8467, Longitude: 80.9462},
			"Uttarakhand":       {Latitude: 30.0668, Longitude: 79.0193},
			"West Bengal":       {Latitude: 22.9868, Longitude: 87.8550},
			"Delhi":             {Latitude: 28.7041, Longitude: 77.1025},
			"Jammu and Kashmir": {Latitude: 33.7782, Longitude: 76.5762},
		},
		Popularity: map[string]float64{
			"Rajasthan": 1.8, "Kerala": 1.7, "Goa": 1.6, "Tamil Nadu": 1.7, "Uttar Pradesh": 1.7,
			"Maharashtra": 1.6, "Delhi": 1.6, "Gujarat": 1.4, "Karnataka": 1.5, "Himachal Pradesh": 1.4,
			"Uttarakhand": 1.4, "Jammu and Kashmir": 1.3, "West Bengal": 1.4, "Madhya Pradesh": 1.3,
			"Odisha": 1.2, "Andhra Pradesh": 1.2, "Telangana": 1.2, "Assam": 1.1, "Punjab": 1.1,
			"Bihar": 0.9, "Chhattisgarh": 0.9, "Jharkhand": 0.8, "Manipur": 0.8, "Meghalaya": 0.9,
			"Tripura": 0.8, "Nagaland": 0.8, "Mizoram": 0.7, "Sikkim": 1.0, "Arunachal Pradesh": 0.9,
			"Haryana": 0.9,
		},
		// 北部・中部は冬、南部・東部はモンスーン明け、北東部は夏がピーク
		SeasonalCurves: map[string][12]float64{
			"North":     {0.8, 0.7, 0.9, 1.0, 1.1, 1.2, 0.7, 0.6, 0.8, 1.0, 1.5, 1.7},
			"South":     {1.3, 1.2, 1.0, 0.8, 0.7, 0.6, 0.8, 1.0, 1.2, 1.4, 1.3, 1.5},
			"East":      {1.2, 1.0, 0.9, 0.8, 0.7, 0.6, 0.9, 1.1, 1.3, 1.4, 1.2, 1.3},
			"West":      {1.1, 1.0, 0.9, 0.7, 0.6, 0.5, 0.8, 1.2, 1.4, 1.3, 1.2, 1.3},
			"Central":   {0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.6, 0.8, 1.0, 1.2, 1.4, 1.5},
			"Northeast": {0.6, 0.7, 0.9, 1.1, 1.3, 1.4, 0.9, 0.7, 0.8, 1.0, 0.8, 0.7},
		},
		// 2020年のコロナ禍からの回復
		YearlyGrowth: map[int]float64{
			2020: 0.4,
			2021: 0.6,
			2022: 0.8,
			2023: 0.9,
			2024: 1.1,
		},
	}
}
