package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ReferenceFile は参照テーブルの YAML ファイルの構造を定義します。
type ReferenceFile struct {
	Entities       []ReferenceEntity    `yaml:"entities"`
	SeasonalCurves map[string][]float64 `yaml:"seasonal_curves"`
	YearlyGrowth   map[int]float64      `yaml:"yearly_growth"`
}

// ReferenceEntity 1つの州の定義
type ReferenceEntity struct {
	Name       string   `yaml:"name"`
	Region     string   `yaml:"region"`
	Popularity float64  `yaml:"popularity"`
	Activities []string `yaml:"activities"`
	Latitude   float64  `yaml:"latitude"`
	Longitude  float64  `yaml:"longitude"`
}

// LoadReferenceFile は指定パスの YAML 参照テーブルを読み込みます。
func LoadReferenceFile(path string) (*ReferenceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("参照テーブルファイルの読み込みに失敗: %w", err)
	}

	var file ReferenceFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("YAMLのパースに失敗: %w", err)
	}
	return &file, nil
}
