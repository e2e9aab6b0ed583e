package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
type Config struct {
	Port          string
	Environment   string
	APIKey        string
	AdminUsername string
	AdminPassword string

	// DataSource は新規セッションの既定データソース（synthetic または warehouse）
	DataSource       string
	DatasetSeed      string
	DatasetStartYear int
	DatasetEndYear   int
	SessionTTL       time.Duration

	// ReferenceDataFile が空なら組み込みの参照テーブルを使う
	ReferenceDataFile string

	Warehouse WarehouseConfig
}

// WarehouseConfig はリモートデータウェアハウスへの接続パラメータです。
type WarehouseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Schema   string
	Name     string
	Table    string
	SSLMode  string
	Timeout  time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		APIKey:           getEnv("API_KEY", ""),
		AdminUsername:    getEnv("ADMIN_USERNAME", ""),
		AdminPassword:    getEnv("ADMIN_PASSWORD", ""),
		DataSource:       getEnv("DATA_SOURCE", "synthetic"),
		DatasetSeed:      getEnv("DATASET_SEED", ""),
		DatasetStartYear: getEnvInt("DATASET_START_YEAR", 2020),
		DatasetEndYear:   getEnvInt("DATASET_END_YEAR", 2024),
		SessionTTL:       getEnvDuration("SESSION_TTL", 30*time.Minute),

		ReferenceDataFile: getEnv("REFERENCE_DATA_FILE", ""),

		Warehouse: WarehouseConfig{
			Host:     getEnv("WAREHOUSE_HOST", ""),
			Port:     getEnvInt("WAREHOUSE_PORT", 5432),
			User:     getEnv("WAREHOUSE_USER", ""),
			Password: getEnv("WAREHOUSE_PASSWORD", ""),
			Database: getEnv("WAREHOUSE_DATABASE", ""),
			Schema:   getEnv("WAREHOUSE_SCHEMA", "public"),
			Name:     getEnv("WAREHOUSE_NAME", ""),
			Table:    getEnv("WAREHOUSE_TABLE", "tourism_data"),
			SSLMode:  getEnv("WAREHOUSE_SSLMODE", "disable"),
			Timeout:  getEnvDuration("WAREHOUSE_TIMEOUT", 10*time.Second),
		},
	}
}

// Seed は DATASET_SEED を数値として返します。未設定または不正な値の場合は nil です。
func (c *Config) Seed() *uint64 {
	if c.DatasetSeed == "" {
		return nil
	}
	seed, err := strconv.ParseUint(c.DatasetSeed, 10, 64)
	if err != nil {
		log.Printf("⚠️ DATASET_SEED %q is not a valid unsigned integer, using a random seed", c.DatasetSeed)
		return nil
	}
	return &seed
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("⚠️ %s=%q is not an integer, falling back to %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("⚠️ %s=%q is not a duration, falling back to %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
