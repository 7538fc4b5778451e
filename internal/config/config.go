package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Store    StoreConfig
	App      AppConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Shopify  ShopifyConfig
	Sheets   SheetsConfig
	Forecast ForecastConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
	LogLevel       string
	LogFormat      string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the lib/pq style connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// URL returns the same connection as a postgres:// URL, used by the pgx driver.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

// StoreConfig selects the document store backend: "file" or "postgres".
type StoreConfig struct {
	Backend string
}

type AppConfig struct {
	DataDir     string
	BackupDir   string
	CatalogPath string
}

type CacheConfig struct {
	Enabled         bool
	RedisURL        string
	RedisHost       string
	RedisPort       string
	RedisPassword   string
	RedisDB         int
	UsageTTLSeconds int
}

// StorageConfig describes where stocktake backups are written. With an
// empty Endpoint backups go to App.BackupDir on the local filesystem.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

type ShopifyConfig struct {
	StoreURL       string
	AccessToken    string
	APIVersion     string
	RequestsPerSec float64
	PageSize       int
}

// Enabled reports whether enough is configured to call the Admin API.
func (s ShopifyConfig) Enabled() bool {
	return s.StoreURL != "" && s.AccessToken != ""
}

type SheetsConfig struct {
	CredentialsFile string
	SpreadsheetID   string
	Port            string
}

type ForecastConfig struct {
	MeshUsageWindowDays      int
	RecentUsageWindowDays    int
	ComponentUsageWindowDays int
	ReorderBufferMonths      float64
}

// UsageTTL is the freshness window of the cached order usage summary.
func (c CacheConfig) UsageTTL() time.Duration {
	if c.UsageTTLSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.UsageTTLSeconds) * time.Second
}

// Load reads .env (if present) and the environment into a fresh Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: splitList(v.GetStringSlice("SERVER_ALLOWED_ORIGINS")),
			LogLevel:       v.GetString("LOG_LEVEL"),
			LogFormat:      v.GetString("LOG_FORMAT"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(v.GetString("STORE_BACKEND")),
		},
		App: AppConfig{
			DataDir:     v.GetString("APP_DATA_DIR"),
			BackupDir:   v.GetString("APP_BACKUP_DIR"),
			CatalogPath: v.GetString("APP_CATALOG_PATH"),
		},
		Cache: CacheConfig{
			Enabled:         v.GetBool("CACHE_ENABLED"),
			RedisURL:        v.GetString("REDIS_URL"),
			RedisHost:       v.GetString("REDIS_HOST"),
			RedisPort:       v.GetString("REDIS_PORT"),
			RedisPassword:   v.GetString("REDIS_PASSWORD"),
			RedisDB:         v.GetInt("REDIS_DB"),
			UsageTTLSeconds: v.GetInt("CACHE_USAGE_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
			Region:    v.GetString("STORAGE_REGION"),
		},
		Shopify: ShopifyConfig{
			StoreURL:       v.GetString("SHOPIFY_STORE_URL"),
			AccessToken:    v.GetString("SHOPIFY_ACCESS_TOKEN"),
			APIVersion:     v.GetString("SHOPIFY_API_VERSION"),
			RequestsPerSec: v.GetFloat64("SHOPIFY_REQUESTS_PER_SEC"),
			PageSize:       v.GetInt("SHOPIFY_PAGE_SIZE"),
		},
		Sheets: SheetsConfig{
			CredentialsFile: v.GetString("SHEETS_CREDENTIALS_FILE"),
			SpreadsheetID:   v.GetString("SHEETS_SPREADSHEET_ID"),
			Port:            v.GetString("SHEETS_PORT"),
		},
		Forecast: ForecastConfig{
			MeshUsageWindowDays:      v.GetInt("FORECAST_MESH_WINDOW_DAYS"),
			RecentUsageWindowDays:    v.GetInt("FORECAST_RECENT_WINDOW_DAYS"),
			ComponentUsageWindowDays: v.GetInt("FORECAST_COMPONENT_WINDOW_DAYS"),
			ReorderBufferMonths:      v.GetFloat64("FORECAST_REORDER_BUFFER_MONTHS"),
		},
	}

	if cfg.Store.Backend != "file" && cfg.Store.Backend != "postgres" {
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Store.Backend)
	}

	for _, dir := range []string{cfg.App.DataDir, cfg.App.BackupDir} {
		if err := ensureDir(dir); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{})
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "inventory")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("STORE_BACKEND", "file")
	v.SetDefault("APP_DATA_DIR", "./data")
	v.SetDefault("APP_BACKUP_DIR", "./data/backups")
	v.SetDefault("APP_CATALOG_PATH", "./config/catalog.yaml")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_USAGE_TTL_SECONDS", 3600)
	v.SetDefault("STORAGE_BUCKET", "inventory-backups")
	v.SetDefault("STORAGE_USE_SSL", true)
	v.SetDefault("SHOPIFY_API_VERSION", "2024-01")
	v.SetDefault("SHOPIFY_REQUESTS_PER_SEC", 2.0)
	v.SetDefault("SHOPIFY_PAGE_SIZE", 50)
	v.SetDefault("SHEETS_PORT", "8090")
	v.SetDefault("FORECAST_MESH_WINDOW_DAYS", 180)
	v.SetDefault("FORECAST_RECENT_WINDOW_DAYS", 30)
	v.SetDefault("FORECAST_COMPONENT_WINDOW_DAYS", 180)
	v.SetDefault("FORECAST_REORDER_BUFFER_MONTHS", 2.0)
}

// splitList accepts both a real list and a single comma separated env value.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func ensureDir(dir string) error {
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
