package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/tiltedtrades/trades-api/internal/models"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Matching MatchingConfig `yaml:"matching"`
	Refdata  RefdataConfig  `yaml:"refdata"`
	Storage  StorageConfig  `yaml:"storage"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	StaleChannel string `yaml:"stale_channel"`
}

type MatchingConfig struct {
	// LegacyDefaultMethod is the method unqualified trade ids resolve
	// against. Records written before ids carried a method prefix belong
	// to this method.
	LegacyDefaultMethod string `yaml:"legacy_default_method"`
}

type RefdataConfig struct {
	Path           string `yaml:"path"`
	CommissionTier string `yaml:"commission_tier"`
}

type StorageConfig struct {
	ChartDir string `yaml:"chart_dir"`
}

type WorkerConfig struct {
	// StatsIntervalSeconds is the fallback sweep interval for the stats
	// worker when no staleness notifications arrive.
	StatsIntervalSeconds int `yaml:"stats_interval_seconds"`
}

// Load loads configuration from file and environment variables
func Load(path string) (*Config, error) {
	cfg := &Config{}

	// Load from YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Override with environment variables if present
	cfg.loadFromEnv()
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) loadFromEnv() {
	// Server
	if v := os.Getenv("SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("SERVER_MODE"); v != "" {
		c.Server.Mode = v
	}

	// Database
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Port = port
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Database.DBName = v
	}

	// Redis
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Redis.Port = port
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}

	// Matching
	if v := os.Getenv("LEGACY_DEFAULT_METHOD"); v != "" {
		c.Matching.LegacyDefaultMethod = v
	}

	// Storage
	if v := os.Getenv("CHART_DIR"); v != "" {
		c.Storage.ChartDir = v
	}
}

func (c *Config) applyDefaults() {
	if c.Matching.LegacyDefaultMethod == "" {
		c.Matching.LegacyDefaultMethod = string(models.CalcMethodFIFO)
	}
	if c.Redis.StaleChannel == "" {
		c.Redis.StaleChannel = "stats:stale"
	}
	if c.Refdata.Path == "" {
		c.Refdata.Path = "refdata.yaml"
	}
	if c.Refdata.CommissionTier == "" {
		c.Refdata.CommissionTier = "3"
	}
	if c.Storage.ChartDir == "" {
		c.Storage.ChartDir = "data/charts"
	}
	if c.Worker.StatsIntervalSeconds <= 0 {
		c.Worker.StatsIntervalSeconds = 300
	}
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + strconv.Itoa(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}
