package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Archive  ArchiveConfig
	Tuning   TuningConfig
}

type AppConfig struct {
	LogLevel string
	DataDir  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	TTLSeconds    int
}

// ArchiveConfig configures the S3-compatible object store that receives
// parameter snapshot backups. Disabled when Endpoint is empty.
type ArchiveConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type TuningConfig struct {
	ParamsPath           string
	BackupDir            string
	HistoryDays          int
	MinHistoryDays       int
	CalibrationMinSample int
	OptimizerTrials      int
	OptimizerSampleFloor int
	DampingFactor        float64
	RollbackWindowDays   int
	RollbackThreshold    float64
	DiffLookbackDays     int
	WorkerCount          int
}

var (
	once     sync.Once
	instance *Config
)

// Load reads configuration from the environment (and an optional .env file)
// exactly once per process.
func Load() *Config {
	once.Do(func() {
		_ = godotenv.Load()

		viper.SetDefault("APP_LOG_LEVEL", "info")
		viper.SetDefault("APP_DATA_DIR", "./data")
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "autoorder")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_TTL_SECONDS", 300)
		viper.SetDefault("ARCHIVE_ENDPOINT", "")
		viper.SetDefault("ARCHIVE_ACCESS_KEY", "")
		viper.SetDefault("ARCHIVE_SECRET_KEY", "")
		viper.SetDefault("ARCHIVE_BUCKET", "autoorder-snapshots")
		viper.SetDefault("ARCHIVE_USE_SSL", true)
		viper.SetDefault("TUNING_PARAMS_PATH", "./data/params/order_params.json")
		viper.SetDefault("TUNING_BACKUP_DIR", "./data/params/backups")
		viper.SetDefault("TUNING_HISTORY_DAYS", 31)
		viper.SetDefault("TUNING_MIN_HISTORY_DAYS", 7)
		viper.SetDefault("TUNING_CALIBRATION_MIN_SAMPLE", 50)
		viper.SetDefault("TUNING_OPTIMIZER_TRIALS", 30)
		viper.SetDefault("TUNING_OPTIMIZER_SAMPLE_FLOOR", 100)
		viper.SetDefault("TUNING_DAMPING_FACTOR", 0.5)
		viper.SetDefault("TUNING_ROLLBACK_WINDOW_DAYS", 3)
		viper.SetDefault("TUNING_ROLLBACK_THRESHOLD", 0.10)
		viper.SetDefault("TUNING_DIFF_LOOKBACK_DAYS", 14)
		viper.SetDefault("TUNING_WORKER_COUNT", 4)

		viper.AutomaticEnv()

		ensureDir(viper.GetString("APP_DATA_DIR"))
		ensureDir(viper.GetString("TUNING_BACKUP_DIR"))

		instance = &Config{
			App: AppConfig{
				LogLevel: viper.GetString("APP_LOG_LEVEL"),
				DataDir:  viper.GetString("APP_DATA_DIR"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:       viper.GetBool("CACHE_ENABLED"),
				RedisURL:      viper.GetString("REDIS_URL"),
				RedisHost:     viper.GetString("REDIS_HOST"),
				RedisPort:     viper.GetString("REDIS_PORT"),
				RedisPassword: viper.GetString("REDIS_PASSWORD"),
				RedisDB:       viper.GetInt("REDIS_DB"),
				TTLSeconds:    viper.GetInt("CACHE_TTL_SECONDS"),
			},
			Archive: ArchiveConfig{
				Endpoint:  viper.GetString("ARCHIVE_ENDPOINT"),
				AccessKey: viper.GetString("ARCHIVE_ACCESS_KEY"),
				SecretKey: viper.GetString("ARCHIVE_SECRET_KEY"),
				Bucket:    viper.GetString("ARCHIVE_BUCKET"),
				UseSSL:    viper.GetBool("ARCHIVE_USE_SSL"),
			},
			Tuning: TuningConfig{
				ParamsPath:           viper.GetString("TUNING_PARAMS_PATH"),
				BackupDir:            viper.GetString("TUNING_BACKUP_DIR"),
				HistoryDays:          viper.GetInt("TUNING_HISTORY_DAYS"),
				MinHistoryDays:       viper.GetInt("TUNING_MIN_HISTORY_DAYS"),
				CalibrationMinSample: viper.GetInt("TUNING_CALIBRATION_MIN_SAMPLE"),
				OptimizerTrials:      viper.GetInt("TUNING_OPTIMIZER_TRIALS"),
				OptimizerSampleFloor: viper.GetInt("TUNING_OPTIMIZER_SAMPLE_FLOOR"),
				DampingFactor:        viper.GetFloat64("TUNING_DAMPING_FACTOR"),
				RollbackWindowDays:   viper.GetInt("TUNING_ROLLBACK_WINDOW_DAYS"),
				RollbackThreshold:    viper.GetFloat64("TUNING_ROLLBACK_THRESHOLD"),
				DiffLookbackDays:     viper.GetInt("TUNING_DIFF_LOOKBACK_DAYS"),
				WorkerCount:          viper.GetInt("TUNING_WORKER_COUNT"),
			},
		}
	})

	return instance
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
