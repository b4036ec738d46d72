// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Blockchain  BlockchainConfig
	Moltbook    MoltbookConfig
	Storage     StorageConfig
	App         AppConfig
	Cron        CronConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type BlockchainConfig struct {
	RPCURL            string
	ChainID           int64
	ContractAddress   string
	USDCAddress       string
	ConfirmPollMillis int
	// Legacy behavior: a confirmed activation receipt without a
	// PaymentLinkCreated event falls back to link id 1 instead of failing.
	AllowLinkFallback bool
}

type MoltbookConfig struct {
	APIURL      string
	APIKey      string
	SearchLimit int
}

type StorageConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	SignedURLTTL    int // seconds
}

type AppConfig struct {
	BaseURL string
}

type CronConfig struct {
	Secret string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "aaas_marketplace"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		Blockchain: BlockchainConfig{
			RPCURL:            getEnv("BLOCKCHAIN_RPC_URL", ""),
			ChainID:           int64(getEnvAsInt("BLOCKCHAIN_CHAIN_ID", 5042002)), // Arc Testnet
			ContractAddress:   getEnv("AAAS_CONTRACT_ADDRESS", ""),
			USDCAddress:       getEnv("USDC_ADDRESS", ""),
			ConfirmPollMillis: getEnvAsInt("BLOCKCHAIN_CONFIRM_POLL_MS", 2000),
			AllowLinkFallback: getEnvAsBool("BLOCKCHAIN_ALLOW_LINK_FALLBACK", true),
		},
		Moltbook: MoltbookConfig{
			APIURL:      getEnv("MOLTBOOK_API_URL", "https://api.moltbook.com"),
			APIKey:      getEnv("MOLTBOOK_API_KEY", ""),
			SearchLimit: getEnvAsInt("MOLTBOOK_SEARCH_LIMIT", 100),
		},
		Storage: StorageConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Bucket:          getEnv("AWS_S3_BUCKET", "digital-products"),
			SignedURLTTL:    getEnvAsInt("SIGNED_URL_TTL", 3600),
		},
		App: AppConfig{
			BaseURL: getEnv("APP_BASE_URL", "http://localhost:3000"),
		},
		Cron: CronConfig{
			Secret: getEnv("CRON_SECRET", ""),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database password is required in production")
		}
		if c.Cron.Secret == "" {
			return fmt.Errorf("cron secret is required in production")
		}
		if c.Blockchain.ContractAddress == "" {
			return fmt.Errorf("payment link contract address is required in production")
		}
	}

	return nil
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
