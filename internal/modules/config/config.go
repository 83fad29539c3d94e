package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	configFileENV    = "CONFIG_FILE"
	databaseDSNENV   = "DATABASE_DSN"
	telegramTokenENV = "TELEGRAM_TOKEN"
	brokerKeyENV     = "BROKER_API_KEY"
	brokerSecretENV  = "BROKER_API_SECRET"
)

type Config struct {
	DB string `mapstructure:"db_dsn"`

	Service struct {
		Host      string `mapstructure:"host"`
		AdminPort int    `mapstructure:"admin_port"`
	} `mapstructure:"service"`

	Telegram struct {
		Token  string `mapstructure:"token"`
		ChatID int64  `mapstructure:"chat_id"`
	} `mapstructure:"telegram"`

	MarketData struct {
		BaseURL    string `mapstructure:"base_url"`
		WSURL      string `mapstructure:"ws_url"`
		BarPeriod  string `mapstructure:"bar_period"`  // e.g. "daily"
		AdjustType string `mapstructure:"adjust_type"` // e.g. "forward"
	} `mapstructure:"market_data"`

	Broker struct {
		BaseURL   string `mapstructure:"base_url"`
		APIKey    string `mapstructure:"api_key"`
		APISecret string `mapstructure:"api_secret"`
	} `mapstructure:"broker"`

	Tracing struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"tracing"`

	// FactorsFile lists the tracked factors and their ETF baskets.
	FactorsFile string `mapstructure:"factors_file"`

	// Engine defaults, env-overridable. The per-cycle toggles and
	// thresholds live in the persisted RunConfig, not here.
	MinHistoryBars  int
	BarFetchCount   int
	StalenessWindow time.Duration
	TickBufferSize  int
}

func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.AddConfigPath("configs")

	name := os.Getenv(configFileENV)
	if name == "" {
		name = "values_local"
	}
	v.SetConfigName(name)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "read config file")
	}

	config := Config{
		MinHistoryBars:  intFromEnv("MIN_HISTORY_BARS", 60),
		BarFetchCount:   intFromEnv("BAR_FETCH_COUNT", 120),
		StalenessWindow: durationFromEnv("ANALYSIS_STALENESS", "24h"),
		TickBufferSize:  intFromEnv("TICK_BUFFER_SIZE", 256),
	}
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "decode config file")
	}

	if token := os.Getenv(telegramTokenENV); token != "" {
		config.Telegram.Token = token
	}
	if dsn := os.Getenv(databaseDSNENV); dsn != "" {
		config.DB = dsn
	}
	if key := os.Getenv(brokerKeyENV); key != "" {
		config.Broker.APIKey = key
	}
	if secret := os.Getenv(brokerSecretENV); secret != "" {
		config.Broker.APISecret = secret
	}

	if config.FactorsFile == "" {
		config.FactorsFile = "configs/factors.yaml"
	}
	if config.MarketData.BarPeriod == "" {
		config.MarketData.BarPeriod = "daily"
	}

	return &config, nil
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
