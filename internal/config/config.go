package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App            AppConfig            `mapstructure:"app"`
	Server         ServerConfig         `mapstructure:"server"`
	Log            LogConfig            `mapstructure:"log"`
	DB             DBConfig             `mapstructure:"db"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Auth           AuthConfig           `mapstructure:"auth"`
	Cron           CronConfig           `mapstructure:"cron"`
	Calendar       CalendarConfig       `mapstructure:"calendar"`
	TextGen        TextGenConfig        `mapstructure:"textgen"`
	CandidateBatch CandidateBatchConfig `mapstructure:"candidate_batch"`
	Scoring        ScoringConfig        `mapstructure:"scoring"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

// DBConfig configures postgres. An empty DSN runs the service on the
// in-memory store (local development only).
type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	Disabled  bool          `mapstructure:"disabled"`
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type CronConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	CandidateBatch string `mapstructure:"candidate_batch"`
	ExpirySweep    string `mapstructure:"expiry_sweep"`
}

type CalendarConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type TextGenConfig struct {
	// Provider is one of "openai", "anthropic" or "" (disabled).
	Provider  string        `mapstructure:"provider"`
	Model     string        `mapstructure:"model"`
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	MaxTokens int64         `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type CandidateBatchConfig struct {
	MaxEconomic int           `mapstructure:"max_economic"`
	MaxEarnings int           `mapstructure:"max_earnings"`
	MarketWide  bool          `mapstructure:"market_wide"`
	LockTTL     time.Duration `mapstructure:"lock_ttl"`
}

type ScoringConfig struct {
	PointsPerCorrect int64 `mapstructure:"points_per_correct"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ACADEMY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("auth.disabled", false)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("cron.enabled", true)
	// robfig/cron with seconds: sec min hour dom mon dow.
	v.SetDefault("cron.candidate_batch", "0 0 6 * * *")
	v.SetDefault("cron.expiry_sweep", "@every 1m")
	v.SetDefault("calendar.base_url", "")
	v.SetDefault("calendar.timeout", "15s")
	v.SetDefault("textgen.provider", "")
	v.SetDefault("textgen.model", "")
	v.SetDefault("textgen.max_tokens", 1024)
	v.SetDefault("textgen.timeout", "30s")
	v.SetDefault("candidate_batch.max_economic", 2)
	v.SetDefault("candidate_batch.max_earnings", 2)
	v.SetDefault("candidate_batch.market_wide", true)
	v.SetDefault("candidate_batch.lock_ttl", "30m")
	v.SetDefault("scoring.points_per_correct", 10)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
