package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	DB           DBConfig           `mapstructure:"db"`
	Cron         CronConfig         `mapstructure:"cron"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Fetcher      FetcherConfig      `mapstructure:"fetcher"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Revision     RevisionConfig     `mapstructure:"revision"`
	Sources      []SourceConfig     `mapstructure:"sources"`
	StatAPIs     StatAPIsConfig     `mapstructure:"stat_apis"`
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

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
	// SimpleProtocol disables prepared statements, required behind pgbouncer in transaction mode.
	SimpleProtocol bool `mapstructure:"simple_protocol"`
}

type CronConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	SyncSchedules     string `mapstructure:"sync_schedules"`
	ImportReleaseData string `mapstructure:"import_release_data"`
	DedupIndicators   string `mapstructure:"dedup_indicators"`
}

type AuthConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	JWTSecret string        `mapstructure:"jwt_secret"`
	Leeway    time.Duration `mapstructure:"leeway"`
}

type CacheConfig struct {
	Driver        string        `mapstructure:"driver"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	KeyPrefix     string        `mapstructure:"key_prefix"`
	TTL           time.Duration `mapstructure:"ttl"`
	MaxEntries    int           `mapstructure:"max_entries"`
	OpTimeout     time.Duration `mapstructure:"op_timeout"`
}

type FetcherConfig struct {
	UserAgent     string        `mapstructure:"user_agent"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	MaxBackoff    time.Duration `mapstructure:"max_backoff"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
	MaxBodyBytes  int64         `mapstructure:"max_body_bytes"`
}

type OrchestratorConfig struct {
	Deadline   time.Duration `mapstructure:"deadline"`
	Prefetch   bool          `mapstructure:"prefetch"`
	ErrorCap   int           `mapstructure:"error_cap"`
	SampleSize int           `mapstructure:"sample_size"`
}

type RevisionConfig struct {
	BatchSize int `mapstructure:"batch_size"`
}

// SourceConfig describes one calendar source. Parser selects the markup variant
// ("tradingeconomics" or "forexfactory").
type SourceConfig struct {
	Name             string `mapstructure:"name"`
	Parser           string `mapstructure:"parser"`
	URL              string `mapstructure:"url"`
	Enabled          bool   `mapstructure:"enabled"`
	Priority         int    `mapstructure:"priority"`
	CreateIndicators bool   `mapstructure:"create_indicators"`
}

type StatAPIsConfig struct {
	FRED StatAPIConfig `mapstructure:"fred"`
	BLS  StatAPIConfig `mapstructure:"bls"`
	ECB  StatAPIConfig `mapstructure:"ecb"`
}

type StatAPIConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultSources is used when the config file does not list any source.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Name:             "tradingeconomics",
			Parser:           "tradingeconomics",
			URL:              "https://tradingeconomics.com/calendar",
			Enabled:          true,
			Priority:         10,
			CreateIndicators: true,
		},
		{
			Name:             "forexfactory",
			Parser:           "forexfactory",
			URL:              "https://www.forexfactory.com/calendar?week=this",
			Enabled:          true,
			Priority:         20,
			CreateIndicators: false,
		},
	}
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MC")
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
	v.SetDefault("db.simple_protocol", false)
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.sync_schedules", "0 0 */6 * * *")
	v.SetDefault("cron.import_release_data", "0 */15 * * * *")
	v.SetDefault("cron.dedup_indicators", "0 30 3 * * *")
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.leeway", "30s")
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.redis_addr", "127.0.0.1:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.key_prefix", "macrocal:")
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.max_entries", 10000)
	v.SetDefault("cache.op_timeout", "500ms")
	v.SetDefault("fetcher.user_agent", "macrocal/1.0 (+calendar-sync)")
	v.SetDefault("fetcher.timeout", "30s")
	v.SetDefault("fetcher.retry_attempts", 3)
	v.SetDefault("fetcher.retry_delay", "1s")
	v.SetDefault("fetcher.max_backoff", "10s")
	v.SetDefault("fetcher.rate_per_second", 1.0)
	v.SetDefault("fetcher.burst", 1)
	v.SetDefault("fetcher.max_body_bytes", 16<<20)
	v.SetDefault("orchestrator.deadline", "2m")
	v.SetDefault("orchestrator.prefetch", false)
	v.SetDefault("orchestrator.error_cap", 10)
	v.SetDefault("orchestrator.sample_size", 5)
	v.SetDefault("revision.batch_size", 50)

	v.SetDefault("stat_apis.fred.enabled", false)
	v.SetDefault("stat_apis.fred.base_url", "https://api.stlouisfed.org")
	v.SetDefault("stat_apis.fred.timeout", "15s")
	v.SetDefault("stat_apis.bls.enabled", false)
	v.SetDefault("stat_apis.bls.base_url", "https://api.bls.gov")
	v.SetDefault("stat_apis.bls.timeout", "15s")
	v.SetDefault("stat_apis.ecb.enabled", false)
	v.SetDefault("stat_apis.ecb.base_url", "https://data-api.ecb.europa.eu")
	v.SetDefault("stat_apis.ecb.timeout", "15s")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = DefaultSources()
	}

	return cfg, nil
}
