package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	SourcePostgres = "postgres"
	SourceCSV      = "csv"
)

type Config struct {
	Env          string          `yaml:"env" env:"ENV" env-default:"local"`
	Jaeger       JaegerConfig    `yaml:"jaeger"`
	RuleCacheTTL time.Duration   `yaml:"rule_cache_ttl" env:"RULE_CACHE_TTL" env-default:"1h"`
	Log          LogConfig       `yaml:"log"`
	GRPC         GRPCConfig      `yaml:"grpc"`
	DB           DBConfig        `yaml:"db"`
	Redis        RedisConfig     `yaml:"redis"`
	RuleStore    RuleStoreConfig `yaml:"rule_store"`
	Calendar     CalendarConfig  `yaml:"calendar"`
	Diag         DiagConfig      `yaml:"diag"`
}

type JaegerConfig struct {
	Collector   string  `yaml:"collector" env:"JAEGER" env-default:"jaeger"`
	SampleRatio float64 `yaml:"sample_ratio" env:"JAEGER_SAMPLE_RATIO" env-default:"1"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

type GRPCConfig struct {
	Host    string        `yaml:"host" env:"GRPC_HOST"`
	Port    int           `yaml:"port" env:"GRPC_PORT" env-default:"44050"`
	Timeout time.Duration `yaml:"timeout" env:"GRPC_TIMEOUT" env-default:"5s"`
}

type DBConfig struct {
	DSN      string `yaml:"dsn" env:"DB_DSN"`
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	Name     string `yaml:"name" env:"DB_NAME"`
	SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"require"`
}

func (c DBConfig) DatabaseURL() string {
	if c.DSN != "" {
		return c.DSN
	}

	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}

	q := u.Query()
	q.Set("sslmode", sslMode)
	u.RawQuery = q.Encode()

	return u.String()
}

// RedisConfig with an empty Addr disables the rule cache.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type RuleStoreConfig struct {
	Source string `yaml:"source" env:"RULE_STORE_SOURCE" env-default:"postgres"`
	CSVDir string `yaml:"csv_dir" env:"RULE_STORE_CSV_DIR" env-default:"data/rules"`
}

type CalendarConfig struct {
	AllowedDays []int `yaml:"allowed_days" env:"CALENDAR_ALLOWED_DAYS" env-default:"0,3"`
}

type DiagConfig struct {
	Enabled bool `yaml:"enabled" env:"DIAG_ENABLED" env-default:"false"`
	Color   bool `yaml:"color" env:"DIAG_COLOR" env-default:"false"`
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.RuleStore.Source) {
	case SourcePostgres, SourceCSV:
	default:
		return fmt.Errorf("unknown rule_store.source %q", c.RuleStore.Source)
	}
	if c.RuleStore.Source == SourceCSV && strings.TrimSpace(c.RuleStore.CSVDir) == "" {
		return fmt.Errorf("rule_store.csv_dir is required for csv source")
	}
	for _, d := range c.Calendar.AllowedDays {
		if d < 0 {
			return fmt.Errorf("calendar.allowed_days must not be negative: %d", d)
		}
	}
	return nil
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}
	return MustLoadByPath(path)
}

func MustLoadByPath(configPath string) *Config {
	cfg, err := LoadByPath(configPath)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

func LoadByPath(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exists: %s", configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read the config: %w", err)
	}
	cfg.RuleStore.Source = strings.ToLower(strings.TrimSpace(cfg.RuleStore.Source))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}
	if res == "" {
		res = "config/local.yaml"
	}

	return res
}
