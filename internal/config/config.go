package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`
	Cron   CronConfig   `mapstructure:"cron"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Board  BoardConfig  `mapstructure:"board"`
	News   NewsConfig   `mapstructure:"news"`
	Export ExportConfig `mapstructure:"export"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	Timezone string `mapstructure:"timezone"`
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
	Enabled         bool          `mapstructure:"enabled"`
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
	StoreRaw        bool          `mapstructure:"store_raw"`
}

type CronConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Pipeline string `mapstructure:"pipeline"`
}

type CacheConfig struct {
	Driver    string        `mapstructure:"driver"`
	RedisAddr string        `mapstructure:"redis_addr"`
	RedisDB   int           `mapstructure:"redis_db"`
	Password  string        `mapstructure:"password"`
	Prefix    string        `mapstructure:"prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// BoardConfig drives the board client and the date-scanning fetcher.
type BoardConfig struct {
	BaseURL         string          `mapstructure:"base_url"`
	Referer         string          `mapstructure:"referer"`
	UserAgent       string          `mapstructure:"user_agent"`
	Timeout         time.Duration   `mapstructure:"timeout"`
	MinInterval     time.Duration   `mapstructure:"min_interval"`
	DateDelay       time.Duration   `mapstructure:"date_delay"`
	DateTimeout     time.Duration   `mapstructure:"date_timeout"`
	MaxLookbackDays int             `mapstructure:"max_lookback_days"`
	Days            int             `mapstructure:"days"`
	TopN            int             `mapstructure:"top_n"`
	ForceToday      bool            `mapstructure:"force_today"`
	Variants        []VariantConfig `mapstructure:"variants"`
}

type VariantConfig struct {
	Category  string `mapstructure:"category"`
	SortField string `mapstructure:"sort_field"`
}

type NewsConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	BaseURL     string        `mapstructure:"base_url"`
	UserAgent   string        `mapstructure:"user_agent"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Limit       int           `mapstructure:"limit"`
	PreviewLen  int           `mapstructure:"preview_len"`
	LexiconPath string        `mapstructure:"lexicon_path"`
	RSS         RSSConfig     `mapstructure:"rss"`
}

type RSSConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Feeds   []string `mapstructure:"feeds"`
}

type ExportConfig struct {
	Dir         string `mapstructure:"dir"`
	BoardFile   string `mapstructure:"board_file"`
	HistoryFile string `mapstructure:"history_file"`
	NewsFile    string `mapstructure:"news_file"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.timezone", "Asia/Shanghai")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.enabled", false)
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 2)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "Asia/Shanghai")
	v.SetDefault("db.store_raw", true)
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.pipeline", "0 30 16 * * 1-5")
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.redis_addr", "127.0.0.1:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.prefix", "boardwatch:")
	v.SetDefault("cache.ttl", "72h")

	v.SetDefault("board.base_url", "http://page.tdx.com.cn:7615")
	v.SetDefault("board.referer", "http://page.tdx.com.cn:7615/site/kggx/tk_yzlhb_yz.html")
	v.SetDefault("board.user_agent", defaultUserAgent)
	v.SetDefault("board.timeout", "30s")
	v.SetDefault("board.min_interval", "500ms")
	v.SetDefault("board.date_delay", "1s")
	v.SetDefault("board.date_timeout", "2m")
	v.SetDefault("board.max_lookback_days", 30)
	v.SetDefault("board.days", 1)
	v.SetDefault("board.top_n", 30)
	v.SetDefault("board.force_today", false)

	v.SetDefault("news.enabled", true)
	v.SetDefault("news.base_url", "https://www.jiuyangongshe.com")
	v.SetDefault("news.user_agent", defaultUserAgent)
	v.SetDefault("news.timeout", "30s")
	v.SetDefault("news.limit", 20)
	v.SetDefault("news.preview_len", 200)
	v.SetDefault("news.lexicon_path", "")
	v.SetDefault("news.rss.enabled", false)

	v.SetDefault("export.dir", "data")
	v.SetDefault("export.board_file", "board_latest.json")
	v.SetDefault("export.history_file", "board_history.json")
	v.SetDefault("export.news_file", "news_latest.json")

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

// Location resolves the market timezone. Hosts without tzdata get a fixed +08:00 zone.
func (c AppConfig) Location() *time.Location {
	name := strings.TrimSpace(c.Timezone)
	if name == "" {
		name = "Asia/Shanghai"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("CST", 8*3600)
	}
	return loc
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
