package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string

	UpstreamURL     string
	UpstreamToken   string
	HTTPTimeout     time.Duration
	UpstreamRPS     float64
	UpstreamBurst   int
	UpstreamRetries int

	CORSOrigins []string

	AuthPollInterval time.Duration
	AuthPollTimeout  time.Duration

	ViewIdleTTL          time.Duration
	AllPostsLimit        int
	WeeklyPostsLimit     int
	DefaultAvgEngagement float64

	LogLevel slog.Level
}

func Defaults() Config {
	return Config{
		Port:                 "8080",
		UpstreamURL:          "http://localhost:8000",
		HTTPTimeout:          15 * time.Second,
		UpstreamRPS:          10,
		UpstreamBurst:        20,
		UpstreamRetries:      2,
		CORSOrigins:          []string{"http://localhost:5173"},
		AuthPollInterval:     2 * time.Second,
		AuthPollTimeout:      60 * time.Second,
		ViewIdleTTL:          30 * time.Minute,
		AllPostsLimit:        100,
		WeeklyPostsLimit:     300,
		DefaultAvgEngagement: 4.6,
		LogLevel:             slog.LevelInfo,
	}
}

// Load reads an optional .env, then the YAML file named by CONFIG_FILE, then
// environment overrides.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		if err := cfg.mergeFile(p); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", p, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// FromEnv is Defaults plus environment overrides, no files.
func FromEnv() Config {
	cfg := Defaults()
	cfg.applyEnv()
	return cfg
}

type fileConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	Upstream struct {
		URL            string  `yaml:"url"`
		Token          string  `yaml:"token"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		RPS            float64 `yaml:"rps"`
		Burst          int     `yaml:"burst"`
		Retries        *int    `yaml:"retries"`
	} `yaml:"upstream"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	Auth struct {
		PollInterval string `yaml:"poll_interval"`
		PollTimeout  string `yaml:"poll_timeout"`
	} `yaml:"auth"`
	Dashboard struct {
		IdleTTL              string  `yaml:"idle_ttl"`
		AllPostsLimit        int     `yaml:"all_posts_limit"`
		WeeklyPostsLimit     int     `yaml:"weekly_posts_limit"`
		DefaultAvgEngagement float64 `yaml:"default_avg_engagement"`
	} `yaml:"dashboard"`
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}

	setStr(&c.Port, f.Port)
	setStr(&c.UpstreamURL, f.Upstream.URL)
	setStr(&c.UpstreamToken, f.Upstream.Token)
	if f.Upstream.TimeoutSeconds > 0 {
		c.HTTPTimeout = time.Duration(f.Upstream.TimeoutSeconds) * time.Second
	}
	if f.Upstream.RPS > 0 {
		c.UpstreamRPS = f.Upstream.RPS
	}
	if f.Upstream.Burst > 0 {
		c.UpstreamBurst = f.Upstream.Burst
	}
	if f.Upstream.Retries != nil && *f.Upstream.Retries >= 0 {
		c.UpstreamRetries = *f.Upstream.Retries
	}
	if len(f.CORS.AllowedOrigins) > 0 {
		c.CORSOrigins = f.CORS.AllowedOrigins
	}
	for _, d := range []struct {
		dst *time.Duration
		raw string
		key string
	}{
		{&c.AuthPollInterval, f.Auth.PollInterval, "auth.poll_interval"},
		{&c.AuthPollTimeout, f.Auth.PollTimeout, "auth.poll_timeout"},
		{&c.ViewIdleTTL, f.Dashboard.IdleTTL, "dashboard.idle_ttl"},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = v
	}
	if f.Dashboard.AllPostsLimit > 0 {
		c.AllPostsLimit = f.Dashboard.AllPostsLimit
	}
	if f.Dashboard.WeeklyPostsLimit > 0 {
		c.WeeklyPostsLimit = f.Dashboard.WeeklyPostsLimit
	}
	if f.Dashboard.DefaultAvgEngagement > 0 {
		c.DefaultAvgEngagement = f.Dashboard.DefaultAvgEngagement
	}
	if f.LogLevel != "" {
		c.LogLevel = parseLevel(f.LogLevel, c.LogLevel)
	}
	return nil
}

// applyEnv overrides fields from the environment. Unparseable values are
// ignored and the previous value stays.
func (c *Config) applyEnv() {
	c.Port = envOr("PORT", c.Port)
	c.UpstreamURL = envOr("UPSTREAM_API_URL", c.UpstreamURL)
	c.UpstreamToken = envOr("UPSTREAM_TOKEN", c.UpstreamToken)
	if v := os.Getenv("HTTP_TIMEOUT_SECONDS"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			c.HTTPTimeout = d
		}
	}
	c.UpstreamRPS = envFloat("UPSTREAM_RPS", c.UpstreamRPS)
	c.UpstreamBurst = envInt("UPSTREAM_BURST", c.UpstreamBurst)
	c.UpstreamRetries = envInt("UPSTREAM_RETRIES", c.UpstreamRetries)
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			c.CORSOrigins = origins
		}
	}
	c.AuthPollInterval = envDuration("AUTH_POLL_INTERVAL", c.AuthPollInterval)
	c.AuthPollTimeout = envDuration("AUTH_POLL_TIMEOUT", c.AuthPollTimeout)
	c.ViewIdleTTL = envDuration("VIEW_IDLE_TTL", c.ViewIdleTTL)
	c.AllPostsLimit = envInt("ALL_POSTS_LIMIT", c.AllPostsLimit)
	c.WeeklyPostsLimit = envInt("WEEKLY_POSTS_LIMIT", c.WeeklyPostsLimit)
	c.DefaultAvgEngagement = envFloat("DEFAULT_AVG_ENGAGEMENT", c.DefaultAvgEngagement)
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = parseLevel(v, c.LogLevel)
	}
}

func parseLevel(s string, def slog.Level) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return def
	}
	return l
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil || n < 0 {
		return def
	}
	return n
}

func envFloat(k string, def float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(k), 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func envDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
