// Package config loads bot settings from the environment and an optional
// config file.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	// Trove settings
	TroveAPIKey string
	TroveAPIURL string
	TroveZone   string

	// Search settings
	StopwordsPath     string
	Keywords          []string // empty means stopword search
	Category          string   // required category filter, empty disables it
	ZeroResultRetries int

	// Retry settings
	RetryAttempts   int
	RetryBackoff    time.Duration
	RetryMultiplier float64
	RetryMaxBackoff time.Duration
	RetryStatuses   []int

	// App settings
	Debug             bool
	LogFormat         string
	RequestTimeout    time.Duration
	InvocationTimeout time.Duration
	Schedule          string
	DuplicateAttempts int

	// History settings
	HistoryFilePath string
	HistoryTTLHours int

	// Lock settings, Redis is optional
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LockTTL       time.Duration

	// Monitoring
	EnableHTTPMonitoring bool
	MonitoringPort       int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("trove_api_url", "http://api.trove.nla.gov.au/v2/result")
	v.SetDefault("trove_zone", "newspaper")
	v.SetDefault("stopwords_path", "stopwords.json")
	v.SetDefault("keywords", "")
	v.SetDefault("category", "Article")
	v.SetDefault("zero_result_retries", 10)
	v.SetDefault("retry_attempts", 6)
	v.SetDefault("retry_backoff", time.Second)
	v.SetDefault("retry_multiplier", 2.0)
	v.SetDefault("retry_max_backoff", 30*time.Second)
	v.SetDefault("retry_statuses", "502,503,504")
	v.SetDefault("debug", false)
	v.SetDefault("log_format", "text")
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("invocation_timeout", 5*time.Minute)
	v.SetDefault("schedule", "0 */6 * * *")
	v.SetDefault("duplicate_attempts", 3)
	v.SetDefault("history_file_path", "posted_articles.json")
	v.SetDefault("history_ttl_hours", 720)
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("lock_ttl", 10*time.Minute)
	v.SetDefault("enable_http_monitoring", false)
	v.SetDefault("monitoring_port", 8080)
}

// Load reads configuration. path names an explicit config file; when empty a
// trovebot.{yaml,json,toml} in the working directory is used if present.
// Environment variables override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("trovebot")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	statuses, err := parseStatuses(stringList(v, "retry_statuses"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		TroveAPIKey:          strings.TrimSpace(v.GetString("trove_api_key")),
		TroveAPIURL:          v.GetString("trove_api_url"),
		TroveZone:            v.GetString("trove_zone"),
		StopwordsPath:        v.GetString("stopwords_path"),
		Keywords:             stringList(v, "keywords"),
		Category:             strings.TrimSpace(v.GetString("category")),
		ZeroResultRetries:    v.GetInt("zero_result_retries"),
		RetryAttempts:        v.GetInt("retry_attempts"),
		RetryBackoff:         v.GetDuration("retry_backoff"),
		RetryMultiplier:      v.GetFloat64("retry_multiplier"),
		RetryMaxBackoff:      v.GetDuration("retry_max_backoff"),
		RetryStatuses:        statuses,
		Debug:                v.GetBool("debug"),
		LogFormat:            v.GetString("log_format"),
		RequestTimeout:       v.GetDuration("request_timeout"),
		InvocationTimeout:    v.GetDuration("invocation_timeout"),
		Schedule:             v.GetString("schedule"),
		DuplicateAttempts:    v.GetInt("duplicate_attempts"),
		HistoryFilePath:      v.GetString("history_file_path"),
		HistoryTTLHours:      v.GetInt("history_ttl_hours"),
		RedisAddr:            v.GetString("redis_addr"),
		RedisPassword:        v.GetString("redis_password"),
		RedisDB:              v.GetInt("redis_db"),
		LockTTL:              v.GetDuration("lock_ttl"),
		EnableHTTPMonitoring: v.GetBool("enable_http_monitoring"),
		MonitoringPort:       v.GetInt("monitoring_port"),
	}

	return cfg, cfg.Validate()
}

// stringList accepts either a list from a config file or a comma-separated
// string from the environment.
func stringList(v *viper.Viper, key string) []string {
	var raw []string
	switch val := v.Get(key).(type) {
	case string:
		raw = strings.Split(val, ",")
	default:
		raw = v.GetStringSlice(key)
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseStatuses(items []string) ([]int, error) {
	out := make([]int, 0, len(items))
	for _, s := range items {
		code, err := strconv.Atoi(s)
		if err != nil || code < 100 || code > 599 {
			return nil, fmt.Errorf("%w: RETRY_STATUSES entry %q is not an HTTP status", ErrInvalid, s)
		}
		out = append(out, code)
	}
	return out, nil
}

func (c *Config) Validate() error {
	if c.TroveAPIKey == "" {
		return fmt.Errorf("%w: TROVE_API_KEY is required", ErrInvalid)
	}
	if c.TroveAPIURL == "" {
		return fmt.Errorf("%w: TROVE_API_URL must not be empty", ErrInvalid)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("%w: RETRY_ATTEMPTS must be at least 1", ErrInvalid)
	}
	if c.RetryMultiplier < 1 {
		return fmt.Errorf("%w: RETRY_MULTIPLIER must be at least 1", ErrInvalid)
	}
	if c.RetryBackoff < 0 || c.RetryMaxBackoff < 0 {
		return fmt.Errorf("%w: retry backoff must not be negative", ErrInvalid)
	}
	if c.ZeroResultRetries < 0 {
		return fmt.Errorf("%w: ZERO_RESULT_RETRIES must not be negative", ErrInvalid)
	}
	if c.DuplicateAttempts < 1 {
		return fmt.Errorf("%w: DUPLICATE_ATTEMPTS must be at least 1", ErrInvalid)
	}
	if c.Schedule == "" {
		return fmt.Errorf("%w: SCHEDULE must not be empty", ErrInvalid)
	}
	if c.EnableHTTPMonitoring && (c.MonitoringPort <= 0 || c.MonitoringPort > 65535) {
		return fmt.Errorf("%w: MONITORING_PORT %d out of range", ErrInvalid, c.MonitoringPort)
	}
	return nil
}

// RequiredFilters is the filter set every invocation carries.
func (c *Config) RequiredFilters() map[string][]string {
	if c.Category == "" {
		return nil
	}
	return map[string][]string{"category": {c.Category}}
}
