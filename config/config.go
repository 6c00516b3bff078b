// config/config.go
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every key when read from the environment,
// e.g. http_port -> SIGNUP_HTTP_PORT.
const EnvPrefix = "SIGNUP"

// HTTPConfig groups listener and request-handling settings.
type HTTPConfig struct {
	HTTPPort            int           `mapstructure:"http_port" yaml:"http_port"`
	MaxRequestBodyBytes int64         `mapstructure:"max_request_body_bytes" yaml:"max_request_body_bytes"`
	EnableCompression   bool          `mapstructure:"enable_compression" yaml:"enable_compression"`
	TrustForwardedProto bool          `mapstructure:"trust_forwarded_proto" yaml:"trust_forwarded_proto"` // only behind a proxy that overwrites the header
	ShutdownTimeout     time.Duration `mapstructure:"-" yaml:"shutdown_timeout"`
}

// CORSConfig controls CORS on the JSON validation endpoints.
type CORSConfig struct {
	EnableCORS           bool     `mapstructure:"enable_cors" yaml:"enable_cors"`
	CORSAllowedOrigins   []string `mapstructure:"cors_allowed_origins" yaml:"cors_allowed_origins"`
	CORSAllowedMethods   []string `mapstructure:"cors_allowed_methods" yaml:"cors_allowed_methods"`
	CORSAllowedHeaders   []string `mapstructure:"cors_allowed_headers" yaml:"cors_allowed_headers"`
	CORSAllowCredentials bool     `mapstructure:"cors_allow_credentials" yaml:"cors_allow_credentials"`
	CORSMaxAge           int      `mapstructure:"cors_max_age" yaml:"cors_max_age"`
}

// SessionConfig selects where in-progress signup drafts live between requests.
type SessionConfig struct {
	Store        string        `mapstructure:"session_store" yaml:"session_store"` // "memory" | "redis"
	CookieName   string        `mapstructure:"session_cookie_name" yaml:"session_cookie_name"`
	CookieSecure bool          `mapstructure:"session_cookie_secure" yaml:"session_cookie_secure"`
	MaxAge       time.Duration `mapstructure:"-" yaml:"session_max_age"`

	RedisAddr     string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" yaml:"redis_db"`

	StoreConnectTimeout time.Duration `mapstructure:"-" yaml:"store_connect_timeout"`
}

// Config is the full service configuration.
type Config struct {
	Env      string `mapstructure:"env" yaml:"env"`             // "dev" | "prod"
	LogLevel string `mapstructure:"log_level" yaml:"log_level"` // debug, info, warn, error …

	HTTP    HTTPConfig    `mapstructure:",squash" yaml:"http"`
	CORS    CORSConfig    `mapstructure:",squash" yaml:"cors"`
	Session SessionConfig `mapstructure:",squash" yaml:"session"`

	// WSAllowedOrigins are origin patterns accepted on the live-validation
	// websocket in addition to the request's own host.
	WSAllowedOrigins []string `mapstructure:"ws_allowed_origins" yaml:"ws_allowed_origins"`
}

// Dump returns a redacted YAML rendering of the config for debug logging.
func (c Config) Dump() string {
	cp := c
	if cp.Session.RedisPassword != "" {
		cp.Session.RedisPassword = "[REDACTED]"
	}
	b, err := yaml.Marshal(cp)
	if err != nil {
		return fmt.Sprintf("<config dump failed: %v>", err)
	}
	return string(b)
}

// Load merges defaults → config.* file(s) → env vars → explicit flags into one Config.
// Final precedence (highest wins): flags(explicit) > env > config > defaults.
//
// args are the command-line arguments without the program name.
func Load(logger *zap.Logger, args []string) (*Config, error) {
	// 0) Optionally load .env (real env still wins over .env)
	if err := godotenv.Load(); err == nil && logger != nil {
		logger.Info("Loaded .env file")
	}

	// 1) Flags (only *explicitly set* flags override)
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// 2) Viper + env
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, k := range allKeys() {
		_ = v.BindEnv(k)
	}

	// 3) Optional config.* files (yaml|yml|json|toml)
	for _, ext := range [...]string{"yaml", "yml", "json", "toml"} {
		file := "config." + ext
		if _, err := os.Stat(file); err != nil {
			continue
		}
		b, err := os.ReadFile(file)
		if err != nil {
			if logger != nil {
				logger.Warn("cannot read config file", zap.String("file", file), zap.Error(err))
			}
			continue
		}
		v.SetConfigType(ext)
		if err := v.MergeConfig(bytes.NewReader(b)); err != nil {
			if logger != nil {
				logger.Warn("cannot decode config file", zap.String("file", file), zap.Error(err))
			}
			continue
		}
		if logger != nil {
			logger.Info("Loaded config file", zap.String("file", file))
		}
	}

	// 4) Defaults
	setDefaults(v)

	// 5) Explicit flags
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			_ = v.BindPFlag(f.Name, f)
		}
	})

	// 6) JSON-string lists → []string
	if err := normalizeListKeys(logger, v,
		"cors_allowed_origins",
		"cors_allowed_methods",
		"cors_allowed_headers",
		"ws_allowed_origins",
	); err != nil {
		return nil, err
	}

	// 7) Decode
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.HTTP.ShutdownTimeout = durationKey(logger, v, "shutdown_timeout", 15*time.Second)
	cfg.Session.MaxAge = durationKey(logger, v, "session_max_age", 30*time.Minute)
	cfg.Session.StoreConnectTimeout = durationKey(logger, v, "store_connect_timeout", 5*time.Second)

	// 8) Validate
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("signup", pflag.ContinueOnError)

	fs.String("env", "dev", `Runtime environment "dev"|"prod"`)
	fs.String("log_level", "debug", "Log level")

	fs.Int("http_port", 8080, "HTTP port")
	fs.Int64("max_request_body_bytes", 1<<20, "Max HTTP request body size in bytes (0 = unlimited)")
	fs.Bool("enable_compression", true, "Enable HTTP compression")
	fs.Bool("trust_forwarded_proto", false, "Trust X-Forwarded-Proto from the TLS-terminating proxy")
	fs.String("shutdown_timeout", "15s", "Graceful shutdown timeout (e.g., \"15s\")")

	fs.Bool("enable_cors", false, "Enable CORS on the validation API")
	fs.String("cors_allowed_origins", "", `JSON array of origins, e.g. '["https://a.example"]'`)
	fs.String("cors_allowed_methods", "", `JSON array of methods, e.g. '["GET","POST"]'`)
	fs.String("cors_allowed_headers", "", `JSON array of headers, e.g. '["Content-Type"]'`)
	fs.Bool("cors_allow_credentials", false, "CORS: allow credentials")
	fs.Int("cors_max_age", 0, "CORS: max age seconds (0 disables cache)")

	fs.String("session_store", "memory", `Draft store: "memory" or "redis"`)
	fs.String("session_cookie_name", "signup_session", "Session cookie name")
	fs.Bool("session_cookie_secure", false, "Set the Secure flag on the session cookie")
	fs.String("session_max_age", "30m", "Lifetime of an in-progress signup draft")
	fs.String("redis_addr", "", "Redis address (session_store=redis)")
	fs.String("redis_password", "", "Redis password")
	fs.Int("redis_db", 0, "Redis database number")
	fs.String("store_connect_timeout", "5s", "Startup timeout for connecting the draft store")

	fs.String("ws_allowed_origins", "", `JSON array of websocket origin patterns`)
	return fs
}

func allKeys() []string {
	return []string{
		"env", "log_level",
		"http_port", "max_request_body_bytes", "enable_compression", "trust_forwarded_proto", "shutdown_timeout",
		"enable_cors", "cors_allowed_origins", "cors_allowed_methods", "cors_allowed_headers",
		"cors_allow_credentials", "cors_max_age",
		"session_store", "session_cookie_name", "session_cookie_secure", "session_max_age",
		"redis_addr", "redis_password", "redis_db", "store_connect_timeout",
		"ws_allowed_origins",
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "debug")

	v.SetDefault("http_port", 8080)
	v.SetDefault("max_request_body_bytes", int64(1<<20))
	v.SetDefault("enable_compression", true)
	v.SetDefault("trust_forwarded_proto", false)
	v.SetDefault("shutdown_timeout", "15s")

	v.SetDefault("enable_cors", false)
	v.SetDefault("cors_allowed_origins", []string{})
	v.SetDefault("cors_allowed_methods", []string{})
	v.SetDefault("cors_allowed_headers", []string{})
	v.SetDefault("cors_allow_credentials", false)
	v.SetDefault("cors_max_age", 0)

	v.SetDefault("session_store", "memory")
	v.SetDefault("session_cookie_name", "signup_session")
	v.SetDefault("session_cookie_secure", false)
	v.SetDefault("session_max_age", "30m")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("store_connect_timeout", "5s")

	v.SetDefault("ws_allowed_origins", []string{})
}

func durationKey(logger *zap.Logger, v *viper.Viper, key string, def time.Duration) time.Duration {
	d, err := parseDurationFlexible(v.Get(key), def)
	if err != nil && logger != nil {
		logger.Warn("invalid duration; using default",
			zap.String("key", key), zap.Any("value", v.Get(key)),
			zap.Duration("default", def), zap.Error(err))
	}
	return d
}

// normalizeListKeys coerces JSON-string values into []string for the given keys.
func normalizeListKeys(logger *zap.Logger, v *viper.Viper, keys ...string) error {
	for _, key := range keys {
		switch t := v.Get(key).(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				v.Set(key, []string{})
				continue
			}
			var arr []string
			if err := json.Unmarshal([]byte(s), &arr); err != nil {
				return fmt.Errorf("config key %q expects a JSON array string, got %q: %w", key, s, err)
			}
			v.Set(key, arr)
		case []interface{}:
			arr := make([]string, 0, len(t))
			for _, e := range t {
				arr = append(arr, fmt.Sprint(e))
			}
			v.Set(key, arr)
		case []string, nil:
		default:
			if logger != nil {
				logger.Warn("unexpected type for list key; expected JSON array/string",
					zap.String("key", key), zap.Any("value", t))
			}
		}
	}
	return nil
}

func validateConfig(cfg Config) error {
	var missing []string
	var invalid []string

	if cfg.HTTP.HTTPPort <= 0 || cfg.HTTP.HTTPPort > 65535 {
		invalid = append(invalid, "http_port must be in 1..65535")
	}
	if cfg.HTTP.MaxRequestBodyBytes < 0 {
		invalid = append(invalid, "max_request_body_bytes must be >= 0")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Session.Store)) {
	case "memory":
	case "redis":
		if strings.TrimSpace(cfg.Session.RedisAddr) == "" {
			missing = append(missing, EnvPrefix+"_REDIS_ADDR (or --redis_addr) for session_store=redis")
		}
		if cfg.Session.RedisDB < 0 {
			invalid = append(invalid, "redis_db must be >= 0")
		}
	default:
		invalid = append(invalid, `session_store must be "memory" or "redis"`)
	}
	if strings.TrimSpace(cfg.Session.CookieName) == "" {
		missing = append(missing, "session_cookie_name")
	}
	if cfg.Env == "prod" && !cfg.Session.CookieSecure {
		invalid = append(invalid, "session_cookie_secure must be true when env=prod")
	}

	if cfg.CORS.EnableCORS {
		if len(cfg.CORS.CORSAllowedOrigins) == 0 {
			missing = append(missing, "CORS: cors_allowed_origins (JSON array) required when enable_cors=true")
		}
		if len(cfg.CORS.CORSAllowedMethods) == 0 {
			missing = append(missing, "CORS: cors_allowed_methods (JSON array) required when enable_cors=true")
		}
		for _, o := range cfg.CORS.CORSAllowedOrigins {
			if o == "*" && cfg.CORS.CORSAllowCredentials {
				invalid = append(invalid, `CORS: cannot use "*" in cors_allowed_origins when cors_allow_credentials=true`)
				break
			}
		}
		if cfg.CORS.CORSMaxAge < 0 {
			invalid = append(invalid, "CORS: cors_max_age must be >= 0")
		}
	}

	if len(missing) == 0 && len(invalid) == 0 {
		return nil
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid: "+strings.Join(invalid, ", "))
	}
	return fmt.Errorf("configuration errors: %s", strings.Join(parts, " | "))
}
