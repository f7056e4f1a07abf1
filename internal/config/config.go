package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
	Importer  ImporterConfig  `yaml:"importer"`
	Lexicon   LexiconConfig   `yaml:"lexicon"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	GraphQL   GraphQLConfig   `yaml:"graphql"`
}

// GraphQLConfig holds settings of the read-only GraphQL endpoint.
type GraphQLConfig struct {
	Enabled           bool `yaml:"enabled"            env:"GRAPHQL_ENABLED"            env-default:"true"`
	PlaygroundEnabled bool `yaml:"playground_enabled" env:"GRAPHQL_PLAYGROUND_ENABLED" env-default:"false"`
	ComplexityLimit   int  `yaml:"complexity_limit"   env:"GRAPHQL_COMPLEXITY_LIMIT"   env-default:"300"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"120s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	ApplicationName string        `yaml:"application_name"   env:"DATABASE_APPLICATION_NAME"   env-default:"lexicon"`

	// StatementTimeout caps each statement server-side; zero leaves the server default.
	StatementTimeout time.Duration `yaml:"statement_timeout" env:"DATABASE_STATEMENT_TIMEOUT" env-default:"0s"`
}

// AuthConfig holds token and password hashing settings.
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"       env:"AUTH_JWT_SECRET"       env-required:"true"`
	JWTIssuer      string        `yaml:"jwt_issuer"       env:"AUTH_JWT_ISSUER"       env-default:"lexicon"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"AUTH_ACCESS_TOKEN_TTL" env-default:"12h"`
	BcryptCost     int           `yaml:"bcrypt_cost"      env:"AUTH_BCRYPT_COST"      env-default:"12"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// ImporterConfig holds CSV import defaults. Request and CLI options
// override BatchSize and MaxErrors per run.
type ImporterConfig struct {
	BatchSize      int    `yaml:"batch_size"       env:"IMPORT_BATCH_SIZE"       env-default:"100"`
	MaxErrors      int    `yaml:"max_errors"       env:"IMPORT_MAX_ERRORS"       env-default:"500"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" env:"IMPORT_MAX_UPLOAD_BYTES" env-default:"33554432"`
	ProfileDir     string `yaml:"profile_dir"      env:"IMPORT_PROFILE_DIR"      env-default:""`
	DelimiterRaw   string `yaml:"delimiter"        env:"IMPORT_DELIMITER"        env-default:","`

	// Delimiter is parsed from DelimiterRaw during validation.
	Delimiter rune `yaml:"-" env:"-"`
}

// LexiconConfig holds lexicon service settings.
type LexiconConfig struct {
	DefaultPageSize    int `yaml:"default_page_size"    env:"LEXICON_DEFAULT_PAGE_SIZE"    env-default:"50"`
	MaxPageSize        int `yaml:"max_page_size"        env:"LEXICON_MAX_PAGE_SIZE"        env-default:"200"`
	PurgeRetentionDays int `yaml:"purge_retention_days" env:"LEXICON_PURGE_RETENTION_DAYS" env-default:"30"`
	HistoryLimit       int `yaml:"history_limit"        env:"LEXICON_HISTORY_LIMIT"        env-default:"100"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED" env-default:"true"`
	Path    string `yaml:"path"    env:"METRICS_PATH"    env-default:"/metrics"`
}

// RateLimitConfig limits login attempts per client IP.
type RateLimitConfig struct {
	LoginPerMinute  int           `yaml:"login_per_minute" env:"RATELIMIT_LOGIN_PER_MINUTE" env-default:"10"`
	LoginBurst      int           `yaml:"login_burst"      env:"RATELIMIT_LOGIN_BURST"      env-default:"5"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"RATELIMIT_CLEANUP_INTERVAL" env-default:"5m"`
}
