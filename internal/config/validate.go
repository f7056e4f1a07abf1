package config

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("auth.access_token_ttl must be > 0 (got %v)", c.Auth.AccessTokenTTL)
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be in [4, 31] (got %d)", c.Auth.BcryptCost)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}

	if err := c.Importer.validate(); err != nil {
		return fmt.Errorf("importer: %w", err)
	}
	if err := c.Lexicon.validate(); err != nil {
		return fmt.Errorf("lexicon: %w", err)
	}

	if c.RateLimit.LoginPerMinute <= 0 {
		return fmt.Errorf("ratelimit.login_per_minute must be > 0 (got %d)", c.RateLimit.LoginPerMinute)
	}
	if c.RateLimit.LoginBurst <= 0 {
		return fmt.Errorf("ratelimit.login_burst must be > 0 (got %d)", c.RateLimit.LoginBurst)
	}

	if c.GraphQL.Enabled && c.GraphQL.ComplexityLimit <= 0 {
		return fmt.Errorf("graphql.complexity_limit must be > 0 (got %d)", c.GraphQL.ComplexityLimit)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with / (got %q)", c.Metrics.Path)
	}

	return nil
}

func (i *ImporterConfig) validate() error {
	if i.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", i.BatchSize)
	}
	if i.MaxErrors < 0 {
		return fmt.Errorf("max_errors must be >= 0 (got %d)", i.MaxErrors)
	}
	if i.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be > 0 (got %d)", i.MaxUploadBytes)
	}

	d, err := ParseDelimiter(i.DelimiterRaw)
	if err != nil {
		return fmt.Errorf("delimiter: %w", err)
	}
	i.Delimiter = d

	return nil
}

func (l *LexiconConfig) validate() error {
	if l.DefaultPageSize <= 0 {
		return fmt.Errorf("default_page_size must be > 0 (got %d)", l.DefaultPageSize)
	}
	if l.MaxPageSize < l.DefaultPageSize {
		return fmt.Errorf("max_page_size must be >= default_page_size (got %d < %d)", l.MaxPageSize, l.DefaultPageSize)
	}
	if l.PurgeRetentionDays <= 0 {
		return fmt.Errorf("purge_retention_days must be > 0 (got %d)", l.PurgeRetentionDays)
	}
	if l.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be > 0 (got %d)", l.HistoryLimit)
	}
	return nil
}

// ParseDelimiter turns a configured CSV delimiter into a rune. It accepts a
// single character or the names "tab", "comma", "semicolon" and "pipe".
func ParseDelimiter(raw string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "tab", `\t`:
		return '\t', nil
	case "comma":
		return ',', nil
	case "semicolon":
		return ';', nil
	case "pipe":
		return '|', nil
	}

	if utf8.RuneCountInString(raw) != 1 {
		return 0, fmt.Errorf("must be a single character (got %q)", raw)
	}
	r, _ := utf8.DecodeRuneInString(raw)
	switch r {
	case '"', '\r', '\n', utf8.RuneError:
		return 0, fmt.Errorf("invalid delimiter %q", raw)
	}
	return r, nil
}
