package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xymaxim/vpick/internal/picker"
)

func (c *Config) normalize() error {
	c.Server.Locale = strings.ToLower(strings.TrimSpace(c.Server.Locale))
	c.Picker.Malformed = strings.ToLower(strings.TrimSpace(c.Picker.Malformed))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.Extract.YtdlpPath = strings.TrimSpace(c.Extract.YtdlpPath)
	c.Cache.RedisAddr = strings.TrimSpace(c.Cache.RedisAddr)

	if c.Extract.YtdlpPath == "" {
		c.Extract.YtdlpPath = defaultYtdlpPath
	}

	installDir, err := expandPath(strings.TrimSpace(c.Extract.InstallDir))
	if err != nil {
		return fmt.Errorf("extract.install_dir: %w", err)
	}
	c.Extract.InstallDir = installDir

	return nil
}

// Validate checks value ranges and enumerations, reporting every problem.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, errors.New("server.rate_limit must not be negative"))
	}
	switch c.Server.Locale {
	case "th", "en":
	default:
		errs = append(errs, fmt.Errorf("server.locale must be th or en, got %q", c.Server.Locale))
	}
	if c.Server.ReadHeaderTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("server.read_header_timeout_seconds must be positive"))
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout_seconds must be positive"))
	}
	if c.Extract.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("extract.timeout_seconds must be positive"))
	}
	if _, err := picker.ParseMalformedPolicy(c.Picker.Malformed); err != nil {
		errs = append(errs, fmt.Errorf("picker.malformed: %w", err))
	}
	if c.Cache.TTLSeconds <= 0 {
		errs = append(errs, errors.New("cache.ttl_seconds must be positive"))
	}
	if c.Cache.RedisDB < 0 {
		errs = append(errs, errors.New("cache.redis_db must not be negative"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// MalformedPolicy returns the parsed picker.malformed value.
func (c *Config) MalformedPolicy() picker.MalformedPolicy {
	p, err := picker.ParseMalformedPolicy(c.Picker.Malformed)
	if err != nil {
		return picker.MalformedLast
	}
	return p
}
