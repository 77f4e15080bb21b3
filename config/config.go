package config

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is stripped from environment variables; "__" separates sections
const EnvPrefix = "LIBRARY_"

// Config is the immutable runtime configuration
type Config struct {
	Server   Server   `koanf:"server" json:"server"`
	Database Database `koanf:"database" json:"database"`
	Auth     Auth     `koanf:"auth" json:"auth"`
	Logging  Logging  `koanf:"logging" json:"logging"`
}

type Server struct {
	Address         string        `koanf:"address" json:"address"`
	BasePath        string        `koanf:"base_path" json:"base_path"`
	ReadTimeout     time.Duration `koanf:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout"`
}

type Database struct {
	URL         string        `koanf:"url" json:"url"`
	Debug       bool          `koanf:"debug" json:"debug"`
	PingTimeout time.Duration `koanf:"ping_timeout" json:"ping_timeout"`
}

type Auth struct {
	SigningKey                  string        `koanf:"signing_key" json:"signing_key"`
	Issuer                      string        `koanf:"issuer" json:"issuer"`
	TokenExpiration             time.Duration `koanf:"token_expiration" json:"token_expiration"`
	ConfirmationExpiration      time.Duration `koanf:"confirmation_expiration" json:"confirmation_expiration"`
	BcryptCost                  int           `koanf:"bcrypt_cost" json:"bcrypt_cost"`
	AllowEmptyConfirmationToken bool          `koanf:"allow_empty_confirmation_token" json:"allow_empty_confirmation_token"`
	HashidAccountIDs            bool          `koanf:"hashid_account_ids" json:"hashid_account_ids"`
}

type Logging struct {
	Level  string `koanf:"level" json:"level"`
	Format string `koanf:"format" json:"format"`
}

// Defaults returns the base layer of every load
func Defaults() map[string]any {
	return map[string]any{
		"server.address":                      ":3000",
		"server.base_path":                    "/api/v1",
		"server.read_timeout":                 "15s",
		"server.write_timeout":                "15s",
		"server.shutdown_timeout":             "10s",
		"database.url":                        "file:library.db?cache=shared",
		"database.debug":                      false,
		"database.ping_timeout":               "5s",
		"auth.signing_key":                    "",
		"auth.issuer":                         "go-library",
		"auth.token_expiration":               "25h",
		"auth.confirmation_expiration":        "72h",
		"auth.bcrypt_cost":                    12,
		"auth.allow_empty_confirmation_token": false,
		"auth.hashid_account_ids":             false,
		"logging.level":                       "info",
		"logging.format":                      "text",
	}
}

// Load layers defaults, the optional YAML file, LIBRARY_* environment
// variables and changed flags, in that order.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, err
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LIBRARY_AUTH__SIGNING_KEY -> auth.signing_key
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate will run validation rules
func (c *Config) Validate() error {
	err := validation.ValidateStruct(&c.Database,
		validation.Field(&c.Database.URL, validation.Required),
	)
	if err != nil {
		return err
	}
	return validation.ValidateStruct(&c.Auth,
		validation.Field(&c.Auth.SigningKey, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.Auth.TokenExpiration, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.Auth.ConfirmationExpiration, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.Auth.BcryptCost, validation.Min(4), validation.Max(31)),
	)
}

// Redacted returns a copy safe to print
func (c Config) Redacted() Config {
	if c.Auth.SigningKey != "" {
		c.Auth.SigningKey = "********"
	}
	return c
}

func (c *Config) GetSigningKey() string                    { return c.Auth.SigningKey }
func (c *Config) GetIssuer() string                        { return c.Auth.Issuer }
func (c *Config) GetTokenExpiration() time.Duration        { return c.Auth.TokenExpiration }
func (c *Config) GetConfirmationExpiration() time.Duration { return c.Auth.ConfirmationExpiration }
func (c *Config) GetBcryptCost() int                       { return c.Auth.BcryptCost }
func (c *Config) GetAllowEmptyConfirmationToken() bool     { return c.Auth.AllowEmptyConfirmationToken }
func (c *Config) GetHashidAccountIDs() bool                { return c.Auth.HashidAccountIDs }
func (c *Config) GetBasePath() string                      { return c.Server.BasePath }
