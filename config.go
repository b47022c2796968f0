package store

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// AuthConfig is the auth section of the application config.
type AuthConfig struct {
	SigningKey      string   `json:"signing_key" yaml:"signing_key" env:"AUTH_SIGNING_KEY"`
	SigningMethod   string   `json:"signing_method" yaml:"signing_method"`
	TokenExpiration int      `json:"token_expiration" yaml:"token_expiration"`
	Issuer          string   `json:"issuer" yaml:"issuer"`
	Audience        []string `json:"audience" yaml:"audience"`
	CookieName      string   `json:"cookie_name" yaml:"cookie_name"`
}

var _ Config = (*AuthConfig)(nil)

func (c AuthConfig) GetSigningKey() string    { return c.SigningKey }
func (c AuthConfig) GetSigningMethod() string { return c.SigningMethod }

// GetTokenExpiration is the session TTL in minutes.
func (c AuthConfig) GetTokenExpiration() int {
	if c.TokenExpiration <= 0 {
		return 30
	}
	return c.TokenExpiration
}

func (c AuthConfig) GetIssuer() string     { return c.Issuer }
func (c AuthConfig) GetAudience() []string { return c.Audience }

func (c AuthConfig) GetCookieName() string {
	if c.CookieName == "" {
		return "access_token"
	}
	return c.CookieName
}

// Validate will validate the config section
func (c AuthConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.SigningKey, validation.Required, validation.Length(16, 0)),
	)
}

// PersistenceConfig is the database section of the application config.
type PersistenceConfig struct {
	Driver                string `json:"driver" yaml:"driver" env:"DB_DRIVER"`
	DSN                   string `json:"dsn" yaml:"dsn" env:"DB_DSN"`
	Debug                 bool   `json:"debug" yaml:"debug"`
	PingTimeoutExpression string `json:"ping_timeout" yaml:"ping_timeout"`
}

func (p PersistenceConfig) GetDriver() string {
	if p.Driver == "" {
		return "sqlite"
	}
	return p.Driver
}

func (p PersistenceConfig) GetDSN() string {
	if p.DSN == "" {
		return "file::memory:?cache=shared"
	}
	return p.DSN
}

func (p PersistenceConfig) GetDebug() bool { return p.Debug }

func (p PersistenceConfig) GetPingTimeout() time.Duration {
	if p.PingTimeoutExpression == "" {
		return 5 * time.Second
	}
	dur, err := time.ParseDuration(p.PingTimeoutExpression)
	if err != nil {
		panic(
			fmt.Sprintf("unable to parse time: expr %s", p.PingTimeoutExpression),
		)
	}
	return dur
}

// ServerConfig is the HTTP section of the application config.
type ServerConfig struct {
	Address string `json:"address" yaml:"address" env:"SERVER_ADDRESS"`
}

func (s ServerConfig) GetAddress() string {
	if s.Address == "" {
		return ":8000"
	}
	return s.Address
}

// BaseConfig is the application configuration container.
type BaseConfig struct {
	Auth        AuthConfig        `json:"auth" yaml:"auth"`
	Persistence PersistenceConfig `json:"persistence" yaml:"persistence"`
	Server      ServerConfig      `json:"server" yaml:"server"`
}

func (a BaseConfig) GetAuth() AuthConfig               { return a.Auth }
func (a BaseConfig) GetPersistence() PersistenceConfig { return a.Persistence }
func (a BaseConfig) GetServer() ServerConfig           { return a.Server }

// Validate will validate the config container
func (a BaseConfig) Validate() error {
	return a.Auth.Validate()
}
