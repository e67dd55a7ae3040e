// Copyright © 2025 kindguard authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
//

package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var (
	config *Config
	once   sync.Once
)

// Config is the full service configuration, loaded from kindguard.yaml.
type Config struct {
	Server struct {
		Port string `json:"port" yaml:"port"`
	} `json:"server" yaml:"server"`
	JWT struct {
		Secret string        `json:"secret" yaml:"secret" validate:"required,min=32"`
		Issuer string        `json:"issuer" yaml:"issuer"`
		TTL    time.Duration `json:"ttl" yaml:"ttl" validate:"gt=0"`
	} `json:"jwt" yaml:"jwt"`
	CSRF struct {
		TTL            time.Duration `json:"ttl" yaml:"ttl" validate:"gt=0"`
		SingleUse      bool          `json:"single_use" yaml:"single_use" mapstructure:"single_use"`
		AllowedOrigins []string      `json:"allowed_origins" yaml:"allowed_origins" mapstructure:"allowed_origins" validate:"min=1"`
	} `json:"csrf" yaml:"csrf"`
	Database struct {
		Username string `json:"username" yaml:"username"`
		Password string `json:"password" yaml:"password"`
		Host     string `json:"host" yaml:"host"`
		Port     string `json:"port" yaml:"port"`
		DBName   string `json:"dbname" yaml:"dbname"`
	} `json:"database" yaml:"database"`
	Redis struct {
		Enabled  bool   `json:"enabled" yaml:"enabled"`
		Addr     string `json:"addr" yaml:"addr"`
		Password string `json:"password" yaml:"password"`
		DB       int    `json:"db" yaml:"db"`
	} `json:"redis" yaml:"redis"`
	Audit struct {
		Enabled     bool   `json:"enabled" yaml:"enabled"`
		MinSeverity string `json:"min_severity" yaml:"min_severity" mapstructure:"min_severity"`
	} `json:"audit" yaml:"audit"`
	Sentry struct {
		DSN string `json:"dsn" yaml:"dsn"`
	} `json:"sentry" yaml:"sentry"`
}

// setDefaults registers the values a minimal config file may omit.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "9100")
	v.SetDefault("jwt.issuer", "kindguard")
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("csrf.ttl", "2h")
	v.SetDefault("csrf.single_use", false)
	v.SetDefault("csrf.allowed_origins", []string{"yyup.com", "yyup.cc"})
	v.SetDefault("redis.enabled", false)
	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.min_severity", "info")
}

// Load reads and validates a configuration file from the given directory.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("kindguard")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate applies the struct-tag rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// GetConfig loads the configuration from the working directory exactly once.
func GetConfig() *Config {
	once.Do(func() {
		cfg, err := Load(".")
		if err != nil {
			panic(err)
		}
		config = cfg
	})
	return config
}
