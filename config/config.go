package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode   string `mapstructure:"mode"`
	Dotenv string `mapstructure:"dotenv"`
	Server struct {
		HTTPPort       string        `mapstructure:"HTTPPort"`
		Timeout        time.Duration `mapstructure:"HTTPTimeout"`
		AllowedOrigins []string      `mapstructure:"allowedOrigins"`
	} `mapstructure:"server"`
	RemoteAPI    RemoteAPIConfig    `mapstructure:"remoteAPI"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Catalog      CatalogConfig      `mapstructure:"catalog"`
	Favourites   FavouritesConfig   `mapstructure:"favourites"`
	Interactions InteractionsConfig `mapstructure:"interactions"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Chat          ChatConfig    `mapstructure:"chat"`
	Payment       PaymentConfig `mapstructure:"payment"`
	Company       CompanyConfig `mapstructure:"company"`
	Observability struct {
		ServiceName    string `mapstructure:"serviceName"`
		PrometheusPort string `mapstructure:"prometheusPort"`
	} `mapstructure:"observability"`
}

// RemoteAPIConfig points at the REST API that owns tours, favourites and users.
type RemoteAPIConfig struct {
	BaseURL        string        `mapstructure:"baseURL"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RequestsPerSec float64       `mapstructure:"requestsPerSecond"`
	Burst          int           `mapstructure:"burst"`
}

type JWTConfig struct {
	// SecretKey verifies tokens when set; otherwise tokens are read unverified
	// and the remote API stays the authority.
	SecretKey string `mapstructure:"secretKey"`
	Issuer    string `mapstructure:"issuer"`
	Audience  string `mapstructure:"audience"`
}

type CatalogConfig struct {
	PageSize      int  `mapstructure:"pageSize"`
	LoadOnStartup bool `mapstructure:"loadOnStartup"`
	// SessionIdle drops browse sessions not used for this long.
	SessionIdle time.Duration `mapstructure:"sessionIdle"`
}

type FavouritesConfig struct {
	RollbackOnFailure bool          `mapstructure:"rollbackOnFailure"`
	IdleExpiry        time.Duration `mapstructure:"idleExpiry"`
}

type InteractionsConfig struct {
	// Store is "memory" or "postgres".
	Store         string        `mapstructure:"store"`
	FlushInterval time.Duration `mapstructure:"flushInterval"`
}

type ChatConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	URL           string        `mapstructure:"url"`
	SubjectPrefix string        `mapstructure:"subjectPrefix"`
	ReconnectWait time.Duration `mapstructure:"reconnectWait"`
}

type PaymentConfig struct {
	Provider    string `mapstructure:"provider"`
	ClientID    string `mapstructure:"clientID"`
	APIKey      string `mapstructure:"apiKey"`
	ChecksumKey string `mapstructure:"checksumKey"`
	ReturnURL   string `mapstructure:"returnURL"`
	CancelURL   string `mapstructure:"cancelURL"`
}

type CompanyConfig struct {
	CacheTTL time.Duration `mapstructure:"cacheTTL"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")
	v.AddConfigPath("/usr/local/bin")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// JOURNEYMATE_REMOTEAPI_BASEURL overrides remoteAPI.baseURL, and so on.
	v.SetEnvPrefix("journeymate")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.applyDefaults()
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPPort == "" {
		c.Server.HTTPPort = "8000"
	}
	if c.Server.Timeout <= 0 {
		c.Server.Timeout = 60 * time.Second
	}
	if c.RemoteAPI.Timeout <= 0 {
		c.RemoteAPI.Timeout = 15 * time.Second
	}
	if c.RemoteAPI.RequestsPerSec <= 0 {
		c.RemoteAPI.RequestsPerSec = 20
	}
	if c.RemoteAPI.Burst <= 0 {
		c.RemoteAPI.Burst = 10
	}
	if c.Catalog.PageSize <= 0 {
		c.Catalog.PageSize = 5
	}
	if c.Catalog.SessionIdle <= 0 {
		c.Catalog.SessionIdle = 30 * time.Minute
	}
	if c.Favourites.IdleExpiry <= 0 {
		c.Favourites.IdleExpiry = 2 * time.Hour
	}
	if c.Interactions.Store == "" {
		c.Interactions.Store = "memory"
	}
	if c.Interactions.FlushInterval <= 0 {
		c.Interactions.FlushInterval = 7 * 24 * time.Hour
	}
	if c.Chat.SubjectPrefix == "" {
		c.Chat.SubjectPrefix = "chat"
	}
	if c.Chat.ReconnectWait <= 0 {
		c.Chat.ReconnectWait = 2 * time.Second
	}
	if c.Company.CacheTTL <= 0 {
		c.Company.CacheTTL = 10 * time.Minute
	}
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = "journeymate-bff"
	}
}
