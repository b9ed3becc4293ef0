package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config application configuration structure
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Blockchain BlockchainConfig `yaml:"blockchain"`
	Transfer   TransferConfig   `yaml:"transfer"`
	NATS       NATSConfig       `yaml:"nats"`
	CORS       CORSConfig       `yaml:"cors"`
	Admin      AdminConfig      `yaml:"admin"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"` // gin mode: debug, release, test
}

// DatabaseConfig Database configuration
type DatabaseConfig struct {
	DSN    string `yaml:"dsn"`
	Driver string `yaml:"driver"`
}

// BlockchainConfig single EVM network the service talks to
type BlockchainConfig struct {
	ChainID      int64    `yaml:"chainId"`
	Name         string   `yaml:"name"`
	RPCEndpoints []string `yaml:"rpcEndpoints"`
	NativeSymbol string   `yaml:"nativeSymbol"`
}

// TransferConfig outbound transfer execution settings
type TransferConfig struct {
	ReceiptTimeoutSeconds int `yaml:"receiptTimeoutSeconds"`
	ReceiptPollSeconds    int `yaml:"receiptPollSeconds"`
}

// NATSConfig NATS event publishing configuration
type NATSConfig struct {
	URL           string `yaml:"url"`
	Timeout       int    `yaml:"timeout"`
	ReconnectWait int    `yaml:"reconnect_wait"`
	MaxReconnects int    `yaml:"max_reconnects"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// CORSConfig CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowedOrigins"`
	AllowCredentials bool     `yaml:"allowCredentials"`
	MaxAge           int      `yaml:"maxAge"`
}

// AdminConfig admin API access control configuration
type AdminConfig struct {
	AllowedIPs   []string `yaml:"allowedIPs"`   // IP addresses or CIDR ranges
	Username     string   `yaml:"username"`
	PasswordHash string   `yaml:"passwordHash"` // bcrypt hash
	TOTPSecret   string   `yaml:"totpSecret"`
	JWTSecret    string   `yaml:"jwtSecret"`
	TokenTTLMins int      `yaml:"tokenTtlMinutes"`
}

// LogConfig logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// LoadConfig Load configuration file
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
		if _, err := os.Stat("config.local.yaml"); err == nil {
			configPath = "config.local.yaml"
			logrus.Info("Using local configuration file: config.local.yaml")
		}
	}

	var cfg Config
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		logrus.WithField("path", configPath).Info("Loaded configuration file")
	case os.IsNotExist(err):
		logrus.WithField("path", configPath).Warn("Config file not found, using defaults and environment")
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	overrideFromEnv(&cfg)
	applyDefaults(&cfg)

	if len(cfg.Admin.AllowedIPs) > 0 {
		logrus.WithField("count", len(cfg.Admin.AllowedIPs)).Info("Admin IP whitelist loaded")
	} else {
		logrus.Info("Admin IP whitelist: not configured (localhost-only mode)")
	}

	return &cfg, nil
}

// Parse decodes configuration from raw YAML, applying env overrides and defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	overrideFromEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Blockchain.NativeSymbol == "" {
		cfg.Blockchain.NativeSymbol = DefaultNativeSymbol
	}
	cfg.Blockchain.NativeSymbol = strings.ToUpper(cfg.Blockchain.NativeSymbol)
	if cfg.Transfer.ReceiptTimeoutSeconds <= 0 {
		cfg.Transfer.ReceiptTimeoutSeconds = 120
	}
	if cfg.Transfer.ReceiptPollSeconds <= 0 {
		cfg.Transfer.ReceiptPollSeconds = 2
	}
	if cfg.NATS.Timeout <= 0 {
		cfg.NATS.Timeout = 10
	}
	if cfg.NATS.ReconnectWait <= 0 {
		cfg.NATS.ReconnectWait = 5
	}
	if cfg.NATS.SubjectPrefix == "" {
		cfg.NATS.SubjectPrefix = "wallet"
	}
	if cfg.Admin.Username == "" {
		cfg.Admin.Username = "admin"
	}
	if cfg.Admin.TokenTTLMins <= 0 {
		cfg.Admin.TokenTTLMins = 24 * 60
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// overrideFromEnv Override configuration from environment variables
func overrideFromEnv(cfg *Config) {
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		cfg.Server.Mode = mode
	}

	if rpc := os.Getenv("RPC_ENDPOINTS"); rpc != "" {
		cfg.Blockchain.RPCEndpoints = splitList(rpc)
	}
	if chainID := os.Getenv("CHAIN_ID"); chainID != "" {
		if id, err := strconv.ParseInt(chainID, 10, 64); err == nil {
			cfg.Blockchain.ChainID = id
		}
	}
	if symbol := os.Getenv("NATIVE_SYMBOL"); symbol != "" {
		cfg.Blockchain.NativeSymbol = symbol
	}
	if timeout := os.Getenv("RECEIPT_TIMEOUT_SECONDS"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			cfg.Transfer.ReceiptTimeoutSeconds = t
		}
	}

	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		cfg.NATS.URL = natsURL
	}
	if natsTimeout := os.Getenv("NATS_TIMEOUT"); natsTimeout != "" {
		if t, err := strconv.Atoi(natsTimeout); err == nil {
			cfg.NATS.Timeout = t
		}
	}

	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		cfg.CORS.AllowedOrigins = splitList(corsOrigins)
	}

	if ips := os.Getenv("ADMIN_ALLOWED_IPS"); ips != "" {
		cfg.Admin.AllowedIPs = splitList(ips)
	}
	if username := os.Getenv("ADMIN_USERNAME"); username != "" {
		cfg.Admin.Username = username
	}
	if hash := os.Getenv("ADMIN_PASSWORD_HASH"); hash != "" {
		cfg.Admin.PasswordHash = hash
	}
	if secret := os.Getenv("ADMIN_TOTP_SECRET"); secret != "" {
		cfg.Admin.TOTPSecret = secret
	}
	if secret := os.Getenv("ADMIN_JWT_SECRET"); secret != "" {
		cfg.Admin.JWTSecret = secret
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Log.Format = format
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
