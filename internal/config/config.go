package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Peers whose send failed are kicked under PolicySimple; PolicyLostOnly keeps
// peers that are only slow.
const (
	PolicySimple   = "simple"
	PolicyLostOnly = "lost_only"
)

type Config struct {
	Mode         string        `mapstructure:"mode"`
	Port         int           `mapstructure:"port"`
	TCPAddr      string        `mapstructure:"tcp_addr"`
	RoomIDLength int           `mapstructure:"room_id_length"`
	AutoStart    bool          `mapstructure:"auto_start"`
	ReadLimit    int           `mapstructure:"read_limit"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	RateLimit    int           `mapstructure:"rate_limit"`
	RateInterval time.Duration `mapstructure:"rate_interval"`
	SendPolicy   string        `mapstructure:"send_policy"`
	LogLevel     string        `mapstructure:"log_level"`
	Store        StoreConfig   `mapstructure:"store"`
}

type StoreConfig struct {
	Backend   string        `mapstructure:"backend"`
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	Timeout   time.Duration `mapstructure:"timeout"`
	TTL       time.Duration `mapstructure:"ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("tcp_addr", ":5555")
	v.SetDefault("room_id_length", 4)
	v.SetDefault("auto_start", true)
	v.SetDefault("read_limit", 4096)
	v.SetDefault("write_timeout", "10s")
	v.SetDefault("rate_limit", 5)
	v.SetDefault("rate_interval", "10s")
	v.SetDefault("send_policy", PolicySimple)
	v.SetDefault("log_level", "info")
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.addr", "localhost:6379")
	v.SetDefault("store.password", "")
	v.SetDefault("store.db", 0)
	v.SetDefault("store.key_prefix", "ludo:")
	v.SetDefault("store.timeout", "2s")
	v.SetDefault("store.ttl", "168h")
}

// Load reads config/config.<CONFIG_ENV>.yaml (dev by default). LUDO_* env
// vars override file values, e.g. LUDO_STORE_BACKEND=redis.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix("LUDO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("tcp", cfg.TCPAddr).Str("store", cfg.Store.Backend).Msg("config ready")
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.RoomIDLength < 1 {
		errs = append(errs, fmt.Errorf("room_id_length must be positive, got %d", c.RoomIDLength))
	}
	if c.ReadLimit < 16 {
		errs = append(errs, fmt.Errorf("read_limit must be at least 16, got %d", c.ReadLimit))
	}
	if c.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("write_timeout must be positive, got %s", c.WriteTimeout))
	}
	if c.SendPolicy != PolicySimple && c.SendPolicy != PolicyLostOnly {
		errs = append(errs, fmt.Errorf("send_policy must be %q or %q, got %q", PolicySimple, PolicyLostOnly, c.SendPolicy))
	}
	if c.Store.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("store.timeout must be positive, got %s", c.Store.Timeout))
	}
	return errors.Join(errs...)
}
