package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// CatalogConfig carries runtime limits for catalog listing endpoints.
type CatalogConfig struct {
	DefaultLimit int `mapstructure:"defaultLimit"`
	MaxLimit     int `mapstructure:"maxLimit"`
}

func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		DefaultLimit: 10,
		MaxLimit:     100,
	}
}

type CatalogConfigHolder struct {
	current atomic.Value // holds CatalogConfig
}

// NewCatalogConfigHolder reads catalog.yml when present and keeps it hot-reloaded.
func NewCatalogConfigHolder(log *zap.Logger) (*CatalogConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("catalog.config")

	v := viper.New()

	v.SetConfigName("catalog")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/coffeeshop")
	v.AddConfigPath(".")

	v.SetEnvPrefix("COFFEESHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultCatalogConfig()
	v.SetDefault("catalog.defaultLimit", defaults.DefaultLimit)
	v.SetDefault("catalog.maxLimit", defaults.MaxLimit)

	watch := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		watch = false
	}

	var cfg CatalogConfig
	if err := v.UnmarshalKey("catalog", &cfg); err != nil {
		return nil, err
	}
	if err := validateCatalogConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticCatalogConfig(cfg)

	if watch {
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated CatalogConfig
			if err := v.UnmarshalKey("catalog", &updated); err != nil {
				log.Warn("reload failed", zap.Error(err))
				return
			}
			if err := validateCatalogConfig(updated); err != nil {
				log.Warn("invalid config ignored", zap.Error(err))
				return
			}
			holder.current.Store(updated)
			log.Info("reloaded", zap.String("file", e.Name))
		})
		v.WatchConfig()
	}

	return holder, nil
}

// NewStaticCatalogConfig returns a holder that never reloads.
func NewStaticCatalogConfig(cfg CatalogConfig) *CatalogConfigHolder {
	holder := &CatalogConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *CatalogConfigHolder) Get() CatalogConfig {
	if h == nil {
		return DefaultCatalogConfig()
	}
	return h.current.Load().(CatalogConfig)
}

func validateCatalogConfig(cfg CatalogConfig) error {
	if cfg.DefaultLimit <= 0 {
		return errors.New("catalog.defaultLimit must be positive")
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		return errors.New("catalog.maxLimit cannot be lower than catalog.defaultLimit")
	}
	return nil
}
