package settings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-promotions/pkg/logger"
	"github.com/angelmondragon/storefront-promotions/pkg/redis"
)

// KeyDisplayCurrency is the settings row holding the dashboard currency.
const KeyDisplayCurrency = "display_currency"

// Cache is the subset of the redis client used to memoize settings.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SettingKey(name string) string
}

// Service resolves global storefront settings.
type Service interface {
	DisplayCurrency(ctx context.Context) (string, error)
}

type service struct {
	repo            Repository
	cache           Cache
	ttl             time.Duration
	defaultCurrency string
	logg            *logger.Logger
}

// NewService wires the settings service. cache may be nil.
func NewService(repo Repository, cache Cache, ttl time.Duration, defaultCurrency string, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	defaultCurrency = normalizeCurrency(defaultCurrency)
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	return &service{
		repo:            repo,
		cache:           cache,
		ttl:             ttl,
		defaultCurrency: defaultCurrency,
		logg:            logg,
	}, nil
}

// DisplayCurrency returns the configured display currency, falling back to the default
// when the setting is absent.
func (s *service) DisplayCurrency(ctx context.Context) (string, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, s.cache.SettingKey(KeyDisplayCurrency))
		switch {
		case err == nil && cached != "":
			return cached, nil
		case err != nil && !redis.IsNil(err):
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "settings.cache_read_failed")
		}
	}

	value, found, err := s.repo.Get(ctx, KeyDisplayCurrency)
	if err != nil {
		return "", err
	}
	currency := normalizeCurrency(value)
	if !found || currency == "" {
		currency = s.defaultCurrency
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, s.cache.SettingKey(KeyDisplayCurrency), currency, s.ttl); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "settings.cache_write_failed")
		}
	}
	return currency, nil
}

func normalizeCurrency(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}
