package webhook

import (
	"strings"
	"time"

	"github.com/DiegoMartinsDev/MemberHub/internal/pkg/cache"
	"github.com/DiegoMartinsDev/MemberHub/internal/pkg/env"
)

// Config carries the per-gateway webhook secrets and CORS settings. It is
// built once per handler invocation and injected into the controller instead
// of being read from mutable package state, so a secret rotation only needs
// InvalidateConfig, not a restart.
type Config struct {
	Secrets       map[Platform]string
	AllowedOrigin string
}

const (
	configCachePrefix = "webhook:config:secret:"
	configCacheTTL    = 5 * time.Minute
)

var secretEnvKeys = map[Platform]string{
	PlatformHotmart: "HOTMART_WEBHOOK_SECRET",
	PlatformKiwify:  "KIWIFY_WEBHOOK_SECRET",
	PlatformCakto:   "CAKTO_WEBHOOK_SECRET",
}

// LoadConfig assembles the webhook configuration. Secrets come from the Redis
// cache when present and fall back to the environment; cache failures degrade
// to the environment value so webhook intake never depends on Redis.
func LoadConfig() Config {
	cfg := Config{
		Secrets:       make(map[Platform]string, len(secretEnvKeys)),
		AllowedOrigin: env.GetEnv("WEBHOOK_ALLOWED_ORIGIN", "*"),
	}
	for platform, envKey := range secretEnvKeys {
		cfg.Secrets[platform] = loadSecret(platform, envKey)
	}
	return cfg
}

// SecretFor returns the configured secret for a platform, empty when none.
func (c Config) SecretFor(platform Platform) string {
	return strings.TrimSpace(c.Secrets[platform])
}

// InvalidateConfig drops the cached secrets so the next LoadConfig re-reads
// the environment/settings source.
func InvalidateConfig() {
	for platform := range secretEnvKeys {
		_ = cache.Delete(configCachePrefix + string(platform))
	}
}

func loadSecret(platform Platform, envKey string) string {
	key := configCachePrefix + string(platform)
	if val, err := cache.Get(key); err == nil {
		return val
	}
	secret := strings.TrimSpace(env.GetEnv(envKey, ""))
	if secret != "" {
		_ = cache.Set(key, secret, configCacheTTL)
	}
	return secret
}
