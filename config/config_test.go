package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORE_DRIVER", "IMAGE_BACKEND", "READ_QUERY_MAX_LIMIT",
		"ACCESS_TOKEN_TTL_MINUTES", "CATEGORY_DELETE_POLICY", "ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, ImageEmbedded, cfg.ImageBackend)
	assert.Equal(t, 100, cfg.ReadQueryMaxLimit)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, "orphan", cfg.CategoryDeletePolicy)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("READ_QUERY_MAX_LIMIT", "25")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("ADMIN_EMAIL", "  Admin@Shop.Example ")

	cfg := Load()

	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 25, cfg.ReadQueryMaxLimit)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL, "invalid ttl falls back")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "admin@shop.example", cfg.AdminEmail)
}
