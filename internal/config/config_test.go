package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPrefersShipVariables(t *testing.T) {
	t.Setenv("SHIP_SHOP_DOMAIN", "ship.myshopify.com")
	t.Setenv("SHOP_DOMAIN", "generic.myshopify.com")
	t.Setenv("SHIP_ADMIN_TOKEN", "")
	t.Setenv("SHOPIFY_API_TOKEN", "generic-token")
	t.Setenv("SHIP_PROFILE_REBAJAS_ID", "")
	t.Setenv("REBAJAS_PROFILE_ID", "gid://shopify/DeliveryProfile/1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ship.myshopify.com", cfg.ShopDomain)
	assert.Equal(t, "generic-token", cfg.AdminToken)
	assert.Equal(t, "gid://shopify/DeliveryProfile/1", cfg.ProfileRebajasID)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SHIP_API_VERSION", "")
	t.Setenv("API_VERSION", "")
	t.Setenv("EXCLUDE_HANDLE_SUBSTRING", "")
	t.Setenv("WAPPING_MAX_SKEW_SECONDS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "2025-01", cfg.APIVersion)
	assert.Equal(t, "second-life", cfg.ExcludeHandle)
	assert.Equal(t, 300*time.Second, cfg.WappingMaxSkew)
	assert.False(t, cfg.ExplicitDissociate)
}

func TestLoadLowercasesExclusion(t *testing.T) {
	t.Setenv("EXCLUDE_HANDLE_SUBSTRING", "Outlet-LINE")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "outlet-line", cfg.ExcludeHandle)
}

func TestGetEnvAsList(t *testing.T) {
	t.Setenv("REPORT_RECIPIENTS", " ops@example.com, ,finance@example.com ")
	assert.Equal(t, []string{"ops@example.com", "finance@example.com"}, getEnvAsList("REPORT_RECIPIENTS", nil))
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHIP_SHOP_DOMAIN")
	assert.Contains(t, err.Error(), "SHIP_ADMIN_TOKEN")

	cfg = &Config{ShopDomain: "shop.myshopify.com", AdminToken: "x"}
	assert.NoError(t, cfg.Validate())
}
