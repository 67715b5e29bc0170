package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationDefaults(t *testing.T) {
	var cfg Config
	initApp(&cfg)
	initApify(&cfg)
	initStorage(&cfg)
	initPipeline(&cfg)

	if os.Getenv("APP_PORT") == "" && os.Getenv("PORT") == "" {
		assert.Equal(t, DefaultPort, cfg.App.Port)
	}
	if os.Getenv("APIFY_TIKTOK_ACTOR") == "" {
		assert.Equal(t, "GdWCkxBtKWOsKjdch", cfg.Apify.TikTokActor)
	}
	if os.Getenv("APIFY_INSTAGRAM_ACTOR") == "" {
		assert.Equal(t, "shu8hvrXbJbY3Eb9W", cfg.Apify.InstagramActor)
	}
	assert.Equal(t, int64(50<<20), cfg.Pipeline.EagerFetchMaxBytes)
	assert.Equal(t, int64(512<<20), cfg.Pipeline.UploadMaxBytes)
	assert.Equal(t, 24, cfg.Pipeline.StatusTTLHours)
	assert.NotEmpty(t, cfg.Storage.Provider)
	assert.NotEmpty(t, cfg.Storage.URLStrategy)
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("APIFY_TOKEN", "apify-test-token")
	t.Setenv("UPLOADTHING_APP_ID", "app123")
	t.Setenv("STORAGE_URL_STRATEGY", "SIGNED")
	t.Setenv("APP_PORT", "8089")

	var cfg Config
	initApp(&cfg)
	initApify(&cfg)
	initStorage(&cfg)

	assert.Equal(t, 8089, cfg.App.Port)
	assert.Equal(t, "apify-test-token", cfg.Apify.Token)
	assert.Equal(t, "app123", cfg.Storage.UploadThing.AppID)
	assert.Equal(t, URLStrategySigned, cfg.Storage.URLStrategy)
}

func TestConfigValuesWinOverEnv(t *testing.T) {
	t.Setenv("UPLOADTHING_APP_ID", "from-env")
	cfg := Config{Storage: Storage{UploadThing: UploadThing{AppID: "from-file"}}}
	initStorage(&cfg)
	assert.Equal(t, "from-file", cfg.Storage.UploadThing.AppID)
}

func TestLoadEnvFromFileDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.env")
	require.NoError(t, os.WriteFile(path, []byte("# comment\nVIDFEED_TEST_A=file\nVIDFEED_TEST_B=\"quoted\"\n"), 0o600))

	t.Setenv("VIDFEED_TEST_A", "process")
	os.Unsetenv("VIDFEED_TEST_B")
	t.Cleanup(func() { os.Unsetenv("VIDFEED_TEST_B") })

	LoadEnvFromFile(filepath.Join(dir, "missing.env"), path)

	assert.Equal(t, "process", os.Getenv("VIDFEED_TEST_A"))
	assert.Equal(t, "quoted", os.Getenv("VIDFEED_TEST_B"))
}
