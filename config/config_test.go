package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 10, cfg.Feed.PageSize)
	assert.Equal(t, 20*time.Second, cfg.Cache.IndexTTL)
	assert.False(t, cfg.Cache.InvalidateOnWrite)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("YATUBE_FEED_PAGE_SIZE", "3")
	t.Setenv("YATUBE_DATABASE_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Feed.PageSize)
	assert.Equal(t, "postgres", cfg.Database.Driver)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Feed.PageSize = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Database.Driver = "mysql"
	assert.Error(t, cfg.Validate())
}
