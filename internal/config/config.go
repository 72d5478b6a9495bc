package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		Database
		Assets
		Fetch
		Blog
	}

	Database struct {
		Path string
	}
	Assets struct {
		BaseDir   string // Directory imported files are written under
		URLPrefix string // Prefix substituted for wp-content upload paths
	}
	Fetch struct {
		Timeout   time.Duration
		UserAgent string
	}
	Blog struct {
		Title string // Title for the destination blog if one has to be created
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("assets_base_dir", DefaultAssetsDir)
	v.SetDefault("asset_url_prefix", DefaultAssetURLPrefix)
	v.SetDefault("fetch_timeout", "30s")
	v.SetDefault("fetch_user_agent", "wpmigrate/1.0")
	v.SetDefault("blog_title", "Blog")

	return &Config{
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Assets: Assets{
			BaseDir:   v.GetString("ASSETS_BASE_DIR"),
			URLPrefix: v.GetString("ASSET_URL_PREFIX"),
		},
		Fetch: Fetch{
			Timeout:   v.GetDuration("FETCH_TIMEOUT"),
			UserAgent: v.GetString("FETCH_USER_AGENT"),
		},
		Blog: Blog{
			Title: v.GetString("BLOG_TITLE"),
		},
	}
}
