package config

// Default paths and destinations for an import run
const (
	// DefaultDatabasePath is the default path for the destination blog database
	DefaultDatabasePath = "./wpmigrate.db"

	// DefaultAssetsDir is the directory imported media files are written under
	DefaultAssetsDir = "./assets"

	// DefaultAssetURLPrefix replaces wp-content upload references in post content
	DefaultAssetURLPrefix = "/assets/Uploads/"
)
