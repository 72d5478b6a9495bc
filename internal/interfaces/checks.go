package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/pressgang/wpmigrate/internal/assets"
	"github.com/pressgang/wpmigrate/internal/database"
	"github.com/pressgang/wpmigrate/internal/importer"
)

// Destination store implementations
var _ importer.Store = (*database.Database)(nil)

// Asset pipeline implementations
var _ importer.AssetResolver = (*assets.Resolver)(nil)
var _ assets.Fetcher = (*assets.HTTPFetcher)(nil)

// Hook implementations
var _ importer.Hooks = importer.NopHooks{}
