// Package cachepath resolves the default on-disk location for a
// coordinator's lock file and cache data files, following the XDG base
// directory spec via github.com/adrg/xdg. Callers who already manage their
// own directory layout can ignore this package entirely and pass an
// explicit path to cacheaccess.New / cacheaccess.WithCacheDir.
package cachepath

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	cacheerrors "github.com/fenwick/cachecoord/errors"
)

const appName = "cachecoord"

// envOverride is the override environment variable consulted before
// falling back to adrg/xdg's own XDG_CACHE_HOME resolution, mirroring the
// ATMOS_XDG_CACHE_HOME precedence the reference CLI teacher's config
// loader gives its own users.
const envOverride = "CACHECOORD_XDG_CACHE_HOME"

// DefaultCacheDir returns "<xdg cache home>/cachecoord/<subpath>", creating
// it with perm if it does not already exist. subpath may be empty, nested,
// or contain multiple path segments.
func DefaultCacheDir(subpath string, perm os.FileMode) (string, error) {
	base := xdg.CacheHome
	if override := os.Getenv(envOverride); override != "" {
		base = override
	}

	dir := filepath.Join(base, appName, subpath)
	if err := os.MkdirAll(dir, perm); err != nil {
		return "", cacheerrors.Build(cacheerrors.ErrCacheDirUnavailable).
			WithCause(err).
			WithContext("dir", dir).
			Err()
	}
	return dir, nil
}
