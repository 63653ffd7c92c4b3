// In file: internal/version/version.go

// Package version carries build metadata and the component versions used to
// invalidate cached upstream responses.
//
// Cached FEMA responses are keyed with SchemaVersion. When the projection
// columns or the decode path change, bump SchemaVersion so stale entries are
// no longer matched and the next request goes to the API.
package version

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"runtime"
)

// Set via -ldflags "-X github.com/dileep-u-k/femachat/internal/version.version=..."
var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

// ComponentVersions holds the version strings for the parts of the program
// whose output ends up in a cache.
var ComponentVersions = struct {
	// Schema changes whenever the projected column set or record decoding changes.
	Schema string
	// Upstream changes when the FEMA endpoint version (v2) or envelope key changes.
	Upstream string
}{
	Schema:   "v1.0",
	Upstream: "v2",
}

type BuildInfo struct {
	Version, BuildDate, GitCommit, GoVersion, Platform string
}

func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   version,
		BuildDate: buildDate,
		GitCommit: gitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// GenerateVersionedCacheKey builds a cache key from a prefix, a hash of the
// request identity and the current component versions.
//
// Example output: "femacache:a1b2c3d4...:sv1.0_uv2"
func GenerateVersionedCacheKey(prefix, identity string) string {
	hasher := sha256.New()
	hasher.Write([]byte(identity))
	identityHash := hex.EncodeToString(hasher.Sum(nil))

	versionString := fmt.Sprintf("sv%s_uv%s",
		ComponentVersions.Schema,
		ComponentVersions.Upstream,
	)

	return fmt.Sprintf("%s:%s:%s", prefix, identityHash, versionString)
}
