package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateVersionedCacheKey(t *testing.T) {
	a := GenerateVersionedCacheKey("femacache", "reportedZipCode=70119")
	b := GenerateVersionedCacheKey("femacache", "reportedZipCode=70119")
	c := GenerateVersionedCacheKey("femacache", "reportedZipCode=70118")

	assert.Equal(t, a, b, "same identity must produce the same key")
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "femacache:"))
	assert.True(t, strings.HasSuffix(a, ":sv"+ComponentVersions.Schema+"_uv"+ComponentVersions.Upstream))
}

func TestGenerateVersionedCacheKeyChangesWithSchema(t *testing.T) {
	before := GenerateVersionedCacheKey("femacache", "q")

	old := ComponentVersions.Schema
	ComponentVersions.Schema = "v9.9"
	t.Cleanup(func() { ComponentVersions.Schema = old })

	assert.NotEqual(t, before, GenerateVersionedCacheKey("femacache", "q"))
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	assert.Equal(t, "dev", info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}
