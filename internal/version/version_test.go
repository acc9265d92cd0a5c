package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsVersionGreaterThan(t *testing.T) {
	tests := []struct {
		version string
		target  string
		want    bool
	}{
		{"0.1.1", "0.1.0", true},
		{"0.2.0", "0.1.9", true},
		{"0.10.0", "0.9.0", true},
		{"0.1.0", "0.1.0", false},
		{"0.0.9", "0.1.0", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsVersionGreaterThan(tt.version, tt.target), "%s > %s", tt.version, tt.target)
	}
}

func TestIsVersionGreaterOrEqualThan(t *testing.T) {
	assert.True(t, IsVersionGreaterOrEqualThan("0.1.0", "0.1.0"))
	assert.True(t, IsVersionGreaterOrEqualThan("1.0.0", "0.9.9"))
	assert.False(t, IsVersionGreaterOrEqualThan("0.0.1", "0.1.0"))
}

func TestGetMinorVersion(t *testing.T) {
	assert.Equal(t, "0.1", GetMinorVersion("0.1.7"))
	assert.Equal(t, "", GetMinorVersion("0.1"))
}

func TestGetCurrentVersion(t *testing.T) {
	assert.Equal(t, Version, GetCurrentVersion("prod"))
	assert.Equal(t, DevVersion, GetCurrentVersion("dev"))
}
