package contracts

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionInfo(t *testing.T) {
	info := GetVersionInfo()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, VersionStage, info.Stage)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, APIVersion, info.APIVersion)
}

func TestGetFullVersionString(t *testing.T) {
	assert.Equal(t, "LabPulse v"+Version, GetVersionString())
	assert.Contains(t, GetFullVersionString(), GetVersionString())
	assert.Contains(t, GetFullVersionString(), runtime.GOOS+"/"+runtime.GOARCH)
}
