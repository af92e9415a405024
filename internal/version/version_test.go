package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	defer func(v, sha, bt string) { Version, GitSHA, BuildTime = v, sha, bt }(Version, GitSHA, BuildTime)

	assert.Equal(t, "mocap dev (git unknown, built unknown)", String("mocap"))

	Version, GitSHA, BuildTime = "1.2.0", "abc1234", "2024-05-01T12:00:00Z"
	assert.Equal(t, "mocap-plot 1.2.0 (git abc1234, built 2024-05-01T12:00:00Z)", String("mocap-plot"))
}
