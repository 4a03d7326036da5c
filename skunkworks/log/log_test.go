package log

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFields(t *testing.T) {
	f := fields(KeysAndValues{"room_id", "!a:b", "count", 3, "dangling"})
	assert.Equal(t, "!a:b", f["room_id"])
	assert.Equal(t, 3, f["count"])
	assert.Equal(t, "dangling", f["!BADKEY"])
}

func TestSetupWritesToFile(t *testing.T) {
	defer func() { logger = nil }()

	path := filepath.Join(t.TempDir(), "test.log")
	cfg := LogConfig{
		Level:      "info",
		Files:      []string{path},
		Underlying: "logrus",
	}
	cfg.RotateConfig.MaxSize = 100
	cfg.RotateConfig.JsonFormat = true
	Setup(&cfg)

	Debugf("debug msg %d %s", 33, "33")
	Infof("info msg %d %s", 33, "33")
	Warnw("warn msg", KeysAndValues{"room_id", "!room:watcha"})

	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.False(t, strings.Contains(out, "debug msg"))
	assert.Contains(t, out, "info msg 33 33")
	assert.Contains(t, out, `"room_id":"!room:watcha"`)
}
