package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/forPelevin/vsindex/internal/domain/lwindex"
	"github.com/forPelevin/vsindex/internal/types"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("VSINDEX_PATHS_CACHE_DIR", t.TempDir())
	t.Setenv("VSINDEX_LOGGING_LEVEL", "error")

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeIndex(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.lwi")
	info := lwindex.StreamInfo{TimeBaseNum: 1001, TimeBaseDen: 24000, Width: 8, Height: 8, Format: "yuv420p"}
	frames := []lwindex.Frame{{PTS: 0, Key: true}, {PTS: 2}, {PTS: 1}}
	require.NoError(t, lwindex.WriteFile(path, "in.mkv", info, frames))
	return path
}

func TestCacheFileCommand(t *testing.T) {
	out, err := execute(t, "cachefile", "C:/videos/ep 01.mkv")
	require.NoError(t, err)
	assert.Equal(t, "C__videos_ep 01.mkv.lwi\n", out)
}

func TestKeyframesFileCommand(t *testing.T) {
	out, err := execute(t, "keyframes-file", "a/b/c.mkv")
	require.NoError(t, err)
	assert.Equal(t, "a/b/c_keyframes.txt\n", out)
}

func TestParseCommand_JSON(t *testing.T) {
	out, err := execute(t, "parse", writeIndex(t))
	require.NoError(t, err)

	var idx types.Index
	require.NoError(t, json.Unmarshal([]byte(out), &idx))
	assert.Equal(t, []int64{0, 41, 83}, idx.Timecodes)
	assert.Equal(t, []int{0}, idx.Keyframes)
}

func TestParseCommand_YAMLAndTimecodes(t *testing.T) {
	tc := filepath.Join(t.TempDir(), "tc.txt")
	out, err := execute(t, "parse", "--format", "yaml", "--timecodes", tc, writeIndex(t))
	require.NoError(t, err)

	var idx types.Index
	require.NoError(t, yaml.Unmarshal([]byte(out), &idx))
	assert.Equal(t, []int64{0, 41, 83}, idx.Timecodes)

	b, err := os.ReadFile(tc)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "# timecode format v2\n"))
}

func TestParseCommand_Errors(t *testing.T) {
	_, err := execute(t, "parse", "--format", "xml", writeIndex(t))
	assert.ErrorContains(t, err, "unknown output format")

	_, err = execute(t, "parse", filepath.Join(t.TempDir(), "missing.lwi"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = execute(t, "parse")
	assert.Error(t, err)
}

func TestBadLogLevelFlag(t *testing.T) {
	_, err := execute(t, "--log-level", "chatty", "cachefile", "x.mkv")
	assert.Error(t, err)
}

func TestPluginsCommand(t *testing.T) {
	missing := t.TempDir()
	t.Setenv("VSINDEX_SOURCE_FFMPEG_PATH", filepath.Join(missing, "ffmpeg"))
	t.Setenv("VSINDEX_SOURCE_FFPROBE_PATH", filepath.Join(missing, "ffprobe"))

	out, err := execute(t, "plugins")
	require.NoError(t, err)
	assert.Equal(t, "mp4ff\n", out)

	_, err = execute(t, "plugins", "extra")
	assert.Error(t, err)
}
