package timecodes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tc.txt")
	require.NoError(t, Save(path, []int64{0, 41, 83, -12}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# timecode format v2\n0\n41\n83\n-12\n", string(b))
}

func TestSave_MissingDir(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "nope", "tc.txt"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
