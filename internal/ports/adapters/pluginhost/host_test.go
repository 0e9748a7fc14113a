package pluginhost

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterLookup(t *testing.T) {
	h := New()
	require.NoError(t, h.Register("lsmas", "provider"))

	assert.True(t, h.Has("lsmas"))
	assert.False(t, h.Has("wwxd"))

	p, ok := h.Lookup("lsmas")
	require.True(t, ok)
	assert.Equal(t, "provider", p)

	assert.ErrorIs(t, h.Register("lsmas", 1), ErrDuplicate)
	assert.Equal(t, []string{"lsmas"}, h.Names())
}

func TestLoad_RegistersNamespace(t *testing.T) {
	calls := 0
	h := NewWithOpener(func(path string) (string, any, error) {
		calls++
		assert.Equal(t, filepath.Join("/plugins", "libwwxd64"+Extension()), path)
		return "wwxd", 42, nil
	})

	require.NoError(t, h.Load("/plugins", "libwwxd64"))
	require.NoError(t, h.Load("/plugins", "libwwxd64"))
	assert.Equal(t, 1, calls)

	p, ok := h.Lookup("wwxd")
	require.True(t, ok)
	assert.Equal(t, 42, p)
}

func TestLoad_Errors(t *testing.T) {
	boom := errors.New("boom")
	h := NewWithOpener(func(path string) (string, any, error) {
		switch strings.TrimSuffix(filepath.Base(path), Extension()) {
		case "broken":
			return "", nil, boom
		case "anon":
			return "", 1, nil
		default:
			return "dup", 1, nil
		}
	})
	require.NoError(t, h.Register("dup", 0))

	assert.ErrorIs(t, h.Load("/p", "broken"), boom)
	assert.Error(t, h.Load("/p", "anon"))
	assert.ErrorIs(t, h.Load("/p", "dup"), ErrDuplicate)
	assert.Equal(t, []string{"dup"}, h.Names())
}

func TestOpenGoPlugin_MissingFile(t *testing.T) {
	_, _, err := OpenGoPlugin(filepath.Join(t.TempDir(), "missing"+Extension()))
	assert.Error(t, err)
}
