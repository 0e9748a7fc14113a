package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/forPelevin/vsindex/internal/domain/filenames"
	"github.com/forPelevin/vsindex/internal/domain/lwindex"
	"github.com/forPelevin/vsindex/internal/ports"
	"github.com/forPelevin/vsindex/internal/types"
)

// ErrNoCacheFile means the configured source cannot write its index to a
// chosen cache file.
var ErrNoCacheFile = errors.New("source does not support a cache file")

// WrapSource opens path with the configured source capability, which leaves
// an index in cacheDir, and reads the timecodes and keyframes back from that
// index. An empty cacheDir means Settings.CacheDir.
func (u Usecase) WrapSource(ctx context.Context, path, cacheDir string) (types.IndexResult, error) {
	if cacheDir == "" {
		cacheDir = u.d.Settings.CacheDir
	}
	if err := os.Mkdir(cacheDir, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return types.IndexResult{}, err
	}
	cacheFile := filepath.Join(cacheDir, filenames.CacheFile(path))

	name := u.d.Settings.Source
	src, err := lookup[ports.Source](u, name,
		fmt.Sprintf("to open videos with an index, the `%s` plugin must be installed", name))
	if err != nil {
		return types.IndexResult{}, err
	}
	if !src.SupportsCacheFile() {
		return types.IndexResult{}, fmt.Errorf("%w: the `%s` plugin must support the cache file option", ErrNoCacheFile, name)
	}

	u.d.Log.WithField("cache_file", cacheFile).Debug("opening source")
	clip, err := src.Open(ctx, path, cacheFile)
	if err != nil {
		return types.IndexResult{}, err
	}

	idx, err := lwindex.ParseFile(cacheFile)
	if err != nil {
		return types.IndexResult{}, err
	}
	return types.IndexResult{Clip: &clip, Index: idx}, nil
}
