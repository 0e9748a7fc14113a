package ports

import (
	"context"

	"github.com/forPelevin/vsindex/internal/types"
)

// Registry is the frame server's table of named capabilities (plugins).
type Registry interface {
	Has(name string) bool
	Lookup(name string) (any, bool)
	// Load makes the capabilities of the plugin file called name in dir
	// available. The platform's library extension is implied.
	Load(dir, name string) error
}

// Source opens videos and leaves an LWLibav-style index at cacheFile.
type Source interface {
	Open(ctx context.Context, path, cacheFile string) (types.Clip, error)
	// SupportsCacheFile reports whether Open honours the cacheFile argument.
	SupportsCacheFile() bool
}

// SceneDetector processes a clip frame by frame and calls emit once per frame
// with that frame's number and scene-change flag.
type SceneDetector interface {
	DetectScenes(ctx context.Context, clip types.Clip, opts types.DetectOptions, emit func(n int, sceneChange bool) error) error
}

// AudioSource opens the audio track of a file; an error means no usable audio.
type AudioSource interface {
	OpenAudio(ctx context.Context, path string) error
}
