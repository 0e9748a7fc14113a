//go:build integration

package itest

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/forPelevin/vsindex/internal/config"
	"github.com/forPelevin/vsindex/internal/domain/keyframes"
	"github.com/forPelevin/vsindex/internal/pipeline"
	"github.com/forPelevin/vsindex/internal/types"
)

func newPipeline(t *testing.T, source string) *pipeline.Pipeline {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.CacheDir = filepath.Join(t.TempDir(), "cache")
	cfg.Source.Plugin = source
	p, err := pipeline.New(cfg, nil)
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	return p
}

func TestE2E(t *testing.T) {
	tmp := t.TempDir()
	in := filepath.Join(tmp, "input.mp4")
	makeFixture(t, in, true)

	want, err := probeFrameCount(in)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for _, source := range []string{"lsmas", "mp4ff"} {
		t.Run("index/"+source, func(t *testing.T) {
			p := newPipeline(t, source)
			res, err := p.Index(ctx, in, "", "")
			if err != nil {
				t.Fatalf("index: %v", err)
			}
			if got := len(res.Index.Timecodes); got != want {
				t.Fatalf("expected %d timecodes, got %d", want, got)
			}
			if !slices.IsSorted(res.Index.Timecodes) {
				t.Fatalf("timecodes not ascending: %v", res.Index.Timecodes)
			}
			if len(res.Index.Keyframes) == 0 || res.Index.Keyframes[0] != 0 {
				t.Fatalf("expected frame 0 to be a keyframe, got %v", res.Index.Keyframes)
			}
			if res.Clip.Width != 320 || res.Clip.Height != 240 {
				t.Fatalf("unexpected clip size %dx%d", res.Clip.Width, res.Clip.Height)
			}
		})
	}

	for _, det := range []types.Detector{types.DetectorWWXD, types.DetectorScxvid} {
		t.Run("keyframes/"+string(det), func(t *testing.T) {
			dir := t.TempDir()
			video := filepath.Join(dir, "input.mp4")
			b, err := os.ReadFile(in)
			if err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(video, b, 0o644); err != nil {
				t.Fatal(err)
			}

			p := newPipeline(t, "lsmas")
			path, err := p.Keyframes(ctx, video, types.DetectOptions{Detector: det})
			if err != nil {
				t.Fatalf("keyframes: %v", err)
			}
			if path != filepath.Join(dir, "input_keyframes.txt") {
				t.Fatalf("unexpected sidecar path %s", path)
			}
			kf, err := keyframes.Load(path)
			if err != nil {
				t.Fatalf("read sidecar: %v", err)
			}
			if !slices.Contains(kf, 0) || !slices.Contains(kf, 24) {
				t.Fatalf("expected keyframes at 0 and 24, got %v", kf)
			}
		})
	}

	t.Run("audio", func(t *testing.T) {
		p := newPipeline(t, "lsmas")
		if !p.HasAudio(ctx, in) {
			t.Fatalf("expected audio in %s", in)
		}

		silent := filepath.Join(tmp, "silent.mp4")
		makeFixture(t, silent, false)
		if p.HasAudio(ctx, silent) {
			t.Fatalf("expected no audio in %s", silent)
		}
	})
}
