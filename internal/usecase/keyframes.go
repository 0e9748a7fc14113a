package usecase

import (
	"context"
	"fmt"
	"os"

	"github.com/forPelevin/vsindex/internal/domain/filenames"
	"github.com/forPelevin/vsindex/internal/domain/keyframes"
	"github.com/forPelevin/vsindex/internal/ports"
	"github.com/forPelevin/vsindex/internal/types"
)

const DefaultResizeHeight = 360

// MakeKeyframes runs scene-change detection over every frame of clip and
// returns the frames flagged as scene changes, ascending.
func (u Usecase) MakeKeyframes(ctx context.Context, clip types.Clip, opts types.DetectOptions) ([]int, error) {
	if opts.Detector == "" {
		opts.Detector = types.DetectorWWXD
	}
	if opts.ResizeHeight <= 0 {
		opts.ResizeHeight = DefaultResizeHeight
	}
	if opts.ResizeWidth <= 0 && clip.Height > 0 {
		opts.ResizeWidth = opts.ResizeHeight * clip.Width / clip.Height
	}

	var name string
	switch opts.Detector {
	case types.DetectorWWXD:
		name = CapWWXD
	case types.DetectorScxvid:
		name = CapScxvid
	default:
		return nil, fmt.Errorf("unknown keyframe detector %q", opts.Detector)
	}
	det, err := lookup[ports.SceneDetector](u, name,
		fmt.Sprintf("to use the keyframe generation, the %s plugin must be installed", name))
	if err != nil {
		return nil, err
	}

	c := keyframes.NewCollector(clip.NumFrames, func(percent int) {
		u.d.Log.Infof("Detecting keyframes... %d%% done.", percent)
	})
	if err := det.DetectScenes(ctx, clip, opts, c.Add); err != nil {
		return nil, err
	}
	kf, err := c.Keyframes()
	if err != nil {
		return nil, err
	}
	u.d.Log.WithField("frames", c.Done()).Info("Done detecting keyframes.")
	return kf, nil
}

// TryGetKeyframes returns the keyframes sidecar of path if it exists, else def.
func (u Usecase) TryGetKeyframes(path, def string) string {
	kf := filenames.KeyframesFile(path)
	if exists(kf) {
		return kf
	}
	return def
}

// GetKeyframes returns the keyframes sidecar of path, detecting keyframes on
// clip and writing the sidecar first if it does not exist yet.
func (u Usecase) GetKeyframes(ctx context.Context, path string, clip types.Clip, opts types.DetectOptions) (string, error) {
	kf := filenames.KeyframesFile(path)
	if exists(kf) {
		return kf, nil
	}

	u.d.Log.Info("No keyframes file found, detecting keyframes...")
	frames, err := u.MakeKeyframes(ctx, clip, opts)
	if err != nil {
		return "", err
	}
	if err := keyframes.Save(kf, frames); err != nil {
		return "", err
	}
	return kf, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
