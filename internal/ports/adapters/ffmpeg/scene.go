package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/forPelevin/vsindex/internal/types"
)

const (
	sceneScoreKey = "lavfi.scene_score"
	scdetScoreKey = "lavfi.scd.score"

	// select reports scores in [0,1], scdet in [0,100].
	defaultSceneThreshold = 0.4
	defaultScdetThreshold = 10.0
)

// SceneDetector finds scene changes with ffmpeg filters: the select filter's
// scene score for wwxd, and the scdet filter for scxvid.
type SceneDetector struct {
	ffmpeg   string
	detector types.Detector
}

func NewSceneDetector(ffmpegPath string, detector types.Detector) *SceneDetector {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &SceneDetector{ffmpeg: ffmpegPath, detector: detector}
}

func (d *SceneDetector) filter(opts types.DetectOptions) (chain, key string, threshold float64) {
	scale := "scale=" + strconv.Itoa(opts.ResizeWidth) + ":" + strconv.Itoa(opts.ResizeHeight) + ",format=gray"
	if opts.ResizeWidth <= 0 || opts.ResizeHeight <= 0 {
		scale = "format=gray"
	}

	if d.detector == types.DetectorScxvid {
		threshold = defaultScdetThreshold
		if opts.Threshold > 0 {
			threshold = opts.Threshold
		}
		chain = fmt.Sprintf("%s,scdet=threshold=%g,metadata=print:key=%s:file=-", scale, threshold, scdetScoreKey)
		return chain, scdetScoreKey, threshold
	}

	threshold = defaultSceneThreshold
	if opts.Threshold > 0 {
		threshold = opts.Threshold
	}
	chain = fmt.Sprintf(`%s,select=gte(scene\,0),metadata=print:key=%s:file=-`, scale, sceneScoreKey)
	return chain, sceneScoreKey, threshold
}

// DetectScenes runs ffmpeg over the clip and emits one flag per decoded frame.
func (d *SceneDetector) DetectScenes(ctx context.Context, clip types.Clip, opts types.DetectOptions, emit func(n int, sceneChange bool) error) error {
	bin, err := exec.LookPath(d.ffmpeg)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnconfigured, d.ffmpeg)
	}

	chain, key, threshold := d.filter(opts)
	cmd := exec.CommandContext(ctx, bin,
		"-hide_banner",
		"-nostats",
		"-v", "error",
		"-i", clip.Path,
		"-map", "0:v:0",
		"-an", "-sn",
		"-fps_mode", "passthrough",
		"-vf", chain,
		"-f", "null",
		"-",
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	parseErr := parseSceneScores(stdout, key, threshold, emit)
	if parseErr != nil {
		// Unblock ffmpeg before waiting on it.
		_, _ = io.Copy(io.Discard, stdout)
	}
	waitErr := cmd.Wait()
	if parseErr != nil {
		return parseErr
	}
	if waitErr != nil {
		return fmt.Errorf("ffmpeg scene detection: %w\n%s", waitErr, stderr.String())
	}
	return nil
}

// parseSceneScores reads the output of ffmpeg's metadata=print filter:
//
//	frame:12   pts:12012   pts_time:0.5005
//	lavfi.scene_score=0.031250
//
// Frames the filter attached no score to (scdet skips the first one) are
// reported as plain frames. The first frame always opens a scene.
func parseSceneScores(r io.Reader, key string, threshold float64, emit func(n int, sceneChange bool) error) error {
	sc := bufio.NewScanner(r)
	frame, next := -1, 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if rest, ok := strings.CutPrefix(line, "frame:"); ok {
			fields := strings.Fields(rest)
			if len(fields) == 0 {
				return fmt.Errorf("bad metadata line %q", line)
			}
			n, err := strconv.Atoi(fields[0])
			if err != nil {
				return fmt.Errorf("bad metadata line %q: %w", line, err)
			}
			frame = n
			continue
		}
		value, ok := strings.CutPrefix(line, key+"=")
		if !ok {
			continue
		}
		if frame < 0 {
			return errors.New("scene score before any frame header")
		}
		score, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("bad %s value %q: %w", key, value, err)
		}
		for ; next < frame; next++ {
			if err := emit(next, next == 0); err != nil {
				return err
			}
		}
		if err := emit(frame, frame == 0 || score >= threshold); err != nil {
			return err
		}
		next = max(next, frame+1)
	}
	return sc.Err()
}
