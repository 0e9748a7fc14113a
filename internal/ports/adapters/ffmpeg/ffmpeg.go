package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var (
	ErrUnconfigured = errors.New("ffmpeg: binary not found")
	ErrNoAudio      = errors.New("ffmpeg: no audio stream")
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// HasFFmpeg reports whether the ffmpeg binary can be found.
func (a *Adapter) HasFFmpeg() bool {
	_, err := exec.LookPath(a.ffmpeg)
	return err == nil
}

// HasFFprobe reports whether the ffprobe binary can be found.
func (a *Adapter) HasFFprobe() bool {
	_, err := exec.LookPath(a.ffprobe)
	return err == nil
}

// OpenAudio succeeds when ffprobe finds at least one audio stream in path.
func (a *Adapter) OpenAudio(ctx context.Context, path string) error {
	b, err := a.probe(ctx,
		"-v", "error",
		"-select_streams", "a",
		"-show_entries", "stream=index",
		"-of", "csv=p=0",
		path,
	)
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(b)) == "" {
		return ErrNoAudio
	}
	return nil
}

// probe runs ffprobe and returns its stdout.
func (a *Adapter) probe(ctx context.Context, args ...string) ([]byte, error) {
	bin, err := exec.LookPath(a.ffprobe)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnconfigured, a.ffprobe)
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	b, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("ffprobe: %w\n%s", err, string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("ffprobe: %w", err)
	}
	return b, nil
}
