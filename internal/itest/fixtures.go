//go:build integration

package itest

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// probeFrameCount returns the number of video packets ffprobe sees in path.
func probeFrameCount(path string) (int, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=nb_read_packets",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse packet count %q: %w", s, err)
	}
	return n, nil
}

// makeFixture renders a 48 frame 24 fps clip with a hard cut at frame 24. With
// audio set, a sine tone is muxed in as well.
func makeFixture(t *testing.T, path string, audio bool) {
	t.Helper()
	args := []string{
		"-y",
		"-v", "error",
		"-f", "lavfi", "-i", "testsrc2=s=320x240:r=24:d=1",
		"-f", "lavfi", "-i", "color=c=black:s=320x240:r=24:d=1",
	}
	filter := "[0:v][1:v]concat=n=2:v=1:a=0[v]"
	if audio {
		args = append(args, "-f", "lavfi", "-i", "sine=frequency=440:duration=2")
	}
	args = append(args,
		"-filter_complex", filter,
		"-map", "[v]",
	)
	if audio {
		args = append(args, "-map", "2:a", "-c:a", "aac")
	}
	args = append(args,
		"-c:v", "libx264",
		"-g", "12",
		"-bf", "2",
		"-pix_fmt", "yuv420p",
		path,
	)
	if b, err := exec.Command("ffmpeg", args...).CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
	}
}

// findRepoRoot walks up from the working directory to the directory holding
// go.mod, which is where `go run ./cmd/vsindex` has to be started.
func findRepoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("could not locate go.mod")
		}
		dir = parent
	}
}
