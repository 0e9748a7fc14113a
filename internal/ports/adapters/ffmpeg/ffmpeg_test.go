package ffmpeg

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forPelevin/vsindex/internal/domain/lwindex"
	"github.com/forPelevin/vsindex/internal/types"
)

func ptr(v int64) *int64 { return &v }

func TestBuildIndex(t *testing.T) {
	res := probeResult{
		Streams: []probeStream{{
			CodecName:  "h264",
			Width:      1920,
			Height:     1080,
			PixFmt:     "yuv420p10le",
			TimeBase:   "1/90000",
			ColorSpace: "bt709",
		}},
		Packets: []probePacket{
			{PTS: ptr(0), DTS: ptr(-3003), Pos: "48", Flags: "K__"},
			{PTS: ptr(9009), DTS: ptr(0), Pos: "1200", Flags: "___"},
			{PTS: ptr(3003), DTS: ptr(3003), Pos: "N/A", Flags: "___"},
			{DTS: ptr(6006), Flags: "K_"},
		},
	}

	info, frames, err := buildIndex(res)
	require.NoError(t, err)
	assert.Equal(t, lwindex.StreamInfo{
		Codec:       27,
		TimeBaseNum: 1,
		TimeBaseDen: 90000,
		Width:       1920,
		Height:      1080,
		Format:      "yuv420p10le",
		ColorSpace:  1,
	}, info)

	require.Len(t, frames, 4)
	assert.True(t, frames[0].Key)
	assert.Equal(t, int64(48), frames[0].Pos)
	assert.Equal(t, int64(-3003), frames[0].DTS)
	assert.False(t, frames[1].Key)
	assert.Equal(t, int64(-1), frames[2].Pos)
	assert.Equal(t, int64(6006), frames[3].PTS)
	assert.True(t, frames[3].Key)
}

func TestBuildIndex_RoundTripsThroughParser(t *testing.T) {
	res := probeResult{
		Streams: []probeStream{{CodecName: "mpeg4", Width: 64, Height: 48, PixFmt: "yuv420p", TimeBase: "1001/24000", ColorSpace: "weird"}},
		Packets: []probePacket{
			{PTS: ptr(0), Flags: "K_"},
			{PTS: ptr(2), Flags: "__"},
			{PTS: ptr(1), Flags: "K_"},
		},
	}
	info, frames, err := buildIndex(res)
	require.NoError(t, err)
	assert.Equal(t, int64(2), info.ColorSpace)

	var buf bytes.Buffer
	require.NoError(t, lwindex.Write(&buf, "clip.mp4", info, frames))
	idx, err := lwindex.Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 41, 83}, idx.Timecodes)
	assert.Equal(t, []int{0, 1}, idx.Keyframes)
}

func TestBuildIndex_Errors(t *testing.T) {
	_, _, err := buildIndex(probeResult{})
	assert.Error(t, err)

	_, _, err = buildIndex(probeResult{
		Streams: []probeStream{{TimeBase: "1/25"}},
		Packets: []probePacket{{Flags: "K_"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "packet 0")
}

func TestParseTimeBase(t *testing.T) {
	num, den, err := parseTimeBase("1001/30000")
	require.NoError(t, err)
	assert.Equal(t, int64(1001), num)
	assert.Equal(t, int64(30000), den)

	for _, s := range []string{"", "25", "0/1", "1/0", "a/b", "-1/25"} {
		_, _, err := parseTimeBase(s)
		assert.Error(t, err, s)
	}
}

func TestPixelFormat(t *testing.T) {
	assert.Equal(t, "yuv420p", pixelFormat("yuv420p"))
	assert.Equal(t, "bayerbggr8", pixelFormat("bayer_bggr8"))
	assert.Equal(t, "none", pixelFormat(""))
	assert.Equal(t, "none", pixelFormat("__"))
}

func TestParseSceneScores(t *testing.T) {
	out := strings.Join([]string{
		"frame:0    pts:0       pts_time:0",
		"lavfi.scene_score=0.000000",
		"frame:1    pts:1001    pts_time:0.0417083",
		"lavfi.scene_score=0.012000",
		"frame:2    pts:2002    pts_time:0.0834167",
		"lavfi.scene_score=0.870000",
		"frame:3    pts:3003    pts_time:0.125125",
		"lavfi.scene_score=0.400000",
		"",
	}, "\n")

	var got []bool
	err := parseSceneScores(strings.NewReader(out), sceneScoreKey, 0.4, func(n int, sc bool) error {
		assert.Equal(t, len(got), n)
		got = append(got, sc)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true, true}, got)
}

func TestParseSceneScores_FillsFramesWithoutScore(t *testing.T) {
	out := strings.Join([]string{
		"frame:1    pts:1 pts_time:0.04",
		"lavfi.scd.mafd=3.2",
		"lavfi.scd.score=1.5",
		"frame:2    pts:2 pts_time:0.08",
		"lavfi.scd.score=42",
		"frame:4    pts:4 pts_time:0.16",
		"lavfi.scd.score=0",
		"",
	}, "\n")

	got := map[int]bool{}
	var order []int
	err := parseSceneScores(strings.NewReader(out), scdetScoreKey, 10, func(n int, sc bool) error {
		order = append(order, n)
		got[n] = sc
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Equal(t, map[int]bool{0: true, 1: false, 2: true, 3: false, 4: false}, got)
}

func TestParseSceneScores_Errors(t *testing.T) {
	noop := func(int, bool) error { return nil }

	err := parseSceneScores(strings.NewReader("lavfi.scene_score=0.1\n"), sceneScoreKey, 0.4, noop)
	assert.Error(t, err)

	err = parseSceneScores(strings.NewReader("frame:x pts:0\n"), sceneScoreKey, 0.4, noop)
	assert.Error(t, err)

	err = parseSceneScores(strings.NewReader("frame:0\nlavfi.scene_score=nan?\n"), sceneScoreKey, 0.4, noop)
	assert.Error(t, err)

	stop := errors.New("stop")
	err = parseSceneScores(strings.NewReader("frame:0\nlavfi.scene_score=0.1\n"), sceneScoreKey, 0.4, func(int, bool) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestSceneDetector_Filter(t *testing.T) {
	opts := types.DetectOptions{ResizeWidth: 640, ResizeHeight: 360}

	chain, key, th := NewSceneDetector("", types.DetectorWWXD).filter(opts)
	assert.Equal(t, sceneScoreKey, key)
	assert.Equal(t, defaultSceneThreshold, th)
	assert.Contains(t, chain, "scale=640:360,format=gray")
	assert.Contains(t, chain, `select=gte(scene\,0)`)

	opts.Threshold = 25
	chain, key, th = NewSceneDetector("", types.DetectorScxvid).filter(opts)
	assert.Equal(t, scdetScoreKey, key)
	assert.Equal(t, 25.0, th)
	assert.Contains(t, chain, "scdet=threshold=25")

	chain, _, _ = NewSceneDetector("", types.DetectorWWXD).filter(types.DetectOptions{})
	assert.True(t, strings.HasPrefix(chain, "format=gray,"))
}

func TestMissingBinaries(t *testing.T) {
	a := New(filepath.Join(t.TempDir(), "no-ffmpeg"), filepath.Join(t.TempDir(), "no-ffprobe"))
	assert.False(t, a.HasFFmpeg())
	assert.False(t, a.HasFFprobe())

	err := a.OpenAudio(t.Context(), "clip.mkv")
	assert.ErrorIs(t, err, ErrUnconfigured)

	_, err = a.Open(t.Context(), "clip.mkv", filepath.Join(t.TempDir(), "clip.lwi"))
	assert.ErrorIs(t, err, ErrUnconfigured)

	d := NewSceneDetector(filepath.Join(t.TempDir(), "no-ffmpeg"), types.DetectorWWXD)
	err = d.DetectScenes(t.Context(), types.Clip{Path: "clip.mkv"}, types.DetectOptions{}, func(int, bool) error { return nil })
	assert.ErrorIs(t, err, ErrUnconfigured)
}
