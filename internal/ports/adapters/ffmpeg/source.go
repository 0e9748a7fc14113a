package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/forPelevin/vsindex/internal/domain/lwindex"
	"github.com/forPelevin/vsindex/internal/types"
)

// libavcodec codec ids for the codecs we expect to meet.
var codecIDs = map[string]int64{
	"mpeg1video": 1,
	"mpeg2video": 2,
	"mpeg4":      12,
	"h264":       27,
	"vc1":        70,
	"vp8":        139,
	"vp9":        167,
	"hevc":       173,
	"av1":        225,
}

// libavutil AVColorSpace values keyed by ffprobe's names.
var colorSpaces = map[string]int64{
	"gbr":       0,
	"bt709":     1,
	"unknown":   2,
	"fcc":       4,
	"bt470bg":   5,
	"smpte170m": 6,
	"smpte240m": 7,
	"ycgco":     8,
	"bt2020nc":  9,
	"bt2020c":   10,
	"smpte2085": 11,
	"ictcp":     14,
}

type probeStream struct {
	CodecName  string `json:"codec_name"`
	Width      int64  `json:"width"`
	Height     int64  `json:"height"`
	PixFmt     string `json:"pix_fmt"`
	TimeBase   string `json:"time_base"`
	ColorSpace string `json:"color_space"`
}

type probePacket struct {
	PTS   *int64 `json:"pts"`
	DTS   *int64 `json:"dts"`
	Pos   string `json:"pos"`
	Flags string `json:"flags"`
}

type probeResult struct {
	Streams []probeStream `json:"streams"`
	Packets []probePacket `json:"packets"`
}

// SupportsCacheFile is always true: Open writes the index wherever it is told.
func (a *Adapter) SupportsCacheFile() bool { return true }

// Open probes the first video stream of path and writes its packet index to
// cacheFile.
func (a *Adapter) Open(ctx context.Context, path, cacheFile string) (types.Clip, error) {
	b, err := a.probe(ctx,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=codec_name,width,height,pix_fmt,time_base,color_space:packet=pts,dts,pos,flags",
		"-of", "json",
		path,
	)
	if err != nil {
		return types.Clip{}, err
	}

	var res probeResult
	if err := json.Unmarshal(b, &res); err != nil {
		return types.Clip{}, fmt.Errorf("decode ffprobe output: %w", err)
	}
	info, frames, err := buildIndex(res)
	if err != nil {
		return types.Clip{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := lwindex.WriteFile(cacheFile, path, info, frames); err != nil {
		return types.Clip{}, fmt.Errorf("write index: %w", err)
	}

	return types.Clip{
		Path:      path,
		IndexFile: cacheFile,
		NumFrames: len(frames),
		Width:     int(info.Width),
		Height:    int(info.Height),
	}, nil
}

func buildIndex(res probeResult) (lwindex.StreamInfo, []lwindex.Frame, error) {
	if len(res.Streams) == 0 {
		return lwindex.StreamInfo{}, nil, fmt.Errorf("no video stream")
	}
	st := res.Streams[0]

	num, den, err := parseTimeBase(st.TimeBase)
	if err != nil {
		return lwindex.StreamInfo{}, nil, err
	}
	cs, ok := colorSpaces[st.ColorSpace]
	if !ok {
		cs = colorSpaces["unknown"]
	}
	info := lwindex.StreamInfo{
		Codec:       codecIDs[st.CodecName],
		TimeBaseNum: num,
		TimeBaseDen: den,
		Width:       st.Width,
		Height:      st.Height,
		Format:      pixelFormat(st.PixFmt),
		ColorSpace:  cs,
	}

	frames := make([]lwindex.Frame, 0, len(res.Packets))
	for i, p := range res.Packets {
		f := lwindex.Frame{
			Pos:    -1,
			Key:    strings.HasPrefix(p.Flags, "K"),
			Repeat: 1,
		}
		switch {
		case p.PTS != nil:
			f.PTS = *p.PTS
		case p.DTS != nil:
			f.PTS = *p.DTS
		default:
			return lwindex.StreamInfo{}, nil, fmt.Errorf("packet %d has no timestamp", i)
		}
		f.DTS = f.PTS
		if p.DTS != nil {
			f.DTS = *p.DTS
		}
		if pos, err := strconv.ParseInt(p.Pos, 10, 64); err == nil {
			f.Pos = pos
		}
		frames = append(frames, f)
	}
	return info, frames, nil
}

func parseTimeBase(s string) (int64, int64, error) {
	n, d, ok := strings.Cut(s, "/")
	if !ok {
		return 0, 0, fmt.Errorf("bad time base %q", s)
	}
	num, err := strconv.ParseInt(n, 10, 64)
	if err != nil || num <= 0 {
		return 0, 0, fmt.Errorf("bad time base %q", s)
	}
	den, err := strconv.ParseInt(d, 10, 64)
	if err != nil || den <= 0 {
		return 0, 0, fmt.Errorf("bad time base %q", s)
	}
	return num, den, nil
}

// pixelFormat keeps the alphanumeric part of an ffprobe pix_fmt name, which is
// all the index format can carry.
func pixelFormat(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			b.WriteByte(c)
		}
	}
	if b.Len() == 0 {
		return "none"
	}
	return b.String()
}
