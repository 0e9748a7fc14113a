package lwindex

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"math/big"
	"os"
	"slices"

	"github.com/forPelevin/vsindex/internal/types"
)

const maxLineLen = 1 << 20

// ParseFile reads the index at path and derives timecodes and keyframes.
func ParseFile(path string) (types.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Index{}, err
	}
	defer f.Close()

	idx, err := Parse(f)
	if err != nil {
		return types.Index{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return idx, nil
}

// Parse reads an index and returns its frames in presentation order as
// millisecond timecodes, plus the presentation-order positions of keyframes.
func Parse(r io.Reader) (types.Index, error) {
	file, err := decode(r)
	if err != nil {
		return types.Index{}, err
	}
	return file.Index()
}

// decode reads the stream info and frame records of an index without
// reordering them.
func decode(r io.Reader) (*File, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	infoEnd := slices.Index(lines, streamInfoEnd)
	if infoEnd < 0 {
		return nil, &FormatError{Reason: "missing " + streamInfoEnd}
	}
	indexEnd := slices.Index(lines[infoEnd+1:], readerIndexEnd)
	if indexEnd < 0 {
		return nil, &FormatError{Reason: "missing " + readerIndexEnd}
	}
	indexEnd += infoEnd + 1

	if infoEnd == 0 {
		return nil, &FormatError{Line: 1, Text: lines[0], Reason: "no stream info before " + streamInfoEnd}
	}
	info, err := scanStreamInfo(lines[infoEnd-1])
	if err != nil {
		return nil, &FormatError{Line: infoEnd, Text: lines[infoEnd-1], Reason: err.Error()}
	}

	records := lines[infoEnd+1 : indexEnd]
	frames := make([]Frame, 0, len(records)/2)
	for i := 0; i < len(records); i += 2 {
		lineNo := infoEnd + 2 + i
		if i+1 >= len(records) {
			return nil, &FormatError{Line: lineNo + 1, Text: lines[indexEnd], Reason: "incomplete frame record"}
		}
		var f Frame
		if err := scanPosition(records[i], &f); err != nil {
			return nil, &FormatError{Line: lineNo, Text: records[i], Reason: err.Error()}
		}
		if err := scanPicture(records[i+1], &f); err != nil {
			return nil, &FormatError{Line: lineNo + 1, Text: records[i+1], Reason: err.Error()}
		}
		frames = append(frames, f)
	}

	return &File{Info: info, Frames: frames}, nil
}

// Index sorts a copy of the frames by PTS, keeping decode order between equal
// timestamps, and converts them with the stream time base.
func (f *File) Index() (types.Index, error) {
	if f.Info.TimeBaseDen == 0 {
		return types.Index{}, &FormatError{Reason: "time base denominator is zero"}
	}

	frames := slices.Clone(f.Frames)
	slices.SortStableFunc(frames, func(a, b Frame) int { return cmp.Compare(a.PTS, b.PTS) })

	idx := types.Index{
		Timecodes: make([]int64, 0, len(frames)),
		Keyframes: []int{},
	}
	conv := newMillisConverter(f.Info.TimeBaseNum, f.Info.TimeBaseDen)
	for i, fr := range frames {
		ms, ok := conv.convert(fr.PTS)
		if !ok {
			return types.Index{}, &FormatError{Reason: fmt.Sprintf("timecode of PTS %d does not fit in 64 bits", fr.PTS)}
		}
		idx.Timecodes = append(idx.Timecodes, ms)
		if fr.Key {
			idx.Keyframes = append(idx.Keyframes, i)
		}
	}
	return idx, nil
}

// millisConverter computes floor(pts*1000*num/den) without overflowing.
type millisConverter struct {
	scale *big.Int
	den   *big.Int
	n     big.Int
	m     big.Int
}

func newMillisConverter(num, den int64) *millisConverter {
	scale := big.NewInt(num)
	scale.Mul(scale, big.NewInt(1000))
	return &millisConverter{scale: scale, den: big.NewInt(den)}
}

func (c *millisConverter) convert(pts int64) (int64, bool) {
	c.n.SetInt64(pts)
	c.n.Mul(&c.n, c.scale)
	// Euclidean division equals floor division for a positive divisor.
	c.n.DivMod(&c.n, c.den, &c.m)
	if !c.n.IsInt64() {
		return 0, false
	}
	return c.n.Int64(), true
}

// readLines splits r into lines at "\n", dropping a trailing "\r". No other
// byte ends a line. Bytes are kept as-is, so each byte of a Latin-1 file stays
// one character.
func readLines(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLen)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	return lines, nil
}
