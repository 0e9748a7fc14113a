// Package mp4index builds frame indexes for MP4 files straight from their
// sample tables, without decoding anything.
package mp4index

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/forPelevin/vsindex/internal/domain/lwindex"
	"github.com/forPelevin/vsindex/internal/types"
)

var ErrNoVideo = errors.New("mp4index: no video track")

// libavcodec ids keyed by sample entry type.
var codecIDs = map[string]int64{
	"mp4v": 12,
	"avc1": 27,
	"avc3": 27,
	"vp09": 167,
	"hvc1": 173,
	"hev1": 173,
	"av01": 225,
}

// The sample tables say nothing about pixel layout.
const pixelFormat = "yuv420p"

// sample is one entry of the video track in decode order.
type sample struct {
	decodeTime uint64
	ctsOffset  int32
	pos        int64
	sync       bool
}

type track struct {
	timescale uint32
	codec     string
	width     int64
	height    int64
	samples   []sample
}

type Source struct{}

func New() *Source { return &Source{} }

func (s *Source) SupportsCacheFile() bool { return true }

// Open reads the first video track of the MP4 file at path and writes its
// index to cacheFile.
func (s *Source) Open(ctx context.Context, path, cacheFile string) (types.Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Clip{}, err
	}
	defer f.Close()

	mp4File, err := mp4.DecodeFile(f)
	if err != nil {
		return types.Clip{}, fmt.Errorf("decode mp4 %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return types.Clip{}, err
	}

	var tr *track
	if mp4File.IsFragmented() {
		tr, err = readFragmented(mp4File)
	} else {
		tr, err = readProgressive(mp4File)
	}
	if err != nil {
		return types.Clip{}, fmt.Errorf("%s: %w", path, err)
	}

	info, frames := tr.index()
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

func videoTrak(traks []*mp4.TrakBox) *mp4.TrakBox {
	for _, trak := range traks {
		if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide" {
			return trak
		}
	}
	return nil
}

// describe fills in everything but the samples.
func describe(trak *mp4.TrakBox) *track {
	tr := &track{timescale: 1000}
	if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale > 0 {
		tr.timescale = trak.Mdia.Mdhd.Timescale
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return tr
	}
	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		tr.codec = child.Type()
		if vse, ok := child.(*mp4.VisualSampleEntryBox); ok {
			tr.width = int64(vse.Width)
			tr.height = int64(vse.Height)
		}
		break
	}
	return tr
}

func readProgressive(mp4File *mp4.File) (*track, error) {
	if mp4File.Moov == nil {
		return nil, fmt.Errorf("no moov box found")
	}
	trak := videoTrak(mp4File.Moov.Traks)
	if trak == nil {
		return nil, ErrNoVideo
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil {
		return nil, fmt.Errorf("no sample table found")
	}

	tr := describe(trak)
	samples, err := stblSamples(trak.Mdia.Minf.Stbl)
	if err != nil {
		return nil, err
	}
	tr.samples = samples
	return tr, nil
}

func stblSamples(stbl *mp4.StblBox) ([]sample, error) {
	if stbl.Stsz == nil {
		return nil, fmt.Errorf("no stsz box found")
	}
	if stbl.Stts == nil {
		return nil, fmt.Errorf("no stts box found")
	}
	count := stbl.Stsz.SampleNumber

	// Without an stss box every sample is a sync sample.
	var sync map[uint32]bool
	if stbl.Stss != nil {
		sync = make(map[uint32]bool, len(stbl.Stss.SampleNumber))
		for _, nr := range stbl.Stss.SampleNumber {
			sync[nr] = true
		}
	}

	samples := make([]sample, 0, count)
	for nr := uint32(1); nr <= count; nr++ {
		decodeTime, _ := stbl.Stts.GetDecodeTime(nr)
		s := sample{
			decodeTime: decodeTime,
			pos:        samplePos(stbl, nr),
			sync:       sync == nil || sync[nr],
		}
		if stbl.Ctts != nil {
			s.ctsOffset = stbl.Ctts.GetCompositionTimeOffset(nr)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// samplePos returns the file offset of sample nr, or -1 when the chunk tables
// are missing or inconsistent.
func samplePos(stbl *mp4.StblBox, nr uint32) int64 {
	if stbl.Stsc == nil {
		return -1
	}
	chunkNr, firstSample, err := stbl.Stsc.ChunkNrFromSampleNr(int(nr))
	if err != nil {
		return -1
	}

	var offset uint64
	switch {
	case stbl.Stco != nil:
		offset, err = stbl.Stco.GetOffset(chunkNr)
		if err != nil {
			return -1
		}
	case stbl.Co64 != nil:
		if chunkNr < 1 || chunkNr > len(stbl.Co64.ChunkOffset) {
			return -1
		}
		offset = stbl.Co64.ChunkOffset[chunkNr-1]
	default:
		return -1
	}
	for s := uint32(firstSample); s < nr; s++ {
		offset += uint64(stbl.Stsz.GetSampleSize(int(s)))
	}
	return int64(offset)
}

func readFragmented(mp4File *mp4.File) (*track, error) {
	if mp4File.Init == nil || mp4File.Init.Moov == nil {
		return nil, fmt.Errorf("no init segment found")
	}
	trak := videoTrak(mp4File.Init.Moov.Traks)
	if trak == nil {
		return nil, ErrNoVideo
	}
	if trak.Tkhd == nil {
		return nil, fmt.Errorf("no tkhd box found")
	}
	trackID := trak.Tkhd.TrackID

	var trex *mp4.TrexBox
	if mp4File.Init.Moov.Mvex != nil {
		for _, t := range mp4File.Init.Moov.Mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}

	tr := describe(trak)
	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd == nil || traf.Tfhd.TrackID != trackID {
					continue
				}
				full, err := frag.GetFullSamples(trex)
				if err != nil {
					return nil, fmt.Errorf("get samples: %w", err)
				}
				for _, fs := range full {
					tr.samples = append(tr.samples, sample{
						decodeTime: fs.DecodeTime,
						ctsOffset:  fs.CompositionTimeOffset,
						pos:        -1,
						sync:       fs.IsSync(),
					})
				}
			}
		}
	}
	return tr, nil
}

// index converts the track to index records in decode order with a time base
// of one media tick.
func (t *track) index() (lwindex.StreamInfo, []lwindex.Frame) {
	info := lwindex.StreamInfo{
		Codec:       codecIDs[t.codec],
		TimeBaseNum: 1,
		TimeBaseDen: int64(t.timescale),
		Width:       t.width,
		Height:      t.height,
		Format:      pixelFormat,
		ColorSpace:  2,
	}
	frames := make([]lwindex.Frame, len(t.samples))
	for i, s := range t.samples {
		dts := int64(s.decodeTime)
		frames[i] = lwindex.Frame{
			Pos:    s.pos,
			PTS:    dts + int64(s.ctsOffset),
			DTS:    dts,
			Key:    s.sync,
			Repeat: 1,
		}
	}
	return info, frames
}
