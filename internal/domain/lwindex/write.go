package lwindex

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Write serialises info and frames, in the given order, as an index that Parse
// accepts. source is recorded in the header for humans and may be empty.
func Write(w io.Writer, source string, info StreamInfo, frames []Frame) error {
	if err := info.validate(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, indexFileHeader)
	fmt.Fprintf(bw, "<InputFilePath>%s</InputFilePath>\n", strings.ReplaceAll(source, "\n", " "))
	fmt.Fprintln(bw, "<LibavReaderIndex=0x00000208,0,marker>")
	fmt.Fprintln(bw, "<ActiveVideoStreamIndex>+0000000000</ActiveVideoStreamIndex>")
	fmt.Fprintln(bw, "<ActiveAudioStreamIndex>-0000000001</ActiveAudioStreamIndex>")
	fmt.Fprintln(bw, streamInfoOpen)
	fmt.Fprintf(bw, "Codec=%d,TimeBase=%d/%d,Width=%d,Height=%d,Format=%s,ColorSpace=%d\n",
		info.Codec, info.TimeBaseNum, info.TimeBaseDen, info.Width, info.Height, info.Format, info.ColorSpace)
	fmt.Fprintln(bw, streamInfoEnd)
	for _, f := range frames {
		key := 0
		if f.Key {
			key = 1
		}
		fmt.Fprintf(bw, "Index=%d,POS=%d,PTS=%d,DTS=%d,EDI=%d\n", f.Stream, f.Pos, f.PTS, f.DTS, f.EDI)
		fmt.Fprintf(bw, "Key=%d,Pic=%d,POC=%d,Repeat=%d,Field=%d\n", key, f.Pic, f.POC, f.Repeat, f.Field)
	}
	fmt.Fprintln(bw, readerIndexEnd)
	fmt.Fprintln(bw, indexFileEnd)
	return bw.Flush()
}

// WriteFile writes the index to path through a temporary file in the same
// directory, so readers never see a half-written index.
func WriteFile(path, source string, info StreamInfo, frames []Frame) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, source, info, frames); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (i StreamInfo) validate() error {
	switch {
	case i.Codec < 0, i.Width < 0, i.Height < 0, i.ColorSpace < 0:
		return fmt.Errorf("lwindex: stream info fields must be non-negative: %+v", i)
	case i.TimeBaseNum <= 0 || i.TimeBaseDen <= 0:
		return fmt.Errorf("lwindex: invalid time base %d/%d", i.TimeBaseNum, i.TimeBaseDen)
	case i.Format == "":
		return fmt.Errorf("lwindex: empty pixel format")
	}
	for j := 0; j < len(i.Format); j++ {
		if !isAlnum(i.Format[j]) {
			return fmt.Errorf("lwindex: pixel format %q is not alphanumeric", i.Format)
		}
	}
	return nil
}
