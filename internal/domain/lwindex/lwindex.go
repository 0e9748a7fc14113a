// Package lwindex reads and writes the subset of the LWLibav .lwi index format
// needed to recover frame timing and keyframes.
package lwindex

import (
	"errors"
	"fmt"
)

const (
	streamInfoOpen  = "<StreamInfo=0,0>"
	streamInfoEnd   = "</StreamInfo>"
	readerIndexEnd  = "</LibavReaderIndex>"
	indexFileHeader = "<LibavReaderIndexFile=18>"
	indexFileEnd    = "</LibavReaderIndexFile>"
)

// ErrFormat is wrapped by every FormatError.
var ErrFormat = errors.New("invalid lwindex format")

// FormatError reports input that does not follow the index schema.
type FormatError struct {
	Line   int // 1-based, 0 when the problem is not tied to one line
	Text   string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%v: line %d: %s: %q", ErrFormat, e.Line, e.Reason, e.Text)
	}
	return fmt.Sprintf("%v: %s", ErrFormat, e.Reason)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

// StreamInfo is the video stream description preceding the frame records.
type StreamInfo struct {
	Codec       int64
	TimeBaseNum int64
	TimeBaseDen int64
	Width       int64
	Height      int64
	Format      string
	ColorSpace  int64
}

// Frame is one coded frame, built from a two-line record.
type Frame struct {
	Stream int64
	Pos    int64
	PTS    int64
	DTS    int64
	EDI    int64

	Key    bool
	Pic    int64
	POC    int64
	Repeat int64
	Field  int64
}

// File is the decoded content of an index, frames in file (decode) order.
type File struct {
	Info   StreamInfo
	Frames []Frame
}
