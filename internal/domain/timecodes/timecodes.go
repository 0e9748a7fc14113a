// Package timecodes writes "timecode format v2" files.
package timecodes

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strconv"
)

const header = "# timecode format v2"

// Write emits the v2 header followed by one millisecond timestamp per frame.
func Write(w io.Writer, timecodes []int64) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(header + "\n")
	for _, ms := range timecodes {
		bw.WriteString(strconv.FormatInt(ms, 10))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Save overwrites path with the timecodes in v2 format.
func Save(path string, timecodes []int64) error {
	var buf bytes.Buffer
	if err := Write(&buf, timecodes); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
