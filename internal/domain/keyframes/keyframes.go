// Package keyframes reads and writes keyframe lists in the host's
// "keyframe format v1" text format.
package keyframes

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	header  = "# keyframe format v1"
	fpsLine = "fps 0"
)

// ErrFormat is wrapped by every error Read returns for a malformed file.
var ErrFormat = errors.New("invalid keyframes file")

// Write emits the header, an "fps 0" line and one frame number per line.
func Write(w io.Writer, keyframes []int) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(header + "\n")
	bw.WriteString(fpsLine + "\n")
	for _, n := range keyframes {
		bw.WriteString(strconv.Itoa(n))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Save overwrites path with the keyframe list.
func Save(path string, keyframes []int) error {
	var buf bytes.Buffer
	if err := Write(&buf, keyframes); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Read parses a keyframe format v1 file. Blank lines and "#" comments after the
// header are skipped; the fps value is ignored.
func Read(r io.Reader) ([]int, error) {
	sc := bufio.NewScanner(r)
	line := 0
	skipComments := false
	next := func() (string, bool) {
		for sc.Scan() {
			line++
			s := strings.TrimSpace(sc.Text())
			if s != "" && !(skipComments && strings.HasPrefix(s, "#")) {
				return s, true
			}
		}
		return "", false
	}

	if s, ok := next(); !ok || s != header {
		return nil, fmt.Errorf("%w: missing %q header", ErrFormat, header)
	}
	skipComments = true
	if s, ok := next(); !ok || !strings.HasPrefix(s, "fps ") {
		return nil, fmt.Errorf("%w: missing fps line", ErrFormat)
	}

	out := []int{}
	for {
		s, ok := next()
		if !ok {
			break
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: line %d: bad frame number %q", ErrFormat, line, s)
		}
		out = append(out, n)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Load reads the keyframe file at path.
func Load(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
