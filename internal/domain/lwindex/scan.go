package lwindex

import (
	"fmt"
	"strconv"
	"strings"
)

// fieldScanner walks a "Name=value,Name=value" line left to right. Like a
// regular expression anchored only at the start, it ignores whatever follows
// the last field it is asked for.
type fieldScanner struct {
	line string
	pos  int
	err  error
}

func (s *fieldScanner) fail(format string, args ...any) {
	if s.err == nil {
		s.err = fmt.Errorf(format, args...)
	}
}

// key consumes "name=", preceded by a comma unless it is the first field.
func (s *fieldScanner) key(name string) {
	if s.err != nil {
		return
	}
	if s.pos > 0 {
		if s.pos >= len(s.line) || s.line[s.pos] != ',' {
			s.fail("expected ',' before %s", name)
			return
		}
		s.pos++
	}
	want := name + "="
	if len(s.line)-s.pos < len(want) || s.line[s.pos:s.pos+len(want)] != want {
		s.fail("expected %s", want)
		return
	}
	s.pos += len(want)
}

// span consumes the longest run of bytes accepted by ok; it must be non-empty.
func (s *fieldScanner) span(name string, ok func(c byte) bool) string {
	if s.err != nil {
		return ""
	}
	start := s.pos
	for s.pos < len(s.line) && ok(s.line[s.pos]) {
		s.pos++
	}
	if s.pos == start {
		s.fail("empty value for %s", name)
	}
	return s.line[start:s.pos]
}

func (s *fieldScanner) parseInt(name, v string) int64 {
	if s.err != nil {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		s.fail("%s: %w", name, err)
	}
	return n
}

// signed reads name=-?[0-9]+.
func (s *fieldScanner) signed(name string) int64 {
	s.key(name)
	if s.err != nil {
		return 0
	}
	start := s.pos
	if s.pos < len(s.line) && s.line[s.pos] == '-' {
		s.pos++
	}
	s.span(name, isDigit)
	if s.err != nil {
		return 0
	}
	return s.parseInt(name, s.line[start:s.pos])
}

// unsigned reads name=[0-9]+.
func (s *fieldScanner) unsigned(name string) int64 {
	s.key(name)
	return s.parseInt(name, s.span(name, isDigit))
}

func (s *fieldScanner) alnum(name string) string {
	s.key(name)
	return s.span(name, isAlnum)
}

func (s *fieldScanner) ratio(name string) (int64, int64) {
	s.key(name)
	v := s.span(name, func(c byte) bool { return isDigit(c) || c == '/' })
	if s.err != nil {
		return 0, 0
	}
	num, den, ok := strings.Cut(v, "/")
	if !ok || num == "" || den == "" || strings.Contains(den, "/") {
		s.fail("%s: malformed ratio %q", name, v)
		return 0, 0
	}
	return s.parseInt(name, num), s.parseInt(name, den)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlnum(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func scanStreamInfo(line string) (StreamInfo, error) {
	s := fieldScanner{line: line}
	var info StreamInfo
	info.Codec = s.unsigned("Codec")
	info.TimeBaseNum, info.TimeBaseDen = s.ratio("TimeBase")
	info.Width = s.unsigned("Width")
	info.Height = s.unsigned("Height")
	info.Format = s.alnum("Format")
	info.ColorSpace = s.unsigned("ColorSpace")
	return info, s.err
}

// scanPosition reads the first line of a frame record.
func scanPosition(line string, f *Frame) error {
	s := fieldScanner{line: line}
	f.Stream = s.signed("Index")
	f.Pos = s.signed("POS")
	f.PTS = s.signed("PTS")
	f.DTS = s.signed("DTS")
	f.EDI = s.signed("EDI")
	return s.err
}

// scanPicture reads the second line of a frame record.
func scanPicture(line string, f *Frame) error {
	s := fieldScanner{line: line}
	key := s.signed("Key")
	f.Pic = s.signed("Pic")
	f.POC = s.signed("POC")
	f.Repeat = s.signed("Repeat")
	f.Field = s.signed("Field")
	f.Key = key != 0
	return s.err
}
