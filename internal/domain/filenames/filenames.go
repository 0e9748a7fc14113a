// Package filenames derives the cache and sidecar file names used next to a source video.
package filenames

import (
	"strings"
	"unicode/utf8"
)

const (
	maxCacheNameLen = 254
	cacheExt        = ".lwi"
	keyframesSuffix = "_keyframes.txt"
)

// CacheFile returns a name like the one LWLibavSource would use for the .lwi
// index of path. Long paths keep their tail, which is the part that tells files
// in a shared directory apart. Length is counted in characters; a byte that is
// not valid UTF-8 counts as one character and is copied unchanged.
func CacheFile(path string) string {
	keep := maxCacheNameLen - len(cacheExt)
	if n := charCount(path); n+len(cacheExt) > maxCacheNameLen {
		path = path[charOffset(path, n-keep):]
	}

	var b strings.Builder
	b.Grow(len(path) + len(cacheExt))
	for i := 0; i < len(path); i++ {
		switch c := path[i]; c {
		case '/', '\\', ':':
			b.WriteByte('_')
		default:
			b.WriteByte(c)
		}
	}
	b.WriteString(cacheExt)
	return b.String()
}

func charCount(s string) int {
	n := 0
	for i := 0; i < len(s); n++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return n
}

// charOffset returns the byte offset of the n-th character of s.
func charOffset(s string, n int) int {
	i := 0
	for ; n > 0 && i < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return i
}

// KeyframesFile turns path/to/file.mkv into path/to/file_keyframes.txt.
func KeyframesFile(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		path = path[:i]
	}
	return path + keyframesSuffix
}
