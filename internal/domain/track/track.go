// Package track provides the Track domain entity.
package track

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// SupportedExtensions lists the file extensions the player accepts.
// Extensions are lowercase and include the leading dot.
var SupportedExtensions = map[string]bool{
	".mp3":  true,
	".ogg":  true,
	".wav":  true,
	".flac": true,
	".m4a":  true,
}

// Track represents a single playable audio file.
type Track struct {
	Path     string         // Absolute file path
	Ext      string         // Lowercase extension, including the dot
	Duration *time.Duration // Probed duration, nil until known
}

// New creates a Track from a file path.
func New(path string) Track {
	return Track{
		Path: path,
		Ext:  strings.ToLower(filepath.Ext(path)),
	}
}

// Supported reports whether the path has a supported audio extension.
func Supported(path string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Stem returns the file name without directory or extension.
func (t Track) Stem() string {
	base := filepath.Base(t.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DisplayName returns the stem truncated to limit runes.
func (t Track) DisplayName(limit int) string {
	return Truncate(t.Stem(), limit)
}

// Truncate shortens s to at most n runes, ending with "..." when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// FormatClock formats a duration as "MM:SS". Negative or zero-valued
// durations render as "00:00".
func FormatClock(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// naturalToken is one chunk of a natural sort key: either a number or a
// lowercased text run.
type naturalToken struct {
	num   int64
	text  string
	isNum bool
}

func naturalKey(s string) []naturalToken {
	var tokens []naturalToken
	var cur strings.Builder
	var curDigits bool

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		chunk := cur.String()
		if curDigits {
			n, err := strconv.ParseInt(chunk, 10, 64)
			if err == nil {
				tokens = append(tokens, naturalToken{num: n, isNum: true})
				cur.Reset()
				return
			}
		}
		tokens = append(tokens, naturalToken{text: strings.ToLower(chunk)})
		cur.Reset()
	}

	for _, r := range s {
		isDigit := unicode.IsDigit(r)
		if cur.Len() > 0 && isDigit != curDigits {
			flush()
		}
		curDigits = isDigit
		cur.WriteRune(r)
	}
	flush()
	return tokens
}

// NaturalLess compares two paths by the natural order of their stems, so
// "track2" sorts before "track10".
func NaturalLess(a, b Track) bool {
	ka, kb := naturalKey(a.Stem()), naturalKey(b.Stem())
	for i := 0; i < len(ka) && i < len(kb); i++ {
		ta, tb := ka[i], kb[i]
		switch {
		case ta.isNum && tb.isNum:
			if ta.num != tb.num {
				return ta.num < tb.num
			}
		case ta.isNum != tb.isNum:
			// Numbers sort before text, matching digit-aware ordering.
			return ta.isNum
		default:
			if ta.text != tb.text {
				return ta.text < tb.text
			}
		}
	}
	return len(ka) < len(kb)
}
