package analysis

import (
	"strings"
	"unicode"
)

// LineStats are the raw line metrics reported on every path.
type LineStats struct {
	Total    int
	NonEmpty int
}

// CountLines splits code on \n, \r\n and \r. A trailing terminator does not
// start another line, so "" has zero lines and "a\n" has one.
func CountLines(code string) LineStats {
	var stats LineStats
	for len(code) > 0 {
		end := strings.IndexAny(code, "\r\n")
		line := code
		rest := ""
		if end >= 0 {
			line = code[:end]
			rest = code[end+1:]
			if code[end] == '\r' && strings.HasPrefix(rest, "\n") {
				rest = rest[1:]
			}
		}
		stats.Total++
		if strings.TrimFunc(line, unicode.IsSpace) != "" {
			stats.NonEmpty++
		}
		code = rest
	}
	return stats
}
