package notify

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

func runeLen(s string) int { return utf8.RuneCountInString(s) }

// utf16Len counts the code units Telegram measures message length in.
func utf16Len(s string) int { return len(utf16.Encode([]rune(s))) }

// split breaks text into pieces no longer than limit as measured by length,
// cutting at line boundaries where possible.
func split(text string, limit int, length func(string) int) []string {
	if length(text) <= limit {
		return []string{text}
	}

	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, strings.TrimRight(cur.String(), "\n"))
			cur.Reset()
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		if length(cur.String())+length(line) <= limit {
			cur.WriteString(line)
			continue
		}
		flush()
		for length(line) > limit {
			head := cutAt(line, limit, length)
			out = append(out, head)
			line = line[len(head):]
		}
		cur.WriteString(line)
	}
	flush()
	return out
}

// cutAt returns the longest prefix of s, on a rune boundary, that fits limit.
func cutAt(s string, limit int, length func(string) int) string {
	if length(s) <= limit {
		return s
	}
	end := 0
	for i := range s {
		if length(s[:i]) > limit {
			break
		}
		end = i
	}
	if end == 0 {
		_, size := utf8.DecodeRuneInString(s)
		return s[:size]
	}
	return s[:end]
}
