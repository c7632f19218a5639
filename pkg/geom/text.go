package geom

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	htmlTag      = regexp.MustCompile(`<[^>]*>`)
	mdLink       = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdEmphasis   = regexp.MustCompile("(\\*\\*|__|\\*|~~|`)")
	mdLinePrefix = regexp.MustCompile(`^\s*(#{1,6}\s+|[-*+]\s+|>\s?|\d+\.\s+)`)
)

// PlainText reduces the light markdown and HTML that text blocks carry to the
// characters that are actually drawn. List items keep a bullet.
func PlainText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = htmlTag.ReplaceAllString(s, "")
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		bullet := ""
		if m := mdLinePrefix.FindString(line); m != "" {
			t := strings.TrimSpace(m)
			if t == "-" || t == "*" || t == "+" {
				bullet = "• "
			}
			line = line[len(m):]
		}
		line = mdLink.ReplaceAllString(line, "$1")
		line = mdEmphasis.ReplaceAllString(line, "")
		out = append(out, bullet+strings.TrimSpace(line))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// WrapText breaks text into lines of at most maxChars runes. Existing line
// breaks are kept, words are never split unless one alone exceeds the
// limit, and blank lines survive as empty strings.
func WrapText(text string, maxChars int) []string {
	if maxChars < 1 {
		maxChars = 1
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := ""
		for _, w := range words {
			for runeCount(w) > maxChars {
				if cur != "" {
					lines = append(lines, cur)
					cur = ""
				}
				head, rest := splitRunes(w, maxChars)
				lines = append(lines, head)
				w = rest
			}
			switch {
			case cur == "":
				cur = w
			case runeCount(cur)+1+runeCount(w) <= maxChars:
				cur += " " + w
			default:
				lines = append(lines, cur)
				cur = w
			}
		}
		if cur != "" {
			lines = append(lines, cur)
		}
	}
	return lines
}

// Truncate shortens s to at most maxRunes runes, ending in an ellipsis when
// anything was cut.
func Truncate(s string, maxRunes int) string {
	if maxRunes < 1 || runeCount(s) <= maxRunes {
		return s
	}
	if maxRunes == 1 {
		return "…"
	}
	head, _ := splitRunes(s, maxRunes-1)
	return strings.TrimRight(head, " ") + "…"
}

// TextWidth estimates the drawn width of s at the given font size.
func TextWidth(s string, fontSize float64) float64 {
	return float64(runeCount(s)) * fontSize * CharWidthRatio
}

func runeCount(s string) int { return utf8.RuneCountInString(s) }

func splitRunes(s string, n int) (string, string) {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], s[pos:]
		}
		i++
	}
	return s, ""
}
