package remote

import "strings"

// JoinNonEmpty joins the non-blank parts with sep.
func JoinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// Prefixed renders tokens as "#a #b" / "@a @b".
func Prefixed(symbol string, tokens []string) string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimLeft(strings.TrimSpace(t), symbol)
		if t != "" {
			out = append(out, symbol+t)
		}
	}
	return strings.Join(out, " ")
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max]))
}

// FirstLine returns the first non-empty line of s, truncated to max runes.
func FirstLine(s string, max int) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return Truncate(line, max)
		}
	}
	return ""
}
