// Package helpers holds small string utilities shared across the tool.
package helpers

import (
	"strings"
	"unicode"
)

// TruncateString truncates a string to maxLen runes and adds an ellipsis if needed.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// SanitizeCommitMessage strips the quoting and fencing models like to wrap
// around a bare commit message.
func SanitizeCommitMessage(message string) string {
	message = strings.TrimSpace(message)
	message = strings.Trim(message, "\"'`")
	if strings.HasPrefix(message, "```") && strings.HasSuffix(message, "```") {
		lines := strings.Split(message, "\n")
		if len(lines) > 2 {
			message = strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
		}
	}
	message = strings.ReplaceAll(message, "\n\n\n", "\n\n")
	return strings.TrimSpace(message)
}

// SanitizeUnitName reduces free text to a kebab-case identifier of at most
// maxLen bytes. Returns an empty string when nothing survives.
func SanitizeUnitName(s string, maxLen int) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r < 128 && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			lastHyphen = false
		case r == '-' || r == '_' || unicode.IsSpace(r):
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	name := strings.Trim(b.String(), "-")
	if len(name) > maxLen {
		name = strings.Trim(name[:maxLen], "-")
	}
	return name
}

// FirstWords joins up to n leading words of s with hyphens, lowercased.
// Used to derive deterministic fallback unit names from a prompt.
func FirstWords(s string, n int) string {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) > n {
		fields = fields[:n]
	}
	return SanitizeUnitName(strings.Join(fields, "-"), 20)
}
