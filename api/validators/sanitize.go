package validators

import (
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SanitizeString trims input, drops control characters and cuts it to at
// most maxLen runes.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(input))
	if maxLen > 0 && utf8.RuneCountInString(cleaned) > maxLen {
		cleaned = string([]rune(cleaned)[:maxLen])
	}
	return cleaned
}

// SanitizeFilename keeps only the base name of a client supplied filename.
func SanitizeFilename(input string, maxLen int) string {
	name := SanitizeString(strings.ReplaceAll(input, `\`, "/"), 0)
	if name == "" {
		return ""
	}
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return SanitizeString(name, maxLen)
}
