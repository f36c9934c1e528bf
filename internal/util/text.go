package util

import "strings"

// NormalizeHeader trims surrounding whitespace and lowercases a column header.
func NormalizeHeader(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

func NormalizeRateType(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

func StringPtr(v string) *string {
	return &v
}

func FloatPtr(v float64) *float64 {
	return &v
}

const maxFilenameRunes = 120

// SanitizeFilename makes a name safe for a Content-Disposition header.
// Long names are cut to maxFilenameRunes characters, never inside a rune.
func SanitizeFilename(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", "\"", "_")
	out := strings.TrimSpace(repl.Replace(input))
	if runes := []rune(out); len(runes) > maxFilenameRunes {
		out = string(runes[:maxFilenameRunes])
	}
	return out
}
