package utils

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// RecoverFilename repairs multipart filenames whose UTF-8 bytes were decoded
// as Latin-1 somewhere upstream, and transcodes raw Latin-1 bytes to UTF-8.
// Names that are already clean are returned unchanged.
func RecoverFilename(name string) string {
	if !utf8.ValidString(name) {
		decoded, err := charmap.ISO8859_1.NewDecoder().String(name)
		if err != nil {
			return name
		}
		return decoded
	}

	hasHigh := false
	for _, r := range name {
		if r > 0xFF {
			return name
		}
		if r >= 0x80 {
			hasHigh = true
		}
	}
	if !hasHigh {
		return name
	}

	raw, err := charmap.ISO8859_1.NewEncoder().String(name)
	if err != nil || !utf8.ValidString(raw) {
		return name
	}
	return raw
}

// CleanFilename strips directory components and surrounding whitespace.
func CleanFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
