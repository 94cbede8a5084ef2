package config

import (
	"os"
	"strings"
	"unicode"
)

const badFileName = "_bad_file_name_"

// CleanFileName drops control characters, path separators and characters the
// platform reserves, then trims leading dots and spaces so the result never
// turns into a hidden or relative name.
func CleanFileName(in string) string {
	reserved := reservedNameChars + string(os.PathSeparator) + string(os.PathListSeparator)
	out := strings.TrimLeft(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(reserved, r) {
			return -1
		}
		return r
	}, in), ". ")
	if out == "" {
		return badFileName
	}
	return out
}
