package drive

import (
	"fmt"
	"path"
	"strings"
	"unicode/utf8"
)

const maxNameLength = 255

// forbiddenChars are rejected in any single path component.
const forbiddenChars = `<>:"/\|?*`

// reservedNames are Windows device names, rejected case-insensitively with
// or without an extension so trees stay portable across filesystems.
var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// ValidateName checks a single file or folder name. It returns a
// *ValidationError describing the first violation, or nil.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return &ValidationError{Name: name, Reason: "empty name"}
	}
	// Characters, not bytes: a long Cyrillic or CJK name is still legal.
	if utf8.RuneCountInString(trimmed) > maxNameLength {
		return &ValidationError{Name: trimmed, Reason: "name exceeds 255 characters"}
	}
	if trimmed == "." || trimmed == ".." {
		return &ValidationError{Name: trimmed, Reason: "name is a relative path component"}
	}
	if i := strings.IndexAny(trimmed, forbiddenChars); i >= 0 {
		return &ValidationError{Name: trimmed, Reason: "name contains forbidden character " + string(trimmed[i])}
	}

	// Strip the extension before the reserved-name check: "con.txt" is as
	// unusable on Windows as "CON".
	base := trimmed
	if dot := strings.LastIndex(base, "."); dot > 0 {
		base = base[:dot]
	}
	if _, reserved := reservedNames[strings.ToUpper(base)]; reserved {
		return &ValidationError{Name: trimmed, Reason: "name is a reserved device name"}
	}

	return nil
}

// cleanRelPath normalizes a caller-supplied relative path (a fileID or
// folder path) and rejects anything that would escape the tree root.
// The empty string denotes the root itself.
func cleanRelPath(p string) (string, error) {
	p = strings.Trim(strings.ReplaceAll(p, "\\", "/"), "/")
	if p == "" {
		return "", nil
	}

	cleaned := path.Clean(p)
	if cleaned == "." {
		return "", nil
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", &ValidationError{Name: p, Reason: "path escapes the tree root"}
	}
	return cleaned, nil
}

// suffixedName returns name with " (n)" inserted before the extension.
// A leading dot (hidden files) does not count as an extension separator.
func suffixedName(name string, n int) string {
	dot := strings.LastIndex(name, ".")
	if dot <= 0 {
		return fmt.Sprintf("%s (%d)", name, n)
	}
	return fmt.Sprintf("%s (%d)%s", name[:dot], n, name[dot:])
}
