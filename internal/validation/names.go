package validation

import (
	"regexp"
	"strings"
)

var (
	segmentPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	fileNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+\.[A-Za-z0-9]+$`)
)

// IsValidComponentName reports whether name can be used as a registry key.
//
// Names are namespaced with forward slashes ("ui/inputs/TextInput"). Every
// segment must be a non-empty run of letters, digits, hyphens or underscores,
// so "//", a leading or trailing slash, dots and whitespace are all rejected.
func IsValidComponentName(name string) bool {
	if name == "" {
		return false
	}

	if strings.Contains(name, "//") || strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return false
	}

	for _, segment := range strings.Split(name, "/") {
		if !segmentPattern.MatchString(segment) {
			return false
		}
	}

	return true
}

// IsValidFileName reports whether name is a plain "stem.ext" file name with no
// directory components.
func IsValidFileName(name string) bool {
	if strings.ContainsRune(name, 0) || strings.Contains(name, "..") {
		return false
	}

	return fileNamePattern.MatchString(name)
}
