package domain

import (
	"path"
	"strings"
)

// PathExcluded reports whether filePath matches any exclusion glob. Globs
// are matched against the POSIX form of the path with any leading ./
// stripped; a trailing /** turns the glob into a directory prefix match.
// Matching is case-sensitive.
func PathExcluded(filePath string, globs []string) bool {
	normalized := normalizeRelPath(filePath)
	for _, glob := range globs {
		pattern := strings.TrimPrefix(strings.TrimSpace(glob), "./")
		if pattern == "" {
			continue
		}
		if base, ok := strings.CutSuffix(pattern, "/**"); ok {
			if normalized == base || strings.HasPrefix(normalized, base+"/") {
				return true
			}
			continue
		}
		if ok, err := path.Match(pattern, normalized); err == nil && ok {
			return true
		}
	}
	return false
}

func normalizeRelPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.TrimPrefix(p, "./")
}
