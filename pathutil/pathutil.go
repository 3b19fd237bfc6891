// Package pathutil normalizes filesystem paths the way PipeForge pipelines
// expect: home-dir expansion, separator normalization, and relative-to-
// absolute resolution.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Normalize performs full normalization of p:
//   - "~", "~/..." or "~\..." has its prefix replaced with the user's home
//     directory.
//   - The alternate path separator is replaced with the platform separator.
//   - If the result is relative, it is joined onto base (the current
//     working directory if base is empty).
//   - "." and ".." segments are resolved to an absolute canonical form.
//
// Empty or whitespace-only input is returned unchanged.
func Normalize(p string, base string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return p, nil
	}

	expanded, err := expandHome(p)
	if err != nil {
		return "", err
	}

	expanded = normalizeSeparators(expanded)

	if !filepath.IsAbs(expanded) {
		if base == "" {
			base, err = os.Getwd()
			if err != nil {
				return "", err
			}
		}
		expanded = filepath.Join(base, expanded)
	}

	return filepath.Clean(expanded), nil
}

// NormalizeSeparators replaces the alternate path separator with the
// platform separator but leaves the path relative and unresolved.
// Empty input ("") is returned unchanged, matching the "null input returns
// null" rule from a nil-aware caller's perspective.
func NormalizeSeparators(p string) string {
	if p == "" {
		return p
	}
	return normalizeSeparators(p)
}

func normalizeSeparators(p string) string {
	alt := '/'
	if filepath.Separator == '/' {
		alt = '\\'
	}
	return strings.ReplaceAll(p, string(alt), string(filepath.Separator))
}

// expandHome replaces a leading "~", "~/" or "~\" with the user's home
// directory. Paths not starting with "~" are returned unchanged.
func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, `~\`) {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if p == "~" {
		return home, nil
	}
	return filepath.Join(home, p[2:]), nil
}
