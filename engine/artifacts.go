package engine

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pipeforge/pipeforge/pipeline"
)

// collectArtifacts resolves each variable-substituted glob pattern against
// workDir (when relative) and returns the matching ArtifactInfo entries,
// alongside the flat list of matched paths recorded on the StepResult.
func collectArtifacts(patterns []string, workDir, stepName string, vars map[string]string) ([]pipeline.ArtifactInfo, []string) {
	var infos []pipeline.ArtifactInfo
	var paths []string

	for _, resolved := range substituteAll(patterns, vars) {
		if resolved == "" {
			continue
		}
		pattern := resolved
		if !filepath.IsAbs(pattern) && workDir != "" {
			pattern = filepath.Join(workDir, pattern)
		}

		matches, err := globWithDoubleStar(pattern)
		if err != nil {
			continue
		}
		for _, m := range matches {
			fi, err := os.Stat(m)
			if err != nil || fi.IsDir() {
				continue
			}
			abs, err := filepath.Abs(m)
			if err != nil {
				abs = m
			}
			infos = append(infos, pipeline.ArtifactInfo{
				Path:      abs,
				StepName:  stepName,
				SizeBytes: fi.Size(),
				CreatedAt: fi.ModTime(),
			})
			paths = append(paths, abs)
		}
	}

	return infos, paths
}

// globWithDoubleStar resolves pattern, supporting a single "**" path segment
// meaning "this directory and every subdirectory beneath it" (spec.md §9,
// "Artifact globbing"), in addition to plain filepath.Glob patterns.
// A nonexistent base directory yields zero matches and no error.
func globWithDoubleStar(pattern string) ([]string, error) {
	slashPattern := filepath.ToSlash(pattern)
	idx := strings.Index(slashPattern, "**")
	if idx < 0 {
		return filepath.Glob(pattern)
	}

	base := strings.TrimSuffix(slashPattern[:idx], "/")
	if base == "" {
		base = "."
	}
	suffix := strings.TrimPrefix(slashPattern[idx+2:], "/")
	if suffix == "" {
		suffix = "*"
	}

	var matches []string
	_ = filepath.WalkDir(filepath.FromSlash(base), func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(filepath.FromSlash(base), p)
		if err != nil {
			return nil
		}
		if matchSuffix(suffix, filepath.ToSlash(rel)) {
			matches = append(matches, p)
		}
		return nil
	})
	return matches, nil
}

// matchSuffix matches a "**"-trailing glob suffix against either the full
// path relative to the recursion root (for suffixes naming a nested
// directory, e.g. "bin/*.exe") or just the file's base name (for the common
// "**/<glob>" case, which should match at any depth).
func matchSuffix(suffix, relSlash string) bool {
	if ok, err := filepath.Match(suffix, relSlash); err == nil && ok {
		return true
	}
	ok, err := filepath.Match(suffix, filepath.Base(relSlash))
	return err == nil && ok
}
