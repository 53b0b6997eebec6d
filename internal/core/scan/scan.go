// Package scan discovers the source files a batch run distills.
package scan

import (
	"context"
	"distiller/internal/shared/util"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// Detector maps a path to a language id, or "" when no adapter handles it.
// *parser.Parser satisfies it.
type Detector interface {
	DetectLanguage(path string) string
}

type File struct {
	Path     string
	Language string
	// Explicit is set for files named directly rather than found by walking.
	Explicit bool
}

type fileMatcher struct {
	pattern string
	g       glob.Glob
	// onPath patterns match the root-relative path, others the base name.
	onPath bool
}

type Scanner struct {
	detector     Detector
	excludeDirs  map[string]bool
	excludeFiles []fileMatcher
}

func New(detector Detector, excludeDirs, excludeFiles []string) (*Scanner, error) {
	s := &Scanner{
		detector:    detector,
		excludeDirs: make(map[string]bool, len(excludeDirs)),
	}
	for _, dir := range excludeDirs {
		if name := strings.TrimSpace(dir); name != "" {
			s.excludeDirs[name] = true
		}
	}
	for _, pattern := range excludeFiles {
		onPath := util.ContainsPathSeparator(pattern)
		var (
			g   glob.Glob
			err error
		)
		if onPath {
			g, err = glob.Compile(util.NormalizePatternPath(pattern), '/')
		} else {
			g, err = glob.Compile(pattern)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid exclude file pattern %q: %w", pattern, err)
		}
		s.excludeFiles = append(s.excludeFiles, fileMatcher{pattern: pattern, g: g, onPath: onPath})
	}
	return s, nil
}

// SkipDir reports whether a directory with this base name is never entered.
func (s *Scanner) SkipDir(name string) bool {
	return s.excludeDirs[name]
}

// ExcludedFile reports whether path, relative to root, matches an exclude
// pattern.
func (s *Scanner) ExcludedFile(root, path string) bool {
	base := filepath.Base(path)
	rel := util.RelativePatternPath(root, path)
	for _, m := range s.excludeFiles {
		subject := base
		if m.onPath {
			subject = rel
		}
		if m.g.Match(subject) {
			return true
		}
	}
	return false
}

// InExcludedDir reports whether any directory between root and path is
// excluded.
func (s *Scanner) InExcludedDir(root, path string) bool {
	rel := util.RelativePatternPath(root, filepath.Dir(path))
	if rel == "" {
		return false
	}
	for _, part := range strings.Split(rel, "/") {
		if s.excludeDirs[part] {
			return true
		}
	}
	return false
}

// Accept classifies a file found under root. It returns false for excluded
// files and for files no adapter handles.
func (s *Scanner) Accept(root, path string) (File, bool) {
	if s.InExcludedDir(root, path) || s.ExcludedFile(root, path) {
		return File{}, false
	}
	lang := s.detector.DetectLanguage(path)
	if lang == "" {
		return File{}, false
	}
	return File{Path: path, Language: lang}, true
}

// Scan walks roots and returns the distillable files sorted by path. A root
// that is a regular file is always returned, with an empty Language when no
// adapter handles it, so the batch can report it as unsupported.
func (s *Scanner) Scan(ctx context.Context, roots []string) ([]File, error) {
	seen := make(map[string]bool)
	var files []File

	add := func(f File) {
		if seen[f.Path] {
			return
		}
		seen[f.Path] = true
		files = append(files, f)
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(File{Path: filepath.Clean(root), Language: s.detector.DetectLanguage(root), Explicit: true})
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && s.SkipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if f, ok := s.Accept(root, path); ok {
				add(f)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
