package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type ResolvedPaths struct {
	ProjectRoot string
	ConfigFile  string
	CatalogFile string
	OutputPath  string
}

// ResolvePaths anchors the relative paths of cfg. Config-relative values are
// resolved against the directory of configFile when one was loaded, the
// project root otherwise.
func ResolvePaths(cfg *Config, cwd, configFile string) (ResolvedPaths, error) {
	if strings.TrimSpace(cwd) == "" {
		return ResolvedPaths{}, fmt.Errorf("cwd must not be empty")
	}

	projectRoot, err := DetectProjectRoot([]string{cwd})
	if err != nil {
		return ResolvedPaths{}, err
	}

	base := projectRoot
	resolved := ResolvedPaths{ProjectRoot: projectRoot}
	if strings.TrimSpace(configFile) != "" {
		resolved.ConfigFile = ResolveRelative(cwd, configFile)
		base = filepath.Dir(resolved.ConfigFile)
	}
	if cfg.Distill.CatalogFile != "" {
		resolved.CatalogFile = ResolveRelative(base, cfg.Distill.CatalogFile)
	}
	if cfg.Output.Path != "" {
		resolved.OutputPath = ResolveRelative(cwd, cfg.Output.Path)
	}
	return resolved, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// FindConfigFile returns the distiller.toml of the enclosing project, or ""
// when there is none.
func FindConfigFile(cwd string) string {
	root, err := DetectProjectRoot([]string{cwd})
	if err != nil {
		return ""
	}
	candidate := filepath.Join(root, DefaultFileName)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

func DetectProjectRoot(candidates []string) (string, error) {
	markers := []string{
		DefaultFileName,
		".git",
		"pom.xml",
		"build.gradle",
		"pyproject.toml",
		"setup.py",
	}

	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}

		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		root := abs
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			root = filepath.Dir(abs)
		}

		for {
			for _, marker := range markers {
				if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
					return filepath.Clean(root), nil
				}
			}
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Clean(cwd), nil
}
