package pipeline

import (
	"distiller/internal/shared/util"
	"io"
	"path"
	"path/filepath"
	"strings"
)

// OutputSuffix is appended to the input path when one file is written per
// input.
const OutputSuffix = ".distilled.txt"

// WriteCombined writes every successful output to w in input order.
func WriteCombined(w io.Writer, results []*Result) error {
	for _, res := range results {
		if res == nil || !res.OK() {
			continue
		}
		if _, err := io.WriteString(w, res.Output); err != nil {
			return err
		}
	}
	return nil
}

// WritePerFile mirrors each successful result under dir and returns the
// written paths.
func WritePerFile(dir string, results []*Result) ([]string, error) {
	var written []string
	for _, res := range results {
		if res == nil || !res.OK() {
			continue
		}
		target := filepath.Join(dir, filepath.FromSlash(outputName(res.Path)))
		if err := util.WriteStringWithDirs(target, res.Output, 0o644); err != nil {
			return written, err
		}
		written = append(written, target)
	}
	return written, nil
}

// outputName keeps a display path inside the output directory.
func outputName(display string) string {
	clean := path.Clean("/" + strings.ReplaceAll(display, "\\", "/"))
	clean = strings.TrimPrefix(clean, "/")
	if i := strings.Index(clean, ":"); i >= 0 {
		clean = clean[i+1:]
	}
	return strings.TrimPrefix(clean, "/") + OutputSuffix
}
