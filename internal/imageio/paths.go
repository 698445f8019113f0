package imageio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/erinpentecost/restore/internal/logging"
)

// OutputPath names the restored copy of input. Without outDir the copy sits
// next to the input as <name>_restored.jpg; with outDir it is
// <outDir>/<name>.jpg and outDir is created if needed.
func OutputPath(input, outDir string) (string, error) {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if outDir == "" {
		return filepath.Join(filepath.Dir(input), name+"_restored.jpg"), nil
	}
	if err := os.MkdirAll(outDir, 0777); err != nil {
		return "", fmt.Errorf("create output directory %q: %w", outDir, err)
	}
	return filepath.Join(outDir, name+".jpg"), nil
}

// Expand resolves glob patterns to file names, keeping order and dropping
// duplicates. Patterns that match nothing are logged and skipped.
func Expand(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	out := []string{}
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			logging.Logger().Warn("no files match", "pattern", pattern)
		}
		for _, m := range matches {
			if info, err := os.Stat(m); err != nil || info.IsDir() {
				continue
			}
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}
