package assembly

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// writePlaylist writes a concat demuxer list referencing each path by its
// absolute, forward-slash form.
func writePlaylist(listPath string, paths []string) error {
	var b strings.Builder
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		fmt.Fprintf(&b, "file '%s'\n", playlistPath(abs))
	}
	if err := os.MkdirAll(filepath.Dir(listPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(listPath, []byte(b.String()), 0o644)
}

func playlistPath(abs string) string {
	p := strings.ReplaceAll(abs, "\\", "/")
	return strings.ReplaceAll(p, "'", `'\''`)
}
