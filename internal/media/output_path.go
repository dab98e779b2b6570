package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// uniquePath returns path if nothing exists there, otherwise the first
// "name (1).ext", "name (2).ext", ... that does not collide. The check is
// best-effort: the peer is the only writer this process expects, so no
// attempt is made to be atomic against a true concurrent creator.
func uniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)

	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
