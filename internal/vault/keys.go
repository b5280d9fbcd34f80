package vault

import (
	"fmt"
	"strings"
)

// validateKey rejects keys that could escape a vault root or address a
// directory.
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/") {
		return fmt.Errorf("invalid vault key %q", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("invalid vault key %q", key)
		}
	}
	return nil
}
