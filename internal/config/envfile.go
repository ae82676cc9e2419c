package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnvFile reads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. An empty path falls back
// to ~/.config/clipwatch/clipwatch.env, which may be absent. An explicit path
// must exist. The returned bool reports whether a file was applied.
func LoadEnvFile(path string) (string, bool, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = defaultEnvFilePath
	}
	resolved, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(resolved); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return resolved, false, nil
		}
		return resolved, false, fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(resolved); err != nil {
		return resolved, false, fmt.Errorf("load env file %s: %w", resolved, err)
	}
	return resolved, true, nil
}
