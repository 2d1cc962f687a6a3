package config

import (
	"fmt"
	"os"
	"strings"
)

// UpsertEnvFile rewrites the given .env file, replacing the value of each
// key in keys (in order) or appending it when absent. Other lines are left
// untouched. A missing file is created.
func UpsertEnvFile(path string, keys []string, values map[string]string) error {
	var lines []string
	if data, err := os.ReadFile(path); err == nil {
		lines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("config: read env file: %w", err)
	}

	seen := make(map[string]bool)
	for i, line := range lines {
		for _, key := range keys {
			if strings.HasPrefix(line, key+"=") {
				lines[i] = fmt.Sprintf("%s=%q", key, values[key])
				seen[key] = true
			}
		}
	}
	for _, key := range keys {
		if !seen[key] {
			lines = append(lines, fmt.Sprintf("%s=%q", key, values[key]))
		}
	}

	out := strings.TrimSpace(strings.Join(lines, "\n")) + "\n"
	if err := os.WriteFile(path, []byte(out), 0o600); err != nil {
		return fmt.Errorf("config: write env file: %w", err)
	}
	return nil
}
