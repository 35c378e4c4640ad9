package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// addGitignoreEntry appends entry to root/.gitignore unless a line already
// matches it. It reports whether the file changed.
func addGitignoreEntry(root, entry string) (bool, error) {
	entry, err := normalizeGitignoreEntry(entry)
	if err != nil {
		return false, err
	}

	gitignorePath := filepath.Join(root, ".gitignore")
	var existing []byte
	if data, err := os.ReadFile(gitignorePath); err == nil {
		existing = data
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("read .gitignore: %w", err)
	}

	for _, line := range strings.Split(string(existing), "\n") {
		line = strings.TrimSpace(line)
		if line == entry || line == "/"+entry {
			return false, nil
		}
	}

	updated := string(existing)
	if len(updated) > 0 && !strings.HasSuffix(updated, "\n") {
		updated += "\n"
	}
	updated += entry + "\n"
	if err := os.WriteFile(gitignorePath, []byte(updated), 0o644); err != nil {
		return false, fmt.Errorf("write .gitignore: %w", err)
	}
	return true, nil
}

func normalizeGitignoreEntry(entry string) (string, error) {
	clean := filepath.ToSlash(filepath.Clean(strings.TrimSpace(entry)))
	if clean == "." || clean == "" {
		return "", fmt.Errorf("gitignore entry is empty")
	}
	if strings.HasPrefix(clean, "../") || clean == ".." || filepath.IsAbs(entry) {
		return "", fmt.Errorf("gitignore entry %q is outside the project root", entry)
	}
	return strings.TrimPrefix(clean, "./"), nil
}
