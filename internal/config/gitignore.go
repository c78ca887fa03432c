package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// gitignoreContent keeps ledger data and logs out of version control while
// the project config stays tracked.
const gitignoreContent = `# carbonledger project-local data (auto-generated)
# Config is tracked; the ledger is personal.
ledger.json
ledger.json.lock
ledger.json.tmp
ledger.db
*.log
*.prom
`

// GitignoreContent returns the .gitignore written into project directories.
func GitignoreContent() string {
	return gitignoreContent
}

// EnsureGitignore creates dir/.gitignore unless one exists and reports
// whether it did. An existing file is never overwritten.
func EnsureGitignore(dir string) (bool, error) {
	gitignorePath := filepath.Join(dir, ".gitignore")

	_, err := os.Stat(gitignorePath)
	if err == nil {
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("checking .gitignore at %s: %w", gitignorePath, err)
	}

	if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
		return false, fmt.Errorf("creating directory %s: %w", dir, mkdirErr)
	}

	//nolint:gosec // .gitignore must be world-readable (0644).
	if writeErr := os.WriteFile(gitignorePath, []byte(gitignoreContent), 0o644); writeErr != nil {
		return false, fmt.Errorf("writing .gitignore at %s: %w", gitignorePath, writeErr)
	}
	return true, nil
}
