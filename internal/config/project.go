package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/rshade/carbonledger/internal/logging"
)

// ProjectDirName is the name of a project-local configuration directory.
const ProjectDirName = ".carbonledger"

// resolvedProjectDir holds the project directory for the current invocation.
var (
	resolvedProjectDir   string       //nolint:gochecknoglobals // Set once at startup, read by config loaders
	resolvedProjectDirMu sync.RWMutex //nolint:gochecknoglobals // Protects resolvedProjectDir
)

// SetResolvedProjectDir stores the resolved project directory.
func SetResolvedProjectDir(dir string) {
	resolvedProjectDirMu.Lock()
	defer resolvedProjectDirMu.Unlock()
	resolvedProjectDir = dir
}

// GetResolvedProjectDir returns the stored project directory.
func GetResolvedProjectDir() string {
	resolvedProjectDirMu.RLock()
	defer resolvedProjectDirMu.RUnlock()
	return resolvedProjectDir
}

// ResolveProjectDir determines the project-local .carbonledger directory.
// It checks, in order:
//  1. flagValue (--project-dir)
//  2. CARBONLEDGER_PROJECT_DIR
//  3. a .carbonledger directory in startDir or any parent
//
// The result is absolute, or empty when no project applies. Nothing is
// created.
func ResolveProjectDir(flagValue, startDir string) string {
	if flagValue != "" {
		return toAbsProjectDir(flagValue)
	}
	if envDir := os.Getenv("CARBONLEDGER_PROJECT_DIR"); envDir != "" {
		return toAbsProjectDir(envDir)
	}
	if startDir == "" {
		return ""
	}

	dir, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}
	home, _ := os.UserHomeDir()
	for {
		candidate := filepath.Join(dir, ProjectDirName)
		// The global directory under $HOME is not a project.
		if dir != home {
			if info, statErr := os.Stat(candidate); statErr == nil && info.IsDir() {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// NewWithProjectDir returns New() with projectDir/config.yaml shallow-merged
// on top. A missing or malformed project file leaves the global config.
func NewWithProjectDir(ctx context.Context, projectDir string) *Config {
	cfg := New()
	if projectDir == "" {
		return cfg
	}

	overlayPath := filepath.Join(projectDir, "config.yaml")
	if _, err := os.Stat(overlayPath); err != nil {
		return cfg
	}

	merged := New()
	if err := ShallowMergeYAML(merged, overlayPath); err != nil {
		logger := logging.FromContext(ctx)
		logger.Warn().
			Str("component", "config").
			Str("operation", "merge_project_config").
			Err(err).
			Str("overlay_path", overlayPath).
			Msg("failed to merge project config, using global defaults")
		return cfg
	}
	merged.applyEnvOverrides()
	merged.configPath = overlayPath
	return merged
}

// NewProjectConfig returns the configuration written by "config init" inside
// a project: defaults with the ledger kept in the project directory.
func NewProjectConfig(projectDir string) *Config {
	cfg := Default()
	cfg.Store.Path = filepath.Join(projectDir, "ledger.json")
	cfg.configPath = filepath.Join(projectDir, "config.yaml")
	return cfg
}

func toAbsProjectDir(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	if filepath.Base(abs) == ProjectDirName {
		return abs
	}
	return filepath.Join(abs, ProjectDirName)
}
