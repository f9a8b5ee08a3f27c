package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// EnvironmentConfig describes one named environment from prodsync.toml
type EnvironmentConfig struct {
	ProjectRef  string `toml:"project_ref"`
	DatabaseURL string `toml:"database_url"`
}

// Config is the file-level configuration. It is constructed once at startup
// and passed by reference into every component; nothing reads it as ambient
// state.
type Config struct {
	BackupRoot        string                       `toml:"backup_root"`
	SourceBranch      string                       `toml:"source_branch"`
	TargetBranch      string                       `toml:"target_branch"`
	FunctionsDir      string                       `toml:"functions_dir"`
	FunctionsManifest string                       `toml:"functions_manifest"`
	Environments      map[string]EnvironmentConfig `toml:"environments"`

	ConfigFilePath string `toml:"-"`
}

// Defaults applied before the file and environment layers
const (
	DefaultBackupRoot   = "backups"
	DefaultSourceBranch = "main"
	DefaultTargetBranch = "realproduction"
	DefaultFunctionsDir = "supabase/functions"
)

// LoadConfig finds prodsync.toml by walking up from the working directory,
// stopping at a project-root marker. A missing file is not an error; the
// caller gets defaults that the environment layer can still fill in.
func LoadConfig() (*Config, error) {
	startDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	config := &Config{
		BackupRoot:   DefaultBackupRoot,
		SourceBranch: DefaultSourceBranch,
		TargetBranch: DefaultTargetBranch,
		FunctionsDir: DefaultFunctionsDir,
	}

	dir := startDir
	for {
		configPath := filepath.Join(dir, "prodsync.toml")
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, err
			}

			if err := toml.Unmarshal(data, config); err != nil {
				return nil, err
			}

			config.ConfigFilePath = configPath
			return config, nil
		}

		if isProjectRoot(dir) {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return config, nil
}

// ConfigDir returns the directory holding prodsync.toml, or "" when the
// config came entirely from defaults
func (c *Config) ConfigDir() string {
	if c.ConfigFilePath == "" {
		return ""
	}
	return filepath.Dir(c.ConfigFilePath)
}

// isProjectRoot checks if the directory is a project root based on common markers
func isProjectRoot(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "package.json")); err == nil {
		return true
	}
	return false
}
