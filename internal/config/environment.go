package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Environment is a fully-resolved deployable target. Exactly two instances
// exist per run and neither is mutated after resolution.
type Environment struct {
	Name        string
	ProjectRef  string
	DatabaseURL string
	AccessToken string
}

// Environment variable names recognized by the dotenv and process layers
const (
	envStagingRef     = "SUPABASE_STAGING_REF"
	envProductionRef  = "SUPABASE_PROD_REF"
	envStagingDBURL   = "STAGING_DATABASE_URL"
	envProdDBURL      = "PRODUCTION_DATABASE_URL"
	envAccessToken    = "SUPABASE_ACCESS_TOKEN"
	dotenvFileName    = ".env"
	stagingEnvName    = "staging"
	productionEnvName = "production"
)

// ResolveEnvironments resolves the staging and production environments from
// the layered sources: toml config, then .env next to it, then the process
// environment. Both database URLs must require encrypted transport.
func ResolveEnvironments(config *Config) (source, target *Environment, err error) {
	values := map[string]string{}

	baseDir := config.ConfigDir()
	if baseDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			baseDir = cwd
		}
	}

	dotenvPath := filepath.Join(baseDir, dotenvFileName)
	if info, err := os.Stat(dotenvPath); err == nil && !info.IsDir() {
		values, err = godotenv.Read(dotenvPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", dotenvPath, err)
		}
	}

	// Process environment takes precedence over the dotenv file
	lookup := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return values[key]
	}

	token := lookup(envAccessToken)

	source, err = resolveOne(config, stagingEnvName, envStagingRef, envStagingDBURL, token, lookup)
	if err != nil {
		return nil, nil, err
	}

	target, err = resolveOne(config, productionEnvName, envProductionRef, envProdDBURL, token, lookup)
	if err != nil {
		return nil, nil, err
	}

	return source, target, nil
}

func resolveOne(config *Config, name, refKey, urlKey, token string, lookup func(string) string) (*Environment, error) {
	env := &Environment{Name: name, AccessToken: token}

	if cfg, ok := config.Environments[name]; ok {
		env.ProjectRef = cfg.ProjectRef
		env.DatabaseURL = cfg.DatabaseURL
	}

	if v := lookup(refKey); v != "" {
		env.ProjectRef = v
	}
	if v := lookup(urlKey); v != "" {
		env.DatabaseURL = v
	}

	if env.DatabaseURL == "" {
		return nil, fmt.Errorf("environment %q has no database URL; set %s or configure prodsync.toml", name, urlKey)
	}

	if err := requireEncryptedTransport(env.DatabaseURL); err != nil {
		return nil, fmt.Errorf("environment %q: %w", name, err)
	}

	return env, nil
}

// requireEncryptedTransport rejects connection strings that allow plaintext.
// Cross-region database traffic must always be encrypted.
func requireEncryptedTransport(databaseURL string) error {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return fmt.Errorf("invalid database URL: %w", err)
	}

	sslmode := u.Query().Get("sslmode")
	switch sslmode {
	case "require", "verify-ca", "verify-full":
		return nil
	case "":
		return fmt.Errorf("database URL must set sslmode=require")
	default:
		return fmt.Errorf("database URL sslmode=%s does not guarantee encrypted transport", sslmode)
	}
}

// Validate checks that everything the pipeline needs has been resolved
func (e *Environment) Validate() error {
	var missing []string
	if e.ProjectRef == "" {
		missing = append(missing, "project ref")
	}
	if e.DatabaseURL == "" {
		missing = append(missing, "database URL")
	}
	if e.AccessToken == "" {
		missing = append(missing, "access token")
	}
	if len(missing) > 0 {
		return fmt.Errorf("environment %q is missing: %s", e.Name, strings.Join(missing, ", "))
	}
	return nil
}
