package functions

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Unit is one independently deployable function. Internal units are
// infrastructure shared by other functions and are never deployed.
type Unit struct {
	Name     string `json:"name"`
	Internal bool   `json:"internal,omitempty"`
}

// Registry lists the deployable units for a project
type Registry interface {
	Units() ([]Unit, error)
}

// manifestSchema validates functions.json before it is trusted
const manifestSchema = `{
  "type": "object",
  "required": ["functions"],
  "properties": {
    "functions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "internal": {"type": "boolean"}
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`

type manifest struct {
	Functions []Unit `json:"functions"`
}

// ManifestRegistry reads units from an explicit functions.json manifest
type ManifestRegistry struct {
	Path string
}

// NewManifestRegistry creates a Registry backed by the manifest at path
func NewManifestRegistry(path string) *ManifestRegistry {
	return &ManifestRegistry{Path: path}
}

// Units returns the manifest's units after schema validation
func (r *ManifestRegistry) Units() ([]Unit, error) {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", r.Path, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(manifestSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to validate manifest %s: %w", r.Path, err)
	}
	if !result.Valid() {
		var msgs []string
		for _, issue := range result.Errors() {
			msgs = append(msgs, issue.String())
		}
		return nil, fmt.Errorf("manifest %s is invalid: %s", r.Path, strings.Join(msgs, "; "))
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", r.Path, err)
	}

	return m.Functions, nil
}

// DirectoryRegistry discovers units by listing a functions directory.
// Directories whose names start with an underscore are internal by
// convention. Retained for projects that have no manifest yet.
type DirectoryRegistry struct {
	Dir string
}

// NewDirectoryRegistry creates a Registry that scans dir
func NewDirectoryRegistry(dir string) *DirectoryRegistry {
	return &DirectoryRegistry{Dir: dir}
}

// Units lists one unit per subdirectory, sorted by name
func (r *DirectoryRegistry) Units() ([]Unit, error) {
	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list functions directory %s: %w", r.Dir, err)
	}

	var units []Unit
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := filepath.Base(entry.Name())
		units = append(units, Unit{
			Name:     name,
			Internal: strings.HasPrefix(name, "_"),
		})
	}

	sort.Slice(units, func(i, j int) bool { return units[i].Name < units[j].Name })
	return units, nil
}
