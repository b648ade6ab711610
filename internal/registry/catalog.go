package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk layout of a seed catalog.
type catalogFile struct {
	Activities Catalog `yaml:"activities"`
}

// Validate checks that names are unique and non-empty, capacities are
// positive and no activity lists the same email twice.
func (c Catalog) Validate() error {
	seen := make(map[string]struct{}, len(c))
	var errs []error
	for i, e := range c {
		if strings.TrimSpace(e.Name) == "" {
			errs = append(errs, fmt.Errorf("activity #%d: name is required", i+1))
			continue
		}
		if _, dup := seen[e.Name]; dup {
			errs = append(errs, fmt.Errorf("activity %q: duplicate name", e.Name))
		}
		seen[e.Name] = struct{}{}

		if e.MaxParticipants <= 0 {
			errs = append(errs, fmt.Errorf("activity %q: max_participants must be positive", e.Name))
		}
		emails := make(map[string]struct{}, len(e.Participants))
		for _, p := range e.Participants {
			if _, dup := emails[p]; dup {
				errs = append(errs, fmt.Errorf("activity %q: participant %s listed twice", e.Name, p))
			}
			emails[p] = struct{}{}
		}
	}
	return errors.Join(errs...)
}

// LoadCatalog reads a YAML seed catalog from path.
func LoadCatalog(path string) (Catalog, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(content, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(f.Activities) == 0 {
		return nil, fmt.Errorf("catalog %s: no activities defined", path)
	}
	if err := f.Activities.Validate(); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return f.Activities, nil
}

// WriteCatalog writes c to path as YAML atomically: the data goes to a
// temporary file first and is renamed over the target.
func WriteCatalog(path string, c Catalog) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	bytes, err := yaml.Marshal(catalogFile{Activities: c})
	if err != nil {
		return err
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, bytes, 0644); err != nil {
		return err
	}
	return os.Rename(tempPath, path)
}
