// Package enemy provides definitions and loaders for enemy templates. A
// template holds the per-level base statistics an encounter scales by its
// combat level.
package enemy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultStyleID is the visual style applied to templates that do not
// declare one. Loot drops inherit the style verbatim, defaulted or not.
const DefaultStyleID = "normal"

// Template defines the static properties of an enemy type loaded from YAML.
type Template struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Tier        int    `yaml:"tier"`
	StyleID     string `yaml:"style_id"`
	BaseHP      int    `yaml:"base_hp"`
	BaseAttack  int    `yaml:"base_attack"`
	BaseDefense int    `yaml:"base_defense"`
}

// Stats is one enemy's effective statistics at a specific combat level.
type Stats struct {
	HP      int
	Attack  int
	Defense int
}

// ScaledStats returns the template's base statistics multiplied by the
// combat level. Levels below 1 are treated as 1.
func (t *Template) ScaledStats(level int) Stats {
	if level < 1 {
		level = 1
	}
	return Stats{
		HP:      t.BaseHP * level,
		Attack:  t.BaseAttack * level,
		Defense: t.BaseDefense * level,
	}
}

// Validate checks that the Template satisfies its invariants.
// Precondition: t is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (t *Template) Validate() error {
	var errs []error
	if t.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if t.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if t.Tier < 1 {
		errs = append(errs, errors.New("Tier must be >= 1"))
	}
	if t.StyleID == "" {
		errs = append(errs, errors.New("StyleID must not be empty"))
	}
	if t.BaseHP < 1 {
		errs = append(errs, errors.New("BaseHP must be >= 1"))
	}
	if t.BaseAttack < 1 {
		errs = append(errs, errors.New("BaseAttack must be >= 1"))
	}
	if t.BaseDefense < 0 {
		errs = append(errs, errors.New("BaseDefense must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("enemy template validation failed: %v", errs)
	}
	return nil
}

// LoadTemplates reads all *.yaml files from dir, parses each as a Template,
// applies DefaultStyleID where none is declared, validates it, and returns
// the collected slice.
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid Templates or the first encountered error.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadTemplates: cannot read directory %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadTemplates: cannot read file %q: %w", path, err)
		}
		var tmpl Template
		if err := yaml.Unmarshal(data, &tmpl); err != nil {
			return nil, fmt.Errorf("LoadTemplates: cannot parse file %q: %w", path, err)
		}
		if tmpl.StyleID == "" {
			tmpl.StyleID = DefaultStyleID
		}
		if err := tmpl.Validate(); err != nil {
			return nil, fmt.Errorf("LoadTemplates: invalid template in %q: %w", path, err)
		}
		templates = append(templates, &tmpl)
	}
	return templates, nil
}
